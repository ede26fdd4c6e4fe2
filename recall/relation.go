package recall

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Relation 是关联图召回：沿高分完结种子的关联边走一跳，
// 只保留续作/前作/番外这三类强关联目标。
// 关联边随媒体库条目一起抓回，这一路召回不产生任何网络请求。
type Relation struct {
	Config core.GenerationConfig
}

func (s *Relation) Name() string { return string(core.SourceRelation) }

func (s *Relation) Recall(_ context.Context, profile *core.UserProfile) ([]*core.Candidate, error) {
	seeds := profile.CompletedByScore(s.Config.CollabSeedMinScore)
	if len(seeds) > s.Config.RelationSeeds {
		seeds = seeds[:s.Config.RelationSeeds]
	}

	byID := make(map[int64]*core.Candidate)
	var order []int64
	for _, e := range seeds {
		for _, rel := range e.Media.Relations {
			if !rel.Type.IsStrong() || rel.Media == nil {
				continue
			}
			if c, ok := byID[rel.Media.ID]; ok {
				c.AddSeed(e.Media.ID)
				continue
			}
			c, err := core.NewCandidate(rel.Media, core.SourceRelation)
			if err != nil {
				continue
			}
			c.AddSeed(e.Media.ID)
			byID[rel.Media.ID] = c
			order = append(order, rel.Media.ID)
		}
	}

	out := make([]*core.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}
