package recall

import (
	"context"
	"math"

	"github.com/rushteam/mediarec/core"
)

// Collaborative 是协同召回：以高分完结作为种子，拉取
// "看过这部的人也在看"的外部推荐边。
//
// 同一作品被多个种子推荐时按 log(1+rating) 累加权重:
// 对数压低单种子的极端高票，跨种子的叠加才是主要信号。
type Collaborative struct {
	Fetcher RecommendationFetcher
	Config  core.GenerationConfig
}

func (s *Collaborative) Name() string { return string(core.SourceCollaborative) }

func (s *Collaborative) Recall(ctx context.Context, profile *core.UserProfile) ([]*core.Candidate, error) {
	seeds := profile.CompletedByScore(s.Config.CollabSeedMinScore)
	if len(seeds) == 0 {
		// 没有高分完结作时退回最近完结的，保证新用户也有种子
		seeds = profile.CompletedByRecency()
	}
	if len(seeds) > s.Config.CollabSeeds {
		seeds = seeds[:s.Config.CollabSeeds]
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	seedIDs := make([]int64, 0, len(seeds))
	for _, e := range seeds {
		seedIDs = append(seedIDs, e.Media.ID)
	}

	recs, err := s.Fetcher.RecommendationsForSeeds(ctx, seedIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*core.Candidate)
	var order []int64
	for _, seedID := range seedIDs {
		for _, edge := range recs[seedID] {
			weight := math.Log1p(float64(max(edge.Rating, 0)))
			if c, ok := byID[edge.Media.ID]; ok {
				c.CFWeight += weight
				c.AddSeed(seedID)
				continue
			}
			c, err := core.NewCandidate(edge.Media, core.SourceCollaborative)
			if err != nil {
				continue
			}
			c.CFWeight = weight
			c.AddSeed(seedID)
			byID[edge.Media.ID] = c
			order = append(order, edge.Media.ID)
		}
	}

	out := make([]*core.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}
