package recall

import (
	"context"
	"sort"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/feature"
)

// Content 是内容相似召回：为每个高分完结种子构建词频向量，
// 在趋势池里找余弦相似度过阈值的作品。
// SimScore 取该作品对所有种子的最大相似度，并记录最相似的种子 ID。
type Content struct {
	Fetcher TrendingFetcher
	Config  core.GenerationConfig
}

func (s *Content) Name() string { return string(core.SourceContent) }

func (s *Content) Recall(ctx context.Context, profile *core.UserProfile) ([]*core.Candidate, error) {
	seeds := profile.CompletedByScore(s.Config.ContentSeedMinScore)
	if len(seeds) > s.Config.ContentSeeds {
		seeds = seeds[:s.Config.ContentSeeds]
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	pool, err := s.Fetcher.Trending(ctx, 1, s.Config.TrendingPoolSize)
	if err != nil {
		return nil, err
	}

	return matchByVector(seeds, pool, core.SourceContent,
		s.Config.ContentThreshold, s.Config.ContentTopK), nil
}

// matchByVector 把候选池与种子的词频向量做余弦匹配，
// 按最大相似度降序截断。内容召回与在看召回共用这套机制，
// 只是种子来源、池子分页与阈值不同。
func matchByVector(
	seeds []core.MediaListEntry,
	pool []*core.Media,
	source core.SourceKind,
	threshold float64,
	topK int,
) []*core.Candidate {
	type seedVec struct {
		id  int64
		vec map[string]float64
	}
	vecs := make([]seedVec, 0, len(seeds))
	for _, e := range seeds {
		vecs = append(vecs, seedVec{id: e.Media.ID, vec: feature.BuildVector(e.Media)})
	}

	var out []*core.Candidate
	for _, m := range pool {
		c, err := core.NewCandidate(m, source)
		if err != nil {
			continue
		}
		mv := feature.BuildVector(m)
		best, bestSeed := 0.0, int64(0)
		for _, sv := range vecs {
			if sim := feature.Cosine(mv, sv.vec); sim > best {
				best, bestSeed = sim, sv.id
			}
		}
		if best < threshold {
			continue
		}
		c.SimScore = best
		c.AddSeed(bestSeed)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimScore > out[j].SimScore
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
