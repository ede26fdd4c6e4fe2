package recall

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Trending 是兜底召回：直接取趋势池，不做任何个性化。
// 新用户没有任何种子时靠它保证结果非空。
type Trending struct {
	Fetcher TrendingFetcher
	Config  core.GenerationConfig
}

func (s *Trending) Name() string { return string(core.SourceTrending) }

func (s *Trending) Recall(ctx context.Context, _ *core.UserProfile) ([]*core.Candidate, error) {
	pool, err := s.Fetcher.Trending(ctx, 1, s.Config.TrendingPoolSize)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Candidate, 0, len(pool))
	for _, m := range pool {
		c, err := core.NewCandidate(m, core.SourceTrending)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
