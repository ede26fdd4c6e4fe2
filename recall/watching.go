package recall

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Watching 是在看相似召回：与内容召回同一套向量/余弦机制，
// 但种子取自 CURRENT 状态条目，用独立的趋势池分页，阈值更严格。
// 这是比泛化内容相似更具体的信号，在 Fanout 中排在内容召回之前，
// 同分时由先到优先保证它胜出。
type Watching struct {
	Fetcher TrendingFetcher
	Config  core.GenerationConfig
}

func (s *Watching) Name() string { return string(core.SourceWatching) }

func (s *Watching) Recall(ctx context.Context, profile *core.UserProfile) ([]*core.Candidate, error) {
	seeds := profile.CurrentEntries()
	if len(seeds) > s.Config.WatchingSeeds {
		seeds = seeds[:s.Config.WatchingSeeds]
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	// 第 2 页：与内容召回的池子错开
	pool, err := s.Fetcher.Trending(ctx, 2, s.Config.TrendingPoolSize)
	if err != nil {
		return nil, err
	}

	return matchByVector(seeds, pool, core.SourceWatching,
		s.Config.WatchingThreshold, s.Config.ContentTopK), nil
}
