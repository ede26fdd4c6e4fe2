package recall

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Source 表示一个可复用的召回源（协同/在看/内容/关联图/趋势兜底）。
// 你可以把它理解为"可并发 fan-out 的策略单元"：输入用户画像，
// 输出带来源标记的候选，互相之间没有依赖。
type Source interface {
	Name() string
	Recall(ctx context.Context, profile *core.UserProfile) ([]*core.Candidate, error)
}

// TrendingFetcher 提供分页的趋势池。内容召回与在看召回各用一页，
// 避免两个召回源在同一个池子里撞车。
type TrendingFetcher interface {
	Trending(ctx context.Context, page, perPage int) ([]*core.Media, error)
}

// RecommendationFetcher 批量拉取"看过 X 的人也在看"的外部推荐边。
type RecommendationFetcher interface {
	RecommendationsForSeeds(ctx context.Context, seedIDs []int64) (map[int64][]core.RecEdge, error)
}
