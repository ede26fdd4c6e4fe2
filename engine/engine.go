package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/explain"
	"github.com/rushteam/mediarec/feature"
	"github.com/rushteam/mediarec/feedback"
	"github.com/rushteam/mediarec/filter"
	"github.com/rushteam/mediarec/pipeline"
	"github.com/rushteam/mediarec/rank"
	"github.com/rushteam/mediarec/recall"
	"github.com/rushteam/mediarec/rerank"
)

// Fetcher 是引擎依赖的上游查询面，api.Queries 是生产实现。
type Fetcher interface {
	UserLibrary(ctx context.Context, userID string) ([]core.MediaListEntry, error)
	UserStatistics(ctx context.Context, userID string) (*core.UserStatistics, error)
	MediaDetail(ctx context.Context, id int64) (*core.Media, error)
	recall.RecommendationFetcher
	recall.TrendingFetcher
}

// Recommendation 是引擎的最终输出单元。
type Recommendation struct {
	Media      *core.Media
	Score      float64  // 元分数，[0,1]
	Final      float64  // MMR 重排后的边际效用值
	Reasons    []string // 权重前三的解释，已做剧透清洗
	Primary    string
	Secondary  []string
	Confidence int
	Sources    []core.SourceKind
	SeedIDs    []int64
}

// Engine 把召回、过滤、打分、重排、解释串成一次完整的推荐调用。
type Engine struct {
	fetcher  Fetcher
	kv       core.Store
	feedback *feedback.Store
	config   *core.EngineConfig
	logger   *slog.Logger
	now      func() time.Time

	extractor *feature.Extractor
	scorer    *rank.Scorer
	mmr       *rerank.MMR
	explainer *explain.Generator
}

// Option 配置 Engine 的可选项。
type Option func(*Engine)

// WithLogger 设置结构化日志器。
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock 注入时间源，测试用。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New 创建推荐引擎。kv 同时承载反馈数据与用户偏好；
// cfg 为 nil 时使用默认配置。
func New(fetcher Fetcher, kv core.Store, cfg *core.EngineConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = core.DefaultEngineConfig()
	}
	e := &Engine{
		fetcher:   fetcher,
		kv:        kv,
		feedback:  feedback.NewStore(kv),
		config:    cfg,
		logger:    slog.Default(),
		now:       time.Now,
		extractor: feature.NewExtractor(cfg),
		scorer:    rank.NewScorer(cfg),
		mmr:       rerank.NewMMR(cfg.MMR),
		explainer: explain.NewGenerator(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend 为用户生成至多 k 条推荐。
//
// 部分降级策略：统计接口失败只降级统计加成，单个召回源失败只少一路
// 召回；仅当所有召回源都失败、或过滤后一个有效候选都不剩时才整体
// 失败（ErrNoCandidates）。
func (e *Engine) Recommend(ctx context.Context, userID string, k int) ([]Recommendation, error) {
	profile, err := e.buildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fanout := &recall.Fanout{
		// 顺序即优先级：在看相似是比泛化内容相似更具体的信号，
		// 去重合并时必须排在它前面
		Sources: []recall.Source{
			&recall.Collaborative{Fetcher: e.fetcher, Config: e.config.Generation},
			&recall.Watching{Fetcher: e.fetcher, Config: e.config.Generation},
			&recall.Content{Fetcher: e.fetcher, Config: e.config.Generation},
			&recall.Relation{Config: e.config.Generation},
			&recall.Trending{Fetcher: e.fetcher, Config: e.config.Generation},
		},
		Logger: e.logger,
	}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{fanout, e.filterNode(profile)}}
	filtered, err := p.Run(ctx, profile, nil)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, core.ErrNoCandidates
	}

	ranked := rank.Rank(filtered, profile, e.now(), e.extractor, e.scorer)

	lambda := e.mmr.Lambda(profile)
	final := e.mmr.Rerank(ranked, k, lambda)

	out := make([]Recommendation, 0, len(final))
	for _, fc := range final {
		exp := e.explainer.Explain(fc, profile)
		out = append(out, Recommendation{
			Media:      fc.Media,
			Score:      fc.Scores.Meta,
			Final:      fc.Final,
			Reasons:    exp.Reasons,
			Primary:    exp.Primary,
			Secondary:  exp.Secondary,
			Confidence: exp.Confidence,
			Sources:    fc.Sources,
			SeedIDs:    fc.SeedIDs,
		})
	}

	e.logger.Info("recommendation run finished",
		"user", userID,
		"filtered", len(filtered),
		"returned", len(out),
		"lambda", lambda)
	return out, nil
}

// buildProfile 并发拉媒体库与口味统计，再灌入反馈与偏好。
// 媒体库是硬依赖，统计失败只降级。
func (e *Engine) buildProfile(ctx context.Context, userID string) (*core.UserProfile, error) {
	profile := core.NewUserProfile(userID)

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		entries, err := e.fetcher.UserLibrary(gctx, userID)
		if err != nil {
			return err
		}
		profile.Entries = entries
		return nil
	})
	eg.Go(func() error {
		stats, err := e.fetcher.UserStatistics(gctx, userID)
		if err != nil {
			e.logger.Warn("user statistics unavailable", "user", userID, "err", err)
			return nil
		}
		profile.Stats = stats
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := e.feedback.ApplyToProfile(ctx, profile); err != nil {
		return nil, err
	}

	prefs, err := e.LoadPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Prefs = prefs
	return profile, nil
}

// filterNode 按画像组装过滤管线，阶段顺序固定。
func (e *Engine) filterNode(profile *core.UserProfile) *filter.Node {
	node := &filter.Node{
		Before: []filter.Filter{
			&filter.TrackedStatus{},
			&filter.Disliked{},
			&filter.Adult{},
		},
		StripSpoiler: e.config.Filtering.StripSpoiler,
		After: []filter.Filter{
			&filter.ExcludedGenres{},
			&filter.ExcludedTags{},
			&filter.ExcludedStudios{},
			&filter.NeverShow{},
		},
	}
	if e.config.Filtering.DropMusic {
		node.Before = append(node.Before, &filter.MusicFormat{})
	}
	if len(profile.Prefs.Rules) > 0 {
		rules, err := filter.NewRules(profile.Prefs.Rules)
		if err != nil {
			// 坏规则退回无规则过滤，不能让一条写错的表达式搞崩整次推荐
			e.logger.Warn("custom rules disabled", "user", profile.UserID, "err", err)
		} else {
			node.After = append(node.After, rules)
		}
	}
	return node
}
