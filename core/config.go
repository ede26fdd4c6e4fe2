package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig 是一次推荐运行的全量配置（支持 YAML 加载）。
// 每次运行视为不可变输入；默认值见 DefaultEngineConfig。
type EngineConfig struct {
	Version int `yaml:"version"`

	Generation GenerationConfig `yaml:"generation"`
	Weights    WeightTable      `yaml:"weights"`
	Status     StatusConfig     `yaml:"status"`
	MMR        MMRConfig        `yaml:"mmr"`
	Filtering  FilteringConfig  `yaml:"filtering"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Feedback   FeedbackConfig   `yaml:"feedback"`

	// TimeDecayRate 是 exp(-λ·days) 的 λ（按天）。
	TimeDecayRate float64 `yaml:"time_decay_rate"`
}

// GenerationConfig 是各召回源的种子与截断参数。
type GenerationConfig struct {
	CollabSeeds         int     `yaml:"collab_seeds"`           // 协同召回种子数
	CollabSeedMinScore  float64 `yaml:"collab_seed_min_score"`  // 协同种子最低评分（0-100）
	ContentSeeds        int     `yaml:"content_seeds"`          // 内容召回种子数
	ContentSeedMinScore float64 `yaml:"content_seed_min_score"` // 内容种子最低评分
	ContentTopK         int     `yaml:"content_top_k"`          // 内容召回截断
	ContentThreshold    float64 `yaml:"content_threshold"`      // 内容相似度阈值
	WatchingSeeds       int     `yaml:"watching_seeds"`         // 在看召回种子数
	WatchingThreshold   float64 `yaml:"watching_threshold"`     // 在看相似度阈值（更严格）
	RelationSeeds       int     `yaml:"relation_seeds"`         // 关联图召回种子数
	TrendingPoolSize    int     `yaml:"trending_pool_size"`     // 趋势池大小
	SeedBatchSize       int     `yaml:"seed_batch_size"`        // 批量拉推荐时每批种子数上限
	RecsPerSeed         int     `yaml:"recs_per_seed"`          // 每个种子最多取多少条外部推荐
}

// WeightTable 是元分数的手调权重表。
type WeightTable struct {
	Collaborative    float64 `yaml:"collaborative"`
	Content          float64 `yaml:"content"`
	Freshness        float64 `yaml:"freshness"`
	Relation         float64 `yaml:"relation"`
	FeedbackPositive float64 `yaml:"feedback_positive"`
	FeedbackNegative float64 `yaml:"feedback_negative"` // 作为减项
	Interaction      float64 `yaml:"interaction"`
}

// StatusConfig 是追踪状态乘子与点踩硬惩罚。
type StatusConfig struct {
	PlanningMultiplier float64 `yaml:"planning_multiplier"`
	PausedMultiplier   float64 `yaml:"paused_multiplier"`
	DroppedMultiplier  float64 `yaml:"dropped_multiplier"`
	DislikePenalty     float64 `yaml:"dislike_penalty"` // 点踩一票否决乘子，默认 0.1
}

// MMRConfig 是多样性重排参数：按模式取 λ，并按题材宽度 ±0.1 自适应。
type MMRConfig struct {
	LambdaSafe        float64 `yaml:"lambda_safe"`
	LambdaBalanced    float64 `yaml:"lambda_balanced"`
	LambdaAdventurous float64 `yaml:"lambda_adventurous"`
	NarrowGenreCount  int     `yaml:"narrow_genre_count"` // 低于此题材数视为口味窄
	BroadGenreCount   int     `yaml:"broad_genre_count"`  // 高于此题材数视为口味宽
	LambdaMin         float64 `yaml:"lambda_min"`
	LambdaMax         float64 `yaml:"lambda_max"`
}

// FilteringConfig 是过滤管线开关。
type FilteringConfig struct {
	DropMusic    bool `yaml:"drop_music"`
	StripSpoiler bool `yaml:"strip_spoiler"`
}

// CacheConfig 是网络层缓存参数。
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// RateLimitConfig 是滚动窗口限流与 429 退避参数。
type RateLimitConfig struct {
	MaxRequests       int           `yaml:"max_requests"`
	Window            time.Duration `yaml:"window"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"` // 无 Retry-After 时退避 = Window × 乘子
}

// FeedbackConfig 是交互加权参数。
type FeedbackConfig struct {
	ClickBoost        float64 `yaml:"click_boost"`
	ViewBoost         float64 `yaml:"view_boost"`
	ImpressionPenalty float64 `yaml:"impression_penalty"` // 每次无点击曝光的疲劳扣减
	MaxImpressionPen  float64 `yaml:"max_impression_pen"` // 疲劳扣减上限
}

// DefaultEngineConfig 返回手调默认配置（命名常量，见各字段注释）。
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Version: 1,
		Generation: GenerationConfig{
			CollabSeeds:         5,
			CollabSeedMinScore:  80,
			ContentSeeds:        10,
			ContentSeedMinScore: 70,
			ContentTopK:         30,
			ContentThreshold:    0.3,
			WatchingSeeds:       5,
			WatchingThreshold:   0.4,
			RelationSeeds:       15,
			TrendingPoolSize:    50,
			SeedBatchSize:       10,
			RecsPerSeed:         20,
		},
		Weights: WeightTable{
			Collaborative:    0.25,
			Content:          0.30,
			Freshness:        0.10,
			Relation:         0.15,
			FeedbackPositive: 0.15,
			FeedbackNegative: 0.20,
			Interaction:      0.05,
		},
		Status: StatusConfig{
			PlanningMultiplier: 1.10,
			PausedMultiplier:   1.05,
			DroppedMultiplier:  0.30,
			DislikePenalty:     0.10,
		},
		MMR: MMRConfig{
			LambdaSafe:        0.7,
			LambdaBalanced:    0.5,
			LambdaAdventurous: 0.3,
			NarrowGenreCount:  5,
			BroadGenreCount:   15,
			LambdaMin:         0.3,
			LambdaMax:         0.8,
		},
		Filtering: FilteringConfig{
			DropMusic:    true,
			StripSpoiler: true,
		},
		Cache: CacheConfig{
			TTL: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:       85,
			Window:            time.Minute,
			BackoffMultiplier: 1.0,
		},
		Feedback: FeedbackConfig{
			ClickBoost:        0.6,
			ViewBoost:         0.4,
			ImpressionPenalty: 0.02,
			MaxImpressionPen:  0.2,
		},
		TimeDecayRate: 0.002,
	}
}

// LoadConfigFromYAML 从 YAML 文件加载配置，未出现的字段继承默认值。
func LoadConfigFromYAML(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}
