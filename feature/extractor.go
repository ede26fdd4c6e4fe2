package feature

import (
	"math"
	"time"

	"github.com/rushteam/mediarec/core"
)

// Extractor 把 (候选, 画像) 转为定形特征记录。
//
// 不变式：Extract 是纯函数——无网络、无缓存、无隐藏状态；
// 时间基准 now 由调用方注入，同一输入永远得到同一输出。
type Extractor struct {
	Config *core.EngineConfig
}

// NewExtractor 创建特征抽取器；cfg 为 nil 时使用默认配置。
func NewExtractor(cfg *core.EngineConfig) *Extractor {
	if cfg == nil {
		cfg = core.DefaultEngineConfig()
	}
	return &Extractor{Config: cfg}
}

// Extract 计算一个候选的全部特征。
func (e *Extractor) Extract(m *core.Media, p *core.UserProfile, now time.Time) core.Features {
	var f core.Features

	// 内容重合
	f.GenreOverlap = genreOverlap(m, p)
	f.TagOverlap = tagOverlap(m, p)
	f.StudioMatch = studioMatch(m, p)
	f.FormatMatch = m.Format != "" && m.Format == p.DominantFormat()
	f.SourceMatch = m.Source != "" && m.Source == p.DominantSource()

	// 时间
	if !m.StartDate.IsZero() && !now.Before(m.StartDate) {
		f.DaysSinceRelease = now.Sub(m.StartDate).Hours() / 24
	}
	f.Freshness = freshness(f.DaysSinceRelease, m.StartDate)
	f.TimeDecay = math.Exp(-e.Config.TimeDecayRate * f.DaysSinceRelease)

	// 关联：候选自身的边对"已看集合"的命中，与召回种子无关——
	// 这是"离我看过的东西有多近"的通用信号。
	f.RelationBoost, f.RelationType = relationBoost(m, p.WatchedIDs())

	// 追踪状态
	switch p.StatusOf(m.ID) {
	case core.StatusPlanning:
		f.IsPlanning = true
	case core.StatusDropped:
		f.IsDropped = true
	case core.StatusPaused:
		f.IsPaused = true
	}

	f.Bingeability = bingeability(m.TotalMinutes())

	// 反馈相似度：对每个被赞/被踩向量取最大余弦。
	// 这是用户反馈在不重训任何模型的前提下重塑后续打分的机制。
	vec := BuildVector(m)
	f.FeedbackPositive = maxSummarySim(vec, p.LikedSummaries)
	f.FeedbackNegative = maxSummarySim(vec, p.DislikedSummaries)
	f.IsLiked = p.Liked[m.ID]
	f.IsDisliked = p.Disliked[m.ID]

	f.Clicked = p.Clicked[m.ID]
	f.Viewed = p.Viewed[m.ID]
	f.ImpressionCount = p.Impressions[m.ID]

	return f
}

// genreOverlap 是候选题材与评分加权题材历史的加权 Jaccard。
func genreOverlap(m *core.Media, p *core.UserProfile) float64 {
	history := p.WeightedGenreHistory()
	if len(history) == 0 || len(m.Genres) == 0 {
		return 0
	}
	// 历史权重归一到 [0,1]，避免重度用户把 union 撑大
	var maxW float64
	for _, w := range history {
		if w > maxW {
			maxW = w
		}
	}
	normalized := make(map[string]float64, len(history))
	for g, w := range history {
		normalized["genre:"+g] = w / maxW
	}
	candidate := make(map[string]float64, len(m.Genres))
	for _, g := range m.Genres {
		candidate["genre:"+g] = 1.0
	}
	return WeightedJaccard(candidate, normalized)
}

// tagOverlap 是非剧透标签的 rank 加权匹配率：Σ(rank·命中)/Σrank。
// "命中"指标签出现在用户的标签统计中。
func tagOverlap(m *core.Media, p *core.UserProfile) float64 {
	if p.Stats == nil || len(p.Stats.Tags) == 0 {
		return 0
	}
	var total, matched float64
	for _, t := range m.NonSpoilerTags() {
		w := float64(t.Rank) / 100
		if w <= 0 {
			continue
		}
		total += w
		if _, ok := p.Stats.Tags[t.Name]; ok {
			matched += w
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

func studioMatch(m *core.Media, p *core.UserProfile) bool {
	if p.Stats == nil {
		return false
	}
	for _, s := range m.Studios {
		if _, ok := p.Stats.Studios[s]; ok {
			return true
		}
	}
	return false
}

// freshness 在发布后 365 天内从 1.0 线性衰减到 0.5，之后为 0；未发布/无日期为 0。
func freshness(days float64, start time.Time) float64 {
	if start.IsZero() || days < 0 {
		return 0
	}
	if days <= 365 {
		return 1.0 - 0.5*days/365
	}
	return 0
}

// 关联边命中强度：续作/前作 0.5，番外 0.3，多边命中累加后 cap 到 1.0。
func relationBoost(m *core.Media, watched map[int64]bool) (float64, core.RelationType) {
	var boost float64
	var strongest core.RelationType
	var strongestW float64
	for _, rel := range m.Relations {
		if !rel.Type.IsStrong() || !watched[rel.MediaID] {
			continue
		}
		w := 0.3
		if rel.Type == core.RelationSequel || rel.Type == core.RelationPrequel {
			w = 0.5
		}
		boost += w
		if w > strongestW {
			strongest, strongestW = rel.Type, w
		}
	}
	if boost > 1.0 {
		boost = 1.0
	}
	return boost, strongest
}

// bingeability 按总时长分段：<2h 太短 0.5，4-12h 最优 1.0，>24h 太长 0.3，其余 0.7。
func bingeability(totalMinutes int) float64 {
	switch {
	case totalMinutes <= 0:
		return 0.7
	case totalMinutes < 120:
		return 0.5
	case totalMinutes >= 240 && totalMinutes <= 720:
		return 1.0
	case totalMinutes > 1440:
		return 0.3
	default:
		return 0.7
	}
}

func maxSummarySim(vec map[string]float64, summaries map[int64]core.MediaSummary) float64 {
	var best float64
	for _, s := range summaries {
		if sim := Cosine(vec, BuildSummaryVector(s)); sim > best {
			best = sim
		}
	}
	return best
}
