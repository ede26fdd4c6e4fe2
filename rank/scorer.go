package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/feature"
)

// cfWeightNorm 把协同聚合权重压到 [0,1]：两三个种子各贡献
// log(1+rating) 即可接近满分，单种子再高的票数也到不了。
const cfWeightNorm = 5.0

// 内容分内部的手调配比与统计加成阈值。
const (
	contentGenreWeight  = 0.4
	contentTagWeight    = 0.3
	contentStudioWeight = 0.1
	contentFormatWeight = 0.1
	contentSourceWeight = 0.1

	statBoostMinScore = 75.0 // 历史均分达到该值的题材/制作组才算"偏好实锤"
	statBoostMinCount = 3    // 少于这个样本数的均分不可信
	genreStatBoost    = 0.10
	studioStatBoost   = 0.05
	favoriteBoost     = 0.15
)

// Scorer 把特征折算成元分数。
//
// 不变式：Score 是 (候选, 特征, 画像, 配置) 的纯函数，打分过程
// 不触网、不读缓存；点踩的硬惩罚乘子保证任何正向信号都翻不了盘。
type Scorer struct {
	Config *core.EngineConfig
}

func NewScorer(cfg *core.EngineConfig) *Scorer {
	return &Scorer{Config: cfg}
}

// Score 计算加权元分数并 clamp 到 [0,1]。
func (s *Scorer) Score(c *core.Candidate, feats core.Features, profile *core.UserProfile) core.Scores {
	w := s.Config.Weights

	collab := s.collabScore(c)
	content := s.contentScore(c, feats, profile)
	interaction := s.interactionScore(feats)

	meta := w.Collaborative*collab +
		w.Content*content +
		w.Freshness*feats.Freshness +
		w.Relation*feats.RelationBoost +
		w.FeedbackPositive*feats.FeedbackPositive +
		w.Interaction*interaction -
		w.FeedbackNegative*feats.FeedbackNegative

	meta *= s.statusMultiplier(feats)
	meta *= feats.TimeDecay
	meta *= 0.9 + 0.2*feats.Bingeability

	// 先 clamp 再罚：乘子叠加可能把 meta 推过 1，若在 clamp 之前打折，
	// 点踩候选的最终分会超过未点踩同款的一折
	meta = clamp01(meta)
	if feats.IsDisliked {
		// 点踩一票否决：不管相似度多高都压到一折
		meta *= s.Config.Status.DislikePenalty
	}

	return core.Scores{
		Source: math.Max(collab, c.SimScore),
		Meta:   clamp01(meta),
	}
}

func (s *Scorer) collabScore(c *core.Candidate) float64 {
	if !c.HasSource(core.SourceCollaborative) {
		return 0
	}
	return math.Min(1, c.CFWeight/cfWeightNorm)
}

// contentScore 综合题材/标签/制作组/类型/来源的匹配度，
// 再按历史统计与显式最爱题材加成。
func (s *Scorer) contentScore(c *core.Candidate, feats core.Features, profile *core.UserProfile) float64 {
	score := contentGenreWeight*feats.GenreOverlap +
		contentTagWeight*feats.TagOverlap
	if feats.StudioMatch {
		score += contentStudioWeight
	}
	if feats.FormatMatch {
		score += contentFormatWeight
	}
	if feats.SourceMatch {
		score += contentSourceWeight
	}

	if profile.Stats != nil {
		for _, g := range c.Media.Genres {
			if st, ok := profile.Stats.Genres[g]; ok &&
				st.MeanScore >= statBoostMinScore && st.Count >= statBoostMinCount {
				score += genreStatBoost
				break
			}
		}
		for _, st := range c.Media.Studios {
			if agg, ok := profile.Stats.Studios[st]; ok &&
				agg.MeanScore >= statBoostMinScore && agg.Count >= statBoostMinCount {
				score += studioStatBoost
				break
			}
		}
	}
	for _, g := range c.Media.Genres {
		if containsFold(profile.Prefs.FavoriteGenres, g) {
			score += favoriteBoost
			break
		}
	}

	return clamp01(score)
}

func (s *Scorer) interactionScore(feats core.Features) float64 {
	fb := s.Config.Feedback
	score := 0.0
	switch {
	case feats.Clicked:
		score = fb.ClickBoost
	case feats.Viewed:
		score = fb.ViewBoost
	}
	// 无点击曝光的疲劳扣减，有上限
	penalty := math.Min(float64(feats.ImpressionCount)*fb.ImpressionPenalty, fb.MaxImpressionPen)
	return clamp01(score - penalty)
}

func (s *Scorer) statusMultiplier(feats core.Features) float64 {
	st := s.Config.Status
	switch {
	case feats.IsDropped:
		return st.DroppedMultiplier
	case feats.IsPlanning:
		return st.PlanningMultiplier
	case feats.IsPaused:
		return st.PausedMultiplier
	}
	return 1.0
}

// Rank 对过滤后的候选抽特征、打分，并按元分数稳定降序排列。
// 稳定排序保证同分候选维持召回优先级顺序，MMR 的平票规则依赖这一点。
func Rank(
	candidates []*core.Candidate,
	profile *core.UserProfile,
	now time.Time,
	extractor *feature.Extractor,
	scorer *Scorer,
) []*core.RankedCandidate {
	ranked := make([]*core.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		feats := extractor.Extract(c.Media, profile, now)
		ranked = append(ranked, &core.RankedCandidate{
			Candidate: c,
			Features:  feats,
			Scores:    scorer.Score(c, feats, profile),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Meta > ranked[j].Scores.Meta
	})
	return ranked
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
