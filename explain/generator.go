package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/mediarec/core"
)

// 各理由模板的优先级权重：越具体、越个性化的信号排得越靠前。
const (
	weightWatching    = 100
	weightCollabMulti = 95
	weightFeedback    = 90
	weightRelation    = 85
	weightGenreStat   = 80
	weightCollabOne   = 70
	weightStudioStat  = 65
	weightTag         = 60
	weightInterest    = 55
	weightFresh       = 50
	weightScore       = 45
	weightPopular     = 40
	weightBinge       = 35
	weightFormatRate  = 30
)

// 信号强度门槛：低于门槛的信号不值得向用户解释。
const (
	feedbackReasonMin = 0.5
	genreReasonMin    = 0.3
	tagReasonMin      = 0.3
	freshReasonMin    = 0.9
	scoreReasonMin    = 85
	popularReasonMin  = 100000
	formatRateMin     = 0.8
)

// Reason 是一条带权重的解释候选。
type Reason struct {
	Text   string
	Weight int
}

// Explanation 是一个推荐结果的完整解释：
// 公开理由列表取权重前三；Primary/Secondary 是带主次关系的明细；
// Confidence 是独立于元分数的 0-100 置信度。
type Explanation struct {
	Reasons    []string
	Primary    string
	Secondary  []string
	Confidence int
}

// Generator 从打分用的同一份特征派生人话解释，
// 保证"为什么推荐"与"推了多少分"互相印证。
type Generator struct {
	Config *core.EngineConfig
}

func NewGenerator(cfg *core.EngineConfig) *Generator {
	if cfg == nil {
		cfg = core.DefaultEngineConfig()
	}
	return &Generator{Config: cfg}
}

// Explain 为一个最终候选生成解释。所有文案出口前都过一遍剧透清洗。
func (g *Generator) Explain(fc *core.FinalCandidate, profile *core.UserProfile) Explanation {
	reasons := g.collect(fc, profile)
	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Weight > reasons[j].Weight
	})

	spoilers := fc.Media.SpoilerTagNames()
	var pub []string
	for i := 0; i < len(reasons) && i < 3; i++ {
		pub = append(pub, Sanitize(reasons[i].Text, spoilers))
	}

	out := Explanation{
		Reasons:    pub,
		Confidence: g.confidence(fc),
	}
	if len(reasons) > 0 {
		out.Primary = Sanitize(reasons[0].Text, spoilers)
		for _, r := range reasons[1:] {
			out.Secondary = append(out.Secondary, Sanitize(r.Text, spoilers))
		}
	}
	return out
}

// collect 枚举固定的理由模板目录，返回所有命中的理由。
func (g *Generator) collect(fc *core.FinalCandidate, profile *core.UserProfile) []Reason {
	var out []Reason
	feats := fc.Features
	m := fc.Media
	gen := g.Config.Generation

	if fc.HasSource(core.SourceWatching) && fc.SimScore >= gen.WatchingThreshold {
		out = append(out, Reason{
			Text:   "和你正在看的作品高度相似",
			Weight: weightWatching,
		})
	}

	if fc.HasSource(core.SourceCollaborative) {
		if n := len(fc.SeedIDs); n > 1 {
			out = append(out, Reason{
				Text:   fmt.Sprintf("被你看过的 %d 部作品的观众共同推荐", n),
				Weight: weightCollabMulti,
			})
		} else {
			out = append(out, Reason{
				Text:   "看过相同作品的观众也在推荐这部",
				Weight: weightCollabOne,
			})
		}
	}

	if feats.FeedbackPositive >= feedbackReasonMin {
		out = append(out, Reason{
			Text:   "和你点赞过的作品口味相近",
			Weight: weightFeedback,
		})
	}

	if r := relationReason(feats.RelationType); r != "" {
		out = append(out, Reason{Text: r, Weight: weightRelation})
	}

	if feats.GenreOverlap >= genreReasonMin {
		out = append(out, g.genreReason(m, profile))
	}

	if st, ok := g.studioStat(m, profile); ok {
		out = append(out, Reason{
			Text:   fmt.Sprintf("制作组 %s 的作品你平均打了 %.0f 分", st.name, st.mean),
			Weight: weightStudioStat,
		})
	}

	if feats.TagOverlap >= tagReasonMin {
		out = append(out, Reason{
			Text:   "标签和你的观看偏好高度吻合",
			Weight: weightTag,
		})
	}

	if feats.Clicked || feats.Viewed {
		out = append(out, Reason{
			Text:   "你之前点开看过这部作品",
			Weight: weightInterest,
		})
	}

	if feats.Freshness >= freshReasonMin {
		out = append(out, Reason{
			Text:   "本季新作",
			Weight: weightFresh,
		})
	}

	if m.AverageScore >= scoreReasonMin {
		out = append(out, Reason{
			Text:   fmt.Sprintf("社区均分 %d，位居前列", m.AverageScore),
			Weight: weightScore,
		})
	}

	if m.Popularity >= popularReasonMin {
		out = append(out, Reason{
			Text:   "热度极高的人气作品",
			Weight: weightPopular,
		})
	}

	if r, ok := g.bingeReason(m, profile); ok {
		out = append(out, Reason{Text: r, Weight: weightBinge})
	}

	if m.Format != "" && profile.FormatCompletionRate(m.Format) >= formatRateMin {
		out = append(out, Reason{
			Text:   fmt.Sprintf("你对 %s 类型作品的完成率很高", m.Format),
			Weight: weightFormatRate,
		})
	}

	return out
}

func relationReason(t core.RelationType) string {
	switch t {
	case core.RelationSequel:
		return "是你看过作品的续作"
	case core.RelationPrequel:
		return "是你看过作品的前作"
	case core.RelationSideStory:
		return "是你看过作品的番外篇"
	}
	return ""
}

// genreReason 优先给出带具体历史统计的题材理由。
func (g *Generator) genreReason(m *core.Media, profile *core.UserProfile) Reason {
	if profile.Stats != nil {
		for _, genre := range m.Genres {
			if st, ok := profile.Stats.Genres[genre]; ok && st.Count >= 3 {
				return Reason{
					Text:   fmt.Sprintf("你看过 %d 部%s作品，平均打了 %.0f 分", st.Count, genre, st.MeanScore),
					Weight: weightGenreStat,
				}
			}
		}
	}
	return Reason{
		Text:   fmt.Sprintf("题材（%s）和你的历史高度重合", strings.Join(topN(m.Genres, 2), " / ")),
		Weight: weightGenreStat,
	}
}

type studioStatHit struct {
	name string
	mean float64
}

func (g *Generator) studioStat(m *core.Media, profile *core.UserProfile) (studioStatHit, bool) {
	if profile.Stats == nil {
		return studioStatHit{}, false
	}
	for _, st := range m.Studios {
		if agg, ok := profile.Stats.Studios[st]; ok && agg.Count >= 2 && agg.MeanScore >= 70 {
			return studioStatHit{name: st, mean: agg.MeanScore}, true
		}
	}
	return studioStatHit{}, false
}

func (g *Generator) bingeReason(m *core.Media, profile *core.UserProfile) (string, bool) {
	mean := profile.MeanTotalMinutes()
	total := float64(m.TotalMinutes())
	if mean <= 0 || total <= 0 {
		return "", false
	}
	switch {
	case total < mean*0.5:
		return "比你常看的作品短，很适合一口气看完", true
	case total > mean*2:
		return "比你常看的作品长，适合慢慢追", true
	}
	return "", false
}

// confidence 独立于元分数计算 0-100 置信度：
// 多来源互相印证、强协同/内容信号、关联命中各自加分。
func (g *Generator) confidence(fc *core.FinalCandidate) int {
	conf := 30

	if extra := len(fc.Sources) - 1; extra > 0 {
		if extra > 3 {
			extra = 3
		}
		conf += extra * 10
	}
	if fc.CFWeight >= 2 {
		conf += 15
	}
	if fc.SimScore >= 0.6 {
		conf += 15
	}
	if fc.Features.RelationBoost > 0 {
		conf += 10
	}

	if conf > 100 {
		conf = 100
	}
	return conf
}

func topN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
