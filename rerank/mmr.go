package rerank

import (
	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/feature"
)

// MMR 是多样性重排器（Maximal Marginal Relevance）：
// 贪心最大化 λ·relevance − (1−λ)·maxSimToSelected，
// 相关性取元分数，相似度用与内容召回同一套词频向量的余弦。
//
// 不变式：输出无重复 ID 且是输入的子集；平票按输入顺序取先到者，
// 入参已按元分数稳定降序，因此整个重排是确定性的。
type MMR struct {
	Config core.MMRConfig
}

func NewMMR(cfg core.MMRConfig) *MMR {
	return &MMR{Config: cfg}
}

// Lambda 按用户多样性模式取基准 λ，再按题材宽度 ±0.1 自适应：
// 口味窄的用户更吃相关性，口味宽的用户更经得起探索。
// 结果 clamp 到 [LambdaMin, LambdaMax]。
func (r *MMR) Lambda(profile *core.UserProfile) float64 {
	cfg := r.Config
	lambda := cfg.LambdaBalanced
	switch profile.Prefs.DiversityMode {
	case "safe":
		lambda = cfg.LambdaSafe
	case "adventurous":
		lambda = cfg.LambdaAdventurous
	}

	breadth := profile.GenreBreadth()
	switch {
	case breadth < cfg.NarrowGenreCount:
		lambda += 0.1
	case breadth > cfg.BroadGenreCount:
		lambda -= 0.1
	}

	if lambda < cfg.LambdaMin {
		lambda = cfg.LambdaMin
	}
	if lambda > cfg.LambdaMax {
		lambda = cfg.LambdaMax
	}
	return lambda
}

// Rerank 从 ranked 中贪心挑出至多 k 个候选。
// 候选数不超过 k 时跳过重排，直接按 λ·Meta 填最终分，保持口径一致。
func (r *MMR) Rerank(ranked []*core.RankedCandidate, k int, lambda float64) []*core.FinalCandidate {
	if len(ranked) <= k {
		out := make([]*core.FinalCandidate, 0, len(ranked))
		for _, rc := range ranked {
			out = append(out, &core.FinalCandidate{
				RankedCandidate: rc,
				Final:           lambda * rc.Scores.Meta,
			})
		}
		return out
	}

	vecs := make([]map[string]float64, len(ranked))
	for i, rc := range ranked {
		vecs[i] = feature.BuildVector(rc.Media)
	}

	selected := make([]*core.FinalCandidate, 0, k)
	selectedVecs := make([]map[string]float64, 0, k)
	used := make([]bool, len(ranked))

	for len(selected) < k {
		bestIdx, bestUtil := -1, 0.0
		for i, rc := range ranked {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, sv := range selectedVecs {
				if sim := feature.Cosine(vecs[i], sv); sim > maxSim {
					maxSim = sim
				}
			}
			util := lambda*rc.Scores.Meta - (1-lambda)*maxSim
			// 严格大于：平票保留先到的候选
			if bestIdx == -1 || util > bestUtil {
				bestIdx, bestUtil = i, util
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, &core.FinalCandidate{
			RankedCandidate: ranked[bestIdx],
			Final:           bestUtil,
		})
		selectedVecs = append(selectedVecs, vecs[bestIdx])
	}
	return selected
}
