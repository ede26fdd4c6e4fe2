package feature

import (
	"math"

	"github.com/rushteam/mediarec/core"
)

// 词频向量的维度权重：题材与制作组各记 1.0，标签按 rank/100（剧透标签排除），
// 载体形式 0.5、改编来源 0.3。内容召回、在看召回、反馈相似度与 MMR 共用同一构建。
const (
	genreWeight  = 1.0
	studioWeight = 1.0
	formatWeight = 0.5
	sourceWeight = 0.3
)

// BuildVector 把作品快照转为稀疏词频向量。
func BuildVector(m *core.Media) map[string]float64 {
	if m == nil {
		return nil
	}
	vec := make(map[string]float64, len(m.Genres)+len(m.Tags)+len(m.Studios)+2)
	for _, g := range m.Genres {
		vec["genre:"+g] = genreWeight
	}
	for _, t := range m.Tags {
		if t.Spoiler() {
			continue
		}
		if w := float64(t.Rank) / 100; w > 0 {
			vec["tag:"+t.Name] = w
		}
	}
	for _, s := range m.Studios {
		vec["studio:"+s] = studioWeight
	}
	if m.Format != "" {
		vec["format:"+string(m.Format)] = formatWeight
	}
	if m.Source != "" {
		vec["source:"+string(m.Source)] = sourceWeight
	}
	return vec
}

// BuildSummaryVector 从反馈存储的轻量摘要构建向量，维度口径与 BuildVector 一致。
func BuildSummaryVector(s core.MediaSummary) map[string]float64 {
	vec := make(map[string]float64, len(s.Genres)+len(s.Tags)+len(s.Studios)+2)
	for _, g := range s.Genres {
		vec["genre:"+g] = genreWeight
	}
	for _, t := range s.Tags {
		if t.Spoiler() {
			continue
		}
		if w := float64(t.Rank) / 100; w > 0 {
			vec["tag:"+t.Name] = w
		}
	}
	for _, st := range s.Studios {
		vec["studio:"+st] = studioWeight
	}
	if s.Format != "" {
		vec["format:"+string(s.Format)] = formatWeight
	}
	if s.Source != "" {
		vec["source:"+string(s.Source)] = sourceWeight
	}
	return vec
}

// Cosine 计算两个稀疏向量的余弦相似度。
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// 只遍历较小的一侧算点积
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot float64
	for k, va := range small {
		if vb, ok := large[k]; ok {
			dot += va * vb
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// WeightedJaccard 计算两个加权集合的 Jaccard 相似度：Σmin / Σmax。
func WeightedJaccard(a, b map[string]float64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	var intersection, union float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			intersection += math.Min(va, vb)
			union += math.Max(va, vb)
		} else {
			union += va
		}
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			union += vb
		}
	}
	if union == 0 {
		return 0
	}
	return intersection / union
}
