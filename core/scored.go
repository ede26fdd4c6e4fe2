package core

// Scores 是打分阶段产出的分数记录。
// MMR 重排后的最终分不在这里——它属于 FinalCandidate，两阶段用类型区分而不是"之后再填的字段"。
type Scores struct {
	Source float64 // 来源分：协同聚合权重或相似度，按来源归一
	Meta   float64 // 元分数，加权求和 × 乘子后 clamp 到 [0,1]
}

// RankedCandidate 是打分阶段的输出：候选 + 特征 + 分数。
// 构造后不可变，重排阶段只读它。
type RankedCandidate struct {
	*Candidate
	Features Features
	Scores   Scores
}

// FinalCandidate 是 MMR 重排的输出，内嵌排序结果并附上最终分。
// Final 是重排时的边际效用值（λ·relevance − (1−λ)·maxSim），仅在此处一次性写入。
type FinalCandidate struct {
	*RankedCandidate
	Final float64
}
