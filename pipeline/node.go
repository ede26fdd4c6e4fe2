package pipeline

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选集
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 candidates -> 输出 candidates"的形态，覆盖召回生成与过滤截断。
//
// 打分与重排不是 Node：它们改变元素类型（Candidate → RankedCandidate → FinalCandidate），
// 两阶段语义靠类型系统保证，由 engine 显式串联。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		profile *core.UserProfile,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
