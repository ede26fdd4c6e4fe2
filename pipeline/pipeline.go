package pipeline

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Pipeline 是候选生成侧的核心抽象：把召回与过滤拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	profile *core.UserProfile,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := candidates
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, profile, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
