package recall

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/pipeline"
	"github.com/rushteam/mediarec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按源顺序拼接结果。
//
// 单个召回源失败只记日志、贡献空结果，不中断其他源；
// 全部源都失败时返回 ErrNoCandidates，由引擎决定如何向上暴露。
// Sources 的顺序即优先级：去重合并发生在下游 filter 阶段，
// 先到的候选保留首个来源标记，因此更具体的源（如在看相似）应排在
// 泛化源（如内容相似）之前。
type Fanout struct {
	Sources []Source
	Timeout time.Duration // 每个召回源的超时时间，0 表示不限制
	Logger  *slog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	profile *core.UserProfile,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, core.ErrNoCandidates
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu       sync.Mutex
		bySource = make([][]*core.Candidate, len(n.Sources))
		failures int
		eg, _    = errgroup.WithContext(ctx)
	)

	for i, src := range n.Sources {
		idx, s := i, src
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			out, err := s.Recall(recallCtx, profile)
			if err != nil {
				// 单源失败降级为空结果，不拖垮整次召回
				logger.Warn("recall source failed",
					"source", s.Name(), "user", profile.UserID, "err", err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}

			for _, c := range out {
				c.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}

			mu.Lock()
			bySource[idx] = out
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if failures == len(n.Sources) {
		return nil, core.ErrNoCandidates
	}

	// 按源声明顺序拼接，保证去重时的先到优先是确定性的
	var all []*core.Candidate
	for _, out := range bySource {
		all = append(all, out...)
	}
	return all, nil
}
