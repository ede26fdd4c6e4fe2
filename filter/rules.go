package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/mediarec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = cel.NewEnv(
			cel.Variable("media", cel.DynType),
		)
	})
	return celEnv, err
}

// Rules 是用户自定义的 CEL 排除规则过滤器，命中任意一条即丢弃。
//
// 表达式在 media 变量上求值（CEL 标准语法）：
//   - `"Horror" in media.genres` → 题材包含 Horror
//   - `media.average_score < 60 && media.popularity < 1000` → 低分冷门
//   - `media.episodes > 100` → 超长篇
//
// 表达式在构造时编译一次，之后对每个候选复用；
// 单条规则求值出错只跳过该规则，不影响其他规则与候选。
type Rules struct {
	programs []cel.Program
}

// NewRules 编译一组 CEL 表达式。任何一条编译失败都返回错误，
// 调用方应记日志并退回无规则过滤，而不是带着坏规则继续跑。
func NewRules(exprs []string) (*Rules, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	programs := make([]cel.Program, 0, len(exprs))
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build rule %q: %w", expr, err)
		}
		programs = append(programs, prg)
	}
	return &Rules{programs: programs}, nil
}

func (f *Rules) Name() string { return "filter.rules" }

func (f *Rules) ShouldFilter(_ context.Context, _ *core.UserProfile, c *core.Candidate) (bool, error) {
	if len(f.programs) == 0 {
		return false, nil
	}
	input := map[string]any{"media": mediaInput(c.Media)}
	for _, prg := range f.programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			return true, nil
		}
	}
	return false, nil
}

func mediaInput(m *core.Media) map[string]any {
	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t.Name)
	}
	return map[string]any{
		"id":            m.ID,
		"title":         m.Title.Display(),
		"genres":        m.Genres,
		"tags":          tags,
		"studios":       m.Studios,
		"format":        string(m.Format),
		"source":        string(m.Source),
		"episodes":      m.Episodes,
		"duration":      m.Duration,
		"average_score": m.AverageScore,
		"popularity":    m.Popularity,
		"is_adult":      m.IsAdult,
	}
}
