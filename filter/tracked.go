package filter

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// TrackedStatus 过滤掉已完结或正在看的作品：推荐已经在追的东西没有意义。
// 弃番/搁置/计划中的条目保留，由打分阶段的状态乘子处理。
type TrackedStatus struct{}

func (f *TrackedStatus) Name() string { return "filter.tracked" }

func (f *TrackedStatus) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	switch profile.StatusOf(c.Media.ID) {
	case core.StatusCompleted, core.StatusCurrent, core.StatusRepeating:
		return true, nil
	}
	return false, nil
}
