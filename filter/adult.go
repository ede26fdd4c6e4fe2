package filter

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Adult 过滤成人内容，除非用户偏好里显式放行。
type Adult struct{}

func (f *Adult) Name() string { return "filter.adult" }

func (f *Adult) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	return c.Media.IsAdult && !profile.Prefs.AllowAdult, nil
}
