package filter

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// MusicFormat 过滤 MUSIC 类型：MV 混在推荐流里只会稀释结果。
type MusicFormat struct{}

func (f *MusicFormat) Name() string { return "filter.music" }

func (f *MusicFormat) ShouldFilter(_ context.Context, _ *core.UserProfile, c *core.Candidate) (bool, error) {
	return c.Media.Format == core.FormatMusic, nil
}
