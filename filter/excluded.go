package filter

import (
	"context"
	"strings"

	"github.com/rushteam/mediarec/core"
)

// ExcludedGenres 过滤命中用户排除题材的作品。
type ExcludedGenres struct{}

func (f *ExcludedGenres) Name() string { return "filter.excluded_genres" }

func (f *ExcludedGenres) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	for _, g := range c.Media.Genres {
		if containsFold(profile.Prefs.ExcludedGenres, g) {
			return true, nil
		}
	}
	return false, nil
}

// ExcludedTags 过滤命中用户排除标签的作品。
// 在剧透标签剥除之后执行，剧透标签不参与匹配。
type ExcludedTags struct{}

func (f *ExcludedTags) Name() string { return "filter.excluded_tags" }

func (f *ExcludedTags) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	for _, t := range c.Media.Tags {
		if containsFold(profile.Prefs.ExcludedTags, t.Name) {
			return true, nil
		}
	}
	return false, nil
}

// ExcludedStudios 过滤命中用户排除制作组的作品。
type ExcludedStudios struct{}

func (f *ExcludedStudios) Name() string { return "filter.excluded_studios" }

func (f *ExcludedStudios) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	for _, s := range c.Media.Studios {
		if containsFold(profile.Prefs.ExcludedStudios, s) {
			return true, nil
		}
	}
	return false, nil
}

// NeverShow 过滤用户显式拉黑的作品 ID。
type NeverShow struct{}

func (f *NeverShow) Name() string { return "filter.never_show" }

func (f *NeverShow) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	for _, id := range profile.Prefs.NeverShowIDs {
		if id == c.Media.ID {
			return true, nil
		}
	}
	return false, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
