package filter

import (
	"context"

	"github.com/rushteam/mediarec/core"
)

// Disliked 过滤用户明确点踩过的作品。
// 打分层的一折硬惩罚只压排名，候选池不够大时点踩项仍可能挤进结果；
// 点踩的语义是"别再推这个"，必须在过滤层整条剔除。
// 对相似作品的连带压分仍由负向反馈相似度在打分层完成。
type Disliked struct{}

func (f *Disliked) Name() string { return "filter.disliked" }

func (f *Disliked) ShouldFilter(_ context.Context, profile *core.UserProfile, c *core.Candidate) (bool, error) {
	return profile.Disliked[c.Media.ID], nil
}
