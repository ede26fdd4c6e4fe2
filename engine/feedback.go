package engine

import (
	"context"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/feedback"
)

// ProcessFeedback 记录一条显式反馈。摘要缺失时尽力从媒体库补齐，
// 保证后续反馈相似度计算有向量可用。
func (e *Engine) ProcessFeedback(ctx context.Context, userID string, rec feedback.Record) error {
	if rec.Summary.Title == "" {
		if m, err := e.fetcher.MediaDetail(ctx, rec.MediaID); err == nil && m != nil {
			rec.Summary = summarize(m)
		}
	}
	return e.feedback.Save(ctx, userID, rec)
}

// RemoveFeedback 撤销某个作品的显式反馈。
func (e *Engine) RemoveFeedback(ctx context.Context, userID string, mediaID int64) error {
	return e.feedback.Remove(ctx, userID, mediaID)
}

// RecordClick 记录一次推荐位点击（幂等）。
func (e *Engine) RecordClick(ctx context.Context, userID string, mediaID int64) error {
	return e.feedback.RecordClick(ctx, userID, mediaID)
}

// RecordView 记录一次详情页浏览（幂等）。
func (e *Engine) RecordView(ctx context.Context, userID string, mediaID int64) error {
	return e.feedback.RecordView(ctx, userID, mediaID)
}

// RecordImpression 记录一次无点击曝光（累加）。
func (e *Engine) RecordImpression(ctx context.Context, userID string, mediaID int64) error {
	return e.feedback.RecordImpression(ctx, userID, mediaID)
}

// RecordSkip 记录一次明确跳过（累加）。
func (e *Engine) RecordSkip(ctx context.Context, userID string, mediaID int64) error {
	return e.feedback.RecordSkip(ctx, userID, mediaID)
}

// ProfileInsights 汇总用户的反馈口味画像。
func (e *Engine) ProfileInsights(ctx context.Context, userID string) (*feedback.Insights, error) {
	return e.feedback.Insights(ctx, userID)
}

func summarize(m *core.Media) core.MediaSummary {
	return core.MediaSummary{
		Title:   m.Title.Display(),
		Genres:  m.Genres,
		Tags:    m.NonSpoilerTags(),
		Studios: m.Studios,
		Format:  m.Format,
		Source:  m.Source,
	}
}
