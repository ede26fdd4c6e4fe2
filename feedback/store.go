package feedback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/mediarec/core"
)

// Type 是显式反馈类型。
type Type string

const (
	TypeLike    Type = "like"
	TypeDislike Type = "dislike"
)

// Record 是一条显式反馈：点赞/点踩，可带细分原因与上下文。
// Summary 随反馈一起落盘，特征层据此构建被赞/被踩向量而无需回源。
type Record struct {
	MediaID   int64             `json:"media_id"`
	Type      Type              `json:"type"`
	Reasons   []string          `json:"reasons,omitempty"` // 细分原因：title/genre/studio/...
	Context   string            `json:"context,omitempty"` // 反馈发生的页面或场景
	Summary   core.MediaSummary `json:"summary"`
	CreatedAt time.Time         `json:"created_at"`
}

// Interactions 是隐式交互计数。点击/浏览是幂等集合，
// 曝光/跳过是累加计数器。
type Interactions struct {
	Clicked     map[int64]bool `json:"clicked"`
	Viewed      map[int64]bool `json:"viewed"`
	Impressions map[int64]int  `json:"impressions"`
	Skipped     map[int64]int  `json:"skipped"`
}

func newInteractions() *Interactions {
	return &Interactions{
		Clicked:     make(map[int64]bool),
		Viewed:      make(map[int64]bool),
		Impressions: make(map[int64]int),
		Skipped:     make(map[int64]int),
	}
}

// Store 是反馈数据的持久化适配器，落在任意 core.Store 实现上。
//
// 键布局：
//
//	feedback:v2:<user>      统一键，全部显式反馈的 JSON map
//	feedback:<user>:<id>    旧版逐条键，只读兼容
//	interactions:v2:<user>  隐式交互计数
//
// 读路径先尝试统一键，未命中再扫旧版前缀（双读，不做迁移）。
type Store struct {
	kv core.Store
}

func NewStore(kv core.Store) *Store {
	return &Store{kv: kv}
}

func unifiedKey(userID string) string      { return "feedback:v2:" + userID }
func legacyPrefix(userID string) string    { return "feedback:" + userID + ":" }
func interactionsKey(userID string) string { return "interactions:v2:" + userID }

// Save 写入一条显式反馈，同一作品的旧反馈被覆盖。
func (s *Store) Save(ctx context.Context, userID string, rec Record) error {
	if rec.MediaID <= 0 {
		return &core.DomainError{
			Code: core.ErrorCodeInvalidInput, Module: "feedback",
			Message: "feedback record requires a media id",
		}
	}
	records, err := s.Feedback(ctx, userID)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	records[rec.MediaID] = rec
	return s.writeRecords(ctx, userID, records)
}

// Remove 删除某个作品的显式反馈；不存在时为 no-op。
func (s *Store) Remove(ctx context.Context, userID string, mediaID int64) error {
	records, err := s.Feedback(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := records[mediaID]; !ok {
		return nil
	}
	delete(records, mediaID)
	return s.writeRecords(ctx, userID, records)
}

// Feedback 加载全部显式反馈：统一键优先，未命中时扫旧版逐条键。
func (s *Store) Feedback(ctx context.Context, userID string) (map[int64]Record, error) {
	data, err := s.kv.Get(ctx, unifiedKey(userID))
	if err == nil {
		return decodeRecords(data)
	}
	if !core.IsStoreNotFound(err) {
		return nil, err
	}
	return s.legacyFeedback(ctx, userID)
}

func (s *Store) legacyFeedback(ctx context.Context, userID string) (map[int64]Record, error) {
	prefix := legacyPrefix(userID)
	kvs, err := s.kv.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	records := make(map[int64]Record, len(kvs))
	for key, raw := range kvs {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, prefix), 10, 64)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.MediaID == 0 {
			rec.MediaID = id
		}
		records[id] = rec
	}
	return records, nil
}

func (s *Store) writeRecords(ctx context.Context, userID string, records map[int64]Record) error {
	keyed := make(map[string]Record, len(records))
	for id, rec := range records {
		keyed[strconv.FormatInt(id, 10)] = rec
	}
	data, err := json.Marshal(keyed)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	return s.kv.Set(ctx, unifiedKey(userID), data)
}

func decodeRecords(data []byte) (map[int64]Record, error) {
	var keyed map[string]Record
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	records := make(map[int64]Record, len(keyed))
	for key, rec := range keyed {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		records[id] = rec
	}
	return records, nil
}

// RecordClick 幂等记录一次点击，重复保存不产生重复。
func (s *Store) RecordClick(ctx context.Context, userID string, mediaID int64) error {
	return s.updateInteractions(ctx, userID, func(in *Interactions) {
		in.Clicked[mediaID] = true
	})
}

// RecordView 幂等记录一次详情浏览。
func (s *Store) RecordView(ctx context.Context, userID string, mediaID int64) error {
	return s.updateInteractions(ctx, userID, func(in *Interactions) {
		in.Viewed[mediaID] = true
	})
}

// RecordImpression 累加一次无点击曝光。
func (s *Store) RecordImpression(ctx context.Context, userID string, mediaID int64) error {
	return s.updateInteractions(ctx, userID, func(in *Interactions) {
		in.Impressions[mediaID]++
	})
}

// RecordSkip 累加一次明确跳过。
func (s *Store) RecordSkip(ctx context.Context, userID string, mediaID int64) error {
	return s.updateInteractions(ctx, userID, func(in *Interactions) {
		in.Skipped[mediaID]++
	})
}

// Interactions 加载隐式交互计数，缺失时返回空集合。
func (s *Store) Interactions(ctx context.Context, userID string) (*Interactions, error) {
	data, err := s.kv.Get(ctx, interactionsKey(userID))
	if core.IsStoreNotFound(err) {
		return newInteractions(), nil
	}
	if err != nil {
		return nil, err
	}
	in := newInteractions()
	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("decode interactions: %w", err)
	}
	return in, nil
}

func (s *Store) updateInteractions(ctx context.Context, userID string, apply func(*Interactions)) error {
	in, err := s.Interactions(ctx, userID)
	if err != nil {
		return err
	}
	apply(in)
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode interactions: %w", err)
	}
	return s.kv.Set(ctx, interactionsKey(userID), data)
}

// ApplyToProfile 把反馈与交互灌进画像的对应维度。
func (s *Store) ApplyToProfile(ctx context.Context, profile *core.UserProfile) error {
	records, err := s.Feedback(ctx, profile.UserID)
	if err != nil {
		return err
	}
	for id, rec := range records {
		switch rec.Type {
		case TypeLike:
			profile.Liked[id] = true
			profile.LikedSummaries[id] = rec.Summary
		case TypeDislike:
			profile.Disliked[id] = true
			profile.DislikedSummaries[id] = rec.Summary
		}
	}

	in, err := s.Interactions(ctx, profile.UserID)
	if err != nil {
		return err
	}
	for id := range in.Clicked {
		profile.Clicked[id] = true
	}
	for id := range in.Viewed {
		profile.Viewed[id] = true
	}
	for id, n := range in.Impressions {
		profile.Impressions[id] = n
	}
	return nil
}
