package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/store"
)

func newTestStore() *Store {
	return NewStore(store.NewMemoryStore())
}

func TestSaveAndLoadFeedback(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec := Record{
		MediaID: 42,
		Type:    TypeLike,
		Reasons: []string{"genre"},
		Context: "detail_page",
		Summary: core.MediaSummary{Title: "Test", Genres: []string{"Action"}},
	}
	if err := s.Save(ctx, "u1", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := s.Feedback(ctx, "u1")
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	got, ok := records[42]
	if !ok {
		t.Fatal("record not found")
	}
	if got.Type != TypeLike || got.Summary.Title != "Test" {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on save")
	}

	// overwrite flips the type without duplicating
	rec.Type = TypeDislike
	if err := s.Save(ctx, "u1", rec); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	records, _ = s.Feedback(ctx, "u1")
	if len(records) != 1 || records[42].Type != TypeDislike {
		t.Errorf("overwrite failed: %+v", records)
	}

	if err := s.Remove(ctx, "u1", 42); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	records, _ = s.Feedback(ctx, "u1")
	if len(records) != 0 {
		t.Errorf("got %d records after remove, want 0", len(records))
	}
}

func TestSaveRejectsMissingMediaID(t *testing.T) {
	s := newTestStore()
	if err := s.Save(context.Background(), "u1", Record{Type: TypeLike}); err == nil {
		t.Error("expected validation error for missing media id")
	}
}

func TestLegacyDualRead(t *testing.T) {
	kv := store.NewMemoryStore()
	s := NewStore(kv)
	ctx := context.Background()

	// seed only legacy per-id keys, no unified key
	legacy := Record{
		MediaID:   7,
		Type:      TypeDislike,
		Reasons:   []string{"studio"},
		Summary:   core.MediaSummary{Title: "Old", Genres: []string{"Horror"}},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	raw, _ := json.Marshal(legacy)
	if err := kv.Set(ctx, "feedback:u1:7", raw); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	// record without an embedded id: the key carries it
	raw2, _ := json.Marshal(Record{Type: TypeLike})
	_ = kv.Set(ctx, "feedback:u1:8", raw2)
	// other users' legacy keys are invisible
	_ = kv.Set(ctx, "feedback:u2:9", raw)

	records, err := s.Feedback(ctx, "u1")
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d legacy records, want 2", len(records))
	}
	if records[7].Type != TypeDislike || records[7].Summary.Title != "Old" {
		t.Errorf("legacy record 7 = %+v", records[7])
	}
	if records[8].MediaID != 8 {
		t.Errorf("media id should be backfilled from the key, got %d", records[8].MediaID)
	}

	// a save migrates reads onto the unified key, which then wins
	if err := s.Save(ctx, "u1", Record{MediaID: 10, Type: TypeLike}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	records, _ = s.Feedback(ctx, "u1")
	if len(records) != 3 {
		t.Errorf("got %d records after save, want legacy + new = 3", len(records))
	}
}

func TestInteractionsIdempotencyAndCounters(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.RecordClick(ctx, "u1", 5); err != nil {
			t.Fatalf("RecordClick: %v", err)
		}
		if err := s.RecordView(ctx, "u1", 5); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
		if err := s.RecordImpression(ctx, "u1", 5); err != nil {
			t.Fatalf("RecordImpression: %v", err)
		}
	}
	if err := s.RecordSkip(ctx, "u1", 6); err != nil {
		t.Fatalf("RecordSkip: %v", err)
	}

	in, err := s.Interactions(ctx, "u1")
	if err != nil {
		t.Fatalf("Interactions: %v", err)
	}
	if !in.Clicked[5] || len(in.Clicked) != 1 {
		t.Errorf("clicks must be idempotent: %+v", in.Clicked)
	}
	if !in.Viewed[5] || len(in.Viewed) != 1 {
		t.Errorf("views must be idempotent: %+v", in.Viewed)
	}
	if in.Impressions[5] != 3 {
		t.Errorf("Impressions[5] = %d, want 3 (counter)", in.Impressions[5])
	}
	if in.Skipped[6] != 1 {
		t.Errorf("Skipped[6] = %d, want 1", in.Skipped[6])
	}
}

func TestApplyToProfile(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_ = s.Save(ctx, "u1", Record{
		MediaID: 1, Type: TypeLike,
		Summary: core.MediaSummary{Title: "L", Genres: []string{"Action"}},
	})
	_ = s.Save(ctx, "u1", Record{
		MediaID: 2, Type: TypeDislike,
		Summary: core.MediaSummary{Title: "D", Genres: []string{"Horror"}},
	})
	_ = s.RecordClick(ctx, "u1", 3)
	_ = s.RecordImpression(ctx, "u1", 4)
	_ = s.RecordImpression(ctx, "u1", 4)

	profile := core.NewUserProfile("u1")
	if err := s.ApplyToProfile(ctx, profile); err != nil {
		t.Fatalf("ApplyToProfile: %v", err)
	}

	if !profile.Liked[1] || !profile.Disliked[2] {
		t.Error("explicit feedback not applied")
	}
	if profile.LikedSummaries[1].Title != "L" || profile.DislikedSummaries[2].Title != "D" {
		t.Error("summaries not applied")
	}
	if !profile.Clicked[3] {
		t.Error("click not applied")
	}
	if profile.Impressions[4] != 2 {
		t.Errorf("Impressions[4] = %d, want 2", profile.Impressions[4])
	}
}

func TestInsights(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_ = s.Save(ctx, "u1", Record{
		MediaID: 1, Type: TypeLike,
		Summary: core.MediaSummary{Genres: []string{"Action", "Drama"}},
	})
	_ = s.Save(ctx, "u1", Record{
		MediaID: 2, Type: TypeLike,
		Summary: core.MediaSummary{Genres: []string{"Action"}},
	})
	_ = s.Save(ctx, "u1", Record{
		MediaID: 3, Type: TypeDislike,
		Reasons: []string{"genre", "studio"},
		Summary: core.MediaSummary{Genres: []string{"Horror"}},
	})
	_ = s.RecordClick(ctx, "u1", 1)
	_ = s.RecordSkip(ctx, "u1", 3)

	in, err := s.Insights(ctx, "u1")
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if in.Likes != 2 || in.Dislikes != 1 {
		t.Errorf("likes/dislikes = %d/%d, want 2/1", in.Likes, in.Dislikes)
	}
	if len(in.LikedGenres) == 0 || in.LikedGenres[0].Genre != "Action" || in.LikedGenres[0].Count != 2 {
		t.Errorf("LikedGenres = %+v, want Action first", in.LikedGenres)
	}
	if len(in.TopReasons) != 2 {
		t.Errorf("TopReasons = %v", in.TopReasons)
	}
	if in.Clicks != 1 || in.Skips != 1 {
		t.Errorf("clicks/skips = %d/%d", in.Clicks, in.Skips)
	}
}
