package recall

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/mediarec/core"
)

type stubRecs struct {
	recs map[int64][]core.RecEdge
	gotSeeds []int64
	err  error
}

func (s *stubRecs) RecommendationsForSeeds(_ context.Context, seedIDs []int64) (map[int64][]core.RecEdge, error) {
	s.gotSeeds = seedIDs
	return s.recs, s.err
}

type stubTrending struct {
	pages map[int][]*core.Media
	err   error
}

func (s *stubTrending) Trending(_ context.Context, page, _ int) ([]*core.Media, error) {
	return s.pages[page], s.err
}

func media(id int64, genres ...string) *core.Media {
	return &core.Media{
		ID:     id,
		Title:  core.MediaTitle{Romaji: "Media"},
		Genres: genres,
		Format: core.FormatTV,
	}
}

func entry(id int64, status core.ListStatus, score float64, genres ...string) core.MediaListEntry {
	return core.MediaListEntry{Media: media(id, genres...), Status: status, Score: score}
}

func TestCollaborativeAggregatesAcrossSeeds(t *testing.T) {
	cfg := core.DefaultEngineConfig().Generation
	profile := core.NewUserProfile("u")
	profile.Entries = []core.MediaListEntry{
		entry(1, core.StatusCompleted, 90, "Action"),
		entry(2, core.StatusCompleted, 85, "Drama"),
		entry(3, core.StatusCompleted, 50, "Comedy"), // below seed threshold
	}

	shared := media(100, "Action")
	fetcher := &stubRecs{recs: map[int64][]core.RecEdge{
		1: {{Media: shared, Rating: 50}, {Media: media(101, "Drama"), Rating: 10}},
		2: {{Media: shared, Rating: 30}},
	}}

	src := &Collaborative{Fetcher: fetcher, Config: cfg}
	out, err := src.Recall(context.Background(), profile)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}

	if len(fetcher.gotSeeds) != 2 {
		t.Errorf("seeds = %v, want the two entries scoring >= 80", fetcher.gotSeeds)
	}
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}

	first := out[0]
	if first.Media.ID != 100 {
		t.Fatalf("first candidate id = %d, want the shared recommendation", first.Media.ID)
	}
	want := math.Log1p(50) + math.Log1p(30)
	if math.Abs(first.CFWeight-want) > 1e-9 {
		t.Errorf("CFWeight = %v, want log1p summation %v", first.CFWeight, want)
	}
	if len(first.SeedIDs) != 2 {
		t.Errorf("SeedIDs = %v, want both contributing seeds", first.SeedIDs)
	}
}

func TestCollaborativeFallbackToRecentCompleted(t *testing.T) {
	cfg := core.DefaultEngineConfig().Generation
	profile := core.NewUserProfile("u")
	// nothing scored >= 80, but completed entries exist
	profile.Entries = []core.MediaListEntry{
		entry(1, core.StatusCompleted, 60, "Action"),
	}

	fetcher := &stubRecs{recs: map[int64][]core.RecEdge{}}
	src := &Collaborative{Fetcher: fetcher, Config: cfg}
	if _, err := src.Recall(context.Background(), profile); err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(fetcher.gotSeeds) != 1 || fetcher.gotSeeds[0] != 1 {
		t.Errorf("seeds = %v, want fallback to recent completed", fetcher.gotSeeds)
	}
}

func TestContentThresholdAndTruncation(t *testing.T) {
	cfg := core.DefaultEngineConfig().Generation
	cfg.ContentTopK = 1

	profile := core.NewUserProfile("u")
	profile.Entries = []core.MediaListEntry{
		entry(1, core.StatusCompleted, 90, "Action", "Mecha"),
	}

	fetcher := &stubTrending{pages: map[int][]*core.Media{
		1: {
			media(100, "Action", "Mecha"), // similar
			media(101, "Action"),          // somewhat similar
			media(102, "Romance"),         // dissimilar, below threshold
		},
	}}

	src := &Content{Fetcher: fetcher, Config: cfg}
	out, err := src.Recall(context.Background(), profile)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d, want truncation to top 1", len(out))
	}
	if out[0].Media.ID != 100 {
		t.Errorf("top candidate = %d, want the most similar", out[0].Media.ID)
	}
	if out[0].SimScore <= 0 {
		t.Error("SimScore must be recorded")
	}
	if len(out[0].SeedIDs) != 1 || out[0].SeedIDs[0] != 1 {
		t.Errorf("SeedIDs = %v, want the best-matching seed", out[0].SeedIDs)
	}
}

func TestWatchingUsesCurrentEntriesAndStricterThreshold(t *testing.T) {
	cfg := core.DefaultEngineConfig().Generation

	profile := core.NewUserProfile("u")
	profile.Entries = []core.MediaListEntry{
		entry(1, core.StatusCurrent, 0, "Action", "Mecha"),
		entry(2, core.StatusCompleted, 95, "Romance"), // completed, not a watching seed
	}

	// page 2 is the watching pool; the item similar only to the completed entry must not surface
	fetcher := &stubTrending{pages: map[int][]*core.Media{
		2: {
			media(100, "Action", "Mecha"),
			media(101, "Romance"),
		},
	}}

	src := &Watching{Fetcher: fetcher, Config: cfg}
	out, err := src.Recall(context.Background(), profile)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 1 || out[0].Media.ID != 100 {
		t.Fatalf("got %v, want only the item similar to the CURRENT entry", out)
	}
	if !out[0].HasSource(core.SourceWatching) {
		t.Error("source tag must be watching")
	}
}

func TestRelationWalksStrongEdgesOnly(t *testing.T) {
	cfg := core.DefaultEngineConfig().Generation

	seed := media(1, "Action")
	seed.Relations = []core.Relation{
		{Type: core.RelationSequel, MediaID: 100, Media: media(100, "Action")},
		{Type: core.RelationCharacter, MediaID: 101, Media: media(101, "Action")}, // weak, skipped
		{Type: core.RelationSideStory, MediaID: 102, Media: nil},                  // bare edge, skipped
	}
	profile := core.NewUserProfile("u")
	profile.Entries = []core.MediaListEntry{
		{Media: seed, Status: core.StatusCompleted, Score: 90},
	}

	src := &Relation{Config: cfg}
	out, err := src.Recall(context.Background(), profile)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 1 || out[0].Media.ID != 100 {
		t.Fatalf("got %v, want only the sequel target", out)
	}
	if len(out[0].SeedIDs) != 1 || out[0].SeedIDs[0] != 1 {
		t.Errorf("SeedIDs = %v, want the seed that owns the edge", out[0].SeedIDs)
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	profile := core.NewUserProfile("u")

	failing := &stubSource{name: "boom", err: errors.New("upstream down")}
	working := &stubSource{name: "ok", out: []*core.Candidate{
		mustCandidate(t, media(1, "Action"), core.SourceTrending),
	}}

	fanout := &Fanout{Sources: []Source{failing, working}}
	out, err := fanout.Process(context.Background(), profile, nil)
	if err != nil {
		t.Fatalf("one failing source must not fail the fanout: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want the working source's output", len(out))
	}

	// every source failing is a hard error
	allFail := &Fanout{Sources: []Source{failing}}
	if _, err := allFail.Process(context.Background(), profile, nil); err == nil {
		t.Error("expected error when all sources fail")
	}
}

func TestFanoutPreservesSourceOrder(t *testing.T) {
	profile := core.NewUserProfile("u")

	a := &stubSource{name: "a", out: []*core.Candidate{
		mustCandidate(t, media(1, "Action"), core.SourceWatching),
	}}
	b := &stubSource{name: "b", out: []*core.Candidate{
		mustCandidate(t, media(2, "Drama"), core.SourceContent),
	}}

	fanout := &Fanout{Sources: []Source{a, b}}
	out, err := fanout.Process(context.Background(), profile, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 || out[0].Media.ID != 1 || out[1].Media.ID != 2 {
		t.Errorf("output must follow declared source order, got %v", out)
	}
}

type stubSource struct {
	name string
	out  []*core.Candidate
	err  error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Recall(context.Context, *core.UserProfile) ([]*core.Candidate, error) {
	return s.out, s.err
}

func mustCandidate(t *testing.T, m *core.Media, source core.SourceKind) *core.Candidate {
	t.Helper()
	c, err := core.NewCandidate(m, source)
	if err != nil {
		t.Fatalf("NewCandidate: %v", err)
	}
	return c
}
