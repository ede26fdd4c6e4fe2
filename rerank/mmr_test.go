package rerank

import (
	"math"
	"testing"

	"github.com/rushteam/mediarec/core"
)

func ranked(t *testing.T, id int64, meta float64, genres ...string) *core.RankedCandidate {
	t.Helper()
	c, err := core.NewCandidate(&core.Media{
		ID:     id,
		Title:  core.MediaTitle{Romaji: "Media"},
		Genres: genres,
	}, core.SourceTrending)
	if err != nil {
		t.Fatalf("NewCandidate: %v", err)
	}
	return &core.RankedCandidate{
		Candidate: c,
		Scores:    core.Scores{Meta: meta},
	}
}

func TestRerankSmallInputPassthrough(t *testing.T) {
	mmr := NewMMR(core.DefaultEngineConfig().MMR)
	in := []*core.RankedCandidate{
		ranked(t, 1, 0.9, "Action"),
		ranked(t, 2, 0.5, "Drama"),
	}

	out := mmr.Rerank(in, 10, 0.6)
	if len(out) != 2 {
		t.Fatalf("got %d, want all input when len <= k", len(out))
	}
	for i, fc := range out {
		want := 0.6 * in[i].Scores.Meta
		if math.Abs(fc.Final-want) > 1e-9 {
			t.Errorf("Final[%d] = %v, want λ·meta = %v", i, fc.Final, want)
		}
	}
}

func TestRerankSubsetInvariants(t *testing.T) {
	mmr := NewMMR(core.DefaultEngineConfig().MMR)
	in := []*core.RankedCandidate{
		ranked(t, 1, 0.95, "Action", "Mecha"),
		ranked(t, 2, 0.90, "Action", "Mecha"),
		ranked(t, 3, 0.85, "Romance"),
		ranked(t, 4, 0.80, "Horror"),
		ranked(t, 5, 0.75, "Action", "Mecha"),
	}
	inIDs := make(map[int64]bool)
	for _, rc := range in {
		inIDs[rc.Media.ID] = true
	}

	out := mmr.Rerank(in, 3, 0.5)
	if len(out) != 3 {
		t.Fatalf("got %d, want k=3", len(out))
	}
	seen := make(map[int64]bool)
	for _, fc := range out {
		if seen[fc.Media.ID] {
			t.Errorf("duplicate id %d in output", fc.Media.ID)
		}
		seen[fc.Media.ID] = true
		if !inIDs[fc.Media.ID] {
			t.Errorf("id %d not in input: output must be a subset", fc.Media.ID)
		}
	}
	// the top-relevance item is always picked first
	if out[0].Media.ID != 1 {
		t.Errorf("first pick = %d, want highest meta-score item", out[0].Media.ID)
	}
}

func TestRerankPrefersDiversity(t *testing.T) {
	mmr := NewMMR(core.DefaultEngineConfig().MMR)
	in := []*core.RankedCandidate{
		ranked(t, 1, 0.95, "Action", "Mecha"),
		ranked(t, 2, 0.94, "Action", "Mecha"), // near-duplicate of 1
		ranked(t, 3, 0.70, "Romance"),         // dissimilar
	}

	// low lambda weights diversity: the dissimilar item beats the near-duplicate
	out := mmr.Rerank(in, 2, 0.3)
	if len(out) != 2 {
		t.Fatalf("got %d, want 2", len(out))
	}
	if out[1].Media.ID != 3 {
		t.Errorf("second pick = %d, want the dissimilar item under diversity-weighted λ", out[1].Media.ID)
	}
}

func TestLambdaAdaptation(t *testing.T) {
	cfg := core.DefaultEngineConfig().MMR
	mmr := NewMMR(cfg)

	genreEntry := func(id int64, genre string) core.MediaListEntry {
		return core.MediaListEntry{
			Media: &core.Media{
				ID:     id,
				Title:  core.MediaTitle{Romaji: "Seed"},
				Genres: []string{genre},
			},
			Status: core.StatusCompleted,
			Score:  80,
		}
	}
	withGenres := func(mode string, n int) *core.UserProfile {
		p := core.NewUserProfile("u")
		p.Prefs.DiversityMode = mode
		genres := []string{"Action", "Drama", "Romance", "Horror", "Comedy", "Mecha",
			"Sports", "Mystery", "Thriller", "Fantasy", "SciFi", "Slice", "Music",
			"Historical", "War", "Noir", "Western", "Cyberpunk"}
		for i := 0; i < n; i++ {
			p.Entries = append(p.Entries, genreEntry(int64(i+1), genres[i%len(genres)]))
		}
		return p
	}

	tests := []struct {
		name string
		p    *core.UserProfile
		want float64
	}{
		{"balanced default", withGenres("balanced", 8), cfg.LambdaBalanced},
		{"safe mode", withGenres("safe", 8), cfg.LambdaSafe},
		{"adventurous mode", withGenres("adventurous", 8), cfg.LambdaAdventurous},
		{"narrow history nudges up", withGenres("balanced", 2), cfg.LambdaBalanced + 0.1},
		{"broad history nudges down", withGenres("balanced", 18), cfg.LambdaBalanced - 0.1},
		// safe (0.7) + narrow (+0.1) = 0.8, exactly the cap
		{"clamped at max", withGenres("safe", 2), cfg.LambdaMax},
		// adventurous (0.3) + broad (−0.1) = 0.2, below the floor
		{"clamped at min", withGenres("adventurous", 18), cfg.LambdaMin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mmr.Lambda(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Lambda() = %v, want %v", got, tt.want)
			}
		})
	}
}
