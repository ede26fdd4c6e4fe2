package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	if cfg.RateLimit.MaxRequests != 85 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("rate limit defaults = %d/%v", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	if cfg.Status.DislikePenalty != 0.10 {
		t.Errorf("DislikePenalty = %v, want 0.10", cfg.Status.DislikePenalty)
	}
	if cfg.MMR.LambdaSafe != 0.7 || cfg.MMR.LambdaBalanced != 0.5 || cfg.MMR.LambdaAdventurous != 0.3 {
		t.Errorf("lambda defaults = %v/%v/%v",
			cfg.MMR.LambdaSafe, cfg.MMR.LambdaBalanced, cfg.MMR.LambdaAdventurous)
	}
	if cfg.Generation.SeedBatchSize != 10 || cfg.Generation.RecsPerSeed != 20 {
		t.Errorf("batch defaults = %d/%d", cfg.Generation.SeedBatchSize, cfg.Generation.RecsPerSeed)
	}

	// weights must keep dislike dominance workable: negative weight is a real penalty
	if cfg.Weights.FeedbackNegative <= 0 {
		t.Error("feedback negative weight should be positive (used as a subtrahend)")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := []byte(`
version: 2
generation:
  collab_seeds: 8
mmr:
  lambda_safe: 0.75
rate_limit:
  max_requests: 60
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFromYAML(path)
	if err != nil {
		t.Fatalf("LoadConfigFromYAML: %v", err)
	}

	if cfg.Version != 2 {
		t.Errorf("Version = %d, want 2", cfg.Version)
	}
	if cfg.Generation.CollabSeeds != 8 {
		t.Errorf("CollabSeeds = %d, want override 8", cfg.Generation.CollabSeeds)
	}
	if cfg.MMR.LambdaSafe != 0.75 {
		t.Errorf("LambdaSafe = %v, want override 0.75", cfg.MMR.LambdaSafe)
	}
	if cfg.RateLimit.MaxRequests != 60 {
		t.Errorf("MaxRequests = %d, want override 60", cfg.RateLimit.MaxRequests)
	}

	// untouched fields inherit defaults
	if cfg.Generation.ContentSeeds != 10 {
		t.Errorf("ContentSeeds = %d, want default 10", cfg.Generation.ContentSeeds)
	}
	if cfg.Status.DislikePenalty != 0.10 {
		t.Errorf("DislikePenalty = %v, want default", cfg.Status.DislikePenalty)
	}
}

func TestLoadConfigFromYAMLErrors(t *testing.T) {
	if _, err := LoadConfigFromYAML("/nonexistent/engine.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("::: not yaml"), 0o644)
	if _, err := LoadConfigFromYAML(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
