package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardscan/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cardscan")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Store.Path != filepath.Join(wantData, "cardscan.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.Matching.SameThreshold != 0.85 || cfg.Matching.DifferentThreshold != 0.50 {
		t.Fatalf("unexpected match thresholds: %+v", cfg.Matching)
	}
	if cfg.Geometry.IdentityMinArea != 0.2 || cfg.Geometry.PolygonMinArea != 0.001 {
		t.Fatalf("unexpected geometry thresholds: %+v", cfg.Geometry)
	}
	if len(cfg.Tiers.FrontSubgrades) == 0 || len(cfg.Tiers.BackSubgrades) == 0 {
		t.Fatal("expected default subgrade buckets")
	}
}

func TestLoadHonoursEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("CARDSCAN_DATA_DIR", dataDir)
	t.Setenv("CARDSCAN_LOG_LEVEL", " DEBUG ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadCustomFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cardscan.toml")

	custom := config.Default()
	custom.Matching.SameThreshold = 0.9
	custom.Matching.DifferentThreshold = 0.4
	custom.Tiers.FrontSubgrades = []config.Subgrade{
		{MaxWorst: 60, Grade: 9},
		{MaxWorst: 51, Grade: 10},
	}
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Matching.SameThreshold != 0.9 {
		t.Fatalf("expected same threshold 0.9, got %v", cfg.Matching.SameThreshold)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Tiers.FrontSubgrades[0].MaxWorst != 51 {
		t.Fatalf("expected subgrade buckets sorted ascending, got %+v", cfg.Tiers.FrontSubgrades)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cardscan.toml")
	if err := os.WriteFile(path, []byte("[matching]\nsame_treshold = 0.9\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"different above same", func(c *config.Config) { c.Matching.DifferentThreshold = 0.9 }, "matching.different_threshold"},
		{"aspect inverted", func(c *config.Config) { c.Geometry.AspectMin = 0.95 }, "geometry.aspect_min"},
		{"area out of range", func(c *config.Config) { c.Geometry.IdentityMinArea = 1.5 }, "geometry.identity_min_area"},
		{"front tiers inverted", func(c *config.Config) { c.Tiers.FrontGemMint = 50 }, "tiers.front_pristine"},
		{"zero weights", func(c *config.Config) { c.Matching.PHashWeight = 0; c.Matching.DHashWeight = 0 }, "phash_weight"},
		{"tiny warp", func(c *config.Config) { c.Warp.Width = 8 }, "warp.width"},
		{"bad subgrade", func(c *config.Config) { c.Tiers.BackSubgrades = []config.Subgrade{{MaxWorst: 40, Grade: 10}} }, "tiers.back_subgrades[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Warp.Width != 500 || cfg.Warp.Height != 700 {
		t.Fatalf("unexpected warp size from sample: %+v", cfg.Warp)
	}
}
