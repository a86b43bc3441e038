package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server defaults: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Cache.DistanceThreshold != 0.5 || cfg.Cache.MinMatches != 5 {
		t.Errorf("unexpected gate defaults: %f %d", cfg.Cache.DistanceThreshold, cfg.Cache.MinMatches)
	}
	if cfg.Query.MaxLength != 512 {
		t.Errorf("unexpected query max length %d", cfg.Query.MaxLength)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("unexpected embedding defaults: %s %d", cfg.Embedding.Provider, cfg.Embedding.Dimensions)
	}
	if cfg.Session.TTLMinutes != 15 {
		t.Errorf("unexpected session TTL %d", cfg.Session.TTLMinutes)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
cache:
  distance_threshold: 0.35
  min_matches: 3
embedding:
  provider: mock
  dimensions: 64
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("unexpected port %d", cfg.Server.Port)
	}
	if cfg.Cache.DistanceThreshold != 0.35 || cfg.Cache.MinMatches != 3 {
		t.Errorf("unexpected gate: %f %d", cfg.Cache.DistanceThreshold, cfg.Cache.MinMatches)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 64 {
		t.Errorf("unexpected embedding: %s %d", cfg.Embedding.Provider, cfg.Embedding.Dimensions)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: ./data/posts.db
  vector_index_path: ./data/index.bin
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/posts.db") {
		t.Errorf("database path not expanded: %q", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.VectorIndexPath != filepath.Join(dir, "data/index.bin") {
		t.Errorf("index path not expanded: %q", cfg.Storage.VectorIndexPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{ not yaml"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Cache.DistanceThreshold = 0.42
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Cache.DistanceThreshold != 0.42 {
		t.Errorf("round trip lost threshold: %f", loaded.Cache.DistanceThreshold)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  distance_threshold: 0.5\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("cache:\n  distance_threshold: 0.3\n  min_matches: 2\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Cache.DistanceThreshold != 0.3 || cfg.Cache.MinMatches != 2 {
			t.Errorf("unexpected reloaded gate: %f %d", cfg.Cache.DistanceThreshold, cfg.Cache.MinMatches)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600); err != nil {
		t.Fatalf("write other file: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("unrelated file change must not trigger a reload")
	case <-time.After(time.Second):
	}
}
