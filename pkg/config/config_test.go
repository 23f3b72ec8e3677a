package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valhq/flowscope/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8095" {
		t.Errorf("Server.Addr = %q, want :8095", cfg.Server.Addr)
	}
	if cfg.Server.PollInterval.Duration() != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.Server.PollInterval.Duration())
	}
	if cfg.Cache.Backend != "none" || cfg.Store.Backend != "memory" {
		t.Errorf("backends = %q/%q, want none/memory", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if cfg.Layout.DefaultAlgorithm != "hierarchical" {
		t.Errorf("DefaultAlgorithm = %q, want hierarchical", cfg.Layout.DefaultAlgorithm)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowscope.toml")
	content := `
[server]
addr = ":9000"
poll_interval = "10s"

[docker]
host = "tcp://docker.internal:2375"

[cache]
backend = "redis"
addr = "localhost:6379"
ttl = "1m"

[store]
backend = "mongo"
uri = "mongodb://localhost:27017"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Server.PollInterval.Duration() != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.Server.PollInterval.Duration())
	}
	if cfg.Server.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want untouched default 10s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Docker.Host != "tcp://docker.internal:2375" {
		t.Errorf("Docker.Host = %q", cfg.Docker.Host)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL.Duration() != time.Minute {
		t.Errorf("Cache = %+v, want redis with 1m ttl", cfg.Cache)
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("Store.Backend = %q, want mongo", cfg.Store.Backend)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"unknown store backend", "[store]\nbackend = \"dynamo\"\n"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"bad duration", "[server]\npoll_interval = \"fast\"\n"},
		{"unknown layout algorithm", "[layout]\ndefault_algorithm = \"spiral\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want invalid-config", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.toml")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) error = %v, want invalid-config", err)
	}
}

func TestLayoutParams(t *testing.T) {
	base := LayoutConfig{}.Params()
	if base.Grid.Columns != 4 {
		t.Errorf("default Grid.Columns = %d, want 4", base.Grid.Columns)
	}

	tuned := LayoutConfig{GridColumns: 6, LevelHeight: 200, ForceIterations: 50}.Params()
	if tuned.Grid.Columns != 6 {
		t.Errorf("Grid.Columns = %d, want 6", tuned.Grid.Columns)
	}
	if tuned.Hierarchical.LevelHeight != 200 {
		t.Errorf("Hierarchical.LevelHeight = %v, want 200", tuned.Hierarchical.LevelHeight)
	}
	if tuned.Force.Iterations != 50 {
		t.Errorf("Force.Iterations = %d, want 50", tuned.Force.Iterations)
	}
	// Untouched defaults survive overrides.
	if tuned.Grid.GapX != base.Grid.GapX {
		t.Errorf("Grid.GapX = %v, want %v", tuned.Grid.GapX, base.Grid.GapX)
	}
}
