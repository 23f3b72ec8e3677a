package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCacheDir(t *testing.T) {
	dir := defaultCacheDir()

	if dir == "" {
		t.Fatal("defaultCacheDir() returned empty string")
	}

	if filepath.Base(dir) != "flowscope" {
		t.Errorf("defaultCacheDir() = %q, should end with 'flowscope'", dir)
	}
}

func TestCacheClearCmd(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "ab")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{filepath.Join(dir, "one.json"), filepath.Join(sub, "two.json")} {
		if err := os.WriteFile(name, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cmd := newCacheClearCmd()
	cmd.SetArgs([]string{"--dir", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("file %q should have been removed", e.Name())
		}
	}
}

func TestCacheClearMissingDir(t *testing.T) {
	cmd := newCacheClearCmd()
	cmd.SetArgs([]string{"--dir", filepath.Join(t.TempDir(), "does-not-exist")})
	if err := cmd.Execute(); err != nil {
		t.Errorf("cache clear on missing dir should not error, got %v", err)
	}
}

func TestCacheInfoCmd(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "entry.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newCacheInfoCmd()
	cmd.SetArgs([]string{"--dir", dir})
	if err := cmd.Execute(); err != nil {
		t.Errorf("cache info error: %v", err)
	}
	if !strings.HasSuffix(defaultCacheDir(), "flowscope") {
		t.Errorf("defaultCacheDir() = %q, want flowscope suffix", defaultCacheDir())
	}
}
