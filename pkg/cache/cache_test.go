package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCache_RoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "topology:snapshot", []byte("payload"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, ok, err := c.Get(ctx, "topology:snapshot")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if string(data) != "payload" {
		t.Errorf("Get() = %q, want %q", data, "payload")
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() hit for absent key")
	}
}

func TestFileCache_Expiration(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, ok, err := c.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() hit for expired entry")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get() hit after Delete")
	}
	// Deleting again must not error.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("NullCache returned a hit")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.FlowchartKey("system-overview") != k.FlowchartKey("system-overview") {
		t.Error("FlowchartKey not stable for identical input")
	}
	if k.FlowchartKey("a") == k.FlowchartKey("b") {
		t.Error("FlowchartKey collision for distinct ids")
	}
	if k.LayoutKey("h", "force", map[string]int{"iterations": 100}) ==
		k.LayoutKey("h", "grid", map[string]int{"iterations": 100}) {
		t.Error("LayoutKey ignores algorithm")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "tenant:42:")

	if got, want := scoped.TopologyKey(), "tenant:42:"+base.TopologyKey(); got != want {
		t.Errorf("TopologyKey() = %q, want %q", got, want)
	}
}

func TestHash_Stable(t *testing.T) {
	if Hash([]byte("abc")) != Hash([]byte("abc")) {
		t.Error("Hash not stable")
	}
	if len(Hash([]byte("abc"))) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash([]byte("abc"))))
	}
}
