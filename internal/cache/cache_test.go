package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("embed", "model", "text")
	b := Key("embed", "model", "text")
	c := Key("embed", "modeltext")

	if a != b {
		t.Errorf("expected stable keys, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected part boundaries to change the key")
	}
	if !strings.HasPrefix(a, "checkmate:v1:embed:") {
		t.Errorf("unexpected prefix: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	_ = c.Set("k", []byte("v"), 0)
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("embed", "hello")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "payload" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of removed key should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	memory := NewMemoryCache(time.Hour, time.Minute)
	c := &LayeredCache{memory: memory, disk: disk}

	_ = disk.Set("k", []byte("v"), 0)

	if _, ok := memory.Get("k"); ok {
		t.Fatal("memory should start empty")
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("layered Get = %q, %v", got, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	in := []float32{0.5, -1, 2}
	if err := SetJSON(c, "vec", in, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var out []float32
	if !GetJSON(c, "vec", &out) {
		t.Fatal("expected hit")
	}
	if len(out) != 3 || out[1] != -1 {
		t.Errorf("unexpected decoded value: %v", out)
	}

	_ = c.Set("bad", []byte("{"), 0)
	if GetJSON(c, "bad", &out) {
		t.Error("corrupt entry should count as a miss")
	}
}
