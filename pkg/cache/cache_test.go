package cache

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCacheNeverStores(t *testing.T) {
	ctx := t.Context()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "cloud:x", []byte("points"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "cloud:x")
	if hit || data != nil || err != nil {
		t.Errorf("Get() = %q, %v, %v; want a clean miss", data, hit, err)
	}
	if err := c.Delete(ctx, "cloud:x"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestKeys(t *testing.T) {
	k := NewDefaultKeyer()
	galaxy := CloudKeyOpts{Shape: "galaxy", Count: 8000, Seed: 1}

	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"cloud is deterministic", k.CloudKey(galaxy), k.CloudKey(galaxy), true},
		{"seed matters", k.CloudKey(galaxy), k.CloudKey(CloudKeyOpts{Shape: "galaxy", Count: 8000, Seed: 2}), false},
		{"count matters", k.CloudKey(galaxy), k.CloudKey(CloudKeyOpts{Shape: "galaxy", Count: 8001, Seed: 1}), false},
		{"format matters", k.ArtifactKey("h1", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("h1", ArtifactKeyOpts{Format: "png"}), false},
		{"cloud hash matters", k.ArtifactKey("h1", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("h2", ArtifactKeyOpts{Format: "svg"}), false},
		{"scale matters", k.ArtifactKey("h1", ArtifactKeyOpts{Scale: 1}), k.ArtifactKey("h1", ArtifactKeyOpts{Scale: 1.5}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys %s and %s: same=%v, want %v", tt.a, tt.b, tt.a == tt.b, tt.same)
			}
		})
	}

	ck := k.CloudKey(galaxy)
	if !strings.HasPrefix(ck, "cloud:") || len(ck) != len("cloud:")+64 {
		t.Errorf("CloudKey = %s", ck)
	}
	if ak := k.ArtifactKey("h1", ArtifactKeyOpts{}); !strings.HasPrefix(ak, "artifact:") {
		t.Errorf("ArtifactKey = %s", ak)
	}
	if Hash([]byte("kite")) == Hash([]byte("kite ")) || len(Hash(nil)) != 64 {
		t.Error("Hash should be a 64-char content hash")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := CloudKeyOpts{Shape: "kite", Count: 10}
	base := NewDefaultKeyer()

	for _, inner := range []Keyer{base, nil} {
		scoped := NewScopedKeyer(inner, "staging:")
		if got, want := scoped.CloudKey(opts), "staging:"+base.CloudKey(opts); got != want {
			t.Errorf("CloudKey = %s, want %s", got, want)
		}
		if ak := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}); !strings.HasPrefix(ak, "staging:artifact:") {
			t.Errorf("ArtifactKey = %s", ak)
		}
	}
}

func TestFileCache(t *testing.T) {
	ctx := t.Context()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = %v, %v", hit, err)
	}

	png := []byte{0x89, 'P', 'N', 'G', 0, 0, 0xff}
	if err := c.Set(ctx, "png", png, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "svg", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "png")
	if err != nil || !hit || !bytes.Equal(data, png) {
		t.Errorf("Get(png) = %v, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "png"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "png"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "png"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}

	n, err := c.Clear()
	if err != nil || n != 1 {
		t.Errorf("Clear() = %d, %v, want 1 entry", n, err)
	}
	if _, hit, _ := c.Get(ctx, "svg"); hit {
		t.Error("cleared key should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := t.Context()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	now = now.Add(59 * time.Second)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry should live until its ttl")
	}
	now = now.Add(2 * time.Second)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheTruncatedEntry(t *testing.T) {
	ctx := t.Context()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("truncated entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache("mysql://nope", ""); err == nil {
		t.Error("NewRedisCache should reject a non-redis URL")
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	if IsTransient(classify(errors.New("WRONGTYPE"))) {
		t.Error("server replies should not be retried")
	}
	err := classify(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	if !IsTransient(err) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("dial failure should be a transient ErrUnavailable: %v", err)
	}
}

func TestRetry(t *testing.T) {
	permanent := errors.New("bad reply")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, nil, 1, false},
		{"recovers", 2, transient(errors.New("reset")), 3, false},
		{"gives up", 5, transient(errors.New("reset")), retryAttempts, true},
		{"permanent stops", 5, permanent, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(t.Context(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, func() error { return transient(errors.New("reset")) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if transient(nil) != nil {
		t.Error("transient(nil) should be nil")
	}
}
