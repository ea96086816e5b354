package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Errorf("expected v, got %q", v)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	_ = s.Set(ctx, "k", []byte("v"), time.Minute)

	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(61 * time.Second)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.Set(ctx, "b", []byte("2"), 0)

	if err := s.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}

func TestMemoryStoreInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Set(ctx, "products:list:abc", []byte("1"), 0)
	_ = s.Set(ctx, "products:list:def", []byte("2"), 0)
	_ = s.Set(ctx, "products:id:42", []byte("3"), 0)

	if err := s.Invalidate(ctx, "products:list:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "products:list:abc"); ok {
		t.Error("expected list entry invalidated")
	}
	if _, ok, _ := s.Get(ctx, "products:id:42"); !ok {
		t.Error("expected id entry untouched")
	}
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	val := []byte("original")
	_ = s.Set(ctx, "k", val, 0)
	val[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("expected stored value isolated from caller mutation, got %q", got)
	}

	got[0] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("expected returned value isolated, got %q", again)
	}
}

type recordingStore struct {
	*MemoryStore
	gets int
	sets int
}

func (r *recordingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r.gets++
	return r.MemoryStore.Get(ctx, key)
}

func (r *recordingStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	r.sets++
	return r.MemoryStore.Set(ctx, key, val, ttl)
}

func TestTieredReadsLocalFirst(t *testing.T) {
	ctx := context.Background()
	local := &recordingStore{MemoryStore: NewMemoryStore()}
	shared := &recordingStore{MemoryStore: NewMemoryStore()}
	tiered := NewTiered(local, shared)

	_ = tiered.Set(ctx, "k", []byte("v"), time.Minute)

	if _, ok, _ := tiered.Get(ctx, "k"); !ok {
		t.Fatal("expected hit")
	}
	if shared.gets != 0 {
		t.Errorf("expected shared layer untouched on local hit, got %d gets", shared.gets)
	}
}

func TestTieredPromotesSharedHit(t *testing.T) {
	ctx := context.Background()
	local := &recordingStore{MemoryStore: NewMemoryStore()}
	shared := &recordingStore{MemoryStore: NewMemoryStore()}
	tiered := NewTiered(local, shared)

	_ = shared.Set(ctx, "k", []byte("v"), time.Minute)
	shared.sets = 0

	v, ok, err := tiered.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected shared hit, got ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Errorf("expected v, got %q", v)
	}
	if local.sets != 1 {
		t.Errorf("expected promotion into local layer, got %d sets", local.sets)
	}

	// Subsequent read is served locally.
	sharedGets := shared.gets
	if _, ok, _ := tiered.Get(ctx, "k"); !ok {
		t.Fatal("expected hit after promotion")
	}
	if shared.gets != sharedGets {
		t.Error("expected promoted read served from local layer")
	}
}

func TestTieredInvalidateReachesBothLayers(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStore()
	shared := NewMemoryStore()
	tiered := NewTiered(local, shared)

	_ = tiered.Set(ctx, "products:list:a", []byte("1"), 0)

	if err := tiered.Invalidate(ctx, "products:list:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := local.Get(ctx, "products:list:a"); ok {
		t.Error("expected local entry invalidated")
	}
	if _, ok, _ := shared.Get(ctx, "products:list:a"); ok {
		t.Error("expected shared entry invalidated")
	}
}
