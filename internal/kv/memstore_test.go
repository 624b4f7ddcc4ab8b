package kv

import (
	"context"
	"testing"
)

func TestMemStoreGetMissing(t *testing.T) {
	m := NewMemStore()
	if _, err := m.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStorePutGetRoundTrip(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	v1, err := m.Put(ctx, "k", []byte("hello"), nil, 100)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	e, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(e.Value) != "hello" || e.Version != v1 {
		t.Fatalf("got %+v, want value=hello version=%d", e, v1)
	}
}

func TestMemStoreOptimisticLock(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	v1, err := m.Put(ctx, "k", []byte("a"), nil, 100)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	// Wrong expected version is rejected.
	wrong := v1 - 1
	if _, err := m.Put(ctx, "k", []byte("b"), &wrong, 200); err != ErrVersionMismatch {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	// Correct expected version succeeds and advances.
	v2, err := m.Put(ctx, "k", []byte("b"), &v1, 200)
	if err != nil {
		t.Fatalf("put with correct version: %v", err)
	}
	if v2 <= v1 {
		t.Fatalf("expected version to advance, got v1=%d v2=%d", v1, v2)
	}
}

func TestMemStorePutNeverGoesBackwards(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	v1, err := m.Put(ctx, "k", []byte("a"), nil, 500)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	// Caller supplies a newVersion that does not advance past the stored one
	// (e.g. a clock that read the same millisecond twice); Put must still
	// bump forward rather than silently stalling.
	v2, err := m.Put(ctx, "k", []byte("b"), &v1, 500)
	if err != nil {
		t.Fatalf("put with non-advancing version: %v", err)
	}
	if v2 <= v1 {
		t.Fatalf("expected version to advance past %d, got %d", v1, v2)
	}
}

func TestMemStoreListPrefix(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	for _, k := range []string{"gc_game:a", "gc_game:b", "gc_open_games"} {
		if _, err := m.Put(ctx, k, []byte("x"), nil, 1); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	keys, err := m.List(ctx, "gc_game:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d (%v)", len(keys), keys)
	}
}

func TestMemStoreDeleteMissingIsNotError(t *testing.T) {
	m := NewMemStore()
	if err := m.Delete(context.Background(), "absent"); err != nil {
		t.Fatalf("delete of absent key should not error, got %v", err)
	}
}
