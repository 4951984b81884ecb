package storage

import (
	"bytes"
	"context"
	"testing"

	"shiv-telegram/db"
)

// Integration test (requires DB). Skips when no pool is configured or in -short.
func TestPostgres_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping storage integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping storage integration test: no DB pool")
	}
	ctx := context.Background()
	p := NewPostgres(db.Pool)
	const testUserID int64 = 999999998

	defer func() {
		_ = p.Remove(ctx, testUserID, KeyCart)
	}()

	if err := p.Set(ctx, testUserID, KeyCart, []byte(`[{"_id":"a"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := p.Get(ctx, testUserID, KeyCart)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(v, []byte(`[{"_id":"a"}]`)) {
		t.Errorf("got %q", v)
	}

	// Upsert replaces in full.
	if err := p.Set(ctx, testUserID, KeyCart, []byte(`[]`)); err != nil {
		t.Fatalf("Set (replace): %v", err)
	}
	v, _, _ = p.Get(ctx, testUserID, KeyCart)
	if !bytes.Equal(v, []byte(`[]`)) {
		t.Errorf("replace failed: %q", v)
	}

	if err := p.Remove(ctx, testUserID, KeyCart); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := p.Get(ctx, testUserID, KeyCart); ok {
		t.Error("value should be gone after Remove")
	}
}
