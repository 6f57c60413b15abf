package stubs

import (
	"context"
	"errors"
	"testing"

	"readtrack/internal/storage"
)

var _ storage.Storage = (*MockDB)(nil)

func TestMockDB_SetGet(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	if err := db.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	if _, ok, err := db.Get(ctx, storage.KeyBooks); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := db.Set(ctx, storage.KeyBooks, "[]"); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	value, ok, err := db.Get(ctx, storage.KeyBooks)
	if err != nil {
		t.Fatalf("Failed to get value: %v", err)
	}
	if !ok || value != "[]" {
		t.Errorf("Expected stored value '[]', got %q (ok=%v)", value, ok)
	}

	if db.Writes() != 1 {
		t.Errorf("Expected 1 write, got %d", db.Writes())
	}
}

func TestMockDB_Remove(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	_ = db.Set(ctx, storage.KeyDailyGoal, "3")
	_ = db.Set(ctx, storage.KeyBooks, "[]")

	if err := db.Remove(ctx, storage.KeyDailyGoal); err != nil {
		t.Fatalf("Failed to remove key: %v", err)
	}
	if err := db.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Removing a missing key should not fail: %v", err)
	}

	keys := db.Keys()
	if len(keys) != 1 || keys[0] != storage.KeyBooks {
		t.Errorf("Expected only %q to remain, got %v", storage.KeyBooks, keys)
	}
}

func TestMockDB_FailWrites(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()
	boom := errors.New("disk full")

	db.FailWrites(boom)
	if err := db.Set(ctx, storage.KeyBooks, "[]"); !errors.Is(err, boom) {
		t.Fatalf("Expected injected error, got %v", err)
	}
	if _, ok, _ := db.Get(ctx, storage.KeyBooks); ok {
		t.Error("Failed write should not store a value")
	}

	db.FailWrites(nil)
	if err := db.Set(ctx, storage.KeyBooks, "[]"); err != nil {
		t.Fatalf("Expected write to succeed after clearing the error: %v", err)
	}
}
