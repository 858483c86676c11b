package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"maskvault/go-backend/internal/masks"
)

func TestFileStateStoreMissingFileYieldsDefaultState(t *testing.T) {
	store, err := NewFileStateStore(filepath.Join(t.TempDir(), "state.enc"), "secret")
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if state.SeedEnvelope != nil || len(state.Masks.Origins) != 0 {
		t.Fatalf("expected default-empty state, got %#v", state)
	}
}

func TestFileStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.enc")
	store, err := NewFileStateStore(path, "secret")
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}

	state := NewPersistedState()
	state.Masks.AddIdentity("https://a.example")
	if err := masks.NewGraph(state.Masks).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened, err := NewFileStateStore(path, "secret")
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	loaded, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Masks.Origin("https://a.example").IdentitiesTotal != 1 {
		t.Fatal("identity count lost across round trip")
	}
	if !masks.NewGraph(loaded.Masks).Exists("https://a.example", "https://b.example") {
		t.Fatal("link lost across round trip")
	}
}

func TestFileStateStoreWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.enc")
	store, err := NewFileStateStore(path, "secret")
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	if err := store.Save(context.Background(), NewPersistedState()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	wrong, err := NewFileStateStore(path, "other")
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	if _, err := wrong.Load(context.Background()); err == nil {
		t.Fatal("expected load with wrong secret to fail")
	}
}

func TestFileStateStoreRequiresConfig(t *testing.T) {
	if _, err := NewFileStateStore("", "secret"); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := NewFileStateStore("/tmp/x", " "); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	store := NewMemStateStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := store.Save(ctx, NewPersistedState()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemStateStoreDoesNotAliasSavedState(t *testing.T) {
	store := NewMemStateStore()
	state := NewPersistedState()
	state.Masks.AddIdentity("https://a.example")
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	state.Masks.AddIdentity("https://a.example")

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := loaded.Masks.Origin("https://a.example").IdentitiesTotal; got != 1 {
		t.Fatalf("saved snapshot must be immune to later mutation, got %d", got)
	}
}
