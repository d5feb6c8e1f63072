package memstore

import (
	"context"
	"testing"

	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

func TestStore_LoadIsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	targets, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets() error: %v", err)
	}
	if len(targets) != 0 {
		t.Fatalf("LoadTargets() = %v, want empty", targets)
	}
}

func TestStore_SaveAndRemoveAlwaysSucceed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	tg := target.New("db2", "database", []string{"read"}, nil)
	if err := s.SaveTarget(ctx, tg); err != nil {
		t.Fatalf("SaveTarget() error: %v", err)
	}
	if err := s.RemoveTarget(ctx, tg.Key()); err != nil {
		t.Fatalf("RemoveTarget() error: %v", err)
	}

	// A nil backend never persists, so a reload still sees nothing.
	targets, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets() error: %v", err)
	}
	if len(targets) != 0 {
		t.Fatalf("LoadTargets() = %v, want empty after save+remove on nil backend", targets)
	}
}

func TestStore_Close(t *testing.T) {
	t.Parallel()

	if err := New().Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
