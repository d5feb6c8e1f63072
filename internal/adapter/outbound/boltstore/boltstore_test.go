package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "gatehouse.bolt"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_TargetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	tg := target.New("db2", "database", []string{"read"}, nil)
	if err := s.SaveTarget(ctx, tg); err != nil {
		t.Fatalf("SaveTarget() error: %v", err)
	}

	loaded, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets() error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "db2" {
		t.Fatalf("LoadTargets() = %+v, want one target named db2", loaded)
	}
}

func TestStore_WatchDeliversPutAndDelete(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openTestStore(t)

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	tg := target.New("db2", "database", []string{"read"}, nil)
	if err := s.SaveTarget(context.Background(), tg); err != nil {
		t.Fatalf("SaveTarget() error: %v", err)
	}

	select {
	case u := <-ch:
		if u.Deleted || u.Target == nil || u.Target.Name != "db2" {
			t.Fatalf("Watch() first update = %+v, want Put db2", u)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for put update")
	}

	if err := s.RemoveTarget(context.Background(), tg.Key()); err != nil {
		t.Fatalf("RemoveTarget() error: %v", err)
	}

	select {
	case u := <-ch:
		if !u.Deleted || u.EntityKey != tg.Key() {
			t.Fatalf("Watch() second update = %+v, want Delete db2", u)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for delete update")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("Watch() channel should close once ctx is canceled")
	}
}
