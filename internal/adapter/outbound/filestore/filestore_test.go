package filestore

import (
	"context"
	"testing"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

func TestStore_TargetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tg := target.New("DB2", "Database", []string{"Read", "Write"}, map[string][]string{"role": {"prod"}})
	if err := s.SaveTarget(ctx, tg); err != nil {
		t.Fatalf("SaveTarget() error: %v", err)
	}

	loaded, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets() error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("LoadTargets() = %d targets, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Name != "db2" || got.Typestr != "database" {
		t.Fatalf("LoadTargets()[0] = %+v, want name=db2 typestr=database", got)
	}
	if !got.Actions.Has("read") || !got.Actions.Has("write") {
		t.Fatalf("LoadTargets()[0].Actions = %v, want read+write", got.Actions)
	}
}

func TestStore_RemoveTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tg := target.New("db2", "database", nil, nil)
	if err := s.SaveTarget(ctx, tg); err != nil {
		t.Fatalf("SaveTarget() error: %v", err)
	}
	if err := s.RemoveTarget(ctx, tg.Key()); err != nil {
		t.Fatalf("RemoveTarget() error: %v", err)
	}

	loaded, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets() error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("LoadTargets() = %d targets after remove, want 0", len(loaded))
	}
}

func TestStore_RemoveMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := s.RemoveRole(context.Background(), "ghost"); err != nil {
		t.Fatalf("RemoveRole() on missing record error: %v", err)
	}
}

func TestStore_PolicyRuleRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rule := &policy.Rule{
		Name: "deny-banned",
		ActorCheck: &policy.ActorCheck{
			Kv: []policy.KvCheck{policy.Has("role", "banned")},
		},
		TargetCheck: &policy.TargetCheck{
			MatchInActor: []string{"env"},
		},
		Decision: policy.Deny,
	}
	if err := s.SavePolicy(ctx, rule); err != nil {
		t.Fatalf("SavePolicy() error: %v", err)
	}

	loaded, err := s.LoadPolicies(ctx)
	if err != nil {
		t.Fatalf("LoadPolicies() error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("LoadPolicies() = %d rules, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Decision != policy.Deny {
		t.Fatalf("LoadPolicies()[0].Decision = %v, want DENY", got.Decision)
	}
	bannedAttrs := attrset.NewMap(map[string][]string{"role": {"banned"}})
	if !got.ActorCheck.Check("kaitlyn", "user", bannedAttrs, 0) {
		t.Fatalf("reloaded ActorCheck did not match banned role")
	}
}
