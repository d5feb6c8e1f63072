package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startDatastore starts a Datastore on an in-memory fake backend and
// returns it along with a background context for its calls. A t.Cleanup
// stops the writer goroutine and waits for it to exit, so goleak sees a
// clean process.
func startDatastore(t *testing.T, storage port.Storage) (*Datastore, context.Context) {
	t.Helper()
	ds := New(storage, testLogger())
	if err := ds.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ds.Run(ctx)
	t.Cleanup(func() {
		cancel()
		ds.Wait()
	})
	return ds, context.Background()
}

func TestDatastore_TargetCaseFold(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	if _, err := ds.AddTarget(ctx, "DB2", "Database", []string{"Read"}, nil); err != nil {
		t.Fatalf("AddTarget() error: %v", err)
	}

	lowerName, lowerType := "db2", "database"
	got := ds.GetTargets(TargetFilter{Name: &lowerName, Typestr: &lowerType})
	if len(got) != 1 {
		t.Fatalf("GetTargets() = %d results, want 1 (mixed-case key should fold to lowercase)", len(got))
	}

	if err := ds.RemoveTarget(ctx, "Db2", "DATABASE"); err != nil {
		t.Fatalf("RemoveTarget() with mixed-case key error: %v", err)
	}
}

func TestDatastore_TargetModifyAndAttributePrune(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	if _, err := ds.AddTarget(ctx, "db2", "database", []string{"read", "write"}, map[string][]string{"role": {"prod"}}); err != nil {
		t.Fatalf("AddTarget() error: %v", err)
	}

	got, err := ds.ModifyTarget(ctx, ModifyTargetRequest{
		Name: "db2", Typestr: "database",
		AddActions:       []string{"delete"},
		RemoveActions:    []string{"write"},
		AddAttributes:    map[string][]string{"env": {"staging", "prod"}},
		RemoveAttributes: map[string][]string{"env": {"staging"}},
	})
	if err != nil {
		t.Fatalf("ModifyTarget() error: %v", err)
	}
	if got.Actions.Has("write") || !got.Actions.Has("read") || !got.Actions.Has("delete") {
		t.Fatalf("ModifyTarget() actions = %v, want {read, delete}", got.Actions)
	}
	if !got.Attributes.Has("env", "prod") {
		t.Fatalf("ModifyTarget() attributes missing env:prod: %v", got.Attributes)
	}

	// Now prune the only remaining value of "role" and confirm the key
	// disappears entirely rather than being stored empty.
	got, err = ds.ModifyTarget(ctx, ModifyTargetRequest{
		Name: "db2", Typestr: "database",
		RemoveAttributes: map[string][]string{"role": {"prod"}},
	})
	if err != nil {
		t.Fatalf("ModifyTarget() error: %v", err)
	}
	if _, ok := got.Attributes.Get("role"); ok {
		t.Fatalf("ModifyTarget() left role key present after pruning its last value: %v", got.Attributes)
	}
}

func TestDatastore_PersistThenCommit(t *testing.T) {
	t.Parallel()
	fs := newFakeStorage()
	ds, ctx := startDatastore(t, fs)

	fs.failSaveTarget = true
	_, err := ds.AddTarget(ctx, "db2", "database", nil, nil)
	if err == nil {
		t.Fatal("AddTarget() with failing backend should have returned an error")
	}
	if gherr.KindOf(err) != gherr.Internal {
		t.Fatalf("AddTarget() error kind = %v, want Internal", gherr.KindOf(err))
	}

	name := "db2"
	got := ds.GetTargets(TargetFilter{Name: &name})
	if len(got) != 0 {
		t.Fatalf("GetTargets() after failed save = %v, want empty (memory must not reflect the attempted change)", got)
	}
}

func TestDatastore_GroupRoleReferentialIntegrity(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	if _, err := ds.AddRole(ctx, "admin", ""); err != nil {
		t.Fatalf("AddRole(admin) error: %v", err)
	}
	if _, err := ds.AddRole(ctx, "user", ""); err != nil {
		t.Fatalf("AddRole(user) error: %v", err)
	}
	if _, err := ds.AddGroup(ctx, "administrators", "", nil, []string{"admin", "user"}); err != nil {
		t.Fatalf("AddGroup() error: %v", err)
	}

	roleName := "admin"
	roles := ds.GetRoles(RoleFilter{Name: &roleName})
	if len(roles) != 1 || !roles[0].Groups.Has("administrators") {
		t.Fatalf("GetRoles(admin) = %v, want Groups to contain administrators", roles)
	}

	if err := ds.RemoveGroup(ctx, "administrators"); err != nil {
		t.Fatalf("RemoveGroup() error: %v", err)
	}

	roles = ds.GetRoles(RoleFilter{Name: &roleName})
	if len(roles) != 1 || len(roles[0].Groups) != 0 {
		t.Fatalf("GetRoles(admin) after group removal = %v, want empty Groups", roles)
	}
}

func TestDatastore_RoleRemovalCascade(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	if _, err := ds.AddRole(ctx, "user", ""); err != nil {
		t.Fatalf("AddRole(user) error: %v", err)
	}
	if _, err := ds.AddRole(ctx, "manager", ""); err != nil {
		t.Fatalf("AddRole(manager) error: %v", err)
	}
	if _, err := ds.AddGroup(ctx, "customers", "", nil, []string{"user", "manager"}); err != nil {
		t.Fatalf("AddGroup() error: %v", err)
	}

	if err := ds.RemoveRole(ctx, "user"); err != nil {
		t.Fatalf("RemoveRole() error: %v", err)
	}

	groupName := "customers"
	groups := ds.GetGroups(GroupFilter{Name: &groupName})
	if len(groups) != 1 {
		t.Fatalf("GetGroups(customers) = %v, want one group", groups)
	}
	if groups[0].Roles.Has("user") || !groups[0].Roles.Has("manager") {
		t.Fatalf("GetGroups(customers).Roles = %v, want {manager}", groups[0].Roles)
	}
}

func TestDatastore_IdempotentBackendUpdate(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	tg := target.New("db2", "database", []string{"read"}, nil)
	u := port.Update{Kind: port.KindTarget, Target: tg}

	ds.ApplyUpdate(ctx, u)
	ds.ApplyUpdate(ctx, u)

	name := "db2"
	got := ds.GetTargets(TargetFilter{Name: &name})
	if len(got) != 1 {
		t.Fatalf("GetTargets() after duplicate Put = %d results, want 1", len(got))
	}

	del := port.Update{Kind: port.KindTarget, Deleted: true, EntityKey: key.New("database", "db2")}
	ds.ApplyUpdate(ctx, del)
	ds.ApplyUpdate(ctx, del)

	got = ds.GetTargets(TargetFilter{Name: &name})
	if len(got) != 0 {
		t.Fatalf("GetTargets() after duplicate Delete = %d results, want 0", len(got))
	}
}

func TestDatastore_DenyWinsAndDefaultDeny(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	// Default-deny: zero rules.
	decision := ds.Check(ctx, CheckRequest{ActorName: "kaitlyn", ActorType: "user"})
	if decision != policy.Deny {
		t.Fatalf("Check() with zero rules = %v, want DENY", decision)
	}

	allowEveryone := &policy.Rule{Name: "allow-everyone", Decision: policy.Allow}
	denyBanned := &policy.Rule{
		Name: "deny-banned",
		ActorCheck: &policy.ActorCheck{
			Kv: []policy.KvCheck{policy.Has("role", "banned")},
		},
		Decision: policy.Deny,
	}
	if _, err := ds.AddPolicy(ctx, allowEveryone); err != nil {
		t.Fatalf("AddPolicy(allow-everyone) error: %v", err)
	}
	if _, err := ds.AddPolicy(ctx, denyBanned); err != nil {
		t.Fatalf("AddPolicy(deny-banned) error: %v", err)
	}

	decision = ds.Check(ctx, CheckRequest{
		ActorName: "kaitlyn", ActorType: "user",
		ActorAttrs: map[string][]string{"role": {"banned"}},
	})
	if decision != policy.Deny {
		t.Fatalf("Check() for banned actor = %v, want DENY (deny-wins)", decision)
	}

	decision = ds.Check(ctx, CheckRequest{
		ActorName: "kaitlyn", ActorType: "user",
		ActorAttrs: map[string][]string{"role": {"user"}},
	})
	if decision != policy.Allow {
		t.Fatalf("Check() for non-banned actor = %v, want ALLOW", decision)
	}
}

func TestDatastore_MatchInActor(t *testing.T) {
	t.Parallel()
	ds, ctx := startDatastore(t, newFakeStorage())

	if _, err := ds.AddTarget(ctx, "svc1", "service", nil, map[string][]string{"env": {"prod"}}); err != nil {
		t.Fatalf("AddTarget() error: %v", err)
	}
	rule := &policy.Rule{
		Name:        "match-env",
		TargetCheck: &policy.TargetCheck{MatchInActor: []string{"env"}},
		Decision:    policy.Allow,
	}
	if _, err := ds.AddPolicy(ctx, rule); err != nil {
		t.Fatalf("AddPolicy() error: %v", err)
	}

	decision := ds.Check(ctx, CheckRequest{
		ActorName: "alice", ActorType: "user",
		ActorAttrs: map[string][]string{"env": {"prod"}},
		TargetName: "svc1", TargetType: "service",
	})
	if decision != policy.Allow {
		t.Fatalf("Check() with matching env = %v, want ALLOW", decision)
	}

	decision = ds.Check(ctx, CheckRequest{
		ActorName: "alice", ActorType: "user",
		ActorAttrs: map[string][]string{"env": {"dev"}},
		TargetName: "svc1", TargetType: "service",
	})
	if decision != policy.Deny {
		t.Fatalf("Check() with mismatched env = %v, want DENY (default-deny, rule skipped)", decision)
	}
}

func TestDatastore_DeadlineExceeded(t *testing.T) {
	t.Parallel()
	ds := New(newFakeStorage(), testLogger())
	// Deliberately never call Run: the inbox has nothing consuming it, so
	// submit must time out rather than block forever.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ds.AddTarget(ctx, "db2", "database", nil, nil)
	if gherr.KindOf(err) != gherr.DeadlineExceeded {
		t.Fatalf("AddTarget() on a dead datastore error = %v, want DeadlineExceeded", err)
	}
}
