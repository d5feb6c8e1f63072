package rpcclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

	"github.com/gatehousehq/gatehouse/internal/adapter/inbound/rpc"
	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/memstore"
	"github.com/gatehousehq/gatehouse/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ds := service.New(memstore.New(), testLogger())
	if err := ds.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ds.Run(ctx)
	t.Cleanup(func() {
		cancel()
		ds.Wait()
	})

	metrics := rpc.NewMetrics(prometheus.NewRegistry())
	srv := rpc.NewServer(ds, metrics, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_AddAndGetTarget(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	created, err := c.AddTarget(ctx, "DB2", "Database", []string{"Read"}, nil)
	if err != nil {
		t.Fatalf("AddTarget() error: %v", err)
	}
	if created.Name != "db2" || created.Typestr != "database" {
		t.Fatalf("AddTarget() = %+v, want lowercased db2/database", created)
	}

	got, err := c.GetTargets(ctx, "db2", "database")
	if err != nil {
		t.Fatalf("GetTargets() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GetTargets() = %d results, want 1", len(got))
	}
}

func TestClient_AddTargetConflict(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	if _, err := c.AddTarget(ctx, "db2", "database", nil, nil); err != nil {
		t.Fatalf("first AddTarget() error: %v", err)
	}
	_, err := c.AddTarget(ctx, "db2", "database", nil, nil)
	if err == nil {
		t.Fatal("second AddTarget() error = nil, want AlreadyExists")
	}
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second AddTarget() error = %v, want ErrAlreadyExists", err)
	}
}

func TestClient_RemoveTargetNotFound(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)

	err := c.RemoveTarget(context.Background(), "ghost", "database")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RemoveTarget() error = %v, want ErrNotFound", err)
	}
}

func TestClient_CheckDefaultDeny(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)

	decision, err := c.Check(context.Background(), CheckRequest{ActorName: "kaitlyn", ActorType: "user"})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if decision != "DENY" {
		t.Fatalf("Check() = %q, want DENY (default-deny with zero rules)", decision)
	}
}

func TestClient_PolicyRoundTripAndCheck(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	if _, err := c.AddPolicy(ctx, Policy{
		Name: "deny-banned",
		ActorCheck: &ActorCheck{
			Kv: []KvCheck{{Op: "has", Key: "role", Values: []string{"banned"}}},
		},
		Decision: "DENY",
	}); err != nil {
		t.Fatalf("AddPolicy() error: %v", err)
	}

	decision, err := c.Check(ctx, CheckRequest{
		ActorName: "alice", ActorType: "user",
		ActorAttrs: map[string][]string{"role": {"banned"}},
	})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if decision != "DENY" {
		t.Fatalf("Check() for banned actor = %q, want DENY", decision)
	}
}

func TestClient_GroupAndRoleLifecycle(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	if _, err := c.AddRole(ctx, "admin", "administrators"); err != nil {
		t.Fatalf("AddRole() error: %v", err)
	}
	if _, err := c.AddActor(ctx, "alice", "user", nil); err != nil {
		t.Fatalf("AddActor() error: %v", err)
	}
	group, err := c.AddGroup(ctx, "admins", "admin group",
		[]Member{{Typestr: "user", Name: "alice"}}, []string{"admin"})
	if err != nil {
		t.Fatalf("AddGroup() error: %v", err)
	}
	if len(group.Members) != 1 || len(group.Roles) != 1 {
		t.Fatalf("AddGroup() = %+v, want 1 member and 1 role", group)
	}

	if err := c.RemoveGroup(ctx, "admins"); err != nil {
		t.Fatalf("RemoveGroup() error: %v", err)
	}
	groups, err := c.GetGroups(ctx, GroupQuery{Name: "admins"})
	if err != nil {
		t.Fatalf("GetGroups() error: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("GetGroups() after remove = %d results, want 0", len(groups))
	}
}
