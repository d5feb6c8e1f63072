package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

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

	metrics := NewMetrics(prometheus.NewRegistry())
	srv := NewServer(ds, metrics, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s error: %v", path, err)
	}
	return resp
}

func TestServer_AddAndGetTarget(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/v1/targets", addTargetRequest{
		Name: "DB2", Typestr: "Database", Actions: []string{"Read"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /v1/targets status = %d, want 201", resp.StatusCode)
	}
	var created targetDTO
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if created.Name != "db2" || created.Typestr != "database" {
		t.Fatalf("created target = %+v, want lowercased db2/database", created)
	}

	getResp, err := http.Get(ts.URL + "/v1/targets?name=db2&typestr=database")
	if err != nil {
		t.Fatalf("GET /v1/targets error: %v", err)
	}
	defer getResp.Body.Close()
	var got []targetDTO
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GET /v1/targets = %d results, want 1", len(got))
	}
}

func TestServer_AddTargetConflict(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	req := addTargetRequest{Name: "db2", Typestr: "database"}
	postJSON(t, ts, "/v1/targets", req).Body.Close()

	resp := postJSON(t, ts, "/v1/targets", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second POST /v1/targets status = %d, want 409", resp.StatusCode)
	}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error.Kind != "AlreadyExists" {
		t.Fatalf("error kind = %q, want AlreadyExists", body.Error.Kind)
	}
}

func TestServer_CheckDefaultDeny(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/v1/check", checkRequestDTO{ActorName: "kaitlyn", ActorType: "user"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/check status = %d, want 200", resp.StatusCode)
	}
	var body checkResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Decision != "DENY" {
		t.Fatalf("decision = %q, want DENY (default-deny with zero rules)", body.Decision)
	}
}

func TestServer_PolicyRoundTripAndCheck(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	addResp := postJSON(t, ts, "/v1/policies", policyDTO{
		Name: "deny-banned",
		ActorCheck: &actorCheckDTO{
			Kv: []kvCheckDTO{{Op: "has", Key: "role", Values: []string{"banned"}}},
		},
		Decision: "DENY",
	})
	defer addResp.Body.Close()
	if addResp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /v1/policies status = %d, want 201", addResp.StatusCode)
	}

	checkResp := postJSON(t, ts, "/v1/check", checkRequestDTO{
		ActorName: "alice", ActorType: "user",
		ActorAttrs: map[string][]string{"role": {"banned"}},
	})
	defer checkResp.Body.Close()
	var body checkResponseDTO
	if err := json.NewDecoder(checkResp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Decision != "DENY" {
		t.Fatalf("decision for banned actor = %q, want DENY", body.Decision)
	}
}

func TestServer_RemoveTargetNotFound(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/targets?name=ghost&typestr=database", nil)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /v1/targets error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("DELETE /v1/targets status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", resp.StatusCode)
	}
}
