package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatehousehq/gatehouse/internal/service"
)

// requestDeadline is the 30-second bound §4.5 imposes between issuing a
// DsRequest and giving up on its reply.
const requestDeadline = 30 * time.Second

// Server exposes the Datastore's Add/Modify/Remove/Get/Check operations
// over plain net/http + encoding/json, and the collectors in Metrics on
// /metrics.
type Server struct {
	ds      *service.Datastore
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer builds a Server dispatching onto ds.
func NewServer(ds *service.Datastore, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ds: ds, metrics: metrics, logger: logger}
}

// Handler returns the complete routed http.Handler, including /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/targets", s.timed("AddTarget", s.handleAddTarget))
	mux.HandleFunc("PATCH /v1/targets", s.timed("ModifyTarget", s.handleModifyTarget))
	mux.HandleFunc("DELETE /v1/targets", s.timed("RemoveTarget", s.handleRemoveTarget))
	mux.HandleFunc("GET /v1/targets", s.timed("GetTargets", s.handleGetTargets))

	mux.HandleFunc("POST /v1/actors", s.timed("AddActor", s.handleAddActor))
	mux.HandleFunc("PATCH /v1/actors", s.timed("ModifyActor", s.handleModifyActor))
	mux.HandleFunc("DELETE /v1/actors", s.timed("RemoveActor", s.handleRemoveActor))
	mux.HandleFunc("GET /v1/actors", s.timed("GetActors", s.handleGetActors))

	mux.HandleFunc("POST /v1/roles", s.timed("AddRole", s.handleAddRole))
	mux.HandleFunc("PATCH /v1/roles", s.timed("ModifyRole", s.handleModifyRole))
	mux.HandleFunc("DELETE /v1/roles", s.timed("RemoveRole", s.handleRemoveRole))
	mux.HandleFunc("GET /v1/roles", s.timed("GetRoles", s.handleGetRoles))

	mux.HandleFunc("POST /v1/groups", s.timed("AddGroup", s.handleAddGroup))
	mux.HandleFunc("PATCH /v1/groups", s.timed("ModifyGroup", s.handleModifyGroup))
	mux.HandleFunc("DELETE /v1/groups", s.timed("RemoveGroup", s.handleRemoveGroup))
	mux.HandleFunc("GET /v1/groups", s.timed("GetGroups", s.handleGetGroups))

	mux.HandleFunc("POST /v1/policies", s.timed("AddPolicy", s.handleAddPolicy))
	mux.HandleFunc("PATCH /v1/policies", s.timed("ModifyPolicy", s.handleModifyPolicy))
	mux.HandleFunc("DELETE /v1/policies", s.timed("RemovePolicy", s.handleRemovePolicy))
	mux.HandleFunc("GET /v1/policies", s.timed("GetPolicies", s.handleGetPolicies))

	mux.HandleFunc("POST /v1/check", s.timed("Check", s.handleCheck))

	mux.Handle("GET /metrics", promhttp.Handler())

	return withRequestID(mux)
}

// withRequestID assigns each request a correlation ID (reusing an inbound
// X-Request-ID if the caller already set one), echoes it on the response,
// and attaches a logger enriched with it to the request context.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

// requestIDFromContext returns the correlation ID set by withRequestID, or
// "" if none is present (e.g. in a test that bypasses the mux).
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// timed wraps h with the per-operation latency histogram and a bounded
// context carrying requestDeadline.
func (s *Server) timed(op string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), requestDeadline)
		defer cancel()
		r = r.WithContext(ctx)
		h(w, r, op)
		if s.metrics != nil {
			s.metrics.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
		s.logger.Debug("handled request", "op", op, "request_id", requestIDFromContext(r.Context()), "duration", time.Since(start))
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
