package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
)

// errorBody is the JSON shape of every non-2xx response. Caller identity
// and request bodies are never echoed (§7).
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func statusForKind(k gherr.Kind) int {
	switch k {
	case gherr.NotFound:
		return http.StatusNotFound
	case gherr.AlreadyExists:
		return http.StatusConflict
	case gherr.InvalidArgument:
		return http.StatusBadRequest
	case gherr.FailedPrecondition:
		return http.StatusPreconditionFailed
	case gherr.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case gherr.Unimplemented:
		return http.StatusNotImplemented
	case gherr.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to its HTTP status and JSON body. Any error that is
// not a *gherr.Error (an "unexpected reply variant", in §4.5's words) is
// treated as Internal.
func writeError(w http.ResponseWriter, op string, m *Metrics, err error) {
	kind := gherr.KindOf(err)
	if kind == gherr.Unknown {
		kind = gherr.Internal
	}
	body := errorBody{}
	body.Error.Kind = kind.String()
	body.Error.Message = err.Error()

	if m != nil {
		m.RequestsTotal.WithLabelValues(op, "error").Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(kind))
	_ = json.NewEncoder(w).Encode(body)
}

// badRequest wraps a JSON decode failure as an InvalidArgument error so it
// maps to 400 instead of the default Internal/500.
func badRequest(err error) error {
	return gherr.InvalidArgumentf("malformed request body: %v", err)
}

func writeJSON(w http.ResponseWriter, op string, m *Metrics, status int, v any) {
	if m != nil {
		m.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
