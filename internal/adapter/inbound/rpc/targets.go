package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/service"
)

type targetDTO struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Actions    []string            `json:"actions"`
	Attributes map[string][]string `json:"attributes"`
}

func targetToDTO(t *target.Target) targetDTO {
	return targetDTO{
		Name:       t.Name,
		Typestr:    t.Typestr,
		Actions:    t.Actions.Slice(),
		Attributes: t.Attributes.ToStringSlices(),
	}
}

type addTargetRequest struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Actions    []string            `json:"actions"`
	Attributes map[string][]string `json:"attributes"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request, op string) {
	var req addTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.AddTarget(r.Context(), req.Name, req.Typestr, req.Actions, req.Attributes)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusCreated, targetToDTO(got))
}

type modifyTargetRequest struct {
	Name             string              `json:"name"`
	Typestr          string              `json:"typestr"`
	AddActions       []string            `json:"add_actions"`
	RemoveActions    []string            `json:"remove_actions"`
	AddAttributes    map[string][]string `json:"add_attributes"`
	RemoveAttributes map[string][]string `json:"remove_attributes"`
}

func (s *Server) handleModifyTarget(w http.ResponseWriter, r *http.Request, op string) {
	var req modifyTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.ModifyTarget(r.Context(), service.ModifyTargetRequest{
		Name:             req.Name,
		Typestr:          req.Typestr,
		AddActions:       req.AddActions,
		RemoveActions:    req.RemoveActions,
		AddAttributes:    req.AddAttributes,
		RemoveAttributes: req.RemoveAttributes,
	})
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusOK, targetToDTO(got))
}

func (s *Server) handleRemoveTarget(w http.ResponseWriter, r *http.Request, op string) {
	name := r.URL.Query().Get("name")
	typestr := r.URL.Query().Get("typestr")
	if err := s.ds.RemoveTarget(r.Context(), name, typestr); err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
}

func (s *Server) handleGetTargets(w http.ResponseWriter, r *http.Request, op string) {
	q := r.URL.Query()
	filter := service.TargetFilter{}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("typestr"); v != "" {
		filter.Typestr = &v
	}
	got := s.ds.GetTargets(filter)
	out := make([]targetDTO, len(got))
	for i, t := range got {
		out[i] = targetToDTO(t)
	}
	writeJSON(w, op, s.metrics, http.StatusOK, out)
}
