package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/service"
)

type roleDTO struct {
	Name   string   `json:"name"`
	Desc   string   `json:"desc"`
	Groups []string `json:"groups"`
}

func roleToDTO(r *role.Role) roleDTO {
	return roleDTO{Name: r.Name, Desc: r.Desc, Groups: r.Groups.Slice()}
}

type addRoleRequest struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

func (s *Server) handleAddRole(w http.ResponseWriter, r *http.Request, op string) {
	var req addRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.AddRole(r.Context(), req.Name, req.Desc)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusCreated, roleToDTO(got))
}

type modifyRoleRequest struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

func (s *Server) handleModifyRole(w http.ResponseWriter, r *http.Request, op string) {
	var req modifyRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.ModifyRole(r.Context(), req.Name, req.Desc)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusOK, roleToDTO(got))
}

func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request, op string) {
	name := r.URL.Query().Get("name")
	if err := s.ds.RemoveRole(r.Context(), name); err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
}

func (s *Server) handleGetRoles(w http.ResponseWriter, r *http.Request, op string) {
	q := r.URL.Query()
	filter := service.RoleFilter{}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	got := s.ds.GetRoles(filter)
	out := make([]roleDTO, len(got))
	for i, rr := range got {
		out[i] = roleToDTO(rr)
	}
	writeJSON(w, op, s.metrics, http.StatusOK, out)
}
