package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/service"
)

type memberDTO struct {
	Typestr string `json:"typestr"`
	Name    string `json:"name"`
}

type groupDTO struct {
	Name    string      `json:"name"`
	Desc    string      `json:"desc"`
	Members []memberDTO `json:"members"`
	Roles   []string    `json:"roles"`
}

func groupToDTO(g *group.Group) groupDTO {
	members := make([]memberDTO, 0, len(g.Members))
	for m := range g.Members {
		members = append(members, memberDTO{Typestr: m.Typestr, Name: m.Name})
	}
	return groupDTO{Name: g.Name, Desc: g.Desc, Members: members, Roles: g.Roles.Slice()}
}

func toEntityKeys(members []memberDTO) []key.Entity {
	out := make([]key.Entity, len(members))
	for i, m := range members {
		out[i] = key.New(m.Typestr, m.Name)
	}
	return out
}

type addGroupRequest struct {
	Name    string      `json:"name"`
	Desc    string      `json:"desc"`
	Members []memberDTO `json:"members"`
	Roles   []string    `json:"roles"`
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request, op string) {
	var req addGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.AddGroup(r.Context(), req.Name, req.Desc, toEntityKeys(req.Members), req.Roles)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusCreated, groupToDTO(got))
}

type modifyGroupRequest struct {
	Name          string      `json:"name"`
	Desc          *string     `json:"desc"`
	AddMembers    []memberDTO `json:"add_members"`
	RemoveMembers []memberDTO `json:"remove_members"`
	AddRoles      []string    `json:"add_roles"`
	RemoveRoles   []string    `json:"remove_roles"`
}

func (s *Server) handleModifyGroup(w http.ResponseWriter, r *http.Request, op string) {
	var req modifyGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.ModifyGroup(r.Context(), service.ModifyGroupRequest{
		Name:          req.Name,
		Desc:          req.Desc,
		AddMembers:    toEntityKeys(req.AddMembers),
		RemoveMembers: toEntityKeys(req.RemoveMembers),
		AddRoles:      req.AddRoles,
		RemoveRoles:   req.RemoveRoles,
	})
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusOK, groupToDTO(got))
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request, op string) {
	name := r.URL.Query().Get("name")
	if err := s.ds.RemoveGroup(r.Context(), name); err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
}

func (s *Server) handleGetGroups(w http.ResponseWriter, r *http.Request, op string) {
	q := r.URL.Query()
	filter := service.GroupFilter{}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("member_name"); v != "" {
		filter.MemberName = &v
	}
	if v := q.Get("member_type"); v != "" {
		filter.MemberType = &v
	}
	if v := q.Get("role"); v != "" {
		filter.RoleName = &v
	}
	got := s.ds.GetGroups(filter)
	out := make([]groupDTO, len(got))
	for i, g := range got {
		out[i] = groupToDTO(g)
	}
	writeJSON(w, op, s.metrics, http.StatusOK, out)
}
