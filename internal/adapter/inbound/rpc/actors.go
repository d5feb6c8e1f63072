package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/service"
)

type actorDTO struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Bucket     int                 `json:"bucket"`
	Attributes map[string][]string `json:"attributes"`
}

func actorToDTO(a *actor.Actor) actorDTO {
	return actorDTO{
		Name:       a.Name,
		Typestr:    a.Typestr,
		Bucket:     a.Bucket(),
		Attributes: a.Attributes.ToStringSlices(),
	}
}

type addActorRequest struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Attributes map[string][]string `json:"attributes"`
}

func (s *Server) handleAddActor(w http.ResponseWriter, r *http.Request, op string) {
	var req addActorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.AddActor(r.Context(), req.Name, req.Typestr, req.Attributes)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusCreated, actorToDTO(got))
}

type modifyActorRequest struct {
	Name             string              `json:"name"`
	Typestr          string              `json:"typestr"`
	AddAttributes    map[string][]string `json:"add_attributes"`
	RemoveAttributes map[string][]string `json:"remove_attributes"`
}

func (s *Server) handleModifyActor(w http.ResponseWriter, r *http.Request, op string) {
	var req modifyActorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.ModifyActor(r.Context(), service.ModifyActorRequest{
		Name:             req.Name,
		Typestr:          req.Typestr,
		AddAttributes:    req.AddAttributes,
		RemoveAttributes: req.RemoveAttributes,
	})
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusOK, actorToDTO(got))
}

func (s *Server) handleRemoveActor(w http.ResponseWriter, r *http.Request, op string) {
	name := r.URL.Query().Get("name")
	typestr := r.URL.Query().Get("typestr")
	if err := s.ds.RemoveActor(r.Context(), name, typestr); err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
}

func (s *Server) handleGetActors(w http.ResponseWriter, r *http.Request, op string) {
	q := r.URL.Query()
	filter := service.ActorFilter{}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("typestr"); v != "" {
		filter.Typestr = &v
	}
	got := s.ds.GetActors(filter)
	out := make([]actorDTO, len(got))
	for i, a := range got {
		out[i] = actorToDTO(a)
	}
	writeJSON(w, op, s.metrics, http.StatusOK, out)
}
