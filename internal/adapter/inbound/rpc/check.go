package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/service"
)

type checkRequestDTO struct {
	ActorName    string              `json:"actor_name"`
	ActorType    string              `json:"actor_type"`
	ActorAttrs   map[string][]string `json:"actor_attrs"`
	EnvAttrs     map[string][]string `json:"env_attrs"`
	TargetName   string              `json:"target_name"`
	TargetType   string              `json:"target_type"`
	TargetAction string              `json:"target_action"`
}

type checkResponseDTO struct {
	Decision string `json:"decision"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request, op string) {
	var req checkRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	decision := s.ds.Check(r.Context(), service.CheckRequest{
		ActorName:    req.ActorName,
		ActorType:    req.ActorType,
		ActorAttrs:   req.ActorAttrs,
		EnvAttrs:     req.EnvAttrs,
		TargetName:   req.TargetName,
		TargetType:   req.TargetType,
		TargetAction: req.TargetAction,
	})
	if s.metrics != nil {
		s.metrics.PolicyDecisions.WithLabelValues(decision.String()).Inc()
	}
	writeJSON(w, op, s.metrics, http.StatusOK, checkResponseDTO{Decision: decision.String()})
}
