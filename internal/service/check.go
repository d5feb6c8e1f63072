package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
)

// CheckRequest is the policy evaluator's input (§4.4): the actor attempting
// an action, the environment it's acting in, and the target it's acting
// on.
type CheckRequest struct {
	ActorName    string
	ActorType    string
	ActorAttrs   map[string][]string
	EnvAttrs     map[string][]string
	TargetName   string
	TargetType   string
	TargetAction string
}

// Check evaluates a CheckRequest against the current policy graph and
// returns ALLOW or DENY. It reads under RLock across every kind it
// touches and never goes through inbox — Check is a pure read (§4.3
// execution discipline groups it with Get).
func (ds *Datastore) Check(_ context.Context, req CheckRequest) policy.Decision {
	ds.actorsMu.RLock()
	ds.groupsMu.RLock()
	ds.targetsMu.RLock()
	ds.policiesMu.RLock()
	defer ds.policiesMu.RUnlock()
	defer ds.targetsMu.RUnlock()
	defer ds.groupsMu.RUnlock()
	defer ds.actorsMu.RUnlock()

	expanded := ds.expandActorLocked(req)
	envAttrs := attrset.NewMap(req.EnvAttrs)
	targetAttrs := ds.targetAttrsLocked(req.TargetType, req.TargetName)
	bucket := actor.Bucket(expanded.Typestr, expanded.Name)

	decision := policy.Deny
	for _, rule := range ds.policies {
		if rule.ActorCheck != nil && !rule.ActorCheck.Check(expanded.Name, expanded.Typestr, expanded.Attributes, bucket) {
			continue
		}
		if !allKvPass(rule.EnvAttributes, envAttrs) {
			continue
		}
		if rule.TargetCheck != nil && !rule.TargetCheck.Check(req.TargetName, req.TargetType, targetAttrs, expanded.Attributes, envAttrs, req.TargetAction) {
			continue
		}
		decision = rule.Decision
		if decision == policy.Deny {
			return decision
		}
	}
	return decision
}

func allKvPass(checks []policy.KvCheck, attrs attrset.Map) bool {
	for _, c := range checks {
		if !c.Check(attrs) {
			return false
		}
	}
	return true
}

// expandActorLocked builds the working Actor for a CheckRequest: the
// caller-supplied identity and attributes, unioned with the registered
// actor's stored attributes (registered values survive collisions, §9
// open question c), plus member-of/has-role attributes derived from every
// group the actor belongs to. Callers must hold actorsMu and groupsMu for
// reading.
func (ds *Datastore) expandActorLocked(req CheckRequest) *actor.Actor {
	working := actor.New(req.ActorName, req.ActorType, req.ActorAttrs)

	if byType, ok := ds.actors[working.Typestr]; ok {
		if registered, ok := byType[working.Name]; ok {
			merged := registered.Attributes.Clone()
			merged.Union(working.Attributes)
			working.Attributes = merged
		}
	}
	ds.expandMembershipLocked(working)
	return working
}

// targetAttrsLocked returns the registered target's attributes, or an
// empty map if the target is not registered (§4.4). Callers must hold
// targetsMu for reading.
func (ds *Datastore) targetAttrsLocked(typestr, name string) attrset.Map {
	typestr, name = lower(typestr), lower(name)
	if byType, ok := ds.targets[typestr]; ok {
		if t, ok := byType[name]; ok {
			return t.Attributes
		}
	}
	return attrset.Map{}
}
