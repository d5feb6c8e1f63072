package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

const (
	attrMemberOf = "member-of"
	attrHasRole  = "has-role"
)

// AddActor has the identical lifecycle to AddTarget, minus actions
// (§4.3.2). actorsMu is released across the storage.SaveActor I/O, per §5.
func (ds *Datastore) AddActor(ctx context.Context, name, typestr string, attributes map[string][]string) (*actor.Actor, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		a := actor.New(name, typestr, attributes)

		ds.actorsMu.Lock()
		if byType, ok := ds.actors[a.Typestr]; ok {
			if _, exists := byType[a.Name]; exists {
				ds.actorsMu.Unlock()
				return reply{Err: gherr.AlreadyExistsf("actor %s/%s already exists", a.Typestr, a.Name)}
			}
		}
		ds.actorsMu.Unlock()

		if err := ds.storage.SaveActor(ctx, a); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save actor", err)}
		}

		ds.actorsMu.Lock()
		ds.indexActor(a)
		ds.actorsMu.Unlock()
		return reply{Actor: a}
	})
	return r.Actor, err
}

// ModifyActorRequest carries the Modify deltas for an actor: add/remove
// attributes only, the same semantics as ModifyTargetRequest's attribute
// fields.
type ModifyActorRequest struct {
	Name, Typestr    string
	AddAttributes    map[string][]string
	RemoveAttributes map[string][]string
}

func (ds *Datastore) ModifyActor(ctx context.Context, req ModifyActorRequest) (*actor.Actor, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		k := newLowerKey(req.Typestr, req.Name)

		ds.actorsMu.Lock()
		byType, ok := ds.actors[k.Typestr]
		var existing *actor.Actor
		if ok {
			existing = byType[k.Name]
		}
		ds.actorsMu.Unlock()
		if existing == nil {
			return reply{Err: gherr.NotFoundf("actor %s/%s not found", k.Typestr, k.Name)}
		}

		next := existing.Clone()
		next.Attributes.Union(attrset.NewMap(req.AddAttributes))
		next.Attributes.Subtract(attrset.NewMap(req.RemoveAttributes))

		if err := ds.storage.SaveActor(ctx, next); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save actor", err)}
		}

		ds.actorsMu.Lock()
		byType[k.Name] = next
		ds.actorsMu.Unlock()
		return reply{Actor: next}
	})
	return r.Actor, err
}

// RemoveActor deletes an actor, requiring it to exist.
func (ds *Datastore) RemoveActor(ctx context.Context, name, typestr string) error {
	_, err := ds.submit(ctx, func(ds *Datastore) reply {
		k := newLowerKey(typestr, name)

		ds.actorsMu.Lock()
		byType, ok := ds.actors[k.Typestr]
		var existing *actor.Actor
		if ok {
			existing, ok = byType[k.Name]
		}
		ds.actorsMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("actor %s/%s not found", k.Typestr, k.Name)}
		}

		if err := ds.storage.RemoveActor(ctx, existing.Key()); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "remove actor", err)}
		}

		ds.actorsMu.Lock()
		delete(byType, k.Name)
		ds.actorsMu.Unlock()
		return reply{}
	})
	return err
}

// ActorFilter narrows GetActors by exact, case-insensitive name and/or
// typestr.
type ActorFilter struct {
	Name    *string
	Typestr *string
}

// GetActors reads under RLock and expands each returned actor with its
// derived member-of/has-role attributes, matching what the evaluator sees
// (§4.3.2).
func (ds *Datastore) GetActors(filter ActorFilter) []*actor.Actor {
	ds.actorsMu.RLock()
	defer ds.actorsMu.RUnlock()
	ds.groupsMu.RLock()
	defer ds.groupsMu.RUnlock()

	var out []*actor.Actor
	for typestr, byType := range ds.actors {
		if filter.Typestr != nil && lower(*filter.Typestr) != typestr {
			continue
		}
		for name, a := range byType {
			if filter.Name != nil && lower(*filter.Name) != name {
				continue
			}
			expanded := a.Clone()
			ds.expandMembershipLocked(expanded)
			out = append(out, expanded)
		}
	}
	return out
}

// expandMembershipLocked adds member-of and has-role attributes to a,
// derived from every group whose members include a's key. Callers must
// already hold groupsMu (read or write).
func (ds *Datastore) expandMembershipLocked(a *actor.Actor) {
	k := key.New(a.Typestr, a.Name)
	for _, g := range ds.groups {
		if !g.Members.Has(k) {
			continue
		}
		a.Attributes.Union(attrset.NewMap(map[string][]string{attrMemberOf: {g.Name}}))
		if len(g.Roles) > 0 {
			a.Attributes.Union(attrset.NewMap(map[string][]string{attrHasRole: g.Roles.Slice()}))
		}
	}
}
