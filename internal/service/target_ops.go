package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

// AddTarget creates a target, rejecting a duplicate (typestr, name) key
// with AlreadyExists (§4.3.1, persist-then-commit per §4.3). targetsMu is
// held only for the validation and commit steps, never across the
// storage.SaveTarget I/O (§5: readers must not block on a write's fsync or
// transaction).
func (ds *Datastore) AddTarget(ctx context.Context, name, typestr string, actions []string, attributes map[string][]string) (*target.Target, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		t := target.New(name, typestr, actions, attributes)

		ds.targetsMu.Lock()
		if byType, ok := ds.targets[t.Typestr]; ok {
			if _, exists := byType[t.Name]; exists {
				ds.targetsMu.Unlock()
				return reply{Err: gherr.AlreadyExistsf("target %s/%s already exists", t.Typestr, t.Name)}
			}
		}
		ds.targetsMu.Unlock()

		if err := ds.storage.SaveTarget(ctx, t); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save target", err)}
		}

		ds.targetsMu.Lock()
		ds.indexTarget(t)
		ds.targetsMu.Unlock()
		return reply{Target: t}
	})
	return r.Target, err
}

// ModifyTargetRequest carries the Modify deltas for a target (§4.3.1):
// actions are added then removed; attributes are unioned then subtracted,
// pruning any key left with an empty value-set.
type ModifyTargetRequest struct {
	Name, Typestr    string
	AddActions       []string
	RemoveActions    []string
	AddAttributes    map[string][]string
	RemoveAttributes map[string][]string
}

func (ds *Datastore) ModifyTarget(ctx context.Context, req ModifyTargetRequest) (*target.Target, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		k := newLowerKey(req.Typestr, req.Name)

		ds.targetsMu.Lock()
		byType, ok := ds.targets[k.Typestr]
		var existing *target.Target
		if ok {
			existing = byType[k.Name]
		}
		ds.targetsMu.Unlock()
		if existing == nil {
			return reply{Err: gherr.NotFoundf("target %s/%s not found", k.Typestr, k.Name)}
		}

		next := existing.Clone()
		for _, a := range req.AddActions {
			next.Actions.Add(lower(a))
		}
		for _, a := range req.RemoveActions {
			next.Actions.Remove(lower(a))
		}
		next.Attributes.Union(attrset.NewMap(req.AddAttributes))
		next.Attributes.Subtract(attrset.NewMap(req.RemoveAttributes))

		if err := ds.storage.SaveTarget(ctx, next); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save target", err)}
		}

		ds.targetsMu.Lock()
		byType[k.Name] = next
		ds.targetsMu.Unlock()
		return reply{Target: next}
	})
	return r.Target, err
}

// RemoveTarget deletes a target, requiring it to exist.
func (ds *Datastore) RemoveTarget(ctx context.Context, name, typestr string) error {
	_, err := ds.submit(ctx, func(ds *Datastore) reply {
		k := newLowerKey(typestr, name)

		ds.targetsMu.Lock()
		byType, ok := ds.targets[k.Typestr]
		var existing *target.Target
		if ok {
			existing, ok = byType[k.Name]
		}
		ds.targetsMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("target %s/%s not found", k.Typestr, k.Name)}
		}

		if err := ds.storage.RemoveTarget(ctx, existing.Key()); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "remove target", err)}
		}

		ds.targetsMu.Lock()
		delete(byType, k.Name)
		ds.targetsMu.Unlock()
		return reply{}
	})
	return err
}

// TargetFilter narrows GetTargets by exact, case-insensitive name and/or
// typestr. A nil field means "no filter on this field".
type TargetFilter struct {
	Name    *string
	Typestr *string
}

// GetTargets reads directly under RLock — it never touches inbox, so it
// runs concurrently with reads of other kinds and with in-flight writes to
// other kinds (§4.3 execution discipline).
func (ds *Datastore) GetTargets(filter TargetFilter) []*target.Target {
	ds.targetsMu.RLock()
	defer ds.targetsMu.RUnlock()

	var out []*target.Target
	for typestr, byType := range ds.targets {
		if filter.Typestr != nil && lower(*filter.Typestr) != typestr {
			continue
		}
		for name, t := range byType {
			if filter.Name != nil && lower(*filter.Name) != name {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}
