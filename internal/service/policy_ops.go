package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
)

// AddPolicy creates a policy rule; its name must be unique. policiesMu is
// released across the storage.SavePolicy I/O, per §5.
func (ds *Datastore) AddPolicy(ctx context.Context, p *policy.Rule) (*policy.Rule, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		p.Name = lower(p.Name)
		if p.Name == "" {
			return reply{Err: gherr.InvalidArgumentf("policy name must not be empty")}
		}

		ds.policiesMu.Lock()
		_, exists := ds.policies[p.Name]
		ds.policiesMu.Unlock()
		if exists {
			return reply{Err: gherr.AlreadyExistsf("policy %s already exists", p.Name)}
		}

		if err := ds.storage.SavePolicy(ctx, p); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save policy", err)}
		}

		ds.policiesMu.Lock()
		ds.policies[p.Name] = p
		ds.policiesMu.Unlock()
		return reply{Policy: p}
	})
	return r.Policy, err
}

// ModifyPolicy replaces the whole rule body — policy records are immutable
// values, Modify is whole-record replacement (§4.3.5).
func (ds *Datastore) ModifyPolicy(ctx context.Context, p *policy.Rule) (*policy.Rule, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		p.Name = lower(p.Name)

		ds.policiesMu.Lock()
		_, exists := ds.policies[p.Name]
		ds.policiesMu.Unlock()
		if !exists {
			return reply{Err: gherr.NotFoundf("policy %s not found", p.Name)}
		}

		if err := ds.storage.SavePolicy(ctx, p); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save policy", err)}
		}

		ds.policiesMu.Lock()
		ds.policies[p.Name] = p
		ds.policiesMu.Unlock()
		return reply{Policy: p}
	})
	return r.Policy, err
}

// RemovePolicy deletes a policy rule, requiring it to exist.
func (ds *Datastore) RemovePolicy(ctx context.Context, name string) error {
	_, err := ds.submit(ctx, func(ds *Datastore) reply {
		name = lower(name)

		ds.policiesMu.Lock()
		_, exists := ds.policies[name]
		ds.policiesMu.Unlock()
		if !exists {
			return reply{Err: gherr.NotFoundf("policy %s not found", name)}
		}

		if err := ds.storage.RemovePolicy(ctx, name); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "remove policy", err)}
		}

		ds.policiesMu.Lock()
		delete(ds.policies, name)
		ds.policiesMu.Unlock()
		return reply{}
	})
	return err
}

// PolicyFilter narrows GetPolicies. Only an exact name filter is
// supported; any attribute-based filter is Unimplemented (§9 open
// question b, preserving the behavior of an early draft rather than
// guessing at filter semantics).
type PolicyFilter struct {
	Name          *string
	AttributeFilt bool
}

func (ds *Datastore) GetPolicies(filter PolicyFilter) ([]*policy.Rule, error) {
	if filter.AttributeFilt {
		return nil, gherr.New(gherr.Unimplemented, "policy attribute filtering is not supported")
	}

	ds.policiesMu.RLock()
	defer ds.policiesMu.RUnlock()

	if filter.Name != nil {
		p, ok := ds.policies[lower(*filter.Name)]
		if !ok {
			return nil, nil
		}
		return []*policy.Rule{p}, nil
	}
	out := make([]*policy.Rule, 0, len(ds.policies))
	for _, p := range ds.policies {
		out = append(out, p)
	}
	return out, nil
}
