package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
)

// AddRole creates a role; its name must be unique (§4.3.3). rolesMu is
// released across the storage.SaveRole I/O, per §5.
func (ds *Datastore) AddRole(ctx context.Context, name, desc string) (*role.Role, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		newRole := role.New(name, desc)

		ds.rolesMu.Lock()
		_, exists := ds.roles[newRole.Name]
		ds.rolesMu.Unlock()
		if exists {
			return reply{Err: gherr.AlreadyExistsf("role %s already exists", newRole.Name)}
		}

		if err := ds.storage.SaveRole(ctx, newRole); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save role", err)}
		}

		ds.rolesMu.Lock()
		ds.roles[newRole.Name] = newRole
		ds.rolesMu.Unlock()
		return reply{Role: newRole}
	})
	return r.Role, err
}

// ModifyRole replaces a role's description. Groups is not caller-settable
// here — it is the datastore's own denormalized index (§3).
func (ds *Datastore) ModifyRole(ctx context.Context, name, desc string) (*role.Role, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		name = lower(name)

		ds.rolesMu.Lock()
		existing, ok := ds.roles[name]
		ds.rolesMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("role %s not found", name)}
		}

		next := existing.Clone()
		next.Desc = desc
		if err := ds.storage.SaveRole(ctx, next); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save role", err)}
		}

		ds.rolesMu.Lock()
		ds.roles[name] = next
		ds.rolesMu.Unlock()
		return reply{Role: next}
	})
	return r.Role, err
}

// RemoveRole deletes a role, then strips it from every group that lists
// it (§4.3.3, §8 referential integrity). The role delete is the
// primary write; each affected group's update is a secondary write whose
// failure is logged, not surfaced, and not rolled back (§4.3, §7).
func (ds *Datastore) RemoveRole(ctx context.Context, name string) error {
	_, err := ds.submit(ctx, func(ds *Datastore) reply {
		name = lower(name)

		ds.rolesMu.Lock()
		existing, ok := ds.roles[name]
		ds.rolesMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("role %s not found", name)}
		}
		affectedGroups := existing.Groups.Slice()

		if err := ds.storage.RemoveRole(ctx, name); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "remove role", err)}
		}

		ds.rolesMu.Lock()
		delete(ds.roles, name)
		ds.rolesMu.Unlock()

		for _, groupName := range affectedGroups {
			ds.groupsMu.Lock()
			g, ok := ds.groups[groupName]
			ds.groupsMu.Unlock()
			if !ok {
				continue
			}
			next := g.Clone()
			next.Roles.Remove(name)
			if err := ds.storage.SaveGroup(ctx, next); err != nil {
				ds.logger.Warn("referential integrity: failed to persist group after role removal",
					"group", groupName, "role", name, "error", err)
				continue
			}
			ds.groupsMu.Lock()
			ds.groups[groupName] = next
			ds.groupsMu.Unlock()
		}
		return reply{}
	})
	return err
}

// RoleFilter narrows GetRoles by exact, case-insensitive name.
type RoleFilter struct {
	Name *string
}

func (ds *Datastore) GetRoles(filter RoleFilter) []*role.Role {
	ds.rolesMu.RLock()
	defer ds.rolesMu.RUnlock()

	if filter.Name != nil {
		r, ok := ds.roles[lower(*filter.Name)]
		if !ok {
			return nil
		}
		return []*role.Role{r}
	}
	out := make([]*role.Role, 0, len(ds.roles))
	for _, r := range ds.roles {
		out = append(out, r)
	}
	return out
}
