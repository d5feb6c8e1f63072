package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

// Lock discipline for group/role cross-updates: no call holds rolesMu and
// groupsMu at the same time. Writers below take each kind's lock only for
// its own validation/commit step, never across the storage I/O in between
// (§5); the readers that nest locks (GetActors, Check) take actorsMu before
// groupsMu and never take rolesMu.

// AddGroup requires every named role to already exist (FailedPrecondition
// otherwise), persists the group as the primary write, then persists each
// role's back-reference update as a secondary write (§4.3.4). No lock is
// held across any of the storage I/O calls.
func (ds *Datastore) AddGroup(ctx context.Context, name, desc string, members []key.Entity, roleNames []string) (*group.Group, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		lowerRoles := make([]string, len(roleNames))
		for i, rn := range roleNames {
			lowerRoles[i] = lower(rn)
		}

		ds.rolesMu.Lock()
		for _, rn := range lowerRoles {
			if _, ok := ds.roles[rn]; !ok {
				ds.rolesMu.Unlock()
				return reply{Err: gherr.FailedPreconditionf("role %s does not exist", rn)}
			}
		}
		ds.rolesMu.Unlock()

		newGroup := group.New(name, desc)
		ds.groupsMu.Lock()
		_, exists := ds.groups[newGroup.Name]
		ds.groupsMu.Unlock()
		if exists {
			return reply{Err: gherr.AlreadyExistsf("group %s already exists", newGroup.Name)}
		}

		for _, m := range members {
			newGroup.Members.Add(key.New(m.Typestr, m.Name))
		}
		for _, rn := range lowerRoles {
			newGroup.Roles.Add(rn)
		}

		if err := ds.storage.SaveGroup(ctx, newGroup); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save group", err)}
		}

		ds.groupsMu.Lock()
		ds.groups[newGroup.Name] = newGroup
		ds.groupsMu.Unlock()

		for _, rn := range lowerRoles {
			ds.updateRoleBackref(ctx, rn, newGroup.Name, true)
		}
		return reply{Group: newGroup}
	})
	return r.Group, err
}

// ModifyGroupRequest carries Modify deltas for a group (§4.3.4).
type ModifyGroupRequest struct {
	Name          string
	Desc          *string
	AddMembers    []key.Entity
	RemoveMembers []key.Entity
	AddRoles      []string
	RemoveRoles   []string
}

func (ds *Datastore) ModifyGroup(ctx context.Context, req ModifyGroupRequest) (*group.Group, error) {
	r, err := ds.submit(ctx, func(ds *Datastore) reply {
		addRoles := make([]string, len(req.AddRoles))
		for i, rn := range req.AddRoles {
			addRoles[i] = lower(rn)
		}
		removeRoles := make([]string, len(req.RemoveRoles))
		for i, rn := range req.RemoveRoles {
			removeRoles[i] = lower(rn)
		}

		ds.rolesMu.Lock()
		for _, rn := range addRoles {
			if _, ok := ds.roles[rn]; !ok {
				ds.rolesMu.Unlock()
				return reply{Err: gherr.FailedPreconditionf("role %s does not exist", rn)}
			}
		}
		ds.rolesMu.Unlock()

		name := lower(req.Name)
		ds.groupsMu.Lock()
		existing, ok := ds.groups[name]
		ds.groupsMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("group %s not found", name)}
		}

		next := existing.Clone()
		for _, m := range req.AddMembers {
			next.Members.Add(key.New(m.Typestr, m.Name))
		}
		for _, m := range req.RemoveMembers {
			next.Members.Remove(key.New(m.Typestr, m.Name))
		}
		for _, rn := range addRoles {
			next.Roles.Add(rn)
		}
		for _, rn := range removeRoles {
			next.Roles.Remove(rn)
		}
		if req.Desc != nil {
			next.Desc = *req.Desc
		}

		if err := ds.storage.SaveGroup(ctx, next); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "save group", err)}
		}

		ds.groupsMu.Lock()
		ds.groups[name] = next
		ds.groupsMu.Unlock()

		for _, rn := range addRoles {
			ds.updateRoleBackref(ctx, rn, name, true)
		}
		for _, rn := range removeRoles {
			ds.updateRoleBackref(ctx, rn, name, false)
		}
		return reply{Group: next}
	})
	return r.Group, err
}

// updateRoleBackref adds or removes groupName from roleName's back-
// reference set and persists the role as a secondary write, taking rolesMu
// only for its own lookup and commit steps — never across the
// storage.SaveRole I/O (§5). Failures are logged, not returned (§4.3, §7).
func (ds *Datastore) updateRoleBackref(ctx context.Context, roleName, groupName string, add bool) {
	ds.rolesMu.Lock()
	existingRole, ok := ds.roles[roleName]
	ds.rolesMu.Unlock()
	if !ok {
		return
	}

	next := existingRole.Clone()
	if add {
		next.Groups.Add(groupName)
	} else {
		next.Groups.Remove(groupName)
	}
	if err := ds.storage.SaveRole(ctx, next); err != nil {
		ds.logger.Warn("referential integrity: failed to persist role after group modification",
			"role", roleName, "group", groupName, "error", err)
		return
	}

	ds.rolesMu.Lock()
	ds.roles[roleName] = next
	ds.rolesMu.Unlock()
}

// RemoveGroup deletes a group, then strips it from every role it granted
// (§4.3.4, §8 referential integrity). The group delete is the primary
// write; role back-reference updates are secondary.
func (ds *Datastore) RemoveGroup(ctx context.Context, name string) error {
	_, err := ds.submit(ctx, func(ds *Datastore) reply {
		name = lower(name)

		ds.groupsMu.Lock()
		existing, ok := ds.groups[name]
		ds.groupsMu.Unlock()
		if !ok {
			return reply{Err: gherr.NotFoundf("group %s not found", name)}
		}
		affectedRoles := existing.Roles.Slice()

		if err := ds.storage.RemoveGroup(ctx, name); err != nil {
			return reply{Err: gherr.Wrap(gherr.Internal, "remove group", err)}
		}

		ds.groupsMu.Lock()
		delete(ds.groups, name)
		ds.groupsMu.Unlock()

		for _, roleName := range affectedRoles {
			ds.updateRoleBackref(ctx, roleName, name, false)
		}
		return reply{}
	})
	return err
}

// GroupFilter narrows GetGroups; all non-nil fields are ANDed (§4.3.4).
type GroupFilter struct {
	Name       *string
	MemberName *string
	MemberType *string
	RoleName   *string
}

func (ds *Datastore) GetGroups(filter GroupFilter) []*group.Group {
	ds.groupsMu.RLock()
	defer ds.groupsMu.RUnlock()

	var out []*group.Group
	for name, g := range ds.groups {
		if filter.Name != nil && lower(*filter.Name) != name {
			continue
		}
		if filter.MemberName != nil || filter.MemberType != nil {
			memberName, memberType := "", ""
			if filter.MemberName != nil {
				memberName = lower(*filter.MemberName)
			}
			if filter.MemberType != nil {
				memberType = lower(*filter.MemberType)
			}
			if !groupHasMember(g, memberType, memberName) {
				continue
			}
		}
		if filter.RoleName != nil && !g.Roles.Has(lower(*filter.RoleName)) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func groupHasMember(g *group.Group, typestr, name string) bool {
	for m := range g.Members {
		if typestr != "" && m.Typestr != typestr {
			continue
		}
		if name != "" && m.Name != name {
			continue
		}
		return true
	}
	return false
}
