package service

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/port"
)

// ApplyUpdate applies a backend-originated change directly to the
// in-memory maps without persisting it again (§4.3.6). It is idempotent:
// a Put with the value already present, or a Delete of an already-absent
// key, is a no-op (§8 idempotent backend updates). Like writes, Update
// runs on the single writer goroutine by going through inbox, so it is
// serialized against every other mutation of the same kind. ctx bounds the
// wait so a canceled change-stream consumer does not block forever.
func (ds *Datastore) ApplyUpdate(ctx context.Context, u port.Update) {
	_, _ = ds.submit(ctx, func(ds *Datastore) reply {
		ds.applyUpdateLocked(u)
		return reply{}
	})
}

func (ds *Datastore) applyUpdateLocked(u port.Update) {
	switch u.Kind {
	case port.KindTarget:
		ds.targetsMu.Lock()
		defer ds.targetsMu.Unlock()
		if u.Deleted {
			if byType, ok := ds.targets[u.EntityKey.Typestr]; ok {
				delete(byType, u.EntityKey.Name)
			}
			return
		}
		ds.indexTarget(u.Target)

	case port.KindActor:
		ds.actorsMu.Lock()
		defer ds.actorsMu.Unlock()
		if u.Deleted {
			if byType, ok := ds.actors[u.EntityKey.Typestr]; ok {
				delete(byType, u.EntityKey.Name)
			}
			return
		}
		ds.indexActor(u.Actor)

	case port.KindRole:
		ds.rolesMu.Lock()
		defer ds.rolesMu.Unlock()
		if u.Deleted {
			delete(ds.roles, u.Name)
			return
		}
		ds.roles[u.Role.Name] = u.Role

	case port.KindGroup:
		ds.groupsMu.Lock()
		defer ds.groupsMu.Unlock()
		if u.Deleted {
			delete(ds.groups, u.Name)
			return
		}
		ds.groups[u.Group.Name] = u.Group

	case port.KindPolicy:
		ds.policiesMu.Lock()
		defer ds.policiesMu.Unlock()
		if u.Deleted {
			delete(ds.policies, u.Name)
			return
		}
		ds.policies[u.Policy.Name] = u.Policy
	}
}
