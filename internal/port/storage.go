// Package port declares the interfaces the datastore actor depends on,
// without reference to any concrete adapter — the storage backend and the
// optional change stream it may supply.
package port

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

// Storage is the behavioral contract §4.2 describes: load-all-at-startup,
// per-kind save/remove, and (for backends that support replication) an
// asynchronous change stream. Every method may block; callers pass a
// context to bound that wait.
//
// Implementations: memstore (nil, no-op), filestore (one record per file),
// boltstore (a watchable-KV stand-in backed by bbolt).
type Storage interface {
	LoadTargets(ctx context.Context) ([]*target.Target, error)
	LoadActors(ctx context.Context) ([]*actor.Actor, error)
	LoadRoles(ctx context.Context) ([]*role.Role, error)
	LoadGroups(ctx context.Context) ([]*group.Group, error)
	LoadPolicies(ctx context.Context) ([]*policy.Rule, error)

	SaveTarget(ctx context.Context, t *target.Target) error
	SaveActor(ctx context.Context, a *actor.Actor) error
	SaveRole(ctx context.Context, r *role.Role) error
	SaveGroup(ctx context.Context, g *group.Group) error
	SavePolicy(ctx context.Context, p *policy.Rule) error

	RemoveTarget(ctx context.Context, k key.Entity) error
	RemoveActor(ctx context.Context, k key.Entity) error
	RemoveRole(ctx context.Context, name string) error
	RemoveGroup(ctx context.Context, name string) error
	RemovePolicy(ctx context.Context, name string) error

	// Close releases any resources (file handles, DB handles, watch
	// goroutines) held by the backend.
	Close() error
}

// Watchable is implemented by backends that can supply an asynchronous
// change stream (§4.2, §5). A backend that does not support replication
// (memstore, filestore) simply does not implement this interface; the
// datastore treats the returned channel as optional.
type Watchable interface {
	// Watch starts delivering BackendUpdate values on the returned channel
	// until ctx is canceled, at which point the channel is closed. The
	// stream is at-least-once: the same revision may be redelivered, and
	// the receiver must be idempotent against re-receipt.
	Watch(ctx context.Context) (<-chan Update, error)
}

// Kind tags which of the five entity maps an Update applies to.
type Kind int

const (
	KindTarget Kind = iota
	KindActor
	KindRole
	KindGroup
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindActor:
		return "actor"
	case KindRole:
		return "role"
	case KindGroup:
		return "group"
	case KindPolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// Update is a single backend-originated change: the record field matching
// Kind (a Put) or EntityKey/Name (a Delete) is meaningful, selected by Kind
// and Deleted.
// Put overwrites the in-memory record for its key; Delete removes it.
// Applying the same Update twice must be a no-op the second time (§8
// idempotent backend updates).
type Update struct {
	Kind    Kind
	Deleted bool

	// Revision is the backend's monotonic change-stream position; boltstore
	// resumes its poll from the last one it delivered. The datastore does not
	// inspect it: redeliveries are harmless because applying is idempotent.
	Revision uint64

	// Populated on Put.
	Target *target.Target
	Actor  *actor.Actor
	Role   *role.Role
	Group  *group.Group
	Policy *policy.Rule

	// Populated on Delete. EntityKey is used for targets/actors; Name is
	// used for roles/groups/policies.
	EntityKey key.Entity
	Name      string
}
