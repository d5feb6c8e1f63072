// Package memstore implements the nil storage backend: every Load returns
// empty, every Save/Remove succeeds without persisting anything. It is
// grounded on the teacher's MemoryPolicyStore — a bare in-process store with
// no durability — reduced to pure no-ops since Gatehouse's nil backend is
// meant for tests and single-shot evaluation, not in-process caching.
package memstore

import (
	"context"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

// Store is the nil backend named in spec §4.2: every load returns an empty
// snapshot, every save/remove acknowledges immediately. It carries no
// state of its own and supports no change stream.
type Store struct{}

var _ port.Storage = (*Store)(nil)

// New returns a nil backend.
func New() *Store { return &Store{} }

func (*Store) LoadTargets(context.Context) ([]*target.Target, error) { return nil, nil }
func (*Store) LoadActors(context.Context) ([]*actor.Actor, error)    { return nil, nil }
func (*Store) LoadRoles(context.Context) ([]*role.Role, error)       { return nil, nil }
func (*Store) LoadGroups(context.Context) ([]*group.Group, error)    { return nil, nil }
func (*Store) LoadPolicies(context.Context) ([]*policy.Rule, error)  { return nil, nil }

func (*Store) SaveTarget(context.Context, *target.Target) error { return nil }
func (*Store) SaveActor(context.Context, *actor.Actor) error    { return nil }
func (*Store) SaveRole(context.Context, *role.Role) error       { return nil }
func (*Store) SaveGroup(context.Context, *group.Group) error    { return nil }
func (*Store) SavePolicy(context.Context, *policy.Rule) error   { return nil }

func (*Store) RemoveTarget(context.Context, key.Entity) error { return nil }
func (*Store) RemoveActor(context.Context, key.Entity) error  { return nil }
func (*Store) RemoveRole(context.Context, string) error       { return nil }
func (*Store) RemoveGroup(context.Context, string) error      { return nil }
func (*Store) RemovePolicy(context.Context, string) error     { return nil }

func (*Store) Close() error { return nil }
