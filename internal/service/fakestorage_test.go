package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

// fakeStorage is an in-process port.Storage used only by this package's
// tests, standing in for memstore/filestore/boltstore so datastore tests
// don't depend on the filesystem or a real bbolt file. It never supplies a
// change stream, matching memstore/filestore's contract.
type fakeStorage struct {
	mu sync.Mutex

	failSaveTarget bool
}

var _ port.Storage = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage { return &fakeStorage{} }

func (s *fakeStorage) LoadTargets(context.Context) ([]*target.Target, error) { return nil, nil }
func (s *fakeStorage) LoadActors(context.Context) ([]*actor.Actor, error)    { return nil, nil }
func (s *fakeStorage) LoadRoles(context.Context) ([]*role.Role, error)       { return nil, nil }
func (s *fakeStorage) LoadGroups(context.Context) ([]*group.Group, error)    { return nil, nil }
func (s *fakeStorage) LoadPolicies(context.Context) ([]*policy.Rule, error)  { return nil, nil }

func (s *fakeStorage) SaveTarget(context.Context, *target.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveTarget {
		return errors.New("disk full")
	}
	return nil
}
func (s *fakeStorage) SaveActor(context.Context, *actor.Actor) error   { return nil }
func (s *fakeStorage) SaveRole(context.Context, *role.Role) error      { return nil }
func (s *fakeStorage) SaveGroup(context.Context, *group.Group) error   { return nil }
func (s *fakeStorage) SavePolicy(context.Context, *policy.Rule) error  { return nil }

func (s *fakeStorage) RemoveTarget(context.Context, key.Entity) error { return nil }
func (s *fakeStorage) RemoveActor(context.Context, key.Entity) error  { return nil }
func (s *fakeStorage) RemoveRole(context.Context, string) error       { return nil }
func (s *fakeStorage) RemoveGroup(context.Context, string) error      { return nil }
func (s *fakeStorage) RemovePolicy(context.Context, string) error     { return nil }

func (s *fakeStorage) Close() error { return nil }
