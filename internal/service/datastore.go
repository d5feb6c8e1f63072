// Package service implements the datastore actor (§4.3) and the policy
// evaluator (§4.4) that sit behind Gatehouse's RPC surface. The datastore
// owns five in-memory maps and serializes every mutation through a single
// inbox goroutine; reads take the affected kind's RWMutex directly, the
// realization §4.3 calls out as acceptable ("a reader-writer lock per
// kind... another is to keep all state behind one mutex... the contract
// below is what matters, not the mechanism").
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/gherr"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

// reply is the union of everything a dsRequest closure can hand back to its
// caller. Only the fields relevant to the request in question are set.
type reply struct {
	Target   *target.Target
	Targets  []*target.Target
	Actor    *actor.Actor
	Actors   []*actor.Actor
	Role     *role.Role
	Roles    []*role.Role
	Group    *group.Group
	Groups   []*group.Group
	Policy   *policy.Rule
	Policies []*policy.Rule
	Decision policy.Decision
	Err      error
}

// dsRequest is one inbox message: a closure that runs on the single writer
// goroutine with full access to the Datastore, and a one-shot channel for
// its reply.
type dsRequest struct {
	fn   func(ds *Datastore) reply
	done chan reply
}

// Datastore is the single logical owner of the policy graph. Writes are
// serialized through inbox; Get/Check take the relevant RWMutex(es)
// directly in read mode and never touch inbox, so they run concurrently
// with each other and with an in-flight write to an unrelated kind.
type Datastore struct {
	storage port.Storage
	logger  *slog.Logger

	inbox chan dsRequest

	targetsMu sync.RWMutex
	targets   map[string]map[string]*target.Target // typestr -> name -> Target

	actorsMu sync.RWMutex
	actors   map[string]map[string]*actor.Actor // typestr -> name -> Actor

	rolesMu sync.RWMutex
	roles   map[string]*role.Role

	groupsMu sync.RWMutex
	groups   map[string]*group.Group

	policiesMu sync.RWMutex
	policies   map[string]*policy.Rule

	wg sync.WaitGroup
}

// New constructs a Datastore backed by storage. Call Load to populate it
// from the backend's startup snapshot, then Run to start the writer
// goroutine.
func New(storage port.Storage, logger *slog.Logger) *Datastore {
	if logger == nil {
		logger = slog.Default()
	}
	return &Datastore{
		storage:  storage,
		logger:   logger,
		inbox:    make(chan dsRequest, 64),
		targets:  make(map[string]map[string]*target.Target),
		actors:   make(map[string]map[string]*actor.Actor),
		roles:    make(map[string]*role.Role),
		groups:   make(map[string]*group.Group),
		policies: make(map[string]*policy.Rule),
	}
}

// Load populates the five maps from the backend's startup snapshot.
// Failure here is fatal to the process (§4.2: "Failure is fatal").
func (ds *Datastore) Load(ctx context.Context) error {
	targets, err := ds.storage.LoadTargets(ctx)
	if err != nil {
		return gherr.Wrap(gherr.Internal, "load targets", err)
	}
	for _, t := range targets {
		ds.indexTarget(t)
	}

	actors, err := ds.storage.LoadActors(ctx)
	if err != nil {
		return gherr.Wrap(gherr.Internal, "load actors", err)
	}
	for _, a := range actors {
		ds.indexActor(a)
	}

	roles, err := ds.storage.LoadRoles(ctx)
	if err != nil {
		return gherr.Wrap(gherr.Internal, "load roles", err)
	}
	for _, r := range roles {
		ds.roles[r.Name] = r
	}

	groups, err := ds.storage.LoadGroups(ctx)
	if err != nil {
		return gherr.Wrap(gherr.Internal, "load groups", err)
	}
	for _, g := range groups {
		ds.groups[g.Name] = g
	}

	policies, err := ds.storage.LoadPolicies(ctx)
	if err != nil {
		return gherr.Wrap(gherr.Internal, "load policies", err)
	}
	for _, p := range policies {
		ds.policies[p.Name] = p
	}
	return nil
}

func (ds *Datastore) indexTarget(t *target.Target) {
	byType, ok := ds.targets[t.Typestr]
	if !ok {
		byType = make(map[string]*target.Target)
		ds.targets[t.Typestr] = byType
	}
	byType[t.Name] = t
}

func (ds *Datastore) indexActor(a *actor.Actor) {
	byType, ok := ds.actors[a.Typestr]
	if !ok {
		byType = make(map[string]*actor.Actor)
		ds.actors[a.Typestr] = byType
	}
	byType[a.Name] = a
}

// Run starts the single writer goroutine consuming inbox until ctx is
// canceled. It also, if storage supports it, starts a goroutine applying
// the backend's change stream. Run returns immediately; call Wait (or let
// ctx cancellation propagate) to block for shutdown.
func (ds *Datastore) Run(ctx context.Context) {
	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-ds.inbox:
				req.done <- req.fn(ds)
			}
		}
	}()

	if w, ok := ds.storage.(port.Watchable); ok {
		ds.wg.Add(1)
		go func() {
			defer ds.wg.Done()
			ds.consumeChangeStream(ctx, w)
		}()
	}
}

// Wait blocks until the writer goroutine (and change-stream consumer, if
// any) have exited.
func (ds *Datastore) Wait() { ds.wg.Wait() }

// submit enqueues fn and waits for its reply, honoring ctx's deadline on
// both the send and the receive per §4.5's 30-second RPC deadline. If ctx
// expires, the already-enqueued work still runs to completion against the
// datastore's state — the RPC layer simply stops waiting for it (§9
// "Deadline cancellation").
func (ds *Datastore) submit(ctx context.Context, fn func(ds *Datastore) reply) (reply, error) {
	done := make(chan reply, 1)
	select {
	case ds.inbox <- dsRequest{fn: fn, done: done}:
	case <-ctx.Done():
		return reply{}, gherr.New(gherr.DeadlineExceeded, "datastore inbox did not accept the request in time")
	}
	select {
	case r := <-done:
		return r, r.Err
	case <-ctx.Done():
		return reply{}, gherr.New(gherr.DeadlineExceeded, "datastore did not reply in time")
	}
}

func (ds *Datastore) consumeChangeStream(ctx context.Context, w port.Watchable) {
	ch, err := w.Watch(ctx)
	if err != nil {
		ds.logger.Error("change stream watch failed to start", "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			ds.ApplyUpdate(ctx, u)
		}
	}
}
