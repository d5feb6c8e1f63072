// Package boltstore implements the watchable-KV storage backend named in
// spec §4.2/§6 ("e.g. Etcd"). It stands in for a live Etcd cluster using
// go.etcd.io/bbolt — the same storage engine Etcd itself is built on — so
// Gatehouse gets a real watchable-KV contract (records under a key prefix,
// a change stream resumable from the last acknowledged revision, backoff on
// watch failure) without requiring a running Etcd server. Every mutation
// additionally appends a changelog entry keyed by a monotonically
// increasing revision; Watch polls that changelog rather than pushing
// updates out of a live connection, which is the honest shape of "watchable
// KV without a network watch API."
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

const (
	bucketTargets   = "targets"
	bucketActors    = "actors"
	bucketRoles     = "roles"
	bucketGroups    = "groups"
	bucketPolicies  = "policies"
	bucketChangelog = "changelog"

	// pollInterval is how often Watch checks the changelog for new
	// revisions. watchRetryBackoff and watchRestartBackoff mirror the
	// reconnection timing spec §5 prescribes for a real watch stream.
	pollInterval        = 250 * time.Millisecond
	watchRetryBackoff   = 2 * time.Second
	watchRestartBackoff = 10 * time.Second
)

// changeEnvelope is the changelog's on-disk shape: one entry per mutation,
// carrying enough to reconstruct a port.Update.
type changeEnvelope struct {
	Kind      string          `json:"kind"`
	Deleted   bool            `json:"deleted"`
	EntityKey *memberRecord   `json:"entity_key,omitempty"`
	Name      string          `json:"name,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
}

// Store is the bbolt-backed watchable-KV backend.
type Store struct {
	db     *bbolt.DB
	logger *slog.Logger
}

var (
	_ port.Storage   = (*Store)(nil)
	_ port.Watchable = (*Store)(nil)
)

// New opens (creating if absent) a bbolt database at path and ensures the
// five entity buckets plus the changelog bucket exist.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketTargets, bucketActors, bucketRoles, bucketGroups, bucketPolicies, bucketChangelog} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: init buckets: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// entityKeyStr builds the "<typestr>/<name>" key shape spec §6 specifies
// for targets and actors.
func entityKeyStr(k key.Entity) []byte {
	return []byte(k.Typestr + "/" + k.Name)
}

func (s *Store) appendChangelog(tx *bbolt.Tx, env changeEnvelope) error {
	log := tx.Bucket([]byte(bucketChangelog))
	seq, err := log.NextSequence()
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	var revKey [8]byte
	binary.BigEndian.PutUint64(revKey[:], seq)
	return log.Put(revKey[:], data)
}

func (s *Store) put(bucketName string, recKey []byte, rec any, kind port.Kind, entityKey *key.Entity, name string) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketName)).Put(recKey, data); err != nil {
			return err
		}
		env := changeEnvelope{Kind: kind.String(), Name: name, Record: data}
		if entityKey != nil {
			env.EntityKey = &memberRecord{Typestr: entityKey.Typestr, Name: entityKey.Name}
		}
		return s.appendChangelog(tx, env)
	})
}

func (s *Store) delete(bucketName string, recKey []byte, kind port.Kind, entityKey *key.Entity, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketName)).Delete(recKey); err != nil {
			return err
		}
		env := changeEnvelope{Kind: kind.String(), Deleted: true, Name: name}
		if entityKey != nil {
			env.EntityKey = &memberRecord{Typestr: entityKey.Typestr, Name: entityKey.Name}
		}
		return s.appendChangelog(tx, env)
	})
}

func loadAll[T any](s *Store, bucketName string, decode func([]byte) (T, error)) ([]T, error) {
	var out []T
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LoadTargets(context.Context) ([]*target.Target, error) {
	return loadAll(s, bucketTargets, func(v []byte) (*target.Target, error) {
		var r targetRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, err
		}
		return recordToTarget(r), nil
	})
}

func (s *Store) LoadActors(context.Context) ([]*actor.Actor, error) {
	return loadAll(s, bucketActors, func(v []byte) (*actor.Actor, error) {
		var r actorRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, err
		}
		return recordToActor(r), nil
	})
}

func (s *Store) LoadRoles(context.Context) ([]*role.Role, error) {
	return loadAll(s, bucketRoles, func(v []byte) (*role.Role, error) {
		var r roleRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, err
		}
		return recordToRole(r), nil
	})
}

func (s *Store) LoadGroups(context.Context) ([]*group.Group, error) {
	return loadAll(s, bucketGroups, func(v []byte) (*group.Group, error) {
		var r groupRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, err
		}
		return recordToGroup(r), nil
	})
}

func (s *Store) LoadPolicies(context.Context) ([]*policy.Rule, error) {
	return loadAll(s, bucketPolicies, func(v []byte) (*policy.Rule, error) {
		var r ruleRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, err
		}
		return recordToRule(r), nil
	})
}

func (s *Store) SaveTarget(_ context.Context, t *target.Target) error {
	k := t.Key()
	return s.put(bucketTargets, entityKeyStr(k), targetToRecord(t), port.KindTarget, &k, "")
}

func (s *Store) SaveActor(_ context.Context, a *actor.Actor) error {
	k := a.Key()
	return s.put(bucketActors, entityKeyStr(k), actorToRecord(a), port.KindActor, &k, "")
}

func (s *Store) SaveRole(_ context.Context, r *role.Role) error {
	return s.put(bucketRoles, []byte(r.Name), roleToRecord(r), port.KindRole, nil, r.Name)
}

func (s *Store) SaveGroup(_ context.Context, g *group.Group) error {
	return s.put(bucketGroups, []byte(g.Name), groupToRecord(g), port.KindGroup, nil, g.Name)
}

func (s *Store) SavePolicy(_ context.Context, p *policy.Rule) error {
	return s.put(bucketPolicies, []byte(p.Name), ruleToRecord(p), port.KindPolicy, nil, p.Name)
}

func (s *Store) RemoveTarget(_ context.Context, k key.Entity) error {
	return s.delete(bucketTargets, entityKeyStr(k), port.KindTarget, &k, "")
}

func (s *Store) RemoveActor(_ context.Context, k key.Entity) error {
	return s.delete(bucketActors, entityKeyStr(k), port.KindActor, &k, "")
}

func (s *Store) RemoveRole(_ context.Context, name string) error {
	return s.delete(bucketRoles, []byte(name), port.KindRole, nil, name)
}

func (s *Store) RemoveGroup(_ context.Context, name string) error {
	return s.delete(bucketGroups, []byte(name), port.KindGroup, nil, name)
}

func (s *Store) RemovePolicy(_ context.Context, name string) error {
	return s.delete(bucketPolicies, []byte(name), port.KindPolicy, nil, name)
}

// Watch polls the changelog bucket for revisions beyond the last one seen
// and emits a port.Update per entry. On a read failure it logs, backs off
// for watchRetryBackoff and retries; on the fifth consecutive failure it
// backs off for watchRestartBackoff instead and resets the failure count.
// Polling always resumes from the last delivered revision, mirroring the
// fixed-backoff reconnection spec §5 describes for a real watch stream.
func (s *Store) Watch(ctx context.Context) (<-chan port.Update, error) {
	out := make(chan port.Update)
	go s.watchLoop(ctx, out)
	return out, nil
}

func (s *Store) watchLoop(ctx context.Context, out chan<- port.Update) {
	defer close(out)

	var lastRev uint64
	var consecutiveFailures int
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		updates, newRev, err := s.readSince(lastRev)
		if err != nil {
			consecutiveFailures++
			s.logger.Warn("boltstore watch read failed", "error", err, "consecutive_failures", consecutiveFailures)
			wait := watchRetryBackoff
			if consecutiveFailures >= 5 {
				wait = watchRestartBackoff
				consecutiveFailures = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		consecutiveFailures = 0
		for _, u := range updates {
			select {
			case <-ctx.Done():
				return
			case out <- u:
			}
		}
		lastRev = newRev
	}
}

// readSince returns every changelog entry with revision > after, in
// ascending order, plus the highest revision seen (or after, if none).
func (s *Store) readSince(after uint64) ([]port.Update, uint64, error) {
	var updates []port.Update
	newRev := after
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketChangelog))
		c := b.Cursor()
		var startKey [8]byte
		binary.BigEndian.PutUint64(startKey[:], after+1)
		for k, v := c.Seek(startKey[:]); k != nil; k, v = c.Next() {
			rev := binary.BigEndian.Uint64(k)
			var env changeEnvelope
			if err := json.Unmarshal(v, &env); err != nil {
				return err
			}
			u, err := envelopeToUpdate(env, rev)
			if err != nil {
				return err
			}
			updates = append(updates, u)
			newRev = rev
		}
		return nil
	})
	if err != nil {
		return nil, after, err
	}
	return updates, newRev, nil
}

func envelopeToUpdate(env changeEnvelope, rev uint64) (port.Update, error) {
	u := port.Update{Revision: rev, Deleted: env.Deleted}
	switch env.Kind {
	case port.KindTarget.String():
		u.Kind = port.KindTarget
	case port.KindActor.String():
		u.Kind = port.KindActor
	case port.KindRole.String():
		u.Kind = port.KindRole
	case port.KindGroup.String():
		u.Kind = port.KindGroup
	case port.KindPolicy.String():
		u.Kind = port.KindPolicy
	default:
		return u, fmt.Errorf("boltstore: unknown changelog kind %q", env.Kind)
	}
	if env.EntityKey != nil {
		u.EntityKey = key.New(env.EntityKey.Typestr, env.EntityKey.Name)
	}
	u.Name = env.Name
	if env.Deleted {
		return u, nil
	}
	switch u.Kind {
	case port.KindTarget:
		var r targetRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return u, err
		}
		u.Target = recordToTarget(r)
	case port.KindActor:
		var r actorRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return u, err
		}
		u.Actor = recordToActor(r)
	case port.KindRole:
		var r roleRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return u, err
		}
		u.Role = recordToRole(r)
	case port.KindGroup:
		var r groupRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return u, err
		}
		u.Group = recordToGroup(r)
	case port.KindPolicy:
		var r ruleRecord
		if err := json.Unmarshal(env.Record, &r); err != nil {
			return u, err
		}
		u.Policy = recordToRule(r)
	}
	return u, nil
}
