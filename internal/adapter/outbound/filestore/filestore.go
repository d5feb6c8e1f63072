// Package filestore implements the file-per-record storage backend named in
// spec §4.2/§6: one JSON file per entity under
// <basepath>/{targets,actors,roles,groups,policies}/, loaded by directory
// scan at startup. Writes are atomic (write to a temp file, fsync, rename)
// and guarded by an flock on the destination file, following the same
// discipline as the teacher's state.Store.Save: lock, write to a sibling
// .tmp file, fsync, rename over the original, unlock.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
	"github.com/gatehousehq/gatehouse/internal/port"
)

const (
	dirTargets  = "targets"
	dirActors   = "actors"
	dirRoles    = "roles"
	dirGroups   = "groups"
	dirPolicies = "policies"
)

// Store is the file-per-record backend. basePath is created (along with its
// five kind subdirectories) on first use if missing, per spec §6 ("startup
// tolerates missing directories by creating them").
type Store struct {
	basePath string

	// mu serializes writes within this process; the flock additionally
	// guards against concurrent writers from other processes sharing the
	// same basePath.
	mu sync.Mutex
}

var _ port.Storage = (*Store)(nil)

// New returns a file backend rooted at basePath, creating the five kind
// subdirectories if they do not already exist.
func New(basePath string) (*Store, error) {
	s := &Store{basePath: basePath}
	for _, dir := range []string{dirTargets, dirActors, dirRoles, dirGroups, dirPolicies} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// filename encodes a record's key as a filename: each part has the OS path
// separator replaced with "_" and the parts are joined with "__". Typestr
// and name are not validated upstream, so empty parts pass through as-is.
func filename(parts ...string) string {
	safe := make([]string, len(parts))
	for i, p := range parts {
		safe[i] = strings.ReplaceAll(p, string(filepath.Separator), "_")
	}
	return strings.Join(safe, "__") + ".json"
}

func (s *Store) path(dir string, parts ...string) string {
	return filepath.Join(s.basePath, dir, filename(parts...))
}

// writeAtomic takes an exclusive flock on path (creating it if absent),
// writes data to a sibling .tmp file, fsyncs it, renames it over path, then
// releases the lock.
func (s *Store) writeAtomic(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("filestore: open %s: %w", path, err)
	}
	defer lockFile.Close()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("filestore: lock %s: %w", path, err)
	}
	defer flockUnlock(lockFile.Fd())

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("filestore: write %s: %w", tmp, err)
	}
	tmpFile, err := os.OpenFile(tmp, os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("filestore: reopen %s: %w", tmp, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("filestore: fsync %s: %w", tmp, err)
	}
	tmpFile.Close()

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("filestore: rename %s: %w", tmp, err)
	}
	return nil
}

func (s *Store) remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: remove %s: %w", path, err)
	}
	return nil
}

func readDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var out [][]byte
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("filestore: read %s: %w", e.Name(), err)
		}
		out = append(out, data)
	}
	return out, nil
}

func (s *Store) LoadTargets(context.Context) ([]*target.Target, error) {
	blobs, err := readDir(filepath.Join(s.basePath, dirTargets))
	if err != nil {
		return nil, err
	}
	out := make([]*target.Target, 0, len(blobs))
	for _, b := range blobs {
		var r targetRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("filestore: decode target: %w", err)
		}
		out = append(out, recordToTarget(r))
	}
	return out, nil
}

func (s *Store) LoadActors(context.Context) ([]*actor.Actor, error) {
	blobs, err := readDir(filepath.Join(s.basePath, dirActors))
	if err != nil {
		return nil, err
	}
	out := make([]*actor.Actor, 0, len(blobs))
	for _, b := range blobs {
		var r actorRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("filestore: decode actor: %w", err)
		}
		out = append(out, recordToActor(r))
	}
	return out, nil
}

func (s *Store) LoadRoles(context.Context) ([]*role.Role, error) {
	blobs, err := readDir(filepath.Join(s.basePath, dirRoles))
	if err != nil {
		return nil, err
	}
	out := make([]*role.Role, 0, len(blobs))
	for _, b := range blobs {
		var r roleRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("filestore: decode role: %w", err)
		}
		out = append(out, recordToRole(r))
	}
	return out, nil
}

func (s *Store) LoadGroups(context.Context) ([]*group.Group, error) {
	blobs, err := readDir(filepath.Join(s.basePath, dirGroups))
	if err != nil {
		return nil, err
	}
	out := make([]*group.Group, 0, len(blobs))
	for _, b := range blobs {
		var r groupRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("filestore: decode group: %w", err)
		}
		out = append(out, recordToGroup(r))
	}
	return out, nil
}

func (s *Store) LoadPolicies(context.Context) ([]*policy.Rule, error) {
	blobs, err := readDir(filepath.Join(s.basePath, dirPolicies))
	if err != nil {
		return nil, err
	}
	out := make([]*policy.Rule, 0, len(blobs))
	for _, b := range blobs {
		var r ruleRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("filestore: decode policy: %w", err)
		}
		out = append(out, recordToRule(r))
	}
	return out, nil
}

func (s *Store) SaveTarget(_ context.Context, t *target.Target) error {
	data, err := json.MarshalIndent(targetToRecord(t), "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path(dirTargets, t.Typestr, t.Name), data)
}

func (s *Store) SaveActor(_ context.Context, a *actor.Actor) error {
	data, err := json.MarshalIndent(actorToRecord(a), "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path(dirActors, a.Typestr, a.Name), data)
}

func (s *Store) SaveRole(_ context.Context, r *role.Role) error {
	data, err := json.MarshalIndent(roleToRecord(r), "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path(dirRoles, r.Name), data)
}

func (s *Store) SaveGroup(_ context.Context, g *group.Group) error {
	data, err := json.MarshalIndent(groupToRecord(g), "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path(dirGroups, g.Name), data)
}

func (s *Store) SavePolicy(_ context.Context, p *policy.Rule) error {
	data, err := json.MarshalIndent(ruleToRecord(p), "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path(dirPolicies, p.Name), data)
}

func (s *Store) RemoveTarget(_ context.Context, k key.Entity) error {
	return s.remove(s.path(dirTargets, k.Typestr, k.Name))
}

func (s *Store) RemoveActor(_ context.Context, k key.Entity) error {
	return s.remove(s.path(dirActors, k.Typestr, k.Name))
}

func (s *Store) RemoveRole(_ context.Context, name string) error {
	return s.remove(s.path(dirRoles, name))
}

func (s *Store) RemoveGroup(_ context.Context, name string) error {
	return s.remove(s.path(dirGroups, name))
}

func (s *Store) RemovePolicy(_ context.Context, name string) error {
	return s.remove(s.path(dirPolicies, name))
}

func (s *Store) Close() error { return nil }
