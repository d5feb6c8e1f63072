// Package group holds the Group entity: a named collection of members that
// grants a set of roles to those members.
package group

import (
	"fmt"
	"strings"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

// MemberSet is a set of (typestr, name) member keys. Members need not
// correspond to registered actors (spec §3).
type MemberSet map[key.Entity]struct{}

// NewMemberSet builds a MemberSet from a slice of keys.
func NewMemberSet(members ...key.Entity) MemberSet {
	s := make(MemberSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Has reports whether m is a member.
func (s MemberSet) Has(m key.Entity) bool {
	_, ok := s[m]
	return ok
}

// Add inserts m into the set.
func (s MemberSet) Add(m key.Entity) { s[m] = struct{}{} }

// Remove deletes m from the set.
func (s MemberSet) Remove(m key.Entity) { delete(s, m) }

// Clone returns a deep copy.
func (s MemberSet) Clone() MemberSet {
	out := make(MemberSet, len(s))
	for m := range s {
		out[m] = struct{}{}
	}
	return out
}

// Group is a named collection of members plus the roles granted to them.
type Group struct {
	Name    string
	Desc    string
	Members MemberSet
	Roles   attrset.Set
}

// New builds a Group, lowercasing its name per spec invariant I4.
func New(name, desc string) *Group {
	return &Group{
		Name:    strings.ToLower(name),
		Desc:    desc,
		Members: NewMemberSet(),
		Roles:   attrset.NewSet(),
	}
}

// Clone returns a deep copy, used by the datastore's persist-then-commit
// discipline.
func (g *Group) Clone() *Group {
	return &Group{
		Name:    g.Name,
		Desc:    g.Desc,
		Members: g.Members.Clone(),
		Roles:   g.Roles.Clone(),
	}
}

func (g *Group) String() string {
	return fmt.Sprintf("group[%s] (%d members, %d roles)", g.Name, len(g.Members), len(g.Roles))
}
