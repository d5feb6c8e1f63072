// Package actor holds the Actor entity: something that may act, keyed by
// (typestr, name), carrying attributes and a derived percentage bucket.
package actor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

// Actor is something that may act on a target. Equality and hashing (as a
// map key via Key()) use only the (Typestr, Name) pair; Attributes do not
// affect identity.
type Actor struct {
	Name       string
	Typestr    string
	Attributes attrset.Map
}

// New builds an Actor, lowercasing name/typestr per spec invariant I4.
func New(name, typestr string, attributes map[string][]string) *Actor {
	return &Actor{
		Name:       strings.ToLower(name),
		Typestr:    strings.ToLower(typestr),
		Attributes: attrset.NewMap(attributes),
	}
}

// Key returns the (typestr, name) identity of this actor.
func (a *Actor) Key() key.Entity {
	return key.Entity{Typestr: a.Typestr, Name: a.Name}
}

// Clone returns a deep copy, used by the datastore's persist-then-commit
// discipline.
func (a *Actor) Clone() *Actor {
	return &Actor{
		Name:       a.Name,
		Typestr:    a.Typestr,
		Attributes: a.Attributes.Clone(),
	}
}

// Bucket computes the stable percentage-cohort bucket in [0, 99] for this
// actor's (typestr, name), used by policy rules for percentage targeting.
// xxhash.Sum64 gives the same stable 64-bit hash across runs and processes
// that the spec requires; the value is reduced modulo 100.
func Bucket(typestr, name string) int {
	h := xxhash.Sum64String(fmt.Sprintf("%s/%s", strings.ToLower(typestr), strings.ToLower(name)))
	return int(h % 100)
}

// Bucket returns this actor's own percentage-cohort bucket.
func (a *Actor) Bucket() int {
	return Bucket(a.Typestr, a.Name)
}

func (a *Actor) String() string {
	var attrs []string
	for k, v := range a.Attributes {
		vals := v.Slice()
		sort.Strings(vals)
		attrs = append(attrs, fmt.Sprintf("%s: %s", k, strings.Join(vals, ", ")))
	}
	sort.Strings(attrs)
	return fmt.Sprintf("actor[%s/%s]: %s", a.Typestr, a.Name, strings.Join(attrs, " "))
}
