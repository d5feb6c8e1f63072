// Package target holds the Target entity: a protected resource keyed by
// (typestr, name), carrying the actions defined on it and its attributes.
package target

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

// Target is a protected resource. Two targets are the same entity iff their
// (Typestr, Name) key matches; Actions and Attributes are mutable payload.
type Target struct {
	Name       string
	Typestr    string
	Actions    attrset.Set
	Attributes attrset.Map
}

// New builds a Target, lowercasing name/typestr/actions per spec invariant
// I4. Attribute keys are preserved as given; empty-valued keys are dropped
// by attrset.NewMap.
func New(name, typestr string, actions []string, attributes map[string][]string) *Target {
	lowerActions := make([]string, len(actions))
	for i, a := range actions {
		lowerActions[i] = strings.ToLower(a)
	}
	return &Target{
		Name:       strings.ToLower(name),
		Typestr:    strings.ToLower(typestr),
		Actions:    attrset.NewSet(lowerActions...),
		Attributes: attrset.NewMap(attributes),
	}
}

// Key returns the (typestr, name) identity of this target.
func (t *Target) Key() key.Entity {
	return key.Entity{Typestr: t.Typestr, Name: t.Name}
}

// Clone returns a deep copy, used by the datastore's persist-then-commit
// discipline so a failed save never mutates the committed record.
func (t *Target) Clone() *Target {
	return &Target{
		Name:       t.Name,
		Typestr:    t.Typestr,
		Actions:    t.Actions.Clone(),
		Attributes: t.Attributes.Clone(),
	}
}

func (t *Target) String() string {
	actions := t.Actions.Slice()
	sort.Strings(actions)
	var attrs []string
	for k, v := range t.Attributes {
		vals := v.Slice()
		sort.Strings(vals)
		attrs = append(attrs, fmt.Sprintf("%s: %s", k, strings.Join(vals, ", ")))
	}
	sort.Strings(attrs)
	return fmt.Sprintf("%s/%s: %s // %s", t.Typestr, t.Name, strings.Join(actions, ","), strings.Join(attrs, " "))
}
