// Package key defines the (typestr, name) composite key shared by targets
// and actors, normalized to lowercase so it can be used directly as a Go map
// key while preserving spec invariant I4 (case-fold comparison).
package key

import "strings"

// Entity identifies a target or actor by type and name, both lowercased.
type Entity struct {
	Typestr string
	Name    string
}

// New normalizes typestr and name to lowercase and builds an Entity key.
func New(typestr, name string) Entity {
	return Entity{
		Typestr: strings.ToLower(typestr),
		Name:    strings.ToLower(name),
	}
}

func (k Entity) String() string {
	return k.Typestr + "/" + k.Name
}
