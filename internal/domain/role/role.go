// Package role holds the Role entity: a named grant with a denormalized
// back-reference to the groups that currently list it.
package role

import (
	"fmt"
	"strings"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
)

// Role is a named grant. Groups is an index maintained by the datastore —
// it is not owned by Role's lifecycle, it mirrors the forward references
// held by groups (spec invariant I2).
type Role struct {
	Name   string
	Desc   string
	Groups attrset.Set
}

// New builds a Role, lowercasing its name per spec invariant I4.
func New(name, desc string) *Role {
	return &Role{
		Name:   strings.ToLower(name),
		Desc:   desc,
		Groups: attrset.NewSet(),
	}
}

// Clone returns a deep copy.
func (r *Role) Clone() *Role {
	return &Role{
		Name:   r.Name,
		Desc:   r.Desc,
		Groups: r.Groups.Clone(),
	}
}

func (r *Role) String() string {
	return fmt.Sprintf("role[%s] (in %d groups)", r.Name, len(r.Groups))
}
