// Package policy holds the predicate library and rule types that the
// evaluator runs a CheckRequest against: StringCheck, KvCheck, NumberCheck,
// and the ActorCheck/TargetCheck composites built from them.
package policy

import (
	"fmt"

	"github.com/gatehousehq/gatehouse/internal/domain/attrset"
)

// StringOp selects a StringCheck's comparison.
type StringOp int

const (
	StringOneOf StringOp = iota
	StringNotOneOf
)

// StringCheck matches a single string against a fixed value list.
//
// An empty Values list makes OneOf never match and NotOneOf always match.
type StringCheck struct {
	Op     StringOp
	Values []string
}

// OneOf builds a StringCheck that passes when the checked string equals one
// of values.
func OneOf(values ...string) *StringCheck {
	return &StringCheck{Op: StringOneOf, Values: values}
}

// NotOneOf builds a StringCheck that passes when the checked string equals
// none of values.
func NotOneOf(values ...string) *StringCheck {
	return &StringCheck{Op: StringNotOneOf, Values: values}
}

// Check reports whether s satisfies the predicate. A nil check always
// passes.
func (c *StringCheck) Check(s string) bool {
	if c == nil {
		return true
	}
	match := false
	for _, v := range c.Values {
		if v == s {
			match = true
			break
		}
	}
	switch c.Op {
	case StringOneOf:
		return match
	case StringNotOneOf:
		return !match
	default:
		return false
	}
}

// KvOp selects a KvCheck's comparison.
type KvOp int

const (
	KvHas KvOp = iota
	KvHasNot
)

// KvCheck matches a single attribute key against a candidate value set,
// evaluated against an attrset.Map (actor attributes, target attributes, or
// environment attributes depending on where the check is attached).
type KvCheck struct {
	Op     KvOp
	Key    string
	Values []string
}

// Has builds a KvCheck that passes when key is present and its value-set
// intersects values.
func Has(key string, values ...string) KvCheck {
	return KvCheck{Op: KvHas, Key: key, Values: values}
}

// HasNot builds a KvCheck that passes when key is absent, or present but
// disjoint from values.
func HasNot(key string, values ...string) KvCheck {
	return KvCheck{Op: KvHasNot, Key: key, Values: values}
}

// Check evaluates the predicate against attrs.
func (c KvCheck) Check(attrs attrset.Map) bool {
	set, ok := attrs.Get(c.Key)
	switch c.Op {
	case KvHas:
		if !ok {
			return false
		}
		return set.Intersects(attrset.NewSet(c.Values...))
	case KvHasNot:
		if !ok {
			return true
		}
		return !set.Intersects(attrset.NewSet(c.Values...))
	default:
		return false
	}
}

// checkAllKv reports whether every check in checks passes against attrs
// (AND-semantics, per §4.1).
func checkAllKv(checks []KvCheck, attrs attrset.Map) bool {
	for _, c := range checks {
		if !c.Check(attrs) {
			return false
		}
	}
	return true
}

// NumberOp selects a NumberCheck's comparison.
type NumberOp int

const (
	NumberEquals NumberOp = iota
	NumberLessThan
	NumberMoreThan
)

// NumberCheck is a strict integer comparison.
type NumberCheck struct {
	Op NumberOp
	N  int
}

// Equals, LessThan, and MoreThan build the three NumberCheck variants.
func Equals(n int) *NumberCheck   { return &NumberCheck{Op: NumberEquals, N: n} }
func LessThan(n int) *NumberCheck { return &NumberCheck{Op: NumberLessThan, N: n} }
func MoreThan(n int) *NumberCheck { return &NumberCheck{Op: NumberMoreThan, N: n} }

// Check reports whether n satisfies the predicate. A nil check always
// passes.
func (c *NumberCheck) Check(n int) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case NumberEquals:
		return n == c.N
	case NumberLessThan:
		return n < c.N
	case NumberMoreThan:
		return n > c.N
	default:
		return false
	}
}

func (c *StringCheck) String() string {
	if c == nil {
		return "<any>"
	}
	op := "one-of"
	if c.Op == StringNotOneOf {
		op = "not-one-of"
	}
	return fmt.Sprintf("%s(%v)", op, c.Values)
}
