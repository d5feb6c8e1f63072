package policy

import "github.com/gatehousehq/gatehouse/internal/domain/attrset"

// ActorCheck composites the sub-checks that apply to the expanded actor in
// a CheckRequest. A nil ActorCheck matches everything.
type ActorCheck struct {
	Name   *StringCheck
	Type   *StringCheck
	Kv     []KvCheck
	Bucket *NumberCheck
}

// Check reports whether the actor identified by (name, typestr), carrying
// attrs and bucket, satisfies every non-nil sub-check (§4.1 ActorCheck).
func (ac *ActorCheck) Check(name, typestr string, attrs attrset.Map, bucket int) bool {
	if ac == nil {
		return true
	}
	if !ac.Name.Check(name) {
		return false
	}
	if !ac.Type.Check(typestr) {
		return false
	}
	if !checkAllKv(ac.Kv, attrs) {
		return false
	}
	if !ac.Bucket.Check(bucket) {
		return false
	}
	return true
}

// TargetCheck composites the sub-checks that apply to the request's target.
// A nil TargetCheck matches everything.
type TargetCheck struct {
	Name         *StringCheck
	Type         *StringCheck
	Kv           []KvCheck
	MatchInActor []string
	MatchInEnv   []string
	Action       *StringCheck
}

// Check evaluates the five conjunctive steps of §4.1 TargetCheck in order:
// name/type against the request, Kv against the registered target's
// attributes, MatchInActor/MatchInEnv key-intersection against the actor
// and environment attribute maps, and finally Action against the
// requested action.
func (tc *TargetCheck) Check(reqName, reqType string, targetAttrs, actorAttrs, envAttrs attrset.Map, action string) bool {
	if tc == nil {
		return true
	}
	if !tc.Name.Check(reqName) {
		return false
	}
	if !tc.Type.Check(reqType) {
		return false
	}
	if !checkAllKv(tc.Kv, targetAttrs) {
		return false
	}
	for _, key := range tc.MatchInActor {
		targetSet, ok := targetAttrs.Get(key)
		if !ok {
			return false
		}
		actorSet, ok := actorAttrs.Get(key)
		if !ok {
			return false
		}
		if !targetSet.Intersects(actorSet) {
			return false
		}
	}
	for _, key := range tc.MatchInEnv {
		targetSet, ok := targetAttrs.Get(key)
		if !ok {
			return false
		}
		envSet, ok := envAttrs.Get(key)
		if !ok {
			return false
		}
		if !targetSet.Intersects(envSet) {
			return false
		}
	}
	if !tc.Action.Check(action) {
		return false
	}
	return true
}

// Decision is the outcome of a policy rule or of the overall evaluation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// Rule is one decision unit: a conjunctive predicate over (actor, env,
// target, action) yielding a Decision. A nil sub-check matches everything,
// so a Rule with every check nil matches every request.
type Rule struct {
	Name          string
	Desc          string
	ActorCheck    *ActorCheck
	EnvAttributes []KvCheck
	TargetCheck   *TargetCheck
	Decision      Decision
}

// Clone returns a shallow-enough copy for persist-then-commit: Rule's
// fields are themselves replaced wholesale on Modify (policy records are
// immutable values per §4.3.5), so a field-for-field struct copy is
// sufficient — no sub-check is mutated in place after construction.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	cp := *r
	cp.EnvAttributes = append([]KvCheck(nil), r.EnvAttributes...)
	return &cp
}
