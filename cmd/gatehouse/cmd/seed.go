package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gatehousehq/gatehouse/internal/config"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/service"
)

// seedFromFile loads a YAML seed document and applies it to ds. It is
// meant for a backend that starts empty (a fresh "nil" or file backend
// in a demo or test environment); AlreadyExists errors from a prior run
// are logged and skipped rather than aborting the whole load.
func seedFromFile(ctx context.Context, ds *service.Datastore, path string, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed config.Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, t := range seed.Targets {
		if _, err := ds.AddTarget(ctx, t.Name, t.Typestr, t.Actions, t.Attributes); err != nil {
			logger.Warn("seed: skipping target", "name", t.Name, "typestr", t.Typestr, "error", err)
		}
	}
	for _, a := range seed.Actors {
		if _, err := ds.AddActor(ctx, a.Name, a.Typestr, a.Attributes); err != nil {
			logger.Warn("seed: skipping actor", "name", a.Name, "typestr", a.Typestr, "error", err)
		}
	}
	for _, r := range seed.Roles {
		if _, err := ds.AddRole(ctx, r.Name, r.Desc); err != nil {
			logger.Warn("seed: skipping role", "name", r.Name, "error", err)
		}
	}
	for _, g := range seed.Groups {
		members := make([]key.Entity, len(g.Members))
		for i, m := range g.Members {
			members[i] = key.New(m.Typestr, m.Name)
		}
		if _, err := ds.AddGroup(ctx, g.Name, g.Desc, members, g.Roles); err != nil {
			logger.Warn("seed: skipping group", "name", g.Name, "error", err)
		}
	}
	for _, p := range seed.Policies {
		rule, err := seedPolicyToRule(p)
		if err != nil {
			logger.Warn("seed: skipping policy", "name", p.Name, "error", err)
			continue
		}
		if _, err := ds.AddPolicy(ctx, rule); err != nil {
			logger.Warn("seed: skipping policy", "name", p.Name, "error", err)
		}
	}
	return nil
}

// seedPolicyToRule converts a seed file's compact check strings into a
// policy.Rule, using the same "op:v1,v2" / "key:op:v1,v2" / "op:N" grammar
// as the gatehouse CLI's policy flags.
func seedPolicyToRule(p config.SeedPolicy) (*policy.Rule, error) {
	actorName, err := seedStringCheck(p.ActorName)
	if err != nil {
		return nil, err
	}
	actorType, err := seedStringCheck(p.ActorType)
	if err != nil {
		return nil, err
	}
	actorKv, err := seedKvChecks(p.ActorKv)
	if err != nil {
		return nil, err
	}
	actorBucket, err := seedNumberCheck(p.ActorBucket)
	if err != nil {
		return nil, err
	}
	envKv, err := seedKvChecks(p.EnvKv)
	if err != nil {
		return nil, err
	}
	targetName, err := seedStringCheck(p.TargetName)
	if err != nil {
		return nil, err
	}
	targetType, err := seedStringCheck(p.TargetType)
	if err != nil {
		return nil, err
	}
	targetKv, err := seedKvChecks(p.TargetKv)
	if err != nil {
		return nil, err
	}
	targetAction, err := seedStringCheck(p.TargetAction)
	if err != nil {
		return nil, err
	}

	decision := policy.Deny
	switch strings.ToUpper(p.Decision) {
	case "ALLOW":
		decision = policy.Allow
	case "DENY", "":
	default:
		return nil, fmt.Errorf("policy %q: decision must be ALLOW or DENY, got %q", p.Name, p.Decision)
	}

	var actorCheck *policy.ActorCheck
	if actorName != nil || actorType != nil || len(actorKv) > 0 || actorBucket != nil {
		actorCheck = &policy.ActorCheck{Name: actorName, Type: actorType, Kv: actorKv, Bucket: actorBucket}
	}
	var targetCheck *policy.TargetCheck
	if targetName != nil || targetType != nil || len(targetKv) > 0 || len(p.MatchInActor) > 0 || len(p.MatchInEnv) > 0 || targetAction != nil {
		targetCheck = &policy.TargetCheck{
			Name: targetName, Type: targetType, Kv: targetKv,
			MatchInActor: p.MatchInActor, MatchInEnv: p.MatchInEnv, Action: targetAction,
		}
	}

	return &policy.Rule{
		Name:          p.Name,
		Desc:          p.Desc,
		ActorCheck:    actorCheck,
		EnvAttributes: envKv,
		TargetCheck:   targetCheck,
		Decision:      decision,
	}, nil
}

func seedStringCheck(raw string) (*policy.StringCheck, error) {
	if raw == "" {
		return nil, nil
	}
	op, vals, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, fmt.Errorf("malformed string check %q, want one_of:v1,v2 or not_one_of:v1,v2", raw)
	}
	switch op {
	case "not_one_of":
		return policy.NotOneOf(strings.Split(vals, ",")...), nil
	case "one_of":
		return policy.OneOf(strings.Split(vals, ",")...), nil
	default:
		return nil, fmt.Errorf("malformed string check op %q, want one_of or not_one_of", op)
	}
}

func seedKvChecks(raw []string) ([]policy.KvCheck, error) {
	out := make([]policy.KvCheck, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed kv check %q, want key:has:v1,v2 or key:has_not:v1,v2", entry)
		}
		switch parts[1] {
		case "has":
			out = append(out, policy.Has(parts[0], strings.Split(parts[2], ",")...))
		case "has_not":
			out = append(out, policy.HasNot(parts[0], strings.Split(parts[2], ",")...))
		default:
			return nil, fmt.Errorf("malformed kv check op %q, want has or has_not", parts[1])
		}
	}
	return out, nil
}

func seedNumberCheck(raw string) (*policy.NumberCheck, error) {
	if raw == "" {
		return nil, nil
	}
	op, numStr, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, fmt.Errorf("malformed number check %q, want equals:N, less_than:N, or more_than:N", raw)
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return nil, fmt.Errorf("malformed number check %q: %w", raw, err)
	}
	switch op {
	case "less_than":
		return policy.LessThan(n), nil
	case "more_than":
		return policy.MoreThan(n), nil
	case "equals":
		return policy.Equals(n), nil
	default:
		return nil, fmt.Errorf("malformed number check op %q, want equals, less_than, or more_than", op)
	}
}
