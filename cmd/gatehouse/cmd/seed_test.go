package cmd

import (
	"testing"

	"github.com/gatehousehq/gatehouse/internal/config"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
)

func TestSeedPolicyToRule(t *testing.T) {
	t.Parallel()
	sp := config.SeedPolicy{
		Name:         "deny-banned",
		Decision:     "deny",
		ActorKv:      []string{"role:has:banned"},
		TargetKv:     []string{"sensitivity:has:high"},
		TargetAction: "one_of:delete",
	}
	rule, err := seedPolicyToRule(sp)
	if err != nil {
		t.Fatalf("seedPolicyToRule() error: %v", err)
	}
	if rule.Decision != policy.Deny {
		t.Fatalf("rule.Decision = %v, want Deny", rule.Decision)
	}
	if rule.ActorCheck == nil || len(rule.ActorCheck.Kv) != 1 {
		t.Fatalf("rule.ActorCheck = %+v", rule.ActorCheck)
	}
	if rule.TargetCheck == nil || rule.TargetCheck.Action == nil {
		t.Fatalf("rule.TargetCheck = %+v", rule.TargetCheck)
	}
}

func TestSeedPolicyToRule_AllowWithoutChecks(t *testing.T) {
	t.Parallel()
	rule, err := seedPolicyToRule(config.SeedPolicy{Name: "allow-all", Decision: "allow"})
	if err != nil {
		t.Fatalf("seedPolicyToRule() error: %v", err)
	}
	if rule.Decision != policy.Allow {
		t.Fatalf("rule.Decision = %v, want Allow", rule.Decision)
	}
	if rule.ActorCheck != nil || rule.TargetCheck != nil {
		t.Fatalf("expected nil sub-checks, got actor=%+v target=%+v", rule.ActorCheck, rule.TargetCheck)
	}
}

func TestSeedPolicyToRule_BadDecision(t *testing.T) {
	t.Parallel()
	if _, err := seedPolicyToRule(config.SeedPolicy{Name: "x", Decision: "maybe"}); err == nil {
		t.Fatal("seedPolicyToRule() error = nil, want bad decision error")
	}
}
