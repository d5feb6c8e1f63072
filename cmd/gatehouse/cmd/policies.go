package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Manage policy rules",
}

func init() {
	rootCmd.AddCommand(policiesCmd)
	policiesCmd.AddCommand(
		newPolicyAddCmd(),
		newPolicyModifyCmd(),
		newPolicyRemoveCmd(),
		newPolicySearchCmd(),
	)
}

// parseStringCheckFlag parses "op:val1,val2,val3" (op is one_of or
// not_one_of) into a StringCheck.
func parseStringCheckFlag(raw string) (*rpcclient.StringCheck, error) {
	if raw == "" {
		return nil, nil
	}
	op, vals, ok := strings.Cut(raw, ":")
	if !ok || (op != "one_of" && op != "not_one_of") {
		return nil, fmt.Errorf("malformed string check %q, want one_of:v1,v2 or not_one_of:v1,v2", raw)
	}
	return &rpcclient.StringCheck{Op: op, Values: strings.Split(vals, ",")}, nil
}

// parseKvCheckFlags parses repeated "key:op:val1,val2" entries (op is has
// or has_not) into KvChecks.
func parseKvCheckFlags(raw []string) ([]rpcclient.KvCheck, error) {
	out := make([]rpcclient.KvCheck, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || (parts[1] != "has" && parts[1] != "has_not") {
			return nil, fmt.Errorf("malformed kv check %q, want key:has:v1,v2 or key:has_not:v1,v2", entry)
		}
		out = append(out, rpcclient.KvCheck{Key: parts[0], Op: parts[1], Values: strings.Split(parts[2], ",")})
	}
	return out, nil
}

// parseNumberCheckFlag parses "op:N" (op is equals, less_than, more_than).
func parseNumberCheckFlag(raw string) (*rpcclient.NumberCheck, error) {
	if raw == "" {
		return nil, nil
	}
	op, numStr, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, fmt.Errorf("malformed number check %q, want equals:N, less_than:N, or more_than:N", raw)
	}
	switch op {
	case "equals", "less_than", "more_than":
	default:
		return nil, fmt.Errorf("malformed number check op %q, want equals, less_than, or more_than", op)
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return nil, fmt.Errorf("malformed number check %q: %w", raw, err)
	}
	return &rpcclient.NumberCheck{Op: op, N: n}, nil
}

type policyFlags struct {
	decision string

	actorName   string
	actorType   string
	actorKv     []string
	actorBucket string

	envKv []string

	targetName   string
	targetType   string
	targetKv     []string
	matchInActor []string
	matchInEnv   []string
	targetAction string
}

func (f *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.decision, "decision", "", "ALLOW or DENY")
	cmd.Flags().StringVar(&f.actorName, "actor-name", "", "actor name check, one_of:v1,v2 or not_one_of:v1,v2")
	cmd.Flags().StringVar(&f.actorType, "actor-type", "", "actor type check, one_of:v1,v2 or not_one_of:v1,v2")
	cmd.Flags().StringArrayVar(&f.actorKv, "actor-kv", nil, "actor attribute check key:has:v1,v2 or key:has_not:v1,v2 (repeatable)")
	cmd.Flags().StringVar(&f.actorBucket, "actor-bucket", "", "actor bucket check, equals:N, less_than:N, or more_than:N")
	cmd.Flags().StringArrayVar(&f.envKv, "env-kv", nil, "environment attribute check key:has:v1,v2 or key:has_not:v1,v2 (repeatable)")
	cmd.Flags().StringVar(&f.targetName, "target-name", "", "target name check, one_of:v1,v2 or not_one_of:v1,v2")
	cmd.Flags().StringVar(&f.targetType, "target-type", "", "target type check, one_of:v1,v2 or not_one_of:v1,v2")
	cmd.Flags().StringArrayVar(&f.targetKv, "target-kv", nil, "target attribute check key:has:v1,v2 or key:has_not:v1,v2 (repeatable)")
	cmd.Flags().StringSliceVar(&f.matchInActor, "match-in-actor", nil, "attribute key that must match between target and actor (repeatable)")
	cmd.Flags().StringSliceVar(&f.matchInEnv, "match-in-env", nil, "attribute key that must match between target and environment (repeatable)")
	cmd.Flags().StringVar(&f.targetAction, "target-action", "", "target action check, one_of:v1,v2 or not_one_of:v1,v2")
}

func (f *policyFlags) toPolicy(name string) (rpcclient.Policy, error) {
	actorName, err := parseStringCheckFlag(f.actorName)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	actorType, err := parseStringCheckFlag(f.actorType)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	actorKv, err := parseKvCheckFlags(f.actorKv)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	actorBucket, err := parseNumberCheckFlag(f.actorBucket)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	envKv, err := parseKvCheckFlags(f.envKv)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	targetName, err := parseStringCheckFlag(f.targetName)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	targetType, err := parseStringCheckFlag(f.targetType)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	targetKv, err := parseKvCheckFlags(f.targetKv)
	if err != nil {
		return rpcclient.Policy{}, err
	}
	targetAction, err := parseStringCheckFlag(f.targetAction)
	if err != nil {
		return rpcclient.Policy{}, err
	}

	decision := strings.ToUpper(f.decision)
	if decision != "ALLOW" && decision != "DENY" {
		return rpcclient.Policy{}, fmt.Errorf("--decision must be ALLOW or DENY, got %q", f.decision)
	}

	var actorCheck *rpcclient.ActorCheck
	if actorName != nil || actorType != nil || len(actorKv) > 0 || actorBucket != nil {
		actorCheck = &rpcclient.ActorCheck{Name: actorName, Type: actorType, Kv: actorKv, Bucket: actorBucket}
	}
	var targetCheck *rpcclient.TargetCheck
	if targetName != nil || targetType != nil || len(targetKv) > 0 || len(f.matchInActor) > 0 || len(f.matchInEnv) > 0 || targetAction != nil {
		targetCheck = &rpcclient.TargetCheck{
			Name: targetName, Type: targetType, Kv: targetKv,
			MatchInActor: f.matchInActor, MatchInEnv: f.matchInEnv, Action: targetAction,
		}
	}

	return rpcclient.Policy{
		Name:          name,
		ActorCheck:    actorCheck,
		EnvAttributes: envKv,
		TargetCheck:   targetCheck,
		Decision:      decision,
	}, nil
}

func newPolicyAddCmd() *cobra.Command {
	var f policyFlags
	var desc string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a policy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.toPolicy(args[0])
			if err != nil {
				return err
			}
			p.Desc = desc
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.AddPolicy(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&desc, "desc", "", "policy description")
	return cmd
}

func newPolicyModifyCmd() *cobra.Command {
	var f policyFlags
	var desc string
	cmd := &cobra.Command{
		Use:   "modify [name]",
		Short: "Replace a policy rule's predicates and decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.toPolicy(args[0])
			if err != nil {
				return err
			}
			p.Desc = desc
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.ModifyPolicy(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&desc, "desc", "", "policy description")
	return cmd
}

func newPolicyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a policy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.RemovePolicy(ctx, args[0])
		},
	}
}

func newPolicySearchCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List policy rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.GetPolicies(ctx, name)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by policy name")
	return cmd
}
