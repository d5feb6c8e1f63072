package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	var actorName, actorType string
	var actorAttrFlags []string
	var envAttrFlags []string
	var targetName, targetType, targetAction string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Ask whether an actor may take an action on a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			actorAttrs, err := parseAttrFlags(actorAttrFlags)
			if err != nil {
				return err
			}
			envAttrs, err := parseAttrFlags(envAttrFlags)
			if err != nil {
				return err
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			decision, err := c.Check(ctx, rpcclient.CheckRequest{
				ActorName:    actorName,
				ActorType:    actorType,
				ActorAttrs:   actorAttrs,
				EnvAttrs:     envAttrs,
				TargetName:   targetName,
				TargetType:   targetType,
				TargetAction: targetAction,
			})
			if err != nil {
				return err
			}
			fmt.Println(decision)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorName, "actor", "", "actor name")
	cmd.Flags().StringVar(&actorType, "actor-type", "", "actor type")
	cmd.Flags().StringArrayVar(&actorAttrFlags, "actor-attr", nil, "actor attribute key:val1,val2,val3 (repeatable)")
	cmd.Flags().StringArrayVar(&envAttrFlags, "env-attr", nil, "environment attribute key:val1,val2,val3 (repeatable)")
	cmd.Flags().StringVar(&targetName, "target", "", "target name")
	cmd.Flags().StringVar(&targetType, "target-type", "", "target type")
	cmd.Flags().StringVar(&targetAction, "action", "", "action being requested")
	return cmd
}
