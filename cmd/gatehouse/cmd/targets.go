package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage targets",
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.AddCommand(
		newTargetAddCmd(),
		newTargetModifyCmd(),
		newTargetRemoveCmd(),
		newTargetSearchCmd(),
	)
}

func newTargetAddCmd() *cobra.Command {
	var typestr string
	var actions []string
	var attrFlags []string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttrFlags(attrFlags)
			if err != nil {
				return err
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.AddTarget(ctx, args[0], typestr, actions, attrs)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "target type")
	cmd.Flags().StringSliceVar(&actions, "action", nil, "action the target accepts (repeatable)")
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "attribute key:val1,val2,val3 (repeatable)")
	return cmd
}

func newTargetModifyCmd() *cobra.Command {
	var typestr string
	var addActions, removeActions []string
	var addAttrFlags, removeAttrFlags []string
	cmd := &cobra.Command{
		Use:   "modify [name]",
		Short: "Modify a target's actions and attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addAttrs, err := parseAttrFlags(addAttrFlags)
			if err != nil {
				return err
			}
			removeAttrs, err := parseAttrFlags(removeAttrFlags)
			if err != nil {
				return err
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.ModifyTarget(ctx, rpcclient.ModifyTargetRequest{
				Name:             args[0],
				Typestr:          typestr,
				AddActions:       addActions,
				RemoveActions:    removeActions,
				AddAttributes:    addAttrs,
				RemoveAttributes: removeAttrs,
			})
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "target type")
	cmd.Flags().StringSliceVar(&addActions, "add-action", nil, "action to add (repeatable)")
	cmd.Flags().StringSliceVar(&removeActions, "remove-action", nil, "action to remove (repeatable)")
	cmd.Flags().StringArrayVar(&addAttrFlags, "add-attr", nil, "attribute key:val1,val2,val3 to add (repeatable)")
	cmd.Flags().StringArrayVar(&removeAttrFlags, "remove-attr", nil, "attribute key:val1,val2,val3 to remove (repeatable)")
	return cmd
}

func newTargetRemoveCmd() *cobra.Command {
	var typestr string
	cmd := &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.RemoveTarget(ctx, args[0], typestr)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "target type")
	return cmd
}

func newTargetSearchCmd() *cobra.Command {
	var typestr, name string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.GetTargets(ctx, name, typestr)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "filter by target type")
	cmd.Flags().StringVar(&name, "name", "", "filter by target name")
	return cmd
}
