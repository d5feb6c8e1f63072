package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

var actorsCmd = &cobra.Command{
	Use:   "actors",
	Short: "Manage actors",
}

func init() {
	rootCmd.AddCommand(actorsCmd)
	actorsCmd.AddCommand(
		newActorAddCmd(),
		newActorModifyCmd(),
		newActorRemoveCmd(),
		newActorSearchCmd(),
	)
}

func newActorAddCmd() *cobra.Command {
	var typestr string
	var attrFlags []string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttrFlags(attrFlags)
			if err != nil {
				return err
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.AddActor(ctx, args[0], typestr, attrs)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "actor type")
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "attribute key:val1,val2,val3 (repeatable)")
	return cmd
}

func newActorModifyCmd() *cobra.Command {
	var typestr string
	var addAttrFlags, removeAttrFlags []string
	cmd := &cobra.Command{
		Use:   "modify [name]",
		Short: "Modify an actor's attributes",
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
			got, err := c.ModifyActor(ctx, rpcclient.ModifyActorRequest{
				Name:             args[0],
				Typestr:          typestr,
				AddAttributes:    addAttrs,
				RemoveAttributes: removeAttrs,
			})
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "actor type")
	cmd.Flags().StringArrayVar(&addAttrFlags, "add-attr", nil, "attribute key:val1,val2,val3 to add (repeatable)")
	cmd.Flags().StringArrayVar(&removeAttrFlags, "remove-attr", nil, "attribute key:val1,val2,val3 to remove (repeatable)")
	return cmd
}

func newActorRemoveCmd() *cobra.Command {
	var typestr string
	cmd := &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.RemoveActor(ctx, args[0], typestr)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "actor type")
	return cmd
}

func newActorSearchCmd() *cobra.Command {
	var typestr, name string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List actors",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.GetActors(ctx, name, typestr)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&typestr, "typestr", "", "filter by actor type")
	cmd.Flags().StringVar(&name, "name", "", "filter by actor name")
	return cmd
}
