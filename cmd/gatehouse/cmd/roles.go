package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles",
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.AddCommand(
		newRoleAddCmd(),
		newRoleModifyCmd(),
		newRoleRemoveCmd(),
		newRoleSearchCmd(),
	)
}

func newRoleAddCmd() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.AddRole(ctx, args[0], desc)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "role description")
	return cmd
}

func newRoleModifyCmd() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "modify [name]",
		Short: "Modify a role's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.ModifyRole(ctx, args[0], desc)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "role description")
	return cmd
}

func newRoleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.RemoveRole(ctx, args[0])
		},
	}
}

func newRoleSearchCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.GetRoles(ctx, name)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by role name")
	return cmd
}
