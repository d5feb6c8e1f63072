package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/rpcclient"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage groups",
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(
		newGroupAddCmd(),
		newGroupModifyCmd(),
		newGroupRemoveCmd(),
		newGroupSearchCmd(),
	)
}

// parseMemberFlags turns repeated "typestr:name" flag values into Members.
func parseMemberFlags(raw []string) ([]rpcclient.Member, error) {
	out := make([]rpcclient.Member, 0, len(raw))
	for _, entry := range raw {
		typestr, name, ok := strings.Cut(entry, ":")
		if !ok || typestr == "" || name == "" {
			return nil, &attrFormatError{entry: entry}
		}
		out = append(out, rpcclient.Member{Typestr: typestr, Name: name})
	}
	return out, nil
}

func newGroupAddCmd() *cobra.Command {
	var desc string
	var memberFlags, roles []string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := parseMemberFlags(memberFlags)
			if err != nil {
				return err
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.AddGroup(ctx, args[0], desc, members, roles)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "group description")
	cmd.Flags().StringArrayVar(&memberFlags, "member", nil, "member typestr:name (repeatable)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role name (repeatable)")
	return cmd
}

func newGroupModifyCmd() *cobra.Command {
	var desc string
	var descSet bool
	var addMemberFlags, removeMemberFlags []string
	var addRoles, removeRoles []string
	cmd := &cobra.Command{
		Use:   "modify [name]",
		Short: "Modify a group's membership, roles, and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addMembers, err := parseMemberFlags(addMemberFlags)
			if err != nil {
				return err
			}
			removeMembers, err := parseMemberFlags(removeMemberFlags)
			if err != nil {
				return err
			}
			var descPtr *string
			if descSet {
				descPtr = &desc
			}
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.ModifyGroup(ctx, rpcclient.ModifyGroupRequest{
				Name:          args[0],
				Desc:          descPtr,
				AddMembers:    addMembers,
				RemoveMembers: removeMembers,
				AddRoles:      addRoles,
				RemoveRoles:   removeRoles,
			})
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "new group description")
	cmd.Flags().StringArrayVar(&addMemberFlags, "add-member", nil, "member typestr:name to add (repeatable)")
	cmd.Flags().StringArrayVar(&removeMemberFlags, "remove-member", nil, "member typestr:name to remove (repeatable)")
	cmd.Flags().StringSliceVar(&addRoles, "add-role", nil, "role name to add (repeatable)")
	cmd.Flags().StringSliceVar(&removeRoles, "remove-role", nil, "role name to remove (repeatable)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		descSet = cmd.Flags().Changed("desc")
	}
	return cmd
}

func newGroupRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.RemoveGroup(ctx, args[0])
		},
	}
}

func newGroupSearchCmd() *cobra.Command {
	var name, memberName, memberType, role string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rpcclient.New(serverTarget())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			got, err := c.GetGroups(ctx, rpcclient.GroupQuery{
				Name:       name,
				MemberName: memberName,
				MemberType: memberType,
				Role:       role,
			})
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by group name")
	cmd.Flags().StringVar(&memberName, "member-name", "", "filter by member name")
	cmd.Flags().StringVar(&memberType, "member-type", "", "filter by member type")
	cmd.Flags().StringVar(&role, "role", "", "filter by role name")
	return cmd
}
