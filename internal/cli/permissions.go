package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
)

// ErrDenied is returned by `permissions check` when the role lacks the action.
var ErrDenied = errors.New("permission denied")

func newPermissionsCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect the role permission table",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "YAML permission table (defaults to the built-in table)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every role's grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rbac.LoadTable(file)
			if err != nil {
				return err
			}
			only, _ := cmd.Flags().GetString("role")
			roles := table.Roles()
			if only != "" {
				role, err := identity.ParseRole(only)
				if err != nil {
					return err
				}
				roles = []identity.Role{role}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tRESOURCE\tACTIONS")
			for _, role := range roles {
				for _, grant := range table.Grants(role) {
					actions := make([]string, 0, len(grant.Actions))
					for _, a := range grant.Actions {
						actions = append(actions, string(a))
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", role, grant.Resource, strings.Join(actions, ","))
				}
			}
			return w.Flush()
		},
	}
	list.Flags().String("role", "", "only print this role")

	check := &cobra.Command{
		Use:   "check ROLE RESOURCE ACTION",
		Short: "Report whether a role may perform an action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rbac.LoadTable(file)
			if err != nil {
				return err
			}
			role, err := identity.ParseRole(args[0])
			if err != nil {
				return err
			}
			resource, action := rbac.Resource(args[1]), rbac.Action(args[2])
			if !table.IsAllowed(role, resource, action) {
				fmt.Fprintf(cmd.OutOrStdout(), "denied: %s cannot %s %s\n", role, action, resource)
				return ErrDenied
			}
			fmt.Fprintf(cmd.OutOrStdout(), "allowed: %s can %s %s\n", role, action, resource)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse a YAML permission table without starting the console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rbac.LoadTable(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d roles\n", len(table.Roles()))
			return nil
		},
	}

	cmd.AddCommand(list, check, validate)
	return cmd
}
