// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm/api"
)

func roleCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "role",
		Short: "Queries the role manager",
	}
	AddEndpointFlag(c.PersistentFlags())

	hasRole := &cobra.Command{
		Use:   "has-role <role> <address>",
		Short: "Checks whether address holds role",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.HasRoleReply
			if err := cl.Call(c.Context(), "HasRole", &api.HasRoleArgs{
				Role:    args[0],
				Address: api.Address(args[1]),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	getRoles := &cobra.Command{
		Use:   "get-roles <address>",
		Short: "Lists every role held by address",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.GetRolesReply
			if err := cl.Call(c.Context(), "GetRoles", &api.GetRolesArgs{
				Address: api.Address(args[0]),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	hasAnyRole := &cobra.Command{
		Use:   "has-any-role <address> <role1,role2,...>",
		Short: "Checks whether address holds at least one of a comma-separated role list",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.HasAnyRoleReply
			if err := cl.Call(c.Context(), "HasAnyRole", &api.HasAnyRoleArgs{
				Address: api.Address(args[0]),
				Roles:   strings.Split(args[1], ","),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	hasAllRoles := &cobra.Command{
		Use:   "has-all-roles <address> <role1,role2,...>",
		Short: "Checks whether address holds every role in a comma-separated list",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.HasAllRolesReply
			if err := cl.Call(c.Context(), "HasAllRoles", &api.HasAllRolesArgs{
				Address: api.Address(args[0]),
				Roles:   strings.Split(args[1], ","),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	c.AddCommand(hasRole, getRoles, hasAnyRole, hasAllRoles)
	return c
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
