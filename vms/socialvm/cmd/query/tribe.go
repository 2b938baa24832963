// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package query

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm/api"
)

func tribeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "tribe",
		Short: "Queries the tribe controller",
	}
	AddEndpointFlag(c.PersistentFlags())

	config := &cobra.Command{
		Use:   "config <tribeId>",
		Short: "Fetches a tribe's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.GetTribeConfigReply
			if err := cl.Call(c.Context(), "GetTribeConfig", &api.GetTribeConfigArgs{TribeID: id}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	status := &cobra.Command{
		Use:   "member-status <tribeId> <address>",
		Short: "Fetches an address's membership status in a tribe",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.GetMemberStatusReply
			if err := cl.Call(c.Context(), "GetMemberStatus", &api.GetMemberStatusArgs{
				TribeID: id,
				Address: api.Address(args[1]),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	c.AddCommand(config, status)
	return c
}
