// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package query

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm/api"
)

func postCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "post",
		Short: "Queries the post minter",
	}
	AddEndpointFlag(c.PersistentFlags())

	get := &cobra.Command{
		Use:   "get <postId>",
		Short: "Fetches a post by id",
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
			var reply api.GetPostReply
			if err := cl.Call(c.Context(), "GetPost", &api.GetPostArgs{PostID: id}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	canView := &cobra.Command{
		Use:   "can-view <postId> <viewer>",
		Short: "Checks whether viewer may read a post",
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
			var reply api.CanViewPostReply
			if err := cl.Call(c.Context(), "CanViewPost", &api.CanViewPostArgs{
				PostID: id,
				Viewer: api.Address(args[1]),
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	byTribe := &cobra.Command{
		Use:   "by-tribe <tribeId> <offset> <limit>",
		Short: "Paginates posts belonging to a tribe",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			tribeID, offset, limit, err := parsePageArgs(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.PostPageReply
			if err := cl.Call(c.Context(), "GetPostsByTribe", &api.GetPostsByTribeArgs{
				TribeID: tribeID, Offset: offset, Limit: limit,
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	byUser := &cobra.Command{
		Use:   "by-user <user> <offset> <limit>",
		Short: "Paginates posts created by a user",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			offset, limit, err := parseOffsetLimit(args[1], args[2])
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.PostPageReply
			if err := cl.Call(c.Context(), "GetPostsByUser", &api.GetPostsByUserArgs{
				User: api.Address(args[0]), Offset: offset, Limit: limit,
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	byTribeAndUser := &cobra.Command{
		Use:   "by-tribe-and-user <tribeId> <user> <offset> <limit>",
		Short: "Paginates posts matching both a tribe and a user",
		Args:  cobra.ExactArgs(4),
		RunE: func(c *cobra.Command, args []string) error {
			tribeID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			offset, limit, err := parseOffsetLimit(args[2], args[3])
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.PostPageReply
			if err := cl.Call(c.Context(), "GetPostsByTribeAndUser", &api.GetPostsByTribeAndUserArgs{
				TribeID: tribeID, User: api.Address(args[1]), Offset: offset, Limit: limit,
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	feed := &cobra.Command{
		Use:   "feed <user> <offset> <limit>",
		Short: "Paginates the feed of posts from a user's tribes",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			offset, limit, err := parseOffsetLimit(args[1], args[2])
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.PostPageReply
			if err := cl.Call(c.Context(), "GetFeedForUser", &api.GetFeedForUserArgs{
				User: api.Address(args[0]), Offset: offset, Limit: limit,
			}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	replies := &cobra.Command{
		Use:   "replies <parentPostId>",
		Short: "Lists the reply post ids created against a parent post",
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
			var reply api.GetPostRepliesReply
			if err := cl.Call(c.Context(), "GetPostReplies", &api.GetPostRepliesArgs{ParentPostID: id}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	tribeKey := &cobra.Command{
		Use:   "tribe-encryption-key <tribeId>",
		Short: "Fetches a tribe's shared post encryption key",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			tribeID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			cl, err := newClient(c.Flags())
			if err != nil {
				return err
			}
			var reply api.GetTribeEncryptionKeyReply
			if err := cl.Call(c.Context(), "GetTribeEncryptionKey", &api.GetTribeEncryptionKeyArgs{TribeID: tribeID}, &reply); err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	c.AddCommand(get, canView, byTribe, byUser, byTribeAndUser, feed, replies, tribeKey)
	return c
}

func parseOffsetLimit(offsetArg, limitArg string) (uint64, uint64, error) {
	offset, err := strconv.ParseUint(offsetArg, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	limit, err := strconv.ParseUint(limitArg, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func parsePageArgs(idArg, offsetArg, limitArg string) (uint64, uint64, uint64, error) {
	id, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	offset, limit, err := parseOffsetLimit(offsetArg, limitArg)
	return id, offset, limit, err
}
