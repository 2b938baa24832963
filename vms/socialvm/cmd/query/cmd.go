// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package query implements the "query" CLI subtree, grounded on
// vms/example/xsvm/cmd/chain/create's flags-parse-then-call shape and
// vms/thresholdvm/client.go's JSON-RPC client.
package query

import (
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "query",
		Short: "Queries a running socialvm instance",
	}
	c.AddCommand(roleCommand(), tribeCommand(), postCommand())
	return c
}
