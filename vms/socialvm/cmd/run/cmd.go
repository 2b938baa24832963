// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "socialvm",
		Short: "Runs a socialvm plugin",
		RunE:  runFunc,
	}
}

func runFunc(*cobra.Command, []string) error {
	// TODO: wire rpcchainvm.Serve once it implements the current
	// consensus block.ChainVM plugin handshake.
	_ = &socialvm.ChainVM{}
	return nil
}
