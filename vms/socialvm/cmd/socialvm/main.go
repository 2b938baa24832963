// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm/cmd/genesis"
	"github.com/luxfi/vm/vms/socialvm/cmd/query"
	"github.com/luxfi/vm/vms/socialvm/cmd/run"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "socialvm",
		Short: "Manages a socialvm instance",
	}
	rootCmd.AddCommand(genesis.Command(), query.Command(), run.Command())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
