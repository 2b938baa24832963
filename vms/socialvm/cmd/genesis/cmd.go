// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis implements the "create-genesis" CLI command, grounded
// on vms/example/xsvm/cmd/chain/create's flags-parse-then-write shape.
package genesis

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/vm/vms/socialvm/config"
	socialgenesis "github.com/luxfi/vm/vms/socialvm/genesis"
)

var errMissingInstantiator = errors.New("--instantiator is required")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "create-genesis",
		Short: "Creates a socialvm genesis file",
		RunE:  createFunc,
	}
	AddFlags(c.Flags())
	return c
}

func createFunc(c *cobra.Command, args []string) error {
	cfg, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	if cfg.Instantiator == "" {
		return errMissingInstantiator
	}

	g := socialgenesis.Genesis{
		Instantiator: cfg.Instantiator,
		Config:       config.DefaultConfig(),
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.Output, data, 0o644)
}
