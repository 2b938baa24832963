// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/spf13/pflag"
)

const (
	InstantiatorKey = "instantiator"
	OutputKey       = "output"
)

func AddFlags(flags *pflag.FlagSet) {
	flags.String(InstantiatorKey, "", "Address to grant DEFAULT_ADMIN_ROLE at genesis (required)")
	flags.String(OutputKey, "genesis.json", "Path to write the genesis file to")
}

type Config struct {
	Instantiator string
	Output       string
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	instantiator, err := flags.GetString(InstantiatorKey)
	if err != nil {
		return nil, err
	}
	output, err := flags.GetString(OutputKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		Instantiator: instantiator,
		Output:       output,
	}, nil
}
