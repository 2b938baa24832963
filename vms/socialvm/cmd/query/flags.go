// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package query

import (
	"github.com/spf13/pflag"

	"github.com/luxfi/vm/vms/socialvm/client"
)

const EndpointKey = "endpoint"

func AddEndpointFlag(flags *pflag.FlagSet) {
	flags.String(EndpointKey, "http://127.0.0.1:9650/ext/bc/socialvm/rpc", "socialvm RPC endpoint")
}

func newClient(flags *pflag.FlagSet) (*client.Client, error) {
	endpoint, err := flags.GetString(EndpointKey)
	if err != nil {
		return nil, err
	}
	return client.New(endpoint), nil
}
