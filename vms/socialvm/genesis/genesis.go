// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis parses the socialvm genesis payload: the instantiator
// address plus an optional Config override, grounded on
// vms/example/xsvm/genesis.Parse's "decode the whole chain's starting
// state from one JSON blob" shape.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/vm/vms/socialvm/config"
)

var ErrNoInstantiator = errors.New("genesis must name an instantiator address")

// Genesis is the socialvm chain's starting state: who receives
// DefaultAdminRole at instantiation (spec.md §6's "defaults at
// instantiation"), plus any Config overrides.
type Genesis struct {
	Instantiator string        `json:"instantiator"`
	Config       config.Config `json:"config,omitempty"`
}

// Parse decodes genesisBytes, falling back to default Config fields left
// unset by the caller.
func Parse(genesisBytes []byte) (*Genesis, error) {
	g := &Genesis{Config: config.DefaultConfig()}
	if len(genesisBytes) == 0 {
		return nil, ErrNoInstantiator
	}
	if err := json.Unmarshal(genesisBytes, g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis bytes: %w", err)
	}
	if g.Instantiator == "" {
		return nil, ErrNoInstantiator
	}
	if err := g.Config.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
