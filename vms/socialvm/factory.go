// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package socialvm

import (
	"github.com/luxfi/log"
	luxvm "github.com/luxfi/vm"
	"github.com/luxfi/vm/vms/socialvm/config"
)

var (
	// VMID is the unique identifier for the social-graph VM.
	VMID = [32]byte{'s', 'o', 'c', 'i', 'a', 'l', 'v', 'm'}

	_ luxvm.Factory = (*Factory)(nil)
)

// Factory builds a ChainVM carrying a fixed runtime Config, the way
// vms/dexvm.Factory embeds config.Config and applies it to the inner VM
// before handing the ChainVM back to the node.
type Factory struct {
	config.Config
}

func (f *Factory) New(logger log.Logger) (interface{}, error) {
	chainVM := NewChainVM(logger)
	chainVM.inner.config = f.Config
	return chainVM, nil
}
