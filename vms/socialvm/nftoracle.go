// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package socialvm

import (
	"fmt"

	"github.com/luxfi/vm/vms/socialvm/profilenft"
	"github.com/luxfi/vm/vms/socialvm/types"
)

// ProfileContract is the reserved contract identifier tribe- and
// post-gating checks use to reference the in-chain Profile NFT Minter,
// spec.md §1's only in-module NFT source. Any other contract name is an
// off-chain/external collection this module has no data for and is
// reported as unowned, per spec.md §9 treating NFT ownership as an
// opaque external query whose backend is swappable.
const ProfileContract = "profile"

// nftOracle adapts profilenft.Engine to the tribe.NFTOracle and
// post.NFTOracle interfaces, grounded on vms/dexvm/api/service.go's
// pattern of exposing one concrete engine behind several narrow
// consumer-defined interfaces.
type nftOracle struct {
	profiles *profilenft.Engine
}

func newNFTOracle(profiles *profilenft.Engine) *nftOracle {
	return &nftOracle{profiles: profiles}
}

func (o *nftOracle) Owns(contract string, addr types.Address) (uint64, error) {
	if contract != ProfileContract {
		return 0, nil
	}
	return o.profiles.Owns(addr)
}

func (o *nftOracle) OwnsSpecific(contract string, addr types.Address, tokenID uint64) (uint64, error) {
	if contract != ProfileContract {
		return 0, nil
	}
	owner, err := o.profiles.OwnerOf(fmt.Sprintf("%d", tokenID))
	if err != nil {
		return 0, nil
	}
	if owner != addr {
		return 0, nil
	}
	return 1, nil
}
