// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tribe implements the Tribe Controller module of spec.md §4.2:
// tribe identity, the membership status machine, invite codes, NFT-gate
// evaluation, and the merge protocol.
package tribe

import "github.com/luxfi/vm/vms/socialvm/types"

type Address = types.Address

// JoinType selects the tribe's admission policy (spec.md §3).
type JoinType string

const (
	Public     JoinType = "PUBLIC"
	Private    JoinType = "PRIVATE"
	InviteCode JoinType = "INVITE_CODE"
	NFTGated   JoinType = "NFT_GATED"
	MultiNFT   JoinType = "MULTI_NFT"
	AnyNFT     JoinType = "ANY_NFT"
)

// MemberStatus is a single (tribe, address) pair's position in the
// membership state machine of spec.md §4.2. The zero value NONE is the
// default for an address never seen by the tribe.
type MemberStatus string

const (
	None    MemberStatus = "NONE"
	Pending MemberStatus = "PENDING"
	Active  MemberStatus = "ACTIVE"
	Banned  MemberStatus = "BANNED"
)

// statusRank gives the merge-precedence ordering of spec.md §3:
// BANNED > ACTIVE > PENDING > NONE.
func statusRank(s MemberStatus) int {
	switch s {
	case Banned:
		return 3
	case Active:
		return 2
	case Pending:
		return 1
	default:
		return 0
	}
}

// NFTType distinguishes the token-standard surface spec.md §1 treats as
// an external collaborator, queried only via "owns >= N" predicates.
type NFTType string

const (
	ERC721  NFTType = "ERC721"
	ERC1155 NFTType = "ERC1155"
)

// NFTRequirement is one gate condition evaluated by the NFT-gated join
// types, per spec.md §4.2.
type NFTRequirement struct {
	Contract  string  `json:"contract"`
	Type      NFTType `json:"type"`
	Mandatory bool    `json:"mandatory"`
	MinAmount uint64  `json:"minAmount"`
	TokenIDs  []uint64 `json:"tokenIds,omitempty"`
}

// Tribe is the persistent tribe record of spec.md §3.
type Tribe struct {
	TribeID         uint64           `json:"tribeId"`
	Name            string           `json:"name"`
	Metadata        string           `json:"metadata"`
	Admins          []Address        `json:"admins"`
	Whitelist       []Address        `json:"whitelist"`
	JoinType        JoinType         `json:"joinType"`
	EntryFee        uint64           `json:"entryFee"`
	NFTRequirements []NFTRequirement `json:"nftRequirements"`
	IsMergeable     bool             `json:"isMergeable"`
	MemberCount     uint64           `json:"memberCount"`
	CreatedAt       int64            `json:"createdAt"`
}

func (t *Tribe) IsAdmin(addr Address) bool {
	for _, a := range t.Admins {
		if a == addr {
			return true
		}
	}
	return false
}

func (t *Tribe) onWhitelist(addr Address) bool {
	for _, a := range t.Whitelist {
		if a == addr {
			return true
		}
	}
	return false
}

// InviteCode is the per-tribe invite record of spec.md §3.
type InviteCode struct {
	Code      string  `json:"code"`
	MaxUses   uint32  `json:"maxUses"`
	Uses      uint32  `json:"uses"`
	ExpiresAt int64   `json:"expiresAt"`
	Revoked   bool    `json:"revoked"`
	Creator   Address `json:"creator"`
}

// MergeRequest is the three-phase merge handshake record of spec.md §4.2.
type MergeRequest struct {
	SourceID    uint64  `json:"sourceId"`
	TargetID    uint64  `json:"targetId"`
	RequestedBy Address `json:"requestedBy"`
	Approved    bool    `json:"approved"`
	ApprovedAt  int64   `json:"approvedAt,omitempty"`
}

// NFTOracle is the synchronous "owns(contract, addr) -> count" external
// query spec.md §9 specifies, kept as a narrow interface so the concrete
// on-chain/off-chain backend is swappable (grounded on
// vms/dexvm/api/service.go's PerpetualsEngine/ADLEngine pattern).
type NFTOracle interface {
	// Owns returns the held amount of contract by addr (ERC721: 0 or 1
	// per token, summed; ERC1155: summed balance across all ids).
	Owns(contract string, addr Address) (uint64, error)
	// OwnsSpecific returns the held amount of a specific ERC1155 tokenID.
	OwnsSpecific(contract string, addr Address, tokenID uint64) (uint64, error)
}
