// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package post implements the Post Minter module of spec.md §4.3: post
// identity, the interaction ledger, encryption-viewer authorization, the
// cooldown rate limiter, and reply threading.
package post

import "github.com/luxfi/vm/vms/socialvm/types"

type Address = types.Address

// PostType is inferred from the metadata payload's type field, or TEXT
// implicitly, per spec.md §3.
type PostType string

const (
	TypeText  PostType = "TEXT"
	TypeImage PostType = "IMAGE"
	TypeVideo PostType = "VIDEO"
	TypeLink  PostType = "LINK"
	TypePoll  PostType = "POLL"
)

// InteractionType enumerates the interaction ledger's dimensions.
type InteractionType string

const (
	Like    InteractionType = "LIKE"
	Dislike InteractionType = "DISLIKE"
	Share   InteractionType = "SHARE"
	Save    InteractionType = "SAVE"
)

// Post is the persistent post record of spec.md §3.
type Post struct {
	PostID              uint64   `json:"postId"`
	Creator             Address  `json:"creator"`
	TribeID             uint64   `json:"tribeId"`
	Metadata            string   `json:"metadata"`
	PostType            PostType `json:"postType"`
	IsGated             bool     `json:"isGated"`
	CollectibleContract string   `json:"collectibleContract,omitempty"`
	CollectibleID       uint64   `json:"collectibleId,omitempty"`
	IsEncrypted         bool     `json:"isEncrypted"`
	EncryptionKeyHash   string   `json:"encryptionKeyHash,omitempty"`
	AccessSigner        Address  `json:"accessSigner,omitempty"`
	ParentPostID        *uint64  `json:"parentPostId,omitempty"`
	DeletedAt           int64    `json:"deletedAt,omitempty"`
	CreatedAt           int64    `json:"createdAt"`
}

func (p *Post) IsDeleted() bool { return p.DeletedAt != 0 }

// BatchPostItem is one element of create_batch_posts.
type BatchPostItem struct {
	TribeID  uint64 `json:"tribeId"`
	Metadata string `json:"metadata"`
	PostType PostType `json:"postType"`
}

// TribeChecker is the narrow slice of tribe.Engine the post module needs,
// grounded on vms/dexvm/api/service.go's narrow-interface pattern.
type TribeChecker interface {
	IsActiveMember(tribeID uint64, addr Address) bool
	IsAdmin(tribeID uint64, addr Address) bool
}

// NFTOracle is the gated-post ownership query of spec.md §4.3.
type NFTOracle interface {
	OwnsSpecific(contract string, addr Address, tokenID uint64) (uint64, error)
}

// RoleChecker gates the admin surface (set_post_type_cooldown,
// set_batch_posting_limits, pause/unpause) behind RATE_LIMIT_MANAGER.
type RoleChecker interface {
	HasRole(role string, addr Address) (bool, error)
}

const RateLimitManagerRole = "RATE_LIMIT_MANAGER"

// SignatureVerifier checks that signer issued signature over message,
// grounded on components/verify/net.go's verification-interface pattern
// and vms/kmsvm's use of github.com/luxfi/crypto for signature material.
type SignatureVerifier interface {
	Verify(signer Address, message, signature []byte) (bool, error)
}
