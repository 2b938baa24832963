// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package profilenft implements the Profile NFT Minter module of
// spec.md §4.4: one non-fungible identity token per address, referenced
// by the tribe module for NFT-gated joins.
package profilenft

import (
	"strings"

	"github.com/luxfi/vm/vms/socialvm/types"
)

type Address = types.Address

// RoleChecker is the narrow slice of rolemgr.Engine the profile module
// needs, grounded on vms/dexvm/api/service.go's pattern of consuming
// collaborators through small Go interfaces rather than concrete types.
type RoleChecker interface {
	HasRole(role string, addr Address) (bool, error)
}

const ProfileMinterRole = "PROFILE_MINTER_ROLE"

// Token is a single profile identity NFT.
type Token struct {
	TokenID    string            `json:"tokenId"`
	Owner      Address           `json:"owner"`
	TokenURI   string            `json:"tokenUri"`
	Username   string            `json:"username,omitempty"`
	Extension  map[string]string `json:"extension,omitempty"`
	MintedAt   int64             `json:"mintedAt"`
	BurnedAt   int64             `json:"burnedAt,omitempty"`
}

func (t *Token) IsBurned() bool { return t.BurnedAt != 0 }

// normalizeUsername lowercases a username for case-insensitive storage
// and comparison.
func normalizeUsername(username string) string {
	return strings.ToLower(username)
}

// validateUsername enforces the 3-32 character, [a-zA-Z0-9_-] charset
// usernames must satisfy before registration.
func validateUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// MintEvent mirrors spec.md §6's event stream requirement.
type MintEvent struct {
	Action  string  `json:"action"`
	TokenID string  `json:"token_id"`
	Owner   Address `json:"owner"`
	Caller  Address `json:"caller"`
}
