// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package profilenft

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/vm/vms/socialvm/errs"
	"github.com/luxfi/vm/vms/socialvm/state"
)

// Engine is the Profile NFT Minter state machine.
type Engine struct {
	db    database.Database
	log   log.Logger
	roles RoleChecker
	now   func() int64
}

func New(db database.Database, logger log.Logger, roles RoleChecker, now func() int64) *Engine {
	return &Engine{db: db, log: logger, roles: roles, now: now}
}

// MintProfileNFT implements spec.md §4.4's mint_profile_nft: a self-mint.
func (e *Engine) MintProfileNFT(caller Address, metadataURI string) (*Token, error) {
	if metadataURI == "" {
		return nil, errs.EmptyMetadata
	}
	return e.mint(caller, metadataURI)
}

// MintAuthorizedProfile implements mint_authorized_profile: caller must
// hold PROFILE_MINTER_ROLE, recipient receives the token.
func (e *Engine) MintAuthorizedProfile(caller, recipient Address, metadataURI string) (*Token, error) {
	if metadataURI == "" {
		return nil, errs.EmptyMetadata
	}
	ok, err := e.roles.HasRole(ProfileMinterRole, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.MissingRole
	}
	return e.mint(recipient, metadataURI)
}

// CreateProfile implements create_profile: mints a profile NFT claiming
// a globally unique, case-insensitive username, grounded on the
// original contract's username-indexed identity registry.
func (e *Engine) CreateProfile(caller Address, username, metadataURI string) (*Token, error) {
	if metadataURI == "" {
		return nil, errs.EmptyMetadata
	}
	if !validateUsername(username) {
		return nil, errs.InvalidUsername
	}
	_, taken, err := getTokenIDByUsername(e.db, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.UsernameTaken
	}
	t, err := e.mint(caller, metadataURI)
	if err != nil {
		return nil, err
	}
	t.Username = username
	if err := putToken(e.db, t); err != nil {
		return nil, err
	}
	if err := setUsername(e.db, username, t.TokenID); err != nil {
		return nil, err
	}
	e.log.Info("profile created", "tokenId", t.TokenID, "owner", string(caller), "username", username)
	return t, nil
}

// UsernameExists reports whether username is already registered to a
// live (non-burned) profile.
func (e *Engine) UsernameExists(username string) (bool, error) {
	tokenID, ok, err := getTokenIDByUsername(e.db, username)
	if err != nil || !ok {
		return false, err
	}
	t, ok, err := getToken(e.db, tokenID)
	if err != nil || !ok {
		return false, err
	}
	return !t.IsBurned(), nil
}

// GetTokenIdByUsername resolves the token id registered to username.
func (e *Engine) GetTokenIdByUsername(username string) (string, error) {
	tokenID, ok, err := getTokenIDByUsername(e.db, username)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.NotFound
	}
	return tokenID, nil
}

func (e *Engine) mint(owner Address, metadataURI string) (*Token, error) {
	counter, err := nextTokenCounter(e.db)
	if err != nil {
		return nil, err
	}
	tokenID := fmt.Sprintf("%d", counter)
	t := &Token{
		TokenID:  tokenID,
		Owner:    owner,
		TokenURI: metadataURI,
		MintedAt: e.now(),
	}
	if err := putToken(e.db, t); err != nil {
		return nil, err
	}
	tokens, err := getOwnerTokens(e.db, owner)
	if err != nil {
		return nil, err
	}
	tokens, _ = state.AppendUnique(tokens, tokenID)
	if err := setOwnerTokens(e.db, owner, tokens); err != nil {
		return nil, err
	}
	e.log.Info("profile nft minted", "tokenId", tokenID, "owner", string(owner))
	return t, nil
}

// UpdateProfileMetadata implements update_profile_metadata: owner-only.
func (e *Engine) UpdateProfileMetadata(caller Address, tokenID, metadataURI string) error {
	if metadataURI == "" {
		return errs.EmptyMetadata
	}
	t, ok, err := getToken(e.db, tokenID)
	if err != nil {
		return err
	}
	if !ok || t.IsBurned() {
		return errs.NotFound
	}
	if t.Owner != caller {
		return errs.Unauthorized
	}
	t.TokenURI = metadataURI
	return putToken(e.db, t)
}

// BurnProfileNFT gives owners a way to retire a profile token; spec.md
// does not name a burn operation and the original contract has none
// either, so this tombstones rather than deletes the record, mirroring
// post.DeletePost's pattern.
func (e *Engine) BurnProfileNFT(caller Address, tokenID string) error {
	t, ok, err := getToken(e.db, tokenID)
	if err != nil {
		return err
	}
	if !ok || t.IsBurned() {
		return errs.NotFound
	}
	if t.Owner != caller {
		return errs.Unauthorized
	}
	t.BurnedAt = e.now()
	if err := putToken(e.db, t); err != nil {
		return err
	}
	tokens, err := getOwnerTokens(e.db, caller)
	if err != nil {
		return err
	}
	tokens, _ = state.RemoveValue(tokens, tokenID)
	return setOwnerTokens(e.db, caller, tokens)
}

// OwnerOf returns the current owner of tokenID.
func (e *Engine) OwnerOf(tokenID string) (Address, error) {
	t, ok, err := getToken(e.db, tokenID)
	if err != nil {
		return "", err
	}
	if !ok || t.IsBurned() {
		return "", errs.NotFound
	}
	return t.Owner, nil
}

// NFTInfo returns the full record for tokenID.
func (e *Engine) NFTInfo(tokenID string) (*Token, error) {
	t, ok, err := getToken(e.db, tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound
	}
	return t, nil
}

// Tokens paginates owner's held (non-burned) token ids, ordered by mint
// order, per spec.md §9's pagination note.
func (e *Engine) Tokens(owner Address, startAfter string, limit uint32) ([]string, error) {
	ids, err := getOwnerTokens(e.db, owner)
	if err != nil {
		return nil, err
	}
	start := 0
	if startAfter != "" {
		for i, id := range ids {
			if id == startAfter {
				start = i + 1
				break
			}
		}
	}
	if start >= len(ids) {
		return []string{}, nil
	}
	end := start + int(limit)
	if limit == 0 || end > len(ids) {
		end = len(ids)
	}
	out := make([]string, end-start)
	copy(out, ids[start:end])
	return out, nil
}

// IsAdmin reports whether addr holds DefaultAdminRole.
func (e *Engine) IsAdmin(addr Address, defaultAdminRole string) (bool, error) {
	return e.roles.HasRole(defaultAdminRole, addr)
}

// OwnsAtLeast implements the "owns >= N of contract C" query spec.md §1
// says the core consumes of the NFT token-standard surface. Profile NFTs
// are single-contract (this module) and non-fungible: ownership of the
// specific tokenID counts as 1.
func (e *Engine) Owns(owner Address) (uint64, error) {
	ids, err := getOwnerTokens(e.db, owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}
