// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package profilenft

import (
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/vm/vms/socialvm/errs"
)

type fakeRoles struct{ granted map[string]map[Address]bool }

func (f *fakeRoles) HasRole(role string, addr Address) (bool, error) {
	return f.granted[role][addr], nil
}

func newTestEngine(roles RoleChecker) *Engine {
	var t int64
	return New(memdb.New(), log.NoLog{}, roles, func() int64 { t++; return t })
}

func TestMintProfileNFTSelfMint(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})

	tok, err := e.MintProfileNFT("alice", "ipfs://alice")
	require.NoError(err)
	require.Equal("1", tok.TokenID)

	owner, err := e.OwnerOf("1")
	require.NoError(err)
	require.Equal(Address("alice"), owner)
}

func TestMintAuthorizedProfileRequiresRole(t *testing.T) {
	require := require.New(t)
	roles := &fakeRoles{granted: map[string]map[Address]bool{
		ProfileMinterRole: {"minter": true},
	}}
	e := newTestEngine(roles)

	_, err := e.MintAuthorizedProfile("stranger", "bob", "ipfs://bob")
	require.ErrorIs(err, errs.MissingRole)

	tok, err := e.MintAuthorizedProfile("minter", "bob", "ipfs://bob")
	require.NoError(err)
	require.Equal(Address("bob"), tok.Owner)
}

func TestUpdateProfileMetadataOwnerOnly(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})
	tok, err := e.MintProfileNFT("alice", "ipfs://alice")
	require.NoError(err)

	err = e.UpdateProfileMetadata("bob", tok.TokenID, "ipfs://new")
	require.ErrorIs(err, errs.Unauthorized)

	require.NoError(e.UpdateProfileMetadata("alice", tok.TokenID, "ipfs://new"))
	info, err := e.NFTInfo(tok.TokenID)
	require.NoError(err)
	require.Equal("ipfs://new", info.TokenURI)
}

func TestBurnProfileNFTRemovesFromOwnerIndex(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})
	tok, err := e.MintProfileNFT("alice", "ipfs://alice")
	require.NoError(err)

	require.NoError(e.BurnProfileNFT("alice", tok.TokenID))
	_, err = e.OwnerOf(tok.TokenID)
	require.ErrorIs(err, errs.NotFound)

	owned, err := e.Tokens("alice", "", 10)
	require.NoError(err)
	require.Empty(owned)
}

func TestCreateProfileUsernameValidationAndUniqueness(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})

	_, err := e.CreateProfile("alice", "ab", "ipfs://alice")
	require.ErrorIs(err, errs.InvalidUsername)

	_, err = e.CreateProfile("alice", "bad username!", "ipfs://alice")
	require.ErrorIs(err, errs.InvalidUsername)

	tok, err := e.CreateProfile("alice", "Alice_01", "ipfs://alice")
	require.NoError(err)
	require.Equal("Alice_01", tok.Username)

	_, err = e.CreateProfile("bob", "alice_01", "ipfs://bob")
	require.ErrorIs(err, errs.UsernameTaken)
}

func TestUsernameExistsAndGetTokenIdByUsername(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})

	exists, err := e.UsernameExists("alice")
	require.NoError(err)
	require.False(exists)

	tok, err := e.CreateProfile("alice", "alice", "ipfs://alice")
	require.NoError(err)

	exists, err = e.UsernameExists("ALICE")
	require.NoError(err)
	require.True(exists)

	id, err := e.GetTokenIdByUsername("Alice")
	require.NoError(err)
	require.Equal(tok.TokenID, id)

	_, err = e.GetTokenIdByUsername("missing")
	require.ErrorIs(err, errs.NotFound)
}

func TestTokensPagination(t *testing.T) {
	require := require.New(t)
	e := newTestEngine(&fakeRoles{granted: map[string]map[Address]bool{}})
	for i := 0; i < 3; i++ {
		_, err := e.MintProfileNFT("alice", "ipfs://x")
		require.NoError(err)
	}
	page, err := e.Tokens("alice", "", 2)
	require.NoError(err)
	require.Equal([]string{"1", "2"}, page)

	page, err = e.Tokens("alice", "2", 2)
	require.NoError(err)
	require.Equal([]string{"3"}, page)
}
