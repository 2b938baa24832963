// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package profilenft

import (
	"github.com/luxfi/database"

	"github.com/luxfi/vm/vms/socialvm/state"
)

const (
	prefixToken      = "nft"
	prefixOwnerIndex = "nft_owner" // owner -> ordered []string token ids
	prefixCounter    = "nft_counter"
	prefixUsername   = "nft_username" // lowercased username -> token id
)

func tokenKey(tokenID string) []byte {
	return state.Key(prefixToken, tokenID)
}

func ownerIndexKey(owner Address) []byte {
	return state.Key(prefixOwnerIndex, string(owner))
}

func usernameKey(username string) []byte {
	return state.Key(prefixUsername, normalizeUsername(username))
}

func getTokenIDByUsername(db database.Database, username string) (string, bool, error) {
	var tokenID string
	ok, err := state.GetJSON(db, usernameKey(username), &tokenID)
	if err != nil || !ok {
		return "", ok, err
	}
	return tokenID, true, nil
}

func setUsername(db database.Database, username, tokenID string) error {
	return state.PutJSON(db, usernameKey(username), tokenID)
}

func getToken(db database.Database, tokenID string) (*Token, bool, error) {
	var t Token
	ok, err := state.GetJSON(db, tokenKey(tokenID), &t)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &t, true, nil
}

func putToken(db database.Database, t *Token) error {
	return state.PutJSON(db, tokenKey(t.TokenID), t)
}

func getOwnerTokens(db database.Database, owner Address) ([]string, error) {
	var ids []string
	_, err := state.GetJSON(db, ownerIndexKey(owner), &ids)
	return ids, err
}

func setOwnerTokens(db database.Database, owner Address, ids []string) error {
	return state.PutJSON(db, ownerIndexKey(owner), ids)
}

func nextTokenCounter(db database.Database) (uint64, error) {
	return state.NextCounter(db, []byte(prefixCounter))
}
