// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rolemgr

import (
	"github.com/luxfi/database"

	"github.com/luxfi/vm/vms/socialvm/state"
)

const (
	prefixRole        = "role"
	prefixRoleAdmin   = "role_admin"
	prefixRoleCount   = "role_count"
	prefixRoleMembers = "role_members" // role -> ordered []Address currently granted
	prefixAddrRoles   = "addr_roles"   // address -> ordered []string currently granted
	prefixPaused      = "role_paused"
)

func roleKey(role string, addr Address) []byte {
	return state.Key(prefixRole, role, string(addr))
}

func roleAdminKey(role string) []byte {
	return state.Key(prefixRoleAdmin, role)
}

func roleCountKey(role string) []byte {
	return state.Key(prefixRoleCount, role)
}

func roleMembersKey(role string) []byte {
	return state.Key(prefixRoleMembers, role)
}

func addrRolesKey(addr Address) []byte {
	return state.Key(prefixAddrRoles, string(addr))
}

func getGranted(db database.Database, role string, addr Address) (bool, error) {
	return state.GetBool(db, roleKey(role, addr))
}

func setGranted(db database.Database, role string, addr Address, granted bool) error {
	return state.PutBool(db, roleKey(role, addr), granted)
}

func getCount(db database.Database, role string) (uint64, error) {
	var count uint64
	ok, err := state.GetJSON(db, roleCountKey(role), &count)
	if err != nil || !ok {
		return 0, err
	}
	return count, nil
}

func setCount(db database.Database, role string, count uint64) error {
	return state.PutJSON(db, roleCountKey(role), count)
}

func getRoleAdmin(db database.Database, role string) (string, error) {
	var admin string
	ok, err := state.GetJSON(db, roleAdminKey(role), &admin)
	if err != nil {
		return "", err
	}
	if !ok {
		return DefaultAdminRole, nil
	}
	return admin, nil
}

func setRoleAdmin(db database.Database, role, admin string) error {
	return state.PutJSON(db, roleAdminKey(role), admin)
}

func getRoleMembers(db database.Database, role string) ([]Address, error) {
	var members []Address
	_, err := state.GetJSON(db, roleMembersKey(role), &members)
	return members, err
}

func setRoleMembers(db database.Database, role string, members []Address) error {
	return state.PutJSON(db, roleMembersKey(role), members)
}

func getPaused(db database.Database) (bool, error) {
	return state.Has(db, []byte(prefixPaused))
}

func setPaused(db database.Database, paused bool) error {
	if !paused {
		return db.Delete([]byte(prefixPaused))
	}
	return state.PutBool(db, []byte(prefixPaused), true)
}

func getAddrRoles(db database.Database, addr Address) ([]string, error) {
	var roles []string
	_, err := state.GetJSON(db, addrRolesKey(addr), &roles)
	return roles, err
}

func setAddrRoles(db database.Database, addr Address, roles []string) error {
	return state.PutJSON(db, addrRolesKey(addr), roles)
}
