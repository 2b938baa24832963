// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rolemgr

import (
	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/vm/vms/socialvm/errs"
	"github.com/luxfi/vm/vms/socialvm/state"
)

// Engine is the Role Manager state machine. One Engine is constructed per
// VM instance over the versioned database snapshot, the way
// vms/dexvm/state.State wraps a database.Database.
type Engine struct {
	db  database.Database
	log log.Logger
}

func New(db database.Database, logger log.Logger) *Engine {
	return &Engine{db: db, log: logger}
}

// GrantInstantiator grants DefaultAdminRole to the instantiating address at
// genesis, per spec.md §6's instantiation defaults.
func (e *Engine) GrantInstantiator(addr Address) error {
	granted, err := getGranted(e.db, DefaultAdminRole, addr)
	if err != nil || granted {
		return err
	}
	return e.grant(DefaultAdminRole, addr)
}

// HasRole reports whether addr currently holds role.
func (e *Engine) HasRole(role string, addr Address) (bool, error) {
	return getGranted(e.db, role, addr)
}

// IsRoleAdmin reports whether caller holds role's current admin role.
func (e *Engine) IsRoleAdmin(role string, caller Address) (bool, error) {
	admin, err := getRoleAdmin(e.db, role)
	if err != nil {
		return false, err
	}
	return getGranted(e.db, admin, caller)
}

// GetRoleAdmin returns role's admin-role, defaulting to DefaultAdminRole.
func (e *Engine) GetRoleAdmin(role string) (string, error) {
	return getRoleAdmin(e.db, role)
}

// GetRoleMemberCount returns the invariant-maintained cardinality of role.
func (e *Engine) GetRoleMemberCount(role string) (uint64, error) {
	return getCount(e.db, role)
}

// GetRoles returns the roles granted to addr, in grant order.
func (e *Engine) GetRoles(addr Address) ([]string, error) {
	roles, err := getAddrRoles(e.db, addr)
	if roles == nil {
		roles = []string{}
	}
	return roles, err
}

// ListRoleMembers paginates role's current members in grant order. The
// original contract has no equivalent query; this exists only to satisfy
// spec.md §9's pagination note for admin tooling built on top of
// GetRoleMemberCount.
func (e *Engine) ListRoleMembers(role string, startAfter Address, limit uint32) ([]Address, error) {
	members, err := getRoleMembers(e.db, role)
	if err != nil {
		return nil, err
	}
	start := 0
	if startAfter != "" {
		for i, m := range members {
			if m == startAfter {
				start = i + 1
				break
			}
		}
	}
	if start >= len(members) {
		return []Address{}, nil
	}
	end := start + int(limit)
	if limit == 0 || end > len(members) {
		end = len(members)
	}
	out := make([]Address, end-start)
	copy(out, members[start:end])
	return out, nil
}

// GrantRole implements spec.md §4.1's grant_role. Idempotent: granting an
// already-granted role is a no-op that does not touch the counter.
func (e *Engine) GrantRole(caller Address, role string, addr Address) error {
	ok, err := e.IsRoleAdmin(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.MissingRole
	}
	granted, err := getGranted(e.db, role, addr)
	if err != nil || granted {
		return err
	}
	if err := e.grant(role, addr); err != nil {
		return err
	}
	e.log.Info("role granted", "role", role, "address", string(addr), "caller", string(caller))
	return nil
}

// RevokeRole implements spec.md §4.1's revoke_role. Idempotent.
func (e *Engine) RevokeRole(caller Address, role string, addr Address) error {
	ok, err := e.IsRoleAdmin(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.MissingRole
	}
	granted, err := getGranted(e.db, role, addr)
	if err != nil || !granted {
		return err
	}
	if err := e.revoke(role, addr); err != nil {
		return err
	}
	e.log.Info("role revoked", "role", role, "address", string(addr), "caller", string(caller))
	return nil
}

// RenounceRole implements spec.md §4.1's renounce_role. The addr parameter
// is the stricter reading from §9's Open Question: if supplied it must
// equal caller, else CannotRenounce. Callers may never renounce on behalf
// of anyone else.
func (e *Engine) RenounceRole(caller Address, role string, addr *Address) error {
	if addr != nil && *addr != caller {
		return errs.CannotRenounce
	}
	granted, err := getGranted(e.db, role, caller)
	if err != nil {
		return err
	}
	if !granted {
		return errs.CannotRenounce
	}
	if err := e.revoke(role, caller); err != nil {
		return err
	}
	e.log.Info("role renounced", "role", role, "address", string(caller))
	return nil
}

// HasAnyRole implements the original's has_any_role query: true if addr
// holds at least one role in roles.
func (e *Engine) HasAnyRole(addr Address, roles []string) (bool, error) {
	for _, role := range roles {
		ok, err := getGranted(e.db, role, addr)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllRoles implements the original's has_all_roles query: true only
// if addr holds every role in roles.
func (e *Engine) HasAllRoles(addr Address, roles []string) (bool, error) {
	for _, role := range roles {
		ok, err := getGranted(e.db, role, addr)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// AuthorizeFanAssigner implements the original's authorize_fan_assigner:
// admin-only, grants FanAssignerRole to assigner.
func (e *Engine) AuthorizeFanAssigner(caller, assigner Address) error {
	isAdmin, err := getGranted(e.db, DefaultAdminRole, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errs.Unauthorized
	}
	granted, err := getGranted(e.db, FanAssignerRole, assigner)
	if err != nil || granted {
		return err
	}
	if err := e.grant(FanAssignerRole, assigner); err != nil {
		return err
	}
	e.log.Info("fan assigner authorized", "assigner", string(assigner), "caller", string(caller))
	return nil
}

// AssignFanRole implements the original's assign_fan_role: caller must
// hold DefaultAdminRole or FanAssignerRole; grants FanRole to user.
func (e *Engine) AssignFanRole(caller, user Address) error {
	isAdmin, err := getGranted(e.db, DefaultAdminRole, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		isAssigner, err := getGranted(e.db, FanAssignerRole, caller)
		if err != nil {
			return err
		}
		if !isAssigner {
			return errs.Unauthorized
		}
	}
	granted, err := getGranted(e.db, FanRole, user)
	if err != nil || granted {
		return err
	}
	if err := e.grant(FanRole, user); err != nil {
		return err
	}
	e.log.Info("fan role assigned", "user", string(user), "caller", string(caller))
	return nil
}

// Pause implements the original's pause: admin-only.
func (e *Engine) Pause(caller Address) error {
	ok, err := getGranted(e.db, DefaultAdminRole, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Unauthorized
	}
	return setPaused(e.db, true)
}

// Unpause implements the original's unpause: admin-only.
func (e *Engine) Unpause(caller Address) error {
	ok, err := getGranted(e.db, DefaultAdminRole, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Unauthorized
	}
	return setPaused(e.db, false)
}

// IsPaused reports the module-wide paused flag toggled by Pause/Unpause.
func (e *Engine) IsPaused() (bool, error) {
	return getPaused(e.db)
}

// SetRoleAdmin implements spec.md §4.1's set_role_admin. Caller must
// currently administer role. DefaultAdminRole's self-administration can
// never be rewritten. Cycles (A admins B, B admins A) are accepted by
// design, not detected: authorization is a single-hop lookup (spec.md §9).
func (e *Engine) SetRoleAdmin(caller Address, role, adminRole string) error {
	if role == DefaultAdminRole {
		return errs.Unauthorized
	}
	ok, err := e.IsRoleAdmin(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.MissingRole
	}
	if err := setRoleAdmin(e.db, role, adminRole); err != nil {
		return err
	}
	e.log.Info("role admin set", "role", role, "adminRole", adminRole, "caller", string(caller))
	return nil
}

func (e *Engine) grant(role string, addr Address) error {
	if err := setGranted(e.db, role, addr, true); err != nil {
		return err
	}
	count, err := getCount(e.db, role)
	if err != nil {
		return err
	}
	if err := setCount(e.db, role, count+1); err != nil {
		return err
	}
	members, err := getRoleMembers(e.db, role)
	if err != nil {
		return err
	}
	if members, added := state.AppendUnique(members, addr); added {
		if err := setRoleMembers(e.db, role, members); err != nil {
			return err
		}
	}
	roles, err := getAddrRoles(e.db, addr)
	if err != nil {
		return err
	}
	if roles, added := state.AppendUnique(roles, role); added {
		if err := setAddrRoles(e.db, addr, roles); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) revoke(role string, addr Address) error {
	if err := setGranted(e.db, role, addr, false); err != nil {
		return err
	}
	count, err := getCount(e.db, role)
	if err != nil {
		return err
	}
	if count > 0 {
		if err := setCount(e.db, role, count-1); err != nil {
			return err
		}
	}
	members, err := getRoleMembers(e.db, role)
	if err != nil {
		return err
	}
	if members, removed := state.RemoveValue(members, addr); removed {
		if err := setRoleMembers(e.db, role, members); err != nil {
			return err
		}
	}
	roles, err := getAddrRoles(e.db, addr)
	if err != nil {
		return err
	}
	if roles, removed := state.RemoveValue(roles, role); removed {
		if err := setAddrRoles(e.db, addr, roles); err != nil {
			return err
		}
	}
	return nil
}
