// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rolemgr implements the Role Manager module of spec.md §4.1: a
// hierarchical role×address grant table gating every privileged operation
// in the other socialvm modules.
package rolemgr

import "github.com/luxfi/vm/vms/socialvm/types"

// Address is an opaque, externally authenticated caller identifier.
type Address = types.Address

// DefaultAdminRole is the sentinel role that administers itself; its
// admin assignment can never be rewritten (spec.md §3).
const DefaultAdminRole = "DEFAULT_ADMIN_ROLE"

// Fixed role identifiers carried over from the original contract's role
// set: FanRole/FanAssignerRole back the delegated fan-assignment flow
// (AuthorizeFanAssigner/AssignFanRole); the rest are granted through the
// generic GrantRole path but named here since callers reference them by
// these exact strings.
const (
	FanRole         = "FAN_ROLE"
	OrganizerRole   = "ORGANIZER_ROLE"
	ArtistRole      = "ARTIST_ROLE"
	BrandRole       = "BRAND_ROLE"
	ModeratorRole   = "MODERATOR_ROLE"
	FanAssignerRole = "FAN_ASSIGNER_ROLE"
)

// RoleGrantedEvent mirrors spec.md §6's event stream requirement: every
// successful execute emits {action, resource_id, caller} plus attributes.
type RoleGrantedEvent struct {
	Action  string  `json:"action"`
	Role    string  `json:"role"`
	Address Address `json:"address"`
	Caller  Address `json:"caller"`
}
