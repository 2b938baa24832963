// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tribe

import (
	"fmt"

	"github.com/luxfi/database"

	"github.com/luxfi/vm/vms/socialvm/state"
)

const (
	prefixTribe      = "tribe"
	prefixMember     = "tribe_member"
	prefixInvite     = "tribe_invite"
	prefixMerge      = "tribe_merge"
	counterKeyString = "tribe_counter"
)

func tribeID(id uint64) string { return fmt.Sprintf("%d", id) }

func tribeKey(id uint64) []byte {
	return state.Key(prefixTribe, tribeID(id))
}

func memberKey(id uint64, addr Address) []byte {
	return state.Key(prefixMember, tribeID(id), string(addr))
}

func inviteKey(id uint64, code string) []byte {
	return state.Key(prefixInvite, tribeID(id), code)
}

func mergeKey(source, target uint64) []byte {
	return state.Key(prefixMerge, tribeID(source), tribeID(target))
}

func nextTribeID(db database.Database) (uint64, error) {
	return state.NextCounter(db, []byte(counterKeyString))
}

func getTribe(db database.Database, id uint64) (*Tribe, bool, error) {
	var t Tribe
	ok, err := state.GetJSON(db, tribeKey(id), &t)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &t, true, nil
}

func putTribe(db database.Database, t *Tribe) error {
	return state.PutJSON(db, tribeKey(t.TribeID), t)
}

func deleteTribe(db database.Database, id uint64) error {
	return db.Delete(tribeKey(id))
}

func getMemberStatus(db database.Database, id uint64, addr Address) (MemberStatus, error) {
	var s MemberStatus
	ok, err := state.GetJSON(db, memberKey(id, addr), &s)
	if err != nil {
		return None, err
	}
	if !ok {
		return None, nil
	}
	return s, nil
}

func setMemberStatus(db database.Database, id uint64, addr Address, s MemberStatus) error {
	if s == None {
		return db.Delete(memberKey(id, addr))
	}
	return state.PutJSON(db, memberKey(id, addr), s)
}

func getInvite(db database.Database, id uint64, code string) (*InviteCode, bool, error) {
	var ic InviteCode
	ok, err := state.GetJSON(db, inviteKey(id, code), &ic)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &ic, true, nil
}

func putInvite(db database.Database, id uint64, ic *InviteCode) error {
	return state.PutJSON(db, inviteKey(id, ic.Code), ic)
}

func getMerge(db database.Database, source, target uint64) (*MergeRequest, bool, error) {
	var m MergeRequest
	ok, err := state.GetJSON(db, mergeKey(source, target), &m)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &m, true, nil
}

func putMerge(db database.Database, m *MergeRequest) error {
	return state.PutJSON(db, mergeKey(m.SourceID, m.TargetID), m)
}

func deleteMerge(db database.Database, source, target uint64) error {
	return db.Delete(mergeKey(source, target))
}
