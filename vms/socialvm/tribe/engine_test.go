// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tribe

import (
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/vm/vms/socialvm/errs"
)

type fakeOracle struct {
	balances map[string]map[Address]uint64
	specific map[string]map[Address]map[uint64]uint64
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		balances: map[string]map[Address]uint64{},
		specific: map[string]map[Address]map[uint64]uint64{},
	}
}

func (f *fakeOracle) Owns(contract string, addr Address) (uint64, error) {
	return f.balances[contract][addr], nil
}

func (f *fakeOracle) OwnsSpecific(contract string, addr Address, tokenID uint64) (uint64, error) {
	m := f.specific[contract]
	if m == nil {
		return 0, nil
	}
	return m[addr][tokenID], nil
}

func newTestEngine(oracle NFTOracle) (*Engine, *int64) {
	var clock int64
	return New(memdb.New(), log.NoLog{}, oracle, func() int64 { return clock }), &clock
}

func TestJoinTribePublic(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(newFakeOracle())
	tr, err := e.CreateTribe("creator", "T1", "meta", Public, 0, nil, false)
	require.NoError(err)

	require.NoError(e.JoinTribe("bob", tr.TribeID))
	require.Equal(Active, e.GetMemberStatus(tr.TribeID, "bob"))

	err = e.JoinTribe("bob", tr.TribeID)
	require.ErrorIs(err, errs.AlreadyMember)
}

func TestPrivateTribeRequestApproveReject(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(newFakeOracle())
	tr, err := e.CreateTribe("creator", "T1", "meta", Private, 0, nil, false)
	require.NoError(err)

	err = e.JoinTribe("bob", tr.TribeID)
	require.ErrorIs(err, errs.Unauthorized)

	require.NoError(e.RequestToJoin("bob", tr.TribeID))
	require.Equal(Pending, e.GetMemberStatus(tr.TribeID, "bob"))

	require.NoError(e.RequestToJoin("carol", tr.TribeID))
	require.NoError(e.RejectMember("creator", tr.TribeID, "carol"))
	require.Equal(None, e.GetMemberStatus(tr.TribeID, "carol"))

	require.NoError(e.ApproveMember("creator", tr.TribeID, "bob"))
	require.Equal(Active, e.GetMemberStatus(tr.TribeID, "bob"))
}

func TestBanIsSticky(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(newFakeOracle())
	tr, err := e.CreateTribe("creator", "T1", "meta", Public, 0, nil, false)
	require.NoError(err)
	require.NoError(e.JoinTribe("bob", tr.TribeID))
	require.NoError(e.BanMember("creator", tr.TribeID, "bob"))
	require.Equal(Banned, e.GetMemberStatus(tr.TribeID, "bob"))

	err = e.JoinTribe("bob", tr.TribeID)
	require.ErrorIs(err, errs.Banned)

	err = e.RequestToJoin("bob", tr.TribeID)
	require.ErrorIs(err, errs.Banned)
}

func TestInviteCodeUsageCap(t *testing.T) {
	// Scenario 4 of spec.md §8.
	require := require.New(t)
	e, clock := newTestEngine(newFakeOracle())
	tr, err := e.CreateTribe("creator", "T1", "meta", InviteCode, 0, nil, false)
	require.NoError(err)
	*clock = 0
	require.NoError(e.CreateInviteCode("creator", tr.TribeID, "X", 2, 3600))

	require.NoError(e.JoinTribeWithCode("a", tr.TribeID, "X"))
	require.NoError(e.JoinTribeWithCode("b", tr.TribeID, "X"))
	err = e.JoinTribeWithCode("c", tr.TribeID, "X")
	require.ErrorIs(err, errs.InviteCodeExhausted)

	status, err := e.GetInviteCodeStatus(tr.TribeID, "X")
	require.NoError(err)
	require.EqualValues(0, status.RemainingUses)
}

func TestInviteCodeExpiry(t *testing.T) {
	require := require.New(t)
	e, clock := newTestEngine(newFakeOracle())
	tr, err := e.CreateTribe("creator", "T1", "meta", InviteCode, 0, nil, false)
	require.NoError(err)
	*clock = 0
	require.NoError(e.CreateInviteCode("creator", tr.TribeID, "X", 5, 100))
	*clock = 101
	err = e.JoinTribeWithCode("a", tr.TribeID, "X")
	require.ErrorIs(err, errs.InviteCodeExpired)
}

func TestNFTGateEvaluation(t *testing.T) {
	require := require.New(t)
	oracle := newFakeOracle()
	oracle.balances["0xNFT"] = map[Address]uint64{"alice": 2}
	e, _ := newTestEngine(oracle)

	tr, err := e.CreateTribe("creator", "T1", "meta", NFTGated, 0, []NFTRequirement{
		{Contract: "0xNFT", Type: ERC721, Mandatory: true, MinAmount: 1},
	}, false)
	require.NoError(err)

	require.NoError(e.JoinTribe("alice", tr.TribeID))
	err = e.JoinTribe("bob", tr.TribeID)
	require.ErrorIs(err, errs.Unauthorized)
}

func TestMultiNFTRequiresAllMandatory(t *testing.T) {
	require := require.New(t)
	oracle := newFakeOracle()
	oracle.balances["c1"] = map[Address]uint64{"alice": 1}
	e, _ := newTestEngine(oracle)

	tr, err := e.CreateTribe("creator", "T1", "meta", MultiNFT, 0, []NFTRequirement{
		{Contract: "c1", Type: ERC721, Mandatory: true, MinAmount: 1},
		{Contract: "c2", Type: ERC721, Mandatory: true, MinAmount: 1},
	}, false)
	require.NoError(err)

	err = e.JoinTribe("alice", tr.TribeID)
	require.ErrorIs(err, errs.Unauthorized) // missing c2

	oracle.balances["c2"] = map[Address]uint64{"alice": 1}
	require.NoError(e.JoinTribe("alice", tr.TribeID))
}

func TestMergePrecedence(t *testing.T) {
	// Scenario 5 of spec.md §8.
	require := require.New(t)
	e, _ := newTestEngine(newFakeOracle())

	s, err := e.CreateTribe("sAdmin", "S", "meta", Public, 0, nil, true)
	require.NoError(err)
	d, err := e.CreateTribe("dAdmin", "D", "meta", Public, 0, nil, true)
	require.NoError(err)

	require.NoError(e.JoinTribe("a", s.TribeID))
	require.NoError(e.JoinTribe("b", s.TribeID))

	require.NoError(e.JoinTribe("b", d.TribeID))
	require.NoError(e.BanMember("dAdmin", d.TribeID, "b"))
	require.NoError(e.JoinTribe("c", d.TribeID))

	require.NoError(e.RequestTribeMerge("sAdmin", s.TribeID, d.TribeID))
	require.NoError(e.ApproveTribeMerge("dAdmin", s.TribeID, d.TribeID))
	require.NoError(e.ExecuteTribeMerge("sAdmin", s.TribeID, d.TribeID))

	require.Equal(Active, e.GetMemberStatus(d.TribeID, "a"))
	require.Equal(Banned, e.GetMemberStatus(d.TribeID, "b"))
	require.Equal(Active, e.GetMemberStatus(d.TribeID, "c"))

	_, err = e.GetTribeConfigView(s.TribeID)
	require.ErrorIs(err, errs.NotFound)
}

func TestMergeRequiresDistinctAdminApprovals(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(newFakeOracle())
	s, err := e.CreateTribe("sAdmin", "S", "meta", Public, 0, nil, true)
	require.NoError(err)
	d, err := e.CreateTribe("dAdmin", "D", "meta", Public, 0, nil, true)
	require.NoError(err)

	require.NoError(e.RequestTribeMerge("sAdmin", s.TribeID, d.TribeID))

	err = e.RequestTribeMerge("sAdmin", s.TribeID, d.TribeID)
	require.ErrorIs(err, errs.MergeAlreadyRequested)

	err = e.ExecuteTribeMerge("sAdmin", s.TribeID, d.TribeID)
	require.ErrorIs(err, errs.MergeNotApproved)

	err = e.ApproveTribeMerge("sAdmin", s.TribeID, d.TribeID)
	require.ErrorIs(err, errs.Unauthorized)

	require.NoError(e.ApproveTribeMerge("dAdmin", s.TribeID, d.TribeID))
	require.NoError(e.ExecuteTribeMerge("sAdmin", s.TribeID, d.TribeID))
}
