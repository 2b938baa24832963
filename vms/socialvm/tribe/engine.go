// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tribe

import (
	"encoding/json"
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/vm/vms/socialvm/errs"
)

// Engine is the Tribe Controller state machine.
type Engine struct {
	db     database.Database
	log    log.Logger
	oracle NFTOracle
	now    func() int64
}

func New(db database.Database, logger log.Logger, oracle NFTOracle, now func() int64) *Engine {
	return &Engine{db: db, log: logger, oracle: oracle, now: now}
}

// CreateTribe implements spec.md §4.2's create_tribe. The creator is the
// first admin, is whitelisted, and is activated immediately.
func (e *Engine) CreateTribe(
	creator Address,
	name, metadata string,
	joinType JoinType,
	entryFee uint64,
	nftRequirements []NFTRequirement,
	isMergeable bool,
) (*Tribe, error) {
	if name == "" || metadata == "" {
		return nil, errs.EmptyMetadata
	}
	id, err := nextTribeID(e.db)
	if err != nil {
		return nil, err
	}
	t := &Tribe{
		TribeID:         id,
		Name:            name,
		Metadata:        metadata,
		Admins:          []Address{creator},
		Whitelist:       []Address{creator},
		JoinType:        joinType,
		EntryFee:        entryFee,
		NFTRequirements: nftRequirements,
		IsMergeable:     isMergeable,
		CreatedAt:       e.now(),
	}
	if err := putTribe(e.db, t); err != nil {
		return nil, err
	}
	if err := e.activate(t, creator); err != nil {
		return nil, err
	}
	e.log.Info("tribe created", "tribeId", id, "creator", string(creator), "joinType", string(joinType))
	return t, nil
}

// UpdateTribeConfig is supplemented from original_source's
// tribe_controller.rs (tribe_config_update). Admin-gated; does not touch
// join_type or membership.
func (e *Engine) UpdateTribeConfig(caller Address, id uint64, name, metadata *string, entryFee *uint64) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	if name != nil {
		if *name == "" {
			return errs.EmptyMetadata
		}
		t.Name = *name
	}
	if metadata != nil {
		if *metadata == "" {
			return errs.EmptyMetadata
		}
		t.Metadata = *metadata
	}
	if entryFee != nil {
		t.EntryFee = *entryFee
	}
	return putTribe(e.db, t)
}

// GetTribeConfigView returns id's record, or NotFound once merged away or
// never created, per spec.md §3's merge-terminal-state note.
func (e *Engine) GetTribeConfigView(id uint64) (*Tribe, error) {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound
	}
	return t, nil
}

// GetMemberStatus is a total query: unknown tribes or addresses report
// NONE rather than erroring, per spec.md §7.
func (e *Engine) GetMemberStatus(id uint64, addr Address) MemberStatus {
	s, err := getMemberStatus(e.db, id, addr)
	if err != nil {
		return None
	}
	return s
}

// IsActiveMember is the predicate the post module consumes to gate
// create/view operations on tribe membership.
func (e *Engine) IsActiveMember(id uint64, addr Address) bool {
	return e.GetMemberStatus(id, addr) == Active
}

// IsAdmin reports whether addr administers tribe id, the predicate the
// post module consumes for set_tribe_encryption_key's tribe-admin check
// (originally a cross-contract GetTribeAdmin query). Unknown tribes
// report false rather than erroring.
func (e *Engine) IsAdmin(id uint64, addr Address) bool {
	t, err := e.GetTribeConfigView(id)
	if err != nil {
		return false
	}
	return t.IsAdmin(addr)
}

// JoinTribe implements spec.md §4.2's join_tribe: direct NONE->ACTIVE for
// PUBLIC tribes and NFT-gated tribes whose predicate passes at invocation
// time. PRIVATE and INVITE_CODE tribes reject join_tribe outright; callers
// must use RequestToJoin / JoinTribeWithCode.
func (e *Engine) JoinTribe(caller Address, id uint64) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	status, err := getMemberStatus(e.db, id, caller)
	if err != nil {
		return err
	}
	if status == Banned {
		return errs.Banned
	}
	if status == Pending || status == Active {
		return errs.AlreadyMember
	}
	switch t.JoinType {
	case Public:
		return e.activate(t, caller)
	case NFTGated, MultiNFT, AnyNFT:
		passed, err := e.evaluateGate(t, caller)
		if err != nil {
			return err
		}
		if !passed {
			return errs.Unauthorized
		}
		return e.activate(t, caller)
	default:
		return errs.Unauthorized
	}
}

// RequestToJoin implements request_to_join: PRIVATE tribes only, NONE->PENDING.
func (e *Engine) RequestToJoin(caller Address, id uint64) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if t.JoinType != Private {
		return errs.Unauthorized
	}
	status, err := getMemberStatus(e.db, id, caller)
	if err != nil {
		return err
	}
	if status == Banned {
		return errs.Banned
	}
	if status == Pending || status == Active {
		return errs.AlreadyMember
	}
	return setMemberStatus(e.db, id, caller, Pending)
}

// ApproveMember implements approve_member: tribe-admin only, requires
// PENDING, transitions PENDING->ACTIVE.
func (e *Engine) ApproveMember(caller Address, id uint64, addr Address) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	status, err := getMemberStatus(e.db, id, addr)
	if err != nil {
		return err
	}
	if status != Pending {
		return errs.NotFound
	}
	return e.activate(t, addr)
}

// RejectMember implements reject_member: tribe-admin only, requires
// PENDING, erases the request back to NONE.
func (e *Engine) RejectMember(caller Address, id uint64, addr Address) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	status, err := getMemberStatus(e.db, id, addr)
	if err != nil {
		return err
	}
	if status != Pending {
		return errs.NotFound
	}
	return setMemberStatus(e.db, id, addr, None)
}

// BanMember implements ban_member: tribe-admin only. Terminal and sticky;
// banning an already-banned address is a no-op.
func (e *Engine) BanMember(caller Address, id uint64, addr Address) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	status, err := getMemberStatus(e.db, id, addr)
	if err != nil {
		return err
	}
	if status == Banned {
		return nil
	}
	if status == Active {
		t.MemberCount--
		if err := putTribe(e.db, t); err != nil {
			return err
		}
	}
	return setMemberStatus(e.db, id, addr, Banned)
}

// CreateInviteCode implements create_invite_code: tribe-admin only, fails
// CodeExists if already registered for this tribe.
func (e *Engine) CreateInviteCode(caller Address, id uint64, code string, maxUses uint32, expiresAt int64) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	_, exists, err := getInvite(e.db, id, code)
	if err != nil {
		return err
	}
	if exists {
		return errs.CodeExists
	}
	return putInvite(e.db, id, &InviteCode{
		Code:      code,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		Creator:   caller,
	})
}

// RevokeInviteCode implements revoke_invite_code: irreversible.
func (e *Engine) RevokeInviteCode(caller Address, id uint64, code string) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !t.IsAdmin(caller) {
		return errs.Unauthorized
	}
	ic, exists, err := getInvite(e.db, id, code)
	if err != nil {
		return err
	}
	if !exists {
		return errs.InvalidInviteCode
	}
	ic.Revoked = true
	return putInvite(e.db, id, ic)
}

// JoinTribeWithCode implements join_tribe_with_code atomically: verifies
// not revoked, not expired, uses < max_uses, and current status NONE; on
// success increments uses and activates.
func (e *Engine) JoinTribeWithCode(caller Address, id uint64, code string) error {
	t, ok, err := getTribe(e.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	status, err := getMemberStatus(e.db, id, caller)
	if err != nil {
		return err
	}
	if status == Banned {
		return errs.Banned
	}
	if status != None {
		return errs.AlreadyMember
	}
	ic, exists, err := getInvite(e.db, id, code)
	if err != nil {
		return err
	}
	if !exists {
		return errs.InvalidInviteCode
	}
	if ic.Revoked {
		return errs.InviteCodeRevoked
	}
	if e.now() > ic.ExpiresAt {
		return errs.InviteCodeExpired
	}
	if ic.Uses >= ic.MaxUses {
		return errs.InviteCodeExhausted
	}
	ic.Uses++
	if err := putInvite(e.db, id, ic); err != nil {
		return err
	}
	return e.activate(t, caller)
}

// InviteCodeStatusView is the total query reply for get_invite_code_status.
type InviteCodeStatusView struct {
	Exists        bool   `json:"exists"`
	RemainingUses uint32 `json:"remainingUses"`
	Revoked       bool   `json:"revoked"`
	ExpiresAt     int64  `json:"expiresAt"`
}

func (e *Engine) GetInviteCodeStatus(id uint64, code string) (InviteCodeStatusView, error) {
	ic, exists, err := getInvite(e.db, id, code)
	if err != nil {
		return InviteCodeStatusView{}, err
	}
	if !exists {
		return InviteCodeStatusView{Exists: false}, nil
	}
	remaining := uint32(0)
	if ic.MaxUses > ic.Uses {
		remaining = ic.MaxUses - ic.Uses
	}
	return InviteCodeStatusView{
		Exists:        true,
		RemainingUses: remaining,
		Revoked:       ic.Revoked,
		ExpiresAt:     ic.ExpiresAt,
	}, nil
}

// RequestTribeMerge implements phase 1 of spec.md §4.2's merge protocol.
func (e *Engine) RequestTribeMerge(caller Address, source, target uint64) error {
	s, ok, err := getTribe(e.db, source)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	tg, ok, err := getTribe(e.db, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !s.IsAdmin(caller) {
		return errs.Unauthorized
	}
	if !s.IsMergeable || !tg.IsMergeable {
		return errs.TribeNotMergeable
	}
	_, exists, err := getMerge(e.db, source, target)
	if err != nil {
		return err
	}
	if exists {
		return errs.MergeAlreadyRequested
	}
	return putMerge(e.db, &MergeRequest{SourceID: source, TargetID: target, RequestedBy: caller})
}

// ApproveTribeMerge implements phase 2: caller must be a target admin,
// distinct from the source admin set that requested it.
func (e *Engine) ApproveTribeMerge(caller Address, source, target uint64) error {
	m, ok, err := getMerge(e.db, source, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	tg, ok, err := getTribe(e.db, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !tg.IsAdmin(caller) {
		return errs.Unauthorized
	}
	m.Approved = true
	m.ApprovedAt = e.now()
	return putMerge(e.db, m)
}

// CancelMergeRequest is available to either admin group before execution.
func (e *Engine) CancelMergeRequest(caller Address, source, target uint64) error {
	_, ok, err := getMerge(e.db, source, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	s, ok, err := getTribe(e.db, source)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	tg, ok, err := getTribe(e.db, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !s.IsAdmin(caller) && !tg.IsAdmin(caller) {
		return errs.Unauthorized
	}
	return deleteMerge(e.db, source, target)
}

// ExecuteTribeMerge implements phase 3: folds every source member's
// status into target by the precedence rule of spec.md §3, then retires
// source entirely.
func (e *Engine) ExecuteTribeMerge(caller Address, source, target uint64) error {
	m, ok, err := getMerge(e.db, source, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !m.Approved {
		return errs.MergeNotApproved
	}
	s, ok, err := getTribe(e.db, source)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	tg, ok, err := getTribe(e.db, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if !s.IsAdmin(caller) && !tg.IsAdmin(caller) {
		return errs.Unauthorized
	}

	prefix := memberKey(source, "")
	iter := e.db.NewIteratorWithPrefix(prefix)
	defer iter.Release()

	type pending struct {
		addr  Address
		final MemberStatus
	}
	var toApply []pending
	for iter.Next() {
		addr := Address(iter.Key()[len(prefix):])
		var srcStatus MemberStatus
		if err := json.Unmarshal(iter.Value(), &srcStatus); err != nil {
			return err
		}
		tgtStatus, err := getMemberStatus(e.db, target, addr)
		if err != nil {
			return err
		}
		final := mergeStatus(srcStatus, tgtStatus)
		if final != tgtStatus {
			if tgtStatus == Active && final != Active {
				tg.MemberCount--
			}
			if tgtStatus != Active && final == Active {
				tg.MemberCount++
			}
			toApply = append(toApply, pending{addr: addr, final: final})
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	for _, p := range toApply {
		if err := setMemberStatus(e.db, target, p.addr, p.final); err != nil {
			return err
		}
	}
	if err := putTribe(e.db, tg); err != nil {
		return err
	}
	if err := deleteTribe(e.db, source); err != nil {
		return err
	}
	e.log.Info("tribe merged", "source", source, "target", target)
	return deleteMerge(e.db, source, target)
}

// mergeStatus implements spec.md §3's precedence: BANNED members keep
// BANNED, every other non-NONE source member inherits ACTIVE, and the
// target's own (possibly BANNED) status always wins ties.
func mergeStatus(src, tgt MemberStatus) MemberStatus {
	candidate := Active
	if src == Banned {
		candidate = Banned
	}
	if statusRank(tgt) > statusRank(candidate) {
		return tgt
	}
	return candidate
}

func (e *Engine) activate(t *Tribe, addr Address) error {
	if err := setMemberStatus(e.db, t.TribeID, addr, Active); err != nil {
		return err
	}
	t.MemberCount++
	if !t.onWhitelist(addr) {
		t.Whitelist = append(t.Whitelist, addr)
	}
	return putTribe(e.db, t)
}

// evaluateGate implements spec.md §4.2's NFT gate evaluation.
func (e *Engine) evaluateGate(t *Tribe, addr Address) (bool, error) {
	switch t.JoinType {
	case NFTGated:
		if len(t.NFTRequirements) == 0 {
			return false, nil
		}
		return e.requirementSatisfied(addr, t.NFTRequirements[0])
	case MultiNFT:
		for _, r := range t.NFTRequirements {
			if !r.Mandatory {
				continue
			}
			ok, err := e.requirementSatisfied(addr, r)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case AnyNFT:
		for _, r := range t.NFTRequirements {
			if !r.Mandatory {
				continue
			}
			ok, err := e.requirementSatisfied(addr, r)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		for _, r := range t.NFTRequirements {
			if r.Mandatory {
				continue
			}
			ok, err := e.requirementSatisfied(addr, r)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errors.New("evaluateGate called for a non-NFT join type")
	}
}

func (e *Engine) requirementSatisfied(addr Address, req NFTRequirement) (bool, error) {
	if len(req.TokenIDs) > 0 {
		var sum uint64
		heldAny := false
		for _, id := range req.TokenIDs {
			amt, err := e.oracle.OwnsSpecific(req.Contract, addr, id)
			if err != nil {
				return false, err
			}
			if amt > 0 {
				heldAny = true
			}
			sum += amt
		}
		if req.Type == ERC1155 {
			return sum >= req.MinAmount, nil
		}
		return heldAny, nil
	}
	amt, err := e.oracle.Owns(req.Contract, addr)
	if err != nil {
		return false, err
	}
	return amt >= req.MinAmount, nil
}
