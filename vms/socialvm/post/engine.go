// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package post

import (
	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/vm/vms/socialvm/errs"
	"github.com/luxfi/vm/vms/socialvm/state"
)

// Engine is the Post Minter state machine.
type Engine struct {
	db     database.Database
	log    log.Logger
	tribes TribeChecker
	nfts   NFTOracle
	roles  RoleChecker
	sigs   SignatureVerifier
	now    func() int64

	cfgCooldowns   map[PostType]int64
	batchSize      uint32
	batchCooldown  int64
}

func New(db database.Database, logger log.Logger, tribes TribeChecker, nfts NFTOracle, roles RoleChecker, sigs SignatureVerifier, now func() int64, cooldowns map[PostType]int64, batchSize uint32, batchCooldown int64) *Engine {
	return &Engine{
		db:            db,
		log:           logger,
		tribes:        tribes,
		nfts:          nfts,
		roles:         roles,
		sigs:          sigs,
		now:           now,
		cfgCooldowns:  cooldowns,
		batchSize:     batchSize,
		batchCooldown: batchCooldown,
	}
}

func (e *Engine) checkPaused() error {
	paused, err := getPaused(e.db)
	if err != nil {
		return err
	}
	if paused {
		return errs.Paused
	}
	return nil
}

func (e *Engine) checkCooldown(creator Address, ptype PostType) error {
	last, err := getLastPostAt(e.db, creator, ptype)
	if err != nil {
		return err
	}
	cd := e.cfgCooldowns[ptype]
	if last != 0 && e.now()-last < cd {
		return errs.OnCooldown
	}
	return nil
}

// CreatePost implements spec.md §4.3's create_post.
func (e *Engine) CreatePost(caller Address, tribeID uint64, metadata string, ptype PostType, isGated bool, collectibleContract string, collectibleID uint64) (*Post, error) {
	if err := e.checkPaused(); err != nil {
		return nil, err
	}
	if metadata == "" {
		return nil, errs.EmptyMetadata
	}
	if !e.tribes.IsActiveMember(tribeID, caller) {
		return nil, errs.NotTribeMember
	}
	if ptype == "" {
		ptype = TypeText
	}
	if err := e.checkCooldown(caller, ptype); err != nil {
		return nil, err
	}

	id, err := nextPostID(e.db)
	if err != nil {
		return nil, err
	}
	now := e.now()
	p := &Post{
		PostID:               id,
		Creator:              caller,
		TribeID:              tribeID,
		Metadata:             metadata,
		PostType:             ptype,
		IsGated:              isGated,
		CollectibleContract:  collectibleContract,
		CollectibleID:        collectibleID,
		CreatedAt:            now,
	}
	if err := putPost(e.db, p); err != nil {
		return nil, err
	}
	if err := setLastPostAt(e.db, caller, ptype, now); err != nil {
		return nil, err
	}
	e.log.Info("post created", "postId", id, "creator", string(caller), "tribeId", tribeID)
	return p, nil
}

// CreateReply implements create_reply: inherits tribe of parent.
func (e *Engine) CreateReply(caller Address, parentPostID uint64, metadata string, ptype PostType) (*Post, error) {
	if err := e.checkPaused(); err != nil {
		return nil, err
	}
	if metadata == "" {
		return nil, errs.EmptyMetadata
	}
	parent, ok, err := getPost(e.db, parentPostID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.InvalidParentPost
	}
	if parent.IsDeleted() {
		return nil, errs.PostDeleted
	}
	if !e.tribes.IsActiveMember(parent.TribeID, caller) {
		return nil, errs.NotTribeMember
	}
	if ptype == "" {
		ptype = TypeText
	}
	if err := e.checkCooldown(caller, ptype); err != nil {
		return nil, err
	}

	id, err := nextPostID(e.db)
	if err != nil {
		return nil, err
	}
	now := e.now()
	parentID := parentPostID
	p := &Post{
		PostID:       id,
		Creator:      caller,
		TribeID:      parent.TribeID,
		Metadata:     metadata,
		PostType:     ptype,
		ParentPostID: &parentID,
		CreatedAt:    now,
	}
	if err := putPost(e.db, p); err != nil {
		return nil, err
	}
	if err := setLastPostAt(e.db, caller, ptype, now); err != nil {
		return nil, err
	}
	if err := addReply(e.db, parentPostID, id); err != nil {
		return nil, err
	}
	e.log.Info("reply created", "postId", id, "parentPostId", parentPostID, "creator", string(caller))
	return p, nil
}

// GetPostReplies implements get_post_replies: the ordered list of reply
// post ids created against parentPostID, maintained incrementally by
// CreateReply rather than scanned for on each query.
func (e *Engine) GetPostReplies(parentPostID uint64) ([]uint64, error) {
	return getReplies(e.db, parentPostID)
}

// CreateEncryptedPost implements create_encrypted_post.
func (e *Engine) CreateEncryptedPost(caller Address, tribeID uint64, metadata, encryptionKeyHash string, accessSigner Address) (*Post, error) {
	if err := e.checkPaused(); err != nil {
		return nil, err
	}
	if metadata == "" {
		return nil, errs.EmptyMetadata
	}
	if encryptionKeyHash == "" {
		return nil, errs.InvalidEncryptionKey
	}
	if !e.tribes.IsActiveMember(tribeID, caller) {
		return nil, errs.NotTribeMember
	}
	ptype := TypeText
	if err := e.checkCooldown(caller, ptype); err != nil {
		return nil, err
	}

	id, err := nextPostID(e.db)
	if err != nil {
		return nil, err
	}
	now := e.now()
	p := &Post{
		PostID:            id,
		Creator:           caller,
		TribeID:           tribeID,
		Metadata:          metadata,
		PostType:          ptype,
		IsEncrypted:       true,
		EncryptionKeyHash: encryptionKeyHash,
		AccessSigner:      accessSigner,
		CreatedAt:         now,
	}
	if err := putPost(e.db, p); err != nil {
		return nil, err
	}
	if err := setLastPostAt(e.db, caller, ptype, now); err != nil {
		return nil, err
	}
	e.log.Info("encrypted post created", "postId", id, "creator", string(caller))
	return p, nil
}

// CreateSignatureGatedPost implements create_signature_gated_post: an
// encrypted post whose decryption additionally requires the viewer to
// own collectibleID of collectibleContract, combining the encrypted and
// gated authorization paths CanViewPost otherwise treats separately.
func (e *Engine) CreateSignatureGatedPost(caller Address, tribeID uint64, metadata, encryptionKeyHash string, accessSigner Address, collectibleContract string, collectibleID uint64) (*Post, error) {
	if err := e.checkPaused(); err != nil {
		return nil, err
	}
	if !e.tribes.IsActiveMember(tribeID, caller) {
		return nil, errs.NotTribeMember
	}
	if metadata == "" {
		return nil, errs.EmptyMetadata
	}
	if encryptionKeyHash == "" {
		return nil, errs.InvalidEncryptionKey
	}
	ptype := TypeText
	if err := e.checkCooldown(caller, ptype); err != nil {
		return nil, err
	}

	id, err := nextPostID(e.db)
	if err != nil {
		return nil, err
	}
	now := e.now()
	p := &Post{
		PostID:              id,
		Creator:             caller,
		TribeID:             tribeID,
		Metadata:            metadata,
		PostType:            ptype,
		IsGated:             true,
		CollectibleContract: collectibleContract,
		CollectibleID:       collectibleID,
		IsEncrypted:         true,
		EncryptionKeyHash:   encryptionKeyHash,
		AccessSigner:        accessSigner,
		CreatedAt:           now,
	}
	if err := putPost(e.db, p); err != nil {
		return nil, err
	}
	if err := setLastPostAt(e.db, caller, ptype, now); err != nil {
		return nil, err
	}
	e.log.Info("signature gated post created", "postId", id, "creator", string(caller), "tribeId", tribeID)
	return p, nil
}

// SetTribeEncryptionKey implements set_tribe_encryption_key: restricted
// to the tribe's admin, who must also be a member of the tribe.
func (e *Engine) SetTribeEncryptionKey(caller Address, tribeID uint64, key string) error {
	if !e.tribes.IsAdmin(tribeID, caller) {
		return errs.Unauthorized
	}
	if !e.tribes.IsActiveMember(tribeID, caller) {
		return errs.NotTribeMember
	}
	return setTribeEncryptionKey(e.db, tribeID, key)
}

// GetTribeEncryptionKey returns the key set by SetTribeEncryptionKey, or
// "" if none has been set.
func (e *Engine) GetTribeEncryptionKey(tribeID uint64) (string, error) {
	return getTribeEncryptionKey(e.db, tribeID)
}

// CreateBatchPosts implements create_batch_posts: validate-then-commit so
// the whole batch aborts atomically if any item fails, the way
// tribe.ExecuteTribeMerge stages mutations before applying them.
func (e *Engine) CreateBatchPosts(caller Address, items []BatchPostItem) ([]*Post, error) {
	if err := e.checkPaused(); err != nil {
		return nil, err
	}
	if uint32(len(items)) > e.batchSize {
		return nil, errs.BatchTooLarge
	}
	lastBatch, err := getLastBatchAt(e.db, caller)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if lastBatch != 0 && now-lastBatch < e.batchCooldown {
		return nil, errs.BatchOnCooldown
	}

	nextCooldownByType := map[PostType]int64{}

	// validate every item against a read-only view before mutating anything
	for _, item := range items {
		if item.Metadata == "" {
			return nil, errs.EmptyMetadata
		}
		if !e.tribes.IsActiveMember(item.TribeID, caller) {
			return nil, errs.NotTribeMember
		}
		ptype := item.PostType
		if ptype == "" {
			ptype = TypeText
		}
		last, err := getLastPostAt(e.db, caller, ptype)
		if err != nil {
			return nil, err
		}
		if override, ok := nextCooldownByType[ptype]; ok {
			last = override
		}
		cd := e.cfgCooldowns[ptype]
		if last != 0 && now-last < cd {
			return nil, errs.OnCooldown
		}
		nextCooldownByType[ptype] = now
	}

	// all items validated; allocate ids and commit
	posts := make([]*Post, 0, len(items))
	for _, item := range items {
		ptype := item.PostType
		if ptype == "" {
			ptype = TypeText
		}
		id, err := nextPostID(e.db)
		if err != nil {
			return nil, err
		}
		p := &Post{
			PostID:    id,
			Creator:   caller,
			TribeID:   item.TribeID,
			Metadata:  item.Metadata,
			PostType:  ptype,
			CreatedAt: now,
		}
		if err := putPost(e.db, p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	for ptype, ts := range nextCooldownByType {
		if err := setLastPostAt(e.db, caller, ptype, ts); err != nil {
			return nil, err
		}
	}
	if err := setLastBatchAt(e.db, caller, now); err != nil {
		return nil, err
	}
	e.log.Info("batch posts created", "creator", string(caller), "count", len(posts))
	return posts, nil
}

// InteractWithPost implements interact_with_post: LIKE/DISLIKE are
// mutually exclusive, every (post, actor, type) is idempotent.
func (e *Engine) InteractWithPost(caller Address, postID uint64, kind InteractionType) error {
	if err := e.checkPaused(); err != nil {
		return err
	}
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if p.IsDeleted() {
		return errs.PostDeleted
	}
	if p.Creator == caller {
		return errs.CannotInteractWithOwn
	}

	already, err := getInteraction(e.db, postID, caller, kind)
	if err != nil {
		return err
	}
	if already {
		return nil
	}
	if kind == Like || kind == Dislike {
		opposite := Dislike
		if kind == Dislike {
			opposite = Like
		}
		has, err := getInteraction(e.db, postID, caller, opposite)
		if err != nil {
			return err
		}
		if has {
			if err := setInteraction(e.db, postID, caller, opposite, false); err != nil {
				return err
			}
		}
	}
	if err := setInteraction(e.db, postID, caller, kind, true); err != nil {
		return err
	}
	e.log.Info("post interaction recorded", "postId", postID, "actor", string(caller), "kind", string(kind))
	return nil
}

// ReportPost implements report_post: idempotent per (post, actor).
func (e *Engine) ReportPost(caller Address, postID uint64, reason string) error {
	if err := e.checkPaused(); err != nil {
		return err
	}
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if p.IsDeleted() {
		return errs.PostDeleted
	}
	reported, err := getReported(e.db, postID, caller)
	if err != nil {
		return err
	}
	if reported {
		return errs.AlreadyReported
	}
	if err := setReported(e.db, postID, caller); err != nil {
		return err
	}
	e.log.Info("post reported", "postId", postID, "actor", string(caller), "reason", reason)
	return nil
}

// AuthorizeViewer implements authorize_viewer: creator-only, encrypted
// posts only.
func (e *Engine) AuthorizeViewer(caller Address, postID uint64, viewer Address) error {
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if p.Creator != caller {
		return errs.NotPostCreator
	}
	if !p.IsEncrypted {
		return errs.Unauthorized
	}
	viewers, err := getAuthorizedViewers(e.db, postID)
	if err != nil {
		return err
	}
	viewers, added := state.AppendUnique(viewers, viewer)
	if !added {
		return nil
	}
	return setAuthorizedViewers(e.db, postID, viewers)
}

// DeletePost implements delete_post: creator-only tombstone.
func (e *Engine) DeletePost(caller Address, postID uint64) error {
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if p.Creator != caller {
		return errs.NotPostCreator
	}
	if p.IsDeleted() {
		return errs.PostDeleted
	}
	p.DeletedAt = e.now()
	return putPost(e.db, p)
}

// UpdatePost implements update_post: creator-only, metadata non-empty.
func (e *Engine) UpdatePost(caller Address, postID uint64, metadata string) error {
	if metadata == "" {
		return errs.EmptyMetadata
	}
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound
	}
	if p.Creator != caller {
		return errs.NotPostCreator
	}
	if p.IsDeleted() {
		return errs.PostDeleted
	}
	p.Metadata = metadata
	return putPost(e.db, p)
}

// CanViewPost implements can_view_post's union of authorization rules.
func (e *Engine) CanViewPost(postID uint64, viewer Address, signature []byte) (bool, error) {
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return false, err
	}
	if !ok || p.IsDeleted() {
		return false, nil
	}

	if p.IsEncrypted {
		if viewer == p.Creator {
			return true, nil
		}
		viewers, err := getAuthorizedViewers(e.db, postID)
		if err != nil {
			return false, err
		}
		for _, v := range viewers {
			if v == viewer {
				return true, nil
			}
		}
		if p.AccessSigner != "" && len(signature) > 0 && e.sigs != nil {
			ok, err := e.sigs.Verify(p.AccessSigner, accessMessage(postID, viewer), signature)
			if err != nil {
				return false, err
			}
			return ok, nil
		}
		return false, nil
	}

	if p.IsGated {
		owned, err := e.nfts.OwnsSpecific(p.CollectibleContract, viewer, p.CollectibleID)
		if err != nil {
			return false, err
		}
		if owned == 0 {
			return false, nil
		}
		return e.tribes.IsActiveMember(p.TribeID, viewer), nil
	}

	return e.tribes.IsActiveMember(p.TribeID, viewer), nil
}

// GetPostDecryptionKey implements get_post_decryption_key: total, never
// errors.
func (e *Engine) GetPostDecryptionKey(postID uint64, viewer Address, signature []byte) string {
	can, err := e.CanViewPost(postID, viewer, signature)
	if err != nil || !can {
		return ""
	}
	p, ok, err := getPost(e.db, postID)
	if err != nil || !ok {
		return ""
	}
	return p.EncryptionKeyHash
}

// GetPost returns the raw record including tombstoned posts.
func (e *Engine) GetPost(postID uint64) (*Post, error) {
	p, ok, err := getPost(e.db, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound
	}
	return p, nil
}

// GetPostsByTribe paginates non-deleted posts belonging to tribeID, in
// creation order, returning both the page and the total match count.
func (e *Engine) GetPostsByTribe(tribeID uint64, offset, limit uint64) ([]uint64, uint64, error) {
	return e.paginatePosts(offset, limit, func(p *Post) bool {
		return p.TribeID == tribeID
	})
}

// GetPostsByUser paginates non-deleted posts created by user.
func (e *Engine) GetPostsByUser(user Address, offset, limit uint64) ([]uint64, uint64, error) {
	return e.paginatePosts(offset, limit, func(p *Post) bool {
		return p.Creator == user
	})
}

// GetPostsByTribeAndUser paginates non-deleted posts matching both
// tribeID and user.
func (e *Engine) GetPostsByTribeAndUser(tribeID uint64, user Address, offset, limit uint64) ([]uint64, uint64, error) {
	return e.paginatePosts(offset, limit, func(p *Post) bool {
		return p.TribeID == tribeID && p.Creator == user
	})
}

// GetFeedForUser paginates non-deleted posts from every tribe user is an
// active member of. A simplified feed, mirroring the original's
// simplified approach rather than a ranked algorithm.
func (e *Engine) GetFeedForUser(user Address, offset, limit uint64) ([]uint64, uint64, error) {
	return e.paginatePosts(offset, limit, func(p *Post) bool {
		return e.tribes.IsActiveMember(p.TribeID, user)
	})
}

// paginatePosts scans every post id in creation order, keeping those
// that satisfy match, and returns the offset/limit window over the
// matches plus the total match count. O(next post id), same inefficient
// full scan the original contract documents as a simplification.
func (e *Engine) paginatePosts(offset, limit uint64, match func(*Post) bool) ([]uint64, uint64, error) {
	next, err := peekNextPostID(e.db)
	if err != nil {
		return nil, 0, err
	}
	var matching []uint64
	var total uint64
	for id := uint64(1); id < next; id++ {
		p, ok, err := getPost(e.db, id)
		if err != nil {
			return nil, 0, err
		}
		if !ok || p.IsDeleted() || !match(p) {
			continue
		}
		if total >= offset && total-offset < limit {
			matching = append(matching, id)
		}
		total++
	}
	return matching, total, nil
}

// SetPostTypeCooldown implements the admin surface's per-type cooldown
// update, gated by RATE_LIMIT_MANAGER.
func (e *Engine) SetPostTypeCooldown(caller Address, ptype PostType, cooldownSeconds int64) error {
	if err := e.requireRateLimitManager(caller); err != nil {
		return err
	}
	if e.cfgCooldowns == nil {
		e.cfgCooldowns = map[PostType]int64{}
	}
	e.cfgCooldowns[ptype] = cooldownSeconds
	return nil
}

// SetBatchPostingLimits implements the admin surface's batch limit update.
func (e *Engine) SetBatchPostingLimits(caller Address, maxBatchSize uint32, batchCooldownSeconds int64) error {
	if err := e.requireRateLimitManager(caller); err != nil {
		return err
	}
	e.batchSize = maxBatchSize
	e.batchCooldown = batchCooldownSeconds
	return nil
}

// Pause implements the admin surface's pause.
func (e *Engine) Pause(caller Address) error {
	if err := e.requireRateLimitManager(caller); err != nil {
		return err
	}
	return setPaused(e.db, true)
}

// Unpause implements the admin surface's unpause.
func (e *Engine) Unpause(caller Address) error {
	if err := e.requireRateLimitManager(caller); err != nil {
		return err
	}
	return setPaused(e.db, false)
}

func (e *Engine) requireRateLimitManager(caller Address) error {
	ok, err := e.roles.HasRole(RateLimitManagerRole, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotRateLimitManager
	}
	return nil
}

func accessMessage(postID uint64, viewer Address) []byte {
	return state.Key("post_access", postIDString(postID), string(viewer))
}
