// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package post

import (
	"fmt"

	"github.com/luxfi/database"

	"github.com/luxfi/vm/vms/socialvm/state"
)

const (
	prefixPost        = "post"
	prefixInteraction = "post_interaction"
	prefixReport      = "post_report"
	prefixViewer      = "post_viewer"
	prefixCooldown    = "post_cooldown"
	prefixBatchTime   = "post_batch_cooldown"
	prefixPaused      = "post_paused"
	prefixTribeKey    = "post_tribe_encryption_key"
	prefixReplyIndex  = "post_replies" // parent post id -> ordered []uint64 reply ids
	counterKeyString  = "post_counter"
)

func postIDString(id uint64) string { return fmt.Sprintf("%d", id) }

func postKey(id uint64) []byte {
	return state.Key(prefixPost, postIDString(id))
}

func interactionKey(postID uint64, actor Address, kind InteractionType) []byte {
	return state.Key(prefixInteraction, postIDString(postID), string(actor), string(kind))
}

func reportKey(postID uint64, actor Address) []byte {
	return state.Key(prefixReport, postIDString(postID), string(actor))
}

func viewerKey(postID uint64) []byte {
	return state.Key(prefixViewer, postIDString(postID))
}

func cooldownKey(creator Address, postType PostType) []byte {
	return state.Key(prefixCooldown, string(creator), string(postType))
}

func batchCooldownKey(creator Address) []byte {
	return state.Key(prefixBatchTime, string(creator))
}

func tribeEncryptionKeyKey(tribeID uint64) []byte {
	return state.Key(prefixTribeKey, postIDString(tribeID))
}

func replyIndexKey(parentPostID uint64) []byte {
	return state.Key(prefixReplyIndex, postIDString(parentPostID))
}

func nextPostID(db database.Database) (uint64, error) {
	return state.NextCounter(db, []byte(counterKeyString))
}

// peekNextPostID returns one past the highest post id ever allocated,
// without allocating a new one, bounding the pagination scan's range.
func peekNextPostID(db database.Database) (uint64, error) {
	cur, err := state.PeekCounter(db, []byte(counterKeyString))
	if err != nil {
		return 0, err
	}
	return cur + 1, nil
}

func getPost(db database.Database, id uint64) (*Post, bool, error) {
	var p Post
	ok, err := state.GetJSON(db, postKey(id), &p)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &p, true, nil
}

func putPost(db database.Database, p *Post) error {
	return state.PutJSON(db, postKey(p.PostID), p)
}

func getInteraction(db database.Database, postID uint64, actor Address, kind InteractionType) (bool, error) {
	return state.Has(db, interactionKey(postID, actor, kind))
}

func setInteraction(db database.Database, postID uint64, actor Address, kind InteractionType, on bool) error {
	if !on {
		return db.Delete(interactionKey(postID, actor, kind))
	}
	return state.PutBool(db, interactionKey(postID, actor, kind), true)
}

func getReported(db database.Database, postID uint64, actor Address) (bool, error) {
	return state.Has(db, reportKey(postID, actor))
}

func setReported(db database.Database, postID uint64, actor Address) error {
	return state.PutBool(db, reportKey(postID, actor), true)
}

func getAuthorizedViewers(db database.Database, postID uint64) ([]Address, error) {
	var viewers []Address
	_, err := state.GetJSON(db, viewerKey(postID), &viewers)
	return viewers, err
}

func setAuthorizedViewers(db database.Database, postID uint64, viewers []Address) error {
	return state.PutJSON(db, viewerKey(postID), viewers)
}

func getLastPostAt(db database.Database, creator Address, postType PostType) (int64, error) {
	var ts int64
	ok, err := state.GetJSON(db, cooldownKey(creator, postType), &ts)
	if err != nil || !ok {
		return 0, err
	}
	return ts, nil
}

func setLastPostAt(db database.Database, creator Address, postType PostType, ts int64) error {
	return state.PutJSON(db, cooldownKey(creator, postType), ts)
}

func getLastBatchAt(db database.Database, creator Address) (int64, error) {
	var ts int64
	ok, err := state.GetJSON(db, batchCooldownKey(creator), &ts)
	if err != nil || !ok {
		return 0, err
	}
	return ts, nil
}

func setLastBatchAt(db database.Database, creator Address, ts int64) error {
	return state.PutJSON(db, batchCooldownKey(creator), ts)
}

func getTribeEncryptionKey(db database.Database, tribeID uint64) (string, error) {
	var key string
	_, err := state.GetJSON(db, tribeEncryptionKeyKey(tribeID), &key)
	return key, err
}

func setTribeEncryptionKey(db database.Database, tribeID uint64, key string) error {
	return state.PutJSON(db, tribeEncryptionKeyKey(tribeID), key)
}

func getReplies(db database.Database, parentPostID uint64) ([]uint64, error) {
	var ids []uint64
	_, err := state.GetJSON(db, replyIndexKey(parentPostID), &ids)
	return ids, err
}

func addReply(db database.Database, parentPostID, replyID uint64) error {
	ids, err := getReplies(db, parentPostID)
	if err != nil {
		return err
	}
	ids = append(ids, replyID)
	return state.PutJSON(db, replyIndexKey(parentPostID), ids)
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
