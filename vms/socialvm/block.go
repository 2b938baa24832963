// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package socialvm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/luxfi/consensus/engine/chain/block"
	"github.com/luxfi/ids"
)

var _ block.Block = (*Block)(nil)

var errInvalidBlock = errors.New("invalid socialvm block")

// Block wraps one batch of already-executed RPC calls. Ordering and
// fork-choice are the consensus engine's concern (spec.md §1 names "the
// wire codec and the CLI/RPC dispatcher" as host collaborators, not this
// module); Verify is a no-op because every mutation already ran and
// committed synchronously inside the RPC handler that produced this
// block, the way vms/dexvm's Block.Verify replays ProcessBlock but with
// the replay already done ahead of time here.
type Block struct {
	vm *ChainVM

	id        ids.ID
	parentID  ids.ID
	height    uint64
	timestamp time.Time
	payload   []byte

	status Status
}

type Status uint8

const (
	StatusUnknown Status = iota
	StatusAccepted
	StatusRejected
)

func (b *Block) ID() ids.ID       { return b.id }
func (b *Block) Parent() ids.ID   { return b.parentID }
func (b *Block) ParentID() ids.ID { return b.parentID }
func (b *Block) Height() uint64   { return b.height }
func (b *Block) Timestamp() time.Time { return b.timestamp }

func (b *Block) Bytes() []byte {
	buf := make([]byte, 8+8+32+len(b.payload))
	binary.BigEndian.PutUint64(buf[0:8], b.height)
	binary.BigEndian.PutUint64(buf[8:16], uint64(b.timestamp.UnixNano()))
	copy(buf[16:48], b.parentID[:])
	copy(buf[48:], b.payload)
	return buf
}

func (b *Block) Verify(context.Context) error {
	return nil
}

func (b *Block) Accept(context.Context) error {
	b.status = StatusAccepted
	b.vm.lastAcceptedID = b.id
	b.vm.lastAcceptedHeight = b.height
	return b.vm.inner.Commit()
}

func (b *Block) Reject(context.Context) error {
	b.status = StatusRejected
	b.vm.inner.Abort()
	return nil
}

func (b *Block) Status() uint8 { return uint8(b.status) }

func parseBlock(vm *ChainVM, data []byte) (*Block, error) {
	if len(data) < 48 {
		return nil, errInvalidBlock
	}
	b := &Block{vm: vm, status: StatusUnknown}
	b.height = binary.BigEndian.Uint64(data[0:8])
	b.timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(data[8:16])))
	copy(b.parentID[:], data[16:48])
	b.payload = append([]byte(nil), data[48:]...)

	hash := sha256.Sum256(data)
	copy(b.id[:], hash[:])
	return b, nil
}
