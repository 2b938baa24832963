// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package socialvm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/luxfi/consensus/engine/chain/block"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

var _ block.ChainVM = (*ChainVM)(nil)

var (
	genesisBlockID      = ids.ID{}
	errVMNotInitialized = errors.New("socialvm ChainVM not initialized")
	errBlockNotFound    = errors.New("socialvm block not found")
)

// ChainVM wraps the functional socialvm VM to implement block.ChainVM, the
// way vms/dexvm.ChainVM wraps vms/dexvm.VM: every RPC call mutates and
// commits state synchronously through the inner VM, and each block here
// is just a timestamped receipt of the batch of calls that ran since the
// previous one, not a replayable transaction log.
type ChainVM struct {
	inner *VM
	log   log.Logger

	lock sync.RWMutex

	blocks map[ids.ID]*Block

	lastAcceptedID     ids.ID
	lastAcceptedHeight uint64
	preferredID        ids.ID

	pendingReceipts [][]byte

	initialized bool
}

func NewChainVM(logger log.Logger) *ChainVM {
	return &ChainVM{
		inner:  &VM{},
		log:    logger,
		blocks: make(map[ids.ID]*Block),
	}
}

func (vm *ChainVM) Initialize(
	ctx context.Context,
	consensusCtx interface{},
	db database.Database,
	genesisBytes []byte,
	upgradeBytes []byte,
	configBytes []byte,
	msgChan interface{},
	fxs []interface{},
	appSender interface{},
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.inner.Initialize(ctx, consensusCtx, db, genesisBytes, upgradeBytes, configBytes, msgChan, fxs, appSender); err != nil {
		return err
	}
	vm.inner.log = vm.log

	genesisBlock := &Block{
		vm:        vm,
		id:        genesisBlockID,
		parentID:  ids.Empty,
		height:    0,
		timestamp: time.Unix(0, 0),
		status:    StatusAccepted,
	}
	vm.blocks[genesisBlockID] = genesisBlock
	vm.lastAcceptedID = genesisBlockID
	vm.preferredID = genesisBlockID
	vm.initialized = true

	if vm.log != nil {
		vm.log.Info("socialvm ChainVM initialized", "genesisID", genesisBlockID)
	}
	return nil
}

func (vm *ChainVM) SetState(ctx context.Context, state uint32) error {
	return vm.inner.SetState(ctx, state)
}

func (vm *ChainVM) Shutdown(ctx context.Context) error {
	return vm.inner.Shutdown(ctx)
}

func (vm *ChainVM) Version(ctx context.Context) (string, error) {
	return vm.inner.Version(ctx)
}

func (vm *ChainVM) CreateHandlers(ctx context.Context) (map[string]http.Handler, error) {
	return vm.inner.CreateHandlers(ctx)
}

func (vm *ChainVM) HealthCheck(ctx context.Context) (interface{}, error) {
	return vm.inner.HealthCheck(ctx)
}

// SubmitTx queues an opaque receipt (an audit record of an already-applied
// RPC call) for inclusion in the next built block.
func (vm *ChainVM) SubmitTx(receipt []byte) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	vm.pendingReceipts = append(vm.pendingReceipts, receipt)
	return nil
}

func (vm *ChainVM) BuildBlock(ctx context.Context) (block.Block, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if !vm.initialized {
		return nil, errVMNotInitialized
	}

	parent, ok := vm.blocks[vm.preferredID]
	if !ok {
		return nil, fmt.Errorf("preferred block not found: %s", vm.preferredID)
	}

	newHeight := parent.height + 1
	newTimestamp := time.Now()

	var payload []byte
	for _, r := range vm.pendingReceipts {
		payload = append(payload, r...)
	}

	idBytes := make([]byte, 16)
	binary.BigEndian.PutUint64(idBytes[0:8], newHeight)
	binary.BigEndian.PutUint64(idBytes[8:16], uint64(newTimestamp.UnixNano()))
	hash := sha256.Sum256(idBytes)
	var newID ids.ID
	copy(newID[:], hash[:])

	b := &Block{
		vm:        vm,
		id:        newID,
		parentID:  vm.preferredID,
		height:    newHeight,
		timestamp: newTimestamp,
		payload:   payload,
		status:    StatusUnknown,
	}
	vm.pendingReceipts = nil
	vm.blocks[newID] = b

	if vm.log != nil {
		vm.log.Debug("built socialvm block", "id", newID, "height", newHeight)
	}
	return b, nil
}

func (vm *ChainVM) ParseBlock(ctx context.Context, data []byte) (block.Block, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	b, err := parseBlock(vm, data)
	if err != nil {
		return nil, err
	}
	if existing, ok := vm.blocks[b.id]; ok {
		return existing, nil
	}
	vm.blocks[b.id] = b
	return b, nil
}

func (vm *ChainVM) GetBlock(ctx context.Context, blkID ids.ID) (block.Block, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()
	b, ok := vm.blocks[blkID]
	if !ok {
		return nil, errBlockNotFound
	}
	return b, nil
}

func (vm *ChainVM) SetPreference(ctx context.Context, blkID ids.ID) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	if _, ok := vm.blocks[blkID]; !ok {
		return fmt.Errorf("block not found: %s", blkID)
	}
	vm.preferredID = blkID
	return nil
}

func (vm *ChainVM) LastAccepted(ctx context.Context) (ids.ID, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()
	return vm.lastAcceptedID, nil
}

func (vm *ChainVM) GetBlockIDAtHeight(ctx context.Context, height uint64) (ids.ID, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()
	for id, b := range vm.blocks {
		if b.height == height && b.status == StatusAccepted {
			return id, nil
		}
	}
	return ids.Empty, errBlockNotFound
}

// WaitForEvent blocks until the context is cancelled; block production in
// socialvm is driven by SubmitTx rather than a timed ticker.
func (vm *ChainVM) WaitForEvent(ctx context.Context) (interface{}, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (vm *ChainVM) GetInnerVM() *VM {
	return vm.inner
}
