// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package socialvm implements the social-graph authorization plugin: role
// management, tribe membership, post authorship, and profile identity
// NFTs, deployable as a Lux subnet VM. All on-chain state transitions are
// deterministic and block-driven, grounded on vms/dexvm's functional
// VM / ChainVM split.
package socialvm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/rpc/v2"
	consensusctx "github.com/luxfi/consensus/context"
	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/luxfi/utils/json"

	socialapi "github.com/luxfi/vm/vms/socialvm/api"
	"github.com/luxfi/vm/vms/socialvm/config"
	"github.com/luxfi/vm/vms/socialvm/genesis"
	socialmetrics "github.com/luxfi/vm/vms/socialvm/metrics"
	"github.com/luxfi/vm/vms/socialvm/post"
	"github.com/luxfi/vm/vms/socialvm/profilenft"
	"github.com/luxfi/vm/vms/socialvm/rolemgr"
	"github.com/luxfi/vm/vms/socialvm/tribe"
	"github.com/luxfi/vm/vms/socialvm/types"
)

type Address = types.Address

// VM is the functional socialvm engine set: four independent state
// machines sharing one versioned database snapshot, the way
// vms/dexvm.VM holds its orderbook/liquidity/perpetuals engines.
type VM struct {
	log    log.Logger
	lock   sync.RWMutex
	config config.Config

	baseDB database.Database
	db     *versiondb.Database

	roles    *rolemgr.Engine
	profiles *profilenft.Engine
	tribes   *tribe.Engine
	posts    *post.Engine

	registerer metric.Registerer
	metrics    *socialmetrics.Metrics

	bootstrapped  bool
	isInitialized bool
	shutdown      bool
}

// Initialize sets up the VM over db using genesisBytes/configBytes, the
// way vms/dexvm.VM.Initialize parses genesis/config and wires its
// component engines.
func (vm *VM) Initialize(
	ctx context.Context,
	consensusCtx interface{},
	db database.Database,
	genesisBytes []byte,
	_ []byte,
	configBytes []byte,
	_ interface{},
	_ interface{},
	_ interface{},
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if cc, ok := consensusCtx.(*consensusctx.Context); ok {
		if logger, ok := cc.Log.(log.Logger); ok {
			vm.log = logger
		}
	}
	if vm.log == nil {
		vm.log = log.NoLog{}
	}

	vm.baseDB = db
	vm.db = versiondb.New(db)

	g, err := genesis.Parse(genesisBytes)
	if err != nil {
		return fmt.Errorf("failed to parse socialvm genesis: %w", err)
	}
	vm.config = g.Config
	if len(configBytes) > 0 {
		cfg, err := config.ParseConfig(configBytes)
		if err != nil {
			return fmt.Errorf("failed to parse socialvm config: %w", err)
		}
		vm.config = cfg
	}

	now := func() int64 { return time.Now().Unix() }

	vm.registerer = metric.NewRegistry()
	if cc, ok := consensusCtx.(*consensusctx.Context); ok {
		if metricsReg, ok := cc.Metrics.(interface {
			Register(string, interface{}) error
		}); ok {
			if err := metricsReg.Register("socialvm", vm.registerer); err != nil {
				return err
			}
		}
	}
	vm.metrics, err = socialmetrics.New(vm.registerer)
	if err != nil {
		return fmt.Errorf("failed to initialize socialvm metrics: %w", err)
	}

	vm.roles = rolemgr.New(vm.db, vm.log)
	vm.profiles = profilenft.New(vm.db, vm.log, vm.roles, now)
	oracle := newNFTOracle(vm.profiles)
	vm.tribes = tribe.New(vm.db, vm.log, oracle, now)
	vm.posts = post.New(vm.db, vm.log, vm.tribes, oracle, vm.roles, post.NewECDSAVerifier(), now,
		postCooldowns(vm.config), vm.config.MaxBatchSize, int64(vm.config.BatchCooldown.Seconds()))

	if err := vm.roles.GrantInstantiator(typesAddress(g.Instantiator)); err != nil {
		return fmt.Errorf("failed to grant instantiator role: %w", err)
	}
	if err := vm.db.Commit(); err != nil {
		return err
	}

	vm.isInitialized = true
	vm.log.Info("socialvm initialized", "instantiator", g.Instantiator)
	return nil
}

func postCooldowns(cfg config.Config) map[post.PostType]int64 {
	out := make(map[post.PostType]int64, len(cfg.PostTypeCooldown))
	for k, v := range cfg.PostTypeCooldown {
		out[post.PostType(k)] = int64(v.Seconds())
	}
	return out
}

func typesAddress(s string) Address { return Address(s) }

// SetState implements the VM lifecycle's bootstrap/ready transition.
func (vm *VM) SetState(_ context.Context, state uint32) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	// 0 = Bootstrapping, 1 = Ready, matching consensuscore.State's
	// enumeration order used throughout the pack's ChainVM wrappers.
	vm.bootstrapped = state == 1
	return nil
}

// Shutdown closes the underlying database, committing nothing further.
func (vm *VM) Shutdown(context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	vm.shutdown = true
	if vm.baseDB != nil {
		return vm.baseDB.Close()
	}
	return nil
}

// Version reports the socialvm plugin version.
func (*VM) Version(context.Context) (string, error) {
	return "1.0.0", nil
}

// CreateHandlers registers the JSON-RPC service, grounded on
// vms/dexvm.VM.CreateHandlers / vms/example/xsvm.VM.CreateHandlers's
// gorilla/rpc wiring.
func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	service := socialapi.NewService(vm.roles, vm.profiles, vm.tribes, vm.posts, vm.metrics)
	if err := server.RegisterService(service, "social"); err != nil {
		return nil, fmt.Errorf("failed to register social service: %w", err)
	}
	return map[string]http.Handler{"": server}, nil
}

// HealthCheck reports liveness and basic state size, grounded on
// vms/dexvm.VM.HealthCheck.
func (vm *VM) HealthCheck(context.Context) (interface{}, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()
	return map[string]interface{}{
		"healthy":      vm.isInitialized && !vm.shutdown,
		"bootstrapped": vm.bootstrapped,
	}, nil
}

// Commit flushes all pending mutations made by one execute call. The
// ChainVM wrapper calls this once per accepted block, the way
// vms/dexvm's Block.Accept commits vm.inner.db.
func (vm *VM) Commit() error {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	return vm.db.Commit()
}

// Abort discards pending mutations without persisting them.
func (vm *VM) Abort() {
	vm.lock.Lock()
	defer vm.lock.Unlock()
	vm.db.Abort()
}
