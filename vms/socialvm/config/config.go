// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds socialvm genesis/runtime configuration, parsed the
// way vms/kmsvm/config does: a flat JSON-tagged struct with a
// DefaultConfig constructor and a Validate pass.
package config

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrInvalidCooldown  = errors.New("invalid post type cooldown configuration")
	ErrInvalidBatchSize = errors.New("invalid batch posting configuration")
)

// Config holds instantiation-time defaults for the socialvm modules.
// PostTypeCooldown is keyed by the post module's PostType string
// representation rather than a shared Go type, so config stays
// dependency-free the way vms/kmsvm/config avoids importing the VM.
type Config struct {
	// DefaultAdminRole is granted to the instantiator address at genesis.
	DefaultAdminRole string `json:"defaultAdminRole"`

	// PostTypeCooldown maps a post type name to its minimum re-post interval.
	PostTypeCooldown map[string]time.Duration `json:"postTypeCooldown"`

	// MaxBatchSize is the maximum number of posts per create_batch_posts call.
	MaxBatchSize uint32 `json:"maxBatchSize"`
	// BatchCooldown is the minimum interval between batch submissions per creator.
	BatchCooldown time.Duration `json:"batchCooldown"`
}

// DefaultConfig returns the defaults named in spec.md §6: TEXT cooldown of
// 60s, other types implementation-defined, batch limits of 10/300s.
func DefaultConfig() Config {
	return Config{
		DefaultAdminRole: "DEFAULT_ADMIN_ROLE",
		PostTypeCooldown: map[string]time.Duration{
			"TEXT":  60 * time.Second,
			"IMAGE": 90 * time.Second,
			"VIDEO": 180 * time.Second,
			"LINK":  60 * time.Second,
			"POLL":  300 * time.Second,
		},
		MaxBatchSize:  10,
		BatchCooldown: 300 * time.Second,
	}
}

// ParseConfig parses configBytes, falling back to DefaultConfig when empty,
// grounded on vms/kmsvm/config.ParseConfig.
func ParseConfig(configBytes []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(configBytes) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(configBytes, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MaxBatchSize == 0 {
		return ErrInvalidBatchSize
	}
	if c.BatchCooldown < 0 {
		return ErrInvalidBatchSize
	}
	for _, d := range c.PostTypeCooldown {
		if d < 0 {
			return ErrInvalidCooldown
		}
	}
	return nil
}
