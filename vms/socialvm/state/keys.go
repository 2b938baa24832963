// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides the shared key-value helpers used by every
// socialvm engine package, grounded on vms/dexvm/state/state.go's
// prefix-byte-key convention over github.com/luxfi/database.
package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/database"
)

var ErrDecodeFailed = errors.New("failed to decode stored record")

// Key joins a logical prefix with one or more string parts using ':', the
// layout spec.md §6 documents (e.g. "role:<role>:<addr>").
func Key(prefix string, parts ...string) []byte {
	k := prefix
	for _, p := range parts {
		k += ":" + p
	}
	return []byte(k)
}

// PutJSON encodes v as JSON and stores it under key.
func PutJSON(db database.Database, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return db.Put(key, data)
}

// GetJSON loads and decodes the record stored under key into v. It returns
// (false, nil) when the key is absent, matching the "absence is the NONE
// state" convention used throughout spec.md's data model.
func GetJSON(db database.Database, key []byte, v interface{}) (bool, error) {
	data, err := db.Get(key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, key, err)
	}
	return true, nil
}

// Has reports whether key is present without decoding its value.
func Has(db database.Database, key []byte) (bool, error) {
	ok, err := db.Has(key)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// NextCounter loads the uint64 stored at key, increments it, persists the
// new value, and returns the incremented (non-zero) value. This is the
// single allocation point for tribe_id/post_id/token_counter, kept
// monotonic and never reused per spec.md §3.
func NextCounter(db database.Database, key []byte) (uint64, error) {
	data, err := db.Get(key)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return 0, err
	}
	var cur uint64
	if len(data) == 8 {
		cur = binary.BigEndian.Uint64(data)
	}
	next := cur + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := db.Put(key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// PeekCounter reads the uint64 stored at key without incrementing it,
// returning 0 for a counter that has never been allocated.
func PeekCounter(db database.Database, key []byte) (uint64, error) {
	data, err := db.Get(key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutBool stores a tombstone-style boolean flag.
func PutBool(db database.Database, key []byte, v bool) error {
	if !v {
		return db.Delete(key)
	}
	return db.Put(key, []byte{1})
}

// GetBool reads a boolean flag; absence means false.
func GetBool(db database.Database, key []byte) (bool, error) {
	data, err := db.Get(key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(data) > 0 && data[0] == 1, nil
}

// AppendUnique appends v to list unless already present, reporting
// whether the append happened.
func AppendUnique[T comparable](list []T, v T) ([]T, bool) {
	for _, x := range list {
		if x == v {
			return list, false
		}
	}
	return append(list, v), true
}

// RemoveValue removes the first occurrence of v from list, reporting
// whether a removal happened.
func RemoveValue[T comparable](list []T, v T) ([]T, bool) {
	for i, x := range list {
		if x == v {
			out := make([]T, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, true
		}
	}
	return list, false
}
