// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types holds the identifiers shared across every socialvm
// module, so rolemgr, tribe, post, and profilenft agree on caller
// identity without importing one another.
package types

// Address is an opaque, externally authenticated caller identifier.
// spec.md §1 treats signing and address derivation as a host concern;
// the core only ever compares addresses for equality and set membership.
type Address string
