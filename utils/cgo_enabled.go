// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build cgo

package utils

// CGOEnabled indicates whether CGO is available.
// This file is only compiled when CGO is enabled.
const CGOEnabled = true
