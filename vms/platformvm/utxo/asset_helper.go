// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utxo

import "github.com/luxfi/ids"

// XAssetID is the LUX asset ID
// TODO: This should be properly initialized from the context
var XAssetID ids.ID
