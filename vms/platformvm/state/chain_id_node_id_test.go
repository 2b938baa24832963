// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepudds/fzgen/fuzzer"
)

func FuzzChainIDNodeIDMarshal(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		require := require.New(t)

		var v chainIDNodeID
		fz := fuzzer.NewFuzzer(data)
		fz.Fill(&v)

		marshalledData := v.Marshal()

		var parsed chainIDNodeID
		require.NoError(parsed.Unmarshal(marshalledData))
		require.Equal(v, parsed)
	})
}

func FuzzChainIDNodeIDUnmarshal(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		require := require.New(t)

		var v chainIDNodeID
		if err := v.Unmarshal(data); err != nil {
			require.ErrorIs(err, errUnexpectedChainIDNodeIDLength)
			return
		}

		marshalledData := v.Marshal()
		require.Equal(data, marshalledData)
	})
}

func FuzzChainIDNodeIDOrdering(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		var (
			v0 chainIDNodeID
			v1 chainIDNodeID
		)
		fz := fuzzer.NewFuzzer(data)
		fz.Fill(&v0, &v1)

		if v0.chainID == v1.chainID {
			return
		}

		key0 := v0.Marshal()
		key1 := v1.Marshal()
		require.Equal(
			t,
			v0.chainID.Compare(v1.chainID),
			bytes.Compare(key0, key1),
		)
	})
}
