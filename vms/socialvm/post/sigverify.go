// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package post

import (
	"github.com/luxfi/crypto/secp256k1"
)

// ECDSAVerifier implements SignatureVerifier against secp256k1 signature
// recovery, grounded on vms/secp256k1fx's use of
// github.com/luxfi/crypto/secp256k1 key material and
// components/verify/net.go's narrow verification-interface shape.
type ECDSAVerifier struct{}

func NewECDSAVerifier() ECDSAVerifier { return ECDSAVerifier{} }

// Verify recovers the public key that produced signature over message and
// reports whether its address matches signer.
func (ECDSAVerifier) Verify(signer Address, message, signature []byte) (bool, error) {
	if len(signature) == 0 {
		return false, nil
	}
	pub, err := secp256k1.RecoverPublicKey(message, signature)
	if err != nil {
		return false, nil
	}
	return pub.Address().String() == string(signer), nil
}
