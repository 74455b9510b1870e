// Package tpke implements the threshold-encryption engine: encryption under
// a committee public key, per-validator decryption-share derivation (simple
// and precomputed variants), Lagrange-based share combination, and final
// authenticated decryption.
//
// Every operation is a pure computation over immutable inputs; derivation
// and verification of N shares parallelize trivially.
package tpke

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/ghardin1314/ferveo/crypto"
)

// PublicKey is the committee-wide encryption key produced by a finalized
// DKG: the aggregated constant commitment g*Phi(0) in G1. It is stable for
// the committee's lifetime.
type PublicKey struct {
	Point bls12381.G1Affine
}

// Bytes returns the fixed-width compressed encoding of the key.
func (pk *PublicKey) Bytes() []byte {
	b := pk.Point.Bytes()
	return b[:]
}

// Equal reports whether two public keys are the same group element.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.Point.Equal(&other.Point)
}

// PublicKeyFromBytes decodes a committee public key, rejecting points
// outside the prime-order subgroup and the identity element.
func PublicKeyFromBytes(data []byte) (*PublicKey, error) {
	if len(data) != crypto.G1Size {
		return nil, fmt.Errorf("public key must be %d bytes, got %d: %w",
			crypto.G1Size, len(data), crypto.ErrSerialization)
	}
	var pk PublicKey
	if _, err := pk.Point.SetBytes(data); err != nil {
		return nil, fmt.Errorf("invalid public key point: %w", crypto.ErrSerialization)
	}
	if pk.Point.IsInfinity() {
		return nil, fmt.Errorf("public key is the identity element: %w", crypto.ErrSerialization)
	}
	return &pk, nil
}

// PrivateKeyShare is a validator's share of the committee private key:
// Z_i = h*Phi(alpha_i) in G2, recovered by unblinding the validator's
// aggregated encrypted share. It is secret material and must be zeroized
// when released.
type PrivateKeyShare struct {
	Point bls12381.G2Affine
}

// Bytes returns the fixed-width compressed encoding of the share.
func (s *PrivateKeyShare) Bytes() []byte {
	b := s.Point.Bytes()
	return b[:]
}

// PrivateKeyShareFromBytes decodes a private key share.
func PrivateKeyShareFromBytes(data []byte) (*PrivateKeyShare, error) {
	if len(data) != crypto.G2Size {
		return nil, fmt.Errorf("private key share must be %d bytes, got %d: %w",
			crypto.G2Size, len(data), crypto.ErrSerialization)
	}
	var s PrivateKeyShare
	if _, err := s.Point.SetBytes(data); err != nil {
		return nil, fmt.Errorf("invalid private key share point: %w", crypto.ErrSerialization)
	}
	return &s, nil
}

// Zeroize overwrites the share point. The share must not be used after this
// call.
func (s *PrivateKeyShare) Zeroize() {
	s.Point = bls12381.G2Affine{}
}
