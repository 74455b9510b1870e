package crypto

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// PublicKey is a validator's public encryption key, a point of G2. Peers
// encrypt polynomial shares to it when dealing.
type PublicKey struct {
	Point bls12381.G2Affine
}

// Equal reports whether two public keys are the same group element.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.Point.Equal(&other.Point)
}

// Bytes returns the fixed-width compressed encoding of the public key.
func (pk PublicKey) Bytes() []byte {
	b := pk.Point.Bytes()
	return b[:]
}

// PublicKeyFromBytes decodes a compressed G2 point. The decoding rejects
// points outside the prime-order subgroup.
func PublicKeyFromBytes(data []byte) (PublicKey, error) {
	var pk PublicKey
	if len(data) != G2Size {
		return pk, fmt.Errorf("public key must be %d bytes, got %d: %w", G2Size, len(data), ErrSerialization)
	}
	if _, err := pk.Point.SetBytes(data); err != nil {
		return pk, fmt.Errorf("invalid public key point: %w", ErrSerialization)
	}
	return pk, nil
}

// Keypair is a validator's asymmetric keypair: a secret decryption scalar b
// and the public encryption key h*b. The secret scalar never leaves the
// struct; the two unblinding operations the protocol needs are exposed as
// methods, and Zeroize wipes the scalar when the owner releases the keypair.
type Keypair struct {
	sk fr.Element
}

// GenerateKeypair draws a fresh keypair from crypto/rand.
func GenerateKeypair() (*Keypair, error) {
	var kp Keypair
	if _, err := kp.sk.SetRandom(); err != nil {
		return nil, fmt.Errorf("sampling decryption key: %w", err)
	}
	if kp.sk.IsZero() {
		return nil, ErrZeroScalar
	}
	return &kp, nil
}

// KeypairFromBytes restores a keypair from its 32-byte scalar encoding.
func KeypairFromBytes(data []byte) (*Keypair, error) {
	if len(data) != ScalarSize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d: %w", ScalarSize, len(data), ErrSerialization)
	}
	var kp Keypair
	kp.sk.SetBytes(data)
	if kp.sk.IsZero() {
		return nil, fmt.Errorf("zero decryption key: %w", ErrSerialization)
	}
	return &kp, nil
}

// Bytes returns the big-endian encoding of the secret scalar. The caller is
// responsible for protecting the result.
func (kp *Keypair) Bytes() []byte {
	b := kp.sk.Bytes()
	return b[:]
}

// PublicKey returns the public encryption key h*b.
func (kp *Keypair) PublicKey() PublicKey {
	g2 := G2Generator()
	return PublicKey{Point: ScalarMulG2(&g2, &kp.sk)}
}

// UnblindG2 multiplies a G2 point by the inverse of the decryption key.
// Validators use it to recover their private key share from the blinded
// share encrypted to them in an aggregated transcript.
func (kp *Keypair) UnblindG2(p *bls12381.G2Affine) bls12381.G2Affine {
	var inv fr.Element
	inv.Inverse(&kp.sk)
	return ScalarMulG2(p, &inv)
}

// UnblindG1 multiplies a G1 point by the inverse of the decryption key.
// Used to form the validator checksum attached to decryption shares.
func (kp *Keypair) UnblindG1(p *bls12381.G1Affine) bls12381.G1Affine {
	var inv fr.Element
	inv.Inverse(&kp.sk)
	return ScalarMulG1(p, &inv)
}

// Zeroize overwrites the secret scalar. The keypair must not be used after
// this call.
func (kp *Keypair) Zeroize() {
	kp.sk.SetZero()
}
