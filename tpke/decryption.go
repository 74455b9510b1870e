package tpke

import (
	"encoding/binary"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/exp/slices"

	"github.com/ghardin1314/ferveo/crypto"
)

// SharedSecret is the ephemeral GT value reconstructed from combined
// decryption shares. It unlocks exactly one ciphertext and is not persisted
// by the core.
type SharedSecret struct {
	Value bls12381.GT
}

// Bytes returns the fixed-width encoding of the shared secret.
func (s *SharedSecret) Bytes() []byte {
	b := s.Value.Bytes()
	return b[:]
}

// Equal reports whether two shared secrets are the same GT element.
func (s *SharedSecret) Equal(other *SharedSecret) bool {
	return s.Value.Equal(&other.Value)
}

// SharedSecretFromBytes decodes a shared secret.
func SharedSecretFromBytes(data []byte) (*SharedSecret, error) {
	if len(data) != crypto.GTSize {
		return nil, fmt.Errorf("shared secret must be %d bytes, got %d: %w",
			crypto.GTSize, len(data), crypto.ErrSerialization)
	}
	var s SharedSecret
	if err := s.Value.SetBytes(data); err != nil {
		return nil, fmt.Errorf("invalid shared secret: %w", crypto.ErrSerialization)
	}
	return &s, nil
}

// DecryptionShareSimple is one validator's contribution to decrypting a
// ciphertext: D_i = e(U, Z_i), together with the validator checksum
// C_i = U*(1/b_i) which serves as a publicly verifiable proof that the
// share was formed with the validator's decryption key. The simple variant
// is recomputed per ciphertext and combines with any threshold-sized subset.
type DecryptionShareSimple struct {
	ShareIndex uint32
	Value      bls12381.GT
	Checksum   bls12381.G1Affine
}

// MakeDecryptionShareSimple derives a validator's simple decryption share.
// The ciphertext validity check runs first; an invalid ciphertext yields no
// share.
func MakeDecryptionShareSimple(
	ciphertext *Ciphertext,
	aad []byte,
	keyShare *PrivateKeyShare,
	keypair *crypto.Keypair,
	shareIndex uint32,
) (*DecryptionShareSimple, error) {
	if err := ciphertext.Check(aad); err != nil {
		return nil, err
	}
	value, err := crypto.Pair(&ciphertext.Commitment, &keyShare.Point)
	if err != nil {
		return nil, fmt.Errorf("computing decryption share: %w", err)
	}
	return &DecryptionShareSimple{
		ShareIndex: shareIndex,
		Value:      value,
		Checksum:   keypair.UnblindG1(&ciphertext.Commitment),
	}, nil
}

// Verify checks the share's validator-checksum proof against the
// validator's aggregated blinded share and public encryption key:
//
//	D_i == e(C_i, Y_hat_i)  and  e(C_i, ek_i) == e(U, h)
//
// Verification is deterministic and side-effect-free.
func (d *DecryptionShareSimple) Verify(
	shareAggregate *bls12381.G2Affine,
	validatorKey *crypto.PublicKey,
	ciphertext *Ciphertext,
) bool {
	expected, err := crypto.Pair(&d.Checksum, shareAggregate)
	if err != nil || !expected.Equal(&d.Value) {
		return false
	}
	var uNeg bls12381.G1Affine
	uNeg.Neg(&ciphertext.Commitment)
	h := crypto.G2Generator()
	ok, err := crypto.PairingProductIsOne(
		[]bls12381.G1Affine{d.Checksum, uNeg},
		[]bls12381.G2Affine{validatorKey.Point, h},
	)
	return err == nil && ok
}

// Bytes encodes the share as index(4) || value(576) || checksum(48).
func (d *DecryptionShareSimple) Bytes() []byte {
	out := make([]byte, 0, 4+crypto.GTSize+crypto.G1Size)
	out = binary.BigEndian.AppendUint32(out, d.ShareIndex)
	v := d.Value.Bytes()
	out = append(out, v[:]...)
	c := d.Checksum.Bytes()
	out = append(out, c[:]...)
	return out
}

// DecryptionShareSimpleFromBytes decodes a simple decryption share.
func DecryptionShareSimpleFromBytes(data []byte) (*DecryptionShareSimple, error) {
	if len(data) != 4+crypto.GTSize+crypto.G1Size {
		return nil, fmt.Errorf("decryption share must be %d bytes, got %d: %w",
			4+crypto.GTSize+crypto.G1Size, len(data), crypto.ErrSerialization)
	}
	var d DecryptionShareSimple
	d.ShareIndex = binary.BigEndian.Uint32(data[:4])
	if err := d.Value.SetBytes(data[4 : 4+crypto.GTSize]); err != nil {
		return nil, fmt.Errorf("invalid decryption share value: %w", crypto.ErrSerialization)
	}
	if _, err := d.Checksum.SetBytes(data[4+crypto.GTSize:]); err != nil {
		return nil, fmt.Errorf("invalid decryption share checksum: %w", crypto.ErrSerialization)
	}
	return &d, nil
}

// CombineShares reconstructs the shared secret from simple decryption shares
// by Lagrange interpolation at zero over the contributing validators'
// evaluation points. At least threshold distinct shares are required; a
// replayed duplicate of the same share is collapsed, not counted twice.
func CombineShares(shares []*DecryptionShareSimple, threshold uint32) (*SharedSecret, error) {
	distinct := make([]*DecryptionShareSimple, 0, len(shares))
	seen := make(map[uint32]struct{}, len(shares))
	for _, share := range shares {
		if _, ok := seen[share.ShareIndex]; ok {
			continue
		}
		seen[share.ShareIndex] = struct{}{}
		distinct = append(distinct, share)
	}
	if uint32(len(distinct)) < threshold {
		return nil, fmt.Errorf("%d distinct shares, need %d: %w",
			len(distinct), threshold, ErrInsufficientShares)
	}

	indices := make([]uint32, len(distinct))
	for i, share := range distinct {
		indices[i] = share.ShareIndex
	}
	lagrange, err := crypto.LagrangeCoefficientsAtZero(crypto.DomainPoints(indices))
	if err != nil {
		return nil, fmt.Errorf("computing lagrange coefficients: %w", err)
	}

	var secret bls12381.GT
	secret.SetOne()
	for i, share := range distinct {
		term := crypto.GTExp(&share.Value, &lagrange[i])
		secret.Mul(&secret, &term)
	}
	return &SharedSecret{Value: secret}, nil
}

// VerifyDecryptionShares checks a batch of simple shares. Each share's
// index selects its validator's aggregated blinded share and encryption key
// from the positional slices. It reports the indices of the shares that
// failed; an empty result means the whole batch is good.
func VerifyDecryptionShares(
	shares []*DecryptionShareSimple,
	shareAggregates []bls12381.G2Affine,
	validatorKeys []crypto.PublicKey,
	ciphertext *Ciphertext,
) []uint32 {
	var bad []uint32
	for _, share := range shares {
		i := share.ShareIndex
		if int(i) >= len(shareAggregates) || int(i) >= len(validatorKeys) ||
			!share.Verify(&shareAggregates[i], &validatorKeys[i], ciphertext) {
			bad = append(bad, i)
		}
	}
	return bad
}

// DecryptionSharePrecomputed is a decryption share with the Lagrange
// coefficient already folded in: D_i = e(U*lambda_i(0), Z_i), bound to the
// fixed validator subset the coefficient was computed against. Combination
// is then a bare product, which makes repeated decryptions under the same
// subset cheap. Using the share with a different subset is a caller error
// and is rejected, never silently accepted.
type DecryptionSharePrecomputed struct {
	ShareIndex uint32
	Value      bls12381.GT
	Checksum   bls12381.G1Affine
	Subset     []uint32
}

// MakeDecryptionSharePrecomputed derives a precomputed share for the given
// validator subset. The subset must be sorted, duplicate-free, and contain
// the validator's own share index.
func MakeDecryptionSharePrecomputed(
	ciphertext *Ciphertext,
	aad []byte,
	keyShare *PrivateKeyShare,
	keypair *crypto.Keypair,
	shareIndex uint32,
	subset []uint32,
) (*DecryptionSharePrecomputed, error) {
	if err := ciphertext.Check(aad); err != nil {
		return nil, err
	}
	if !slices.IsSorted(subset) {
		return nil, fmt.Errorf("subset indices must be sorted: %w", ErrSubsetMismatch)
	}
	pos, found := slices.BinarySearch(subset, shareIndex)
	if !found {
		return nil, fmt.Errorf("share index %d not in subset %v: %w", shareIndex, subset, ErrSubsetMismatch)
	}
	lagrange, err := crypto.LagrangeCoefficientsAtZero(crypto.DomainPoints(subset))
	if err != nil {
		return nil, fmt.Errorf("computing lagrange coefficients: %w", err)
	}

	scaled := crypto.ScalarMulG1(&ciphertext.Commitment, &lagrange[pos])
	value, err := crypto.Pair(&scaled, &keyShare.Point)
	if err != nil {
		return nil, fmt.Errorf("computing decryption share: %w", err)
	}
	return &DecryptionSharePrecomputed{
		ShareIndex: shareIndex,
		Value:      value,
		Checksum:   keypair.UnblindG1(&ciphertext.Commitment),
		Subset:     slices.Clone(subset),
	}, nil
}

// CombineSharesPrecomputed reconstructs the shared secret as the product of
// precomputed shares. The shares must all be bound to the same subset, and
// the contributing indices must cover that subset exactly.
func CombineSharesPrecomputed(shares []*DecryptionSharePrecomputed) (*SharedSecret, error) {
	if len(shares) == 0 {
		return nil, ErrInsufficientShares
	}

	subset := shares[0].Subset
	seen := make(map[uint32]struct{}, len(shares))
	for _, share := range shares {
		if !slices.Equal(share.Subset, subset) {
			return nil, fmt.Errorf("share %d bound to subset %v, expected %v: %w",
				share.ShareIndex, share.Subset, subset, ErrSubsetMismatch)
		}
		seen[share.ShareIndex] = struct{}{}
	}
	if len(seen) != len(subset) {
		return nil, fmt.Errorf("%d distinct shares for subset of %d: %w",
			len(seen), len(subset), ErrSubsetMismatch)
	}
	for _, idx := range subset {
		if _, ok := seen[idx]; !ok {
			return nil, fmt.Errorf("missing share for subset index %d: %w", idx, ErrSubsetMismatch)
		}
	}

	var secret bls12381.GT
	secret.SetOne()
	for _, share := range shares {
		if _, ok := seen[share.ShareIndex]; !ok {
			continue
		}
		delete(seen, share.ShareIndex)
		secret.Mul(&secret, &share.Value)
	}
	return &SharedSecret{Value: secret}, nil
}

// Verify checks the precomputed share's validator-checksum proof. The value
// equation carries the Lagrange coefficient of the share's subset position.
func (d *DecryptionSharePrecomputed) Verify(
	shareAggregate *bls12381.G2Affine,
	validatorKey *crypto.PublicKey,
	ciphertext *Ciphertext,
) bool {
	pos, found := slices.BinarySearch(d.Subset, d.ShareIndex)
	if !found {
		return false
	}
	lagrange, err := crypto.LagrangeCoefficientsAtZero(crypto.DomainPoints(d.Subset))
	if err != nil {
		return false
	}
	scaledAggregate := crypto.ScalarMulG2(shareAggregate, &lagrange[pos])
	expected, err := crypto.Pair(&d.Checksum, &scaledAggregate)
	if err != nil || !expected.Equal(&d.Value) {
		return false
	}
	var uNeg bls12381.G1Affine
	uNeg.Neg(&ciphertext.Commitment)
	h := crypto.G2Generator()
	ok, err := crypto.PairingProductIsOne(
		[]bls12381.G1Affine{d.Checksum, uNeg},
		[]bls12381.G2Affine{validatorKey.Point, h},
	)
	return err == nil && ok
}

// Bytes encodes the share as
// index(4) || value(576) || checksum(48) || len(subset)(4) || subset indices(4 each).
func (d *DecryptionSharePrecomputed) Bytes() []byte {
	out := make([]byte, 0, 4+crypto.GTSize+crypto.G1Size+4+4*len(d.Subset))
	out = binary.BigEndian.AppendUint32(out, d.ShareIndex)
	v := d.Value.Bytes()
	out = append(out, v[:]...)
	c := d.Checksum.Bytes()
	out = append(out, c[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(d.Subset)))
	for _, idx := range d.Subset {
		out = binary.BigEndian.AppendUint32(out, idx)
	}
	return out
}

// DecryptionSharePrecomputedFromBytes decodes a precomputed decryption
// share, including its subset descriptor.
func DecryptionSharePrecomputedFromBytes(data []byte) (*DecryptionSharePrecomputed, error) {
	fixed := 4 + crypto.GTSize + crypto.G1Size + 4
	if len(data) < fixed {
		return nil, fmt.Errorf("precomputed share too short (%d bytes): %w", len(data), crypto.ErrSerialization)
	}
	var d DecryptionSharePrecomputed
	off := 0
	d.ShareIndex = binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if err := d.Value.SetBytes(data[off : off+crypto.GTSize]); err != nil {
		return nil, fmt.Errorf("invalid decryption share value: %w", crypto.ErrSerialization)
	}
	off += crypto.GTSize
	if _, err := d.Checksum.SetBytes(data[off : off+crypto.G1Size]); err != nil {
		return nil, fmt.Errorf("invalid decryption share checksum: %w", crypto.ErrSerialization)
	}
	off += crypto.G1Size
	subsetLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if len(data) != fixed+4*int(subsetLen) {
		return nil, fmt.Errorf("precomputed share length mismatch: %w", crypto.ErrSerialization)
	}
	d.Subset = make([]uint32, subsetLen)
	for i := range d.Subset {
		d.Subset[i] = binary.BigEndian.Uint32(data[off : off+4])
		off += 4
	}
	if !slices.IsSorted(d.Subset) {
		return nil, fmt.Errorf("subset descriptor not sorted: %w", crypto.ErrSerialization)
	}
	return &d, nil
}
