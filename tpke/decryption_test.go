package tpke

import (
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ghardin1314/ferveo/crypto"
)

// testingT is the subset of testing.TB the setup helpers need, satisfied by
// both *testing.T and the property-test runner.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// thresholdSetup is a committee with key material derived from one master
// polynomial: the committee key g*phi(0), each validator's private key share
// h*phi(alpha_i), and the blinded shares ek_i*phi(alpha_i) that third
// parties verify decryption shares against.
type thresholdSetup struct {
	threshold uint32
	pk        *PublicKey
	keypairs  []*crypto.Keypair
	keyShares []*PrivateKeyShare
	blinded   []bls12381.G2Affine
}

func newThresholdSetup(t testingT, n int, threshold uint32) *thresholdSetup {
	t.Helper()
	poly, err := crypto.NewSecretPolynomial(int(threshold) - 1)
	require.NoError(t, err)
	defer poly.Zeroize()

	secret := poly.Secret()
	g1 := crypto.G1Generator()
	h := crypto.G2Generator()

	s := &thresholdSetup{
		threshold: threshold,
		pk:        &PublicKey{Point: crypto.ScalarMulG1(&g1, &secret)},
		keypairs:  make([]*crypto.Keypair, n),
		keyShares: make([]*PrivateKeyShare, n),
		blinded:   make([]bls12381.G2Affine, n),
	}
	for i := 0; i < n; i++ {
		kp, err := crypto.GenerateKeypair()
		require.NoError(t, err)
		s.keypairs[i] = kp

		eval := poly.Evaluate(crypto.DomainPoint(uint32(i)))
		s.keyShares[i] = &PrivateKeyShare{Point: crypto.ScalarMulG2(&h, &eval)}
		ek := kp.PublicKey()
		s.blinded[i] = crypto.ScalarMulG2(&ek.Point, &eval)
		eval.SetZero()
	}
	return s
}

func (s *thresholdSetup) simpleShare(t testingT, c *Ciphertext, aad []byte, i uint32) *DecryptionShareSimple {
	t.Helper()
	share, err := MakeDecryptionShareSimple(c, aad, s.keyShares[i], s.keypairs[i], i)
	require.NoError(t, err)
	return share
}

func TestCombineSharesRecoversPlaintext(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	payload := []byte("threshold payload")
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, payload, aad)
	require.NoError(t, err)

	// Every 3-of-4 subset reconstructs the same plaintext.
	subsets := [][]uint32{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, subset := range subsets {
		shares := make([]*DecryptionShareSimple, 0, len(subset))
		for _, i := range subset {
			shares = append(shares, setup.simpleShare(t, ciphertext, aad, i))
		}
		secret, err := CombineShares(shares, setup.threshold)
		require.NoError(t, err)

		plaintext, err := Decrypt(ciphertext, aad, secret)
		require.NoError(t, err, "subset %v failed to decrypt", subset)
		assert.Equal(t, payload, plaintext)
	}
}

func TestCombineSharesInsufficient(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	shares := []*DecryptionShareSimple{
		setup.simpleShare(t, ciphertext, aad, 0),
		setup.simpleShare(t, ciphertext, aad, 1),
	}
	_, err = CombineShares(shares, setup.threshold)
	require.ErrorIs(t, err, ErrInsufficientShares)

	// A replayed share does not count toward the threshold.
	shares = append(shares, setup.simpleShare(t, ciphertext, aad, 1))
	_, err = CombineShares(shares, setup.threshold)
	require.ErrorIs(t, err, ErrInsufficientShares)
}

func TestCombineSharesBelowThresholdGarbles(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	// Two shares interpolate to a wrong secret even if combined with a
	// lowered threshold; the AEAD rejects the result.
	shares := []*DecryptionShareSimple{
		setup.simpleShare(t, ciphertext, aad, 0),
		setup.simpleShare(t, ciphertext, aad, 1),
	}
	secret, err := CombineShares(shares, 2)
	require.NoError(t, err)
	_, err = Decrypt(ciphertext, aad, secret)
	require.ErrorIs(t, err, ErrDecryptionFailure)
}

func TestMakeShareRejectsInvalidCiphertext(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)
	ciphertext.Payload[0] ^= 0x01

	_, err = MakeDecryptionShareSimple(ciphertext, aad, setup.keyShares[0], setup.keypairs[0], 0)
	require.ErrorIs(t, err, ErrCiphertextInvalid)

	_, err = MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[0], setup.keypairs[0], 0, []uint32{0, 1, 2})
	require.ErrorIs(t, err, ErrCiphertextInvalid)
}

func TestDecryptionShareVerify(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	share := setup.simpleShare(t, ciphertext, aad, 1)
	validatorKey := setup.keypairs[1].PublicKey()
	assert.True(t, share.Verify(&setup.blinded[1], &validatorKey, ciphertext))

	t.Run("wrong validator", func(t *testing.T) {
		otherKey := setup.keypairs[2].PublicKey()
		assert.False(t, share.Verify(&setup.blinded[2], &otherKey, ciphertext))
	})

	t.Run("forged value", func(t *testing.T) {
		forged := *share
		forged.Value.SetOne()
		assert.False(t, forged.Verify(&setup.blinded[1], &validatorKey, ciphertext))
	})

	t.Run("forged checksum", func(t *testing.T) {
		forged := *share
		forged.Checksum = crypto.G1Generator()
		assert.False(t, forged.Verify(&setup.blinded[1], &validatorKey, ciphertext))
	})

	t.Run("survives encoding", func(t *testing.T) {
		decoded, err := DecryptionShareSimpleFromBytes(share.Bytes())
		require.NoError(t, err)
		assert.True(t, decoded.Verify(&setup.blinded[1], &validatorKey, ciphertext))
	})
}

func TestVerifyDecryptionShares(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	shares := make([]*DecryptionShareSimple, 0, 3)
	for _, i := range []uint32{0, 1, 3} {
		shares = append(shares, setup.simpleShare(t, ciphertext, aad, i))
	}
	validatorKeys := make([]crypto.PublicKey, len(setup.keypairs))
	for i, kp := range setup.keypairs {
		validatorKeys[i] = kp.PublicKey()
	}

	assert.Empty(t, VerifyDecryptionShares(shares, setup.blinded, validatorKeys, ciphertext))

	forged := *shares[1]
	forged.Value.SetOne()
	shares[1] = &forged
	assert.Equal(t, []uint32{1}, VerifyDecryptionShares(shares, setup.blinded, validatorKeys, ciphertext))
}

func TestPrecomputedCombine(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	payload := []byte("precomputed payload")
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, payload, aad)
	require.NoError(t, err)

	subset := []uint32{0, 2, 3}
	shares := make([]*DecryptionSharePrecomputed, 0, len(subset))
	for _, i := range subset {
		share, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[i], setup.keypairs[i], i, subset)
		require.NoError(t, err)
		shares = append(shares, share)
	}

	secret, err := CombineSharesPrecomputed(shares)
	require.NoError(t, err)

	plaintext, err := Decrypt(ciphertext, aad, secret)
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)

	t.Run("verify", func(t *testing.T) {
		validatorKey := setup.keypairs[2].PublicKey()
		assert.True(t, shares[1].Verify(&setup.blinded[2], &validatorKey, ciphertext))

		otherKey := setup.keypairs[0].PublicKey()
		assert.False(t, shares[1].Verify(&setup.blinded[0], &otherKey, ciphertext))
	})

	t.Run("survives encoding", func(t *testing.T) {
		decoded, err := DecryptionSharePrecomputedFromBytes(shares[0].Bytes())
		require.NoError(t, err)
		assert.Equal(t, subset, decoded.Subset)

		validatorKey := setup.keypairs[0].PublicKey()
		assert.True(t, decoded.Verify(&setup.blinded[0], &validatorKey, ciphertext))
	})
}

func TestPrecomputedSubsetRejections(t *testing.T) {
	setup := newThresholdSetup(t, 4, 3)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	t.Run("unsorted subset", func(t *testing.T) {
		_, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[0], setup.keypairs[0], 0, []uint32{2, 0, 1})
		require.ErrorIs(t, err, ErrSubsetMismatch)
	})

	t.Run("index outside subset", func(t *testing.T) {
		_, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[3], setup.keypairs[3], 3, []uint32{0, 1, 2})
		require.ErrorIs(t, err, ErrSubsetMismatch)
	})

	t.Run("mixed subsets", func(t *testing.T) {
		a, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[0], setup.keypairs[0], 0, []uint32{0, 1, 2})
		require.NoError(t, err)
		b, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[1], setup.keypairs[1], 1, []uint32{1, 2, 3})
		require.NoError(t, err)
		_, err = CombineSharesPrecomputed([]*DecryptionSharePrecomputed{a, b})
		require.ErrorIs(t, err, ErrSubsetMismatch)
	})

	t.Run("incomplete coverage", func(t *testing.T) {
		subset := []uint32{0, 1, 2}
		a, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[0], setup.keypairs[0], 0, subset)
		require.NoError(t, err)
		b, err := MakeDecryptionSharePrecomputed(ciphertext, aad, setup.keyShares[1], setup.keypairs[1], 1, subset)
		require.NoError(t, err)
		_, err = CombineSharesPrecomputed([]*DecryptionSharePrecomputed{a, b})
		require.ErrorIs(t, err, ErrSubsetMismatch)
	})

	t.Run("no shares", func(t *testing.T) {
		_, err := CombineSharesPrecomputed(nil)
		require.ErrorIs(t, err, ErrInsufficientShares)
	})
}

func TestSharedSecretEncoding(t *testing.T) {
	setup := newThresholdSetup(t, 2, 2)
	aad := []byte("header")

	ciphertext, err := Encrypt(setup.pk, []byte("payload"), aad)
	require.NoError(t, err)

	shares := []*DecryptionShareSimple{
		setup.simpleShare(t, ciphertext, aad, 0),
		setup.simpleShare(t, ciphertext, aad, 1),
	}
	secret, err := CombineShares(shares, 2)
	require.NoError(t, err)

	decoded, err := SharedSecretFromBytes(secret.Bytes())
	require.NoError(t, err)
	assert.True(t, secret.Equal(decoded))

	_, err = SharedSecretFromBytes(make([]byte, crypto.GTSize-1))
	require.ErrorIs(t, err, crypto.ErrSerialization)
}

// End-to-end threshold decryption for random committee shapes, payloads,
// and reconstruction subsets.
func TestThresholdDecryptionProperty(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(tt, "n")
		threshold := uint32(rapid.IntRange(1, n).Draw(tt, "threshold"))
		payload := rapid.SliceOfN(rapid.Byte(), 0, 128).Draw(tt, "payload")
		aad := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(tt, "aad")

		setup := newThresholdSetup(tt, n, threshold)
		ciphertext, err := Encrypt(setup.pk, payload, aad)
		require.NoError(tt, err)

		subset := rapid.SliceOfNDistinct(
			rapid.Uint32Range(0, uint32(n-1)), int(threshold), int(threshold),
			func(v uint32) uint32 { return v },
		).Draw(tt, "subset")

		shares := make([]*DecryptionShareSimple, 0, len(subset))
		for _, i := range subset {
			shares = append(shares, setup.simpleShare(tt, ciphertext, aad, i))
		}
		secret, err := CombineShares(shares, threshold)
		require.NoError(tt, err)

		plaintext, err := Decrypt(ciphertext, aad, secret)
		require.NoError(tt, err)
		assert.Equal(tt, payload, plaintext)
	})
}
