package pvss

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
	"github.com/ghardin1314/ferveo/testutil"
)

func TestDealAndVerify(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)

	transcript, err := Deal(committee, 3)
	require.NoError(t, err)

	assert.Len(t, transcript.Coefficients, 3)
	assert.Len(t, transcript.Shares, 4)
	assert.Equal(t, uint32(3), transcript.Threshold())

	assert.True(t, transcript.VerifyOptimistic())
	require.NoError(t, transcript.Verify(committee))

	// Verification is repeatable.
	require.NoError(t, transcript.Verify(committee))
}

func TestDealRejectsBadThreshold(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)

	_, err := Deal(committee, 0)
	require.ErrorIs(t, err, model.ErrInsufficientValidators)

	_, err = Deal(committee, 5)
	require.ErrorIs(t, err, model.ErrInsufficientValidators)
}

func TestVerifyRejectsTamperedShare(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)

	transcript, err := Deal(committee, 3)
	require.NoError(t, err)

	// Swapping two blinded shares keeps the proof of knowledge intact but
	// breaks the per-validator commitment equation.
	transcript.Shares[0], transcript.Shares[1] = transcript.Shares[1], transcript.Shares[0]

	assert.True(t, transcript.VerifyOptimistic())
	require.ErrorIs(t, transcript.Verify(committee), ErrInvalidTranscript)
}

func TestVerifyOptimisticRejectsForgedProof(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)

	transcript, err := Deal(committee, 3)
	require.NoError(t, err)

	var s fr.Element
	_, err = s.SetRandom()
	require.NoError(t, err)
	h := crypto.G2Generator()
	transcript.Sigma = crypto.ScalarMulG2(&h, &s)

	assert.False(t, transcript.VerifyOptimistic())
	require.ErrorIs(t, transcript.Verify(committee), ErrInvalidTranscript)
}

func TestVerifyRejectsShapeMismatch(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)
	smaller, _ := testutil.Committee(t, 3)

	transcript, err := Deal(smaller, 2)
	require.NoError(t, err)
	require.ErrorIs(t, transcript.Verify(committee), ErrInvalidTranscript)

	empty := &Transcript{}
	require.ErrorIs(t, empty.Verify(committee), ErrInvalidTranscript)
	assert.False(t, empty.VerifyOptimistic())
}

func TestTranscriptEncoding(t *testing.T) {
	committee, _ := testutil.Committee(t, 4)

	transcript, err := Deal(committee, 3)
	require.NoError(t, err)
	data := transcript.Bytes()

	decoded, err := TranscriptFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, data, decoded.Bytes())

	// The decoded transcript is still verifiable, not just byte-identical.
	require.NoError(t, decoded.Verify(committee))
}

func TestTranscriptDecodingRejects(t *testing.T) {
	committee, _ := testutil.Committee(t, 2)

	transcript, err := Deal(committee, 2)
	require.NoError(t, err)
	data := transcript.Bytes()

	t.Run("truncated", func(t *testing.T) {
		_, err := TranscriptFromBytes(data[:len(data)-1])
		require.ErrorIs(t, err, crypto.ErrSerialization)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := TranscriptFromBytes(append(append([]byte(nil), data...), 0x00))
		require.ErrorIs(t, err, crypto.ErrSerialization)
	})

	t.Run("corrupted point", func(t *testing.T) {
		corrupted := append([]byte(nil), data...)
		for i := 4; i < 4+crypto.G1Size; i++ {
			corrupted[i] = 0xff
		}
		_, err := TranscriptFromBytes(corrupted)
		require.ErrorIs(t, err, crypto.ErrSerialization)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := TranscriptFromBytes(nil)
		require.ErrorIs(t, err, crypto.ErrSerialization)
	})
}
