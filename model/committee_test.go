package model

import (
	"fmt"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghardin1314/ferveo/crypto"
)

func validatorFixtures(t *testing.T, n int) []Validator {
	t.Helper()
	validators := make([]Validator, n)
	for i := 0; i < n; i++ {
		kp, err := crypto.GenerateKeypair()
		require.NoError(t, err)
		validators[i] = Validator{
			Address:    fmt.Sprintf("validator-%03d", i),
			PublicKey:  kp.PublicKey(),
			ShareIndex: uint32(i),
		}
	}
	return validators
}

func TestNewCommittee(t *testing.T) {
	validators := validatorFixtures(t, 4)
	committee, err := NewCommittee(validators)
	require.NoError(t, err)

	assert.Equal(t, 4, committee.Size())
	assert.Equal(t, validators, committee.Validators())

	v, err := committee.ByAddress("validator-002")
	require.NoError(t, err)
	assert.True(t, v.Equal(validators[2]))

	v, err = committee.ByIndex(1)
	require.NoError(t, err)
	assert.True(t, v.Equal(validators[1]))

	assert.True(t, committee.Contains(validators[0]))
}

func TestNewCommitteeRejections(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewCommittee(nil)
		require.ErrorIs(t, err, ErrInsufficientValidators)
	})

	t.Run("not sorted", func(t *testing.T) {
		validators := validatorFixtures(t, 3)
		validators[0], validators[2] = validators[2], validators[0]
		_, err := NewCommittee(validators)
		require.ErrorIs(t, err, ErrValidatorsNotSorted)
	})

	t.Run("duplicate address", func(t *testing.T) {
		validators := validatorFixtures(t, 3)
		validators[1].Address = validators[0].Address
		_, err := NewCommittee(validators)
		require.ErrorIs(t, err, ErrDuplicateValidator)
	})

	t.Run("share index mismatch", func(t *testing.T) {
		validators := validatorFixtures(t, 3)
		validators[1].ShareIndex = 2
		_, err := NewCommittee(validators)
		require.ErrorIs(t, err, ErrShareIndexMismatch)
	})
}

func TestCommitteeLookupMisses(t *testing.T) {
	committee, err := NewCommittee(validatorFixtures(t, 2))
	require.NoError(t, err)

	_, err = committee.ByAddress("stranger")
	require.ErrorIs(t, err, ErrValidatorNotFound)

	_, err = committee.ByIndex(2)
	require.ErrorIs(t, err, ErrValidatorNotFound)
}

func TestCommitteeContainsExactIdentity(t *testing.T) {
	validators := validatorFixtures(t, 2)
	committee, err := NewCommittee(validators)
	require.NoError(t, err)

	impostor := validators[0]
	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	impostor.PublicKey = kp.PublicKey()
	assert.False(t, committee.Contains(impostor))

	wrongIndex := validators[0]
	wrongIndex.ShareIndex = 1
	assert.False(t, committee.Contains(wrongIndex))
}

func TestSortValidators(t *testing.T) {
	validators := validatorFixtures(t, 4)
	shuffled := []Validator{validators[2], validators[0], validators[3], validators[1]}
	// Mangle the indices; sorting must reassign them by position.
	for i := range shuffled {
		shuffled[i].ShareIndex = 99
	}

	sorted := SortValidators(shuffled)
	_, err := NewCommittee(sorted)
	require.NoError(t, err)
	for i, v := range sorted {
		assert.Equal(t, validators[i].Address, v.Address)
		assert.Equal(t, uint32(i), v.ShareIndex)
	}

	// Input slice is untouched.
	assert.Equal(t, uint32(99), shuffled[0].ShareIndex)
}

func TestValidatorEncoding(t *testing.T) {
	v := validatorFixtures(t, 1)[0]

	data, err := cbor.Marshal(v)
	require.NoError(t, err)

	var decoded Validator
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.True(t, v.Equal(decoded))
}

func TestValidatorDecodingRejectsBadKey(t *testing.T) {
	data, err := cbor.Marshal(encodableValidator{
		Address:    "validator-000",
		PublicKey:  make([]byte, crypto.G2Size),
		ShareIndex: 0,
	})
	require.NoError(t, err)

	var decoded Validator
	err = decoded.UnmarshalCBOR(data)
	require.ErrorIs(t, err, crypto.ErrSerialization)
}
