// Package model defines the validator identity and committee types consumed
// by the DKG and PVSS protocols. A Committee is a constructed, validated
// value: canonical ordering and share-index assignment are enforced once at
// construction and trusted everywhere downstream.
package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ghardin1314/ferveo/crypto"
)

// Validator is a committee member's public identity: its canonical address,
// its public encryption key, and the share index that fixes its polynomial
// evaluation point.
type Validator struct {
	Address    string
	PublicKey  crypto.PublicKey
	ShareIndex uint32
}

// String returns a string representation of the validator.
func (v Validator) String() string {
	return fmt.Sprintf("%s#%d", v.Address, v.ShareIndex)
}

// Equal reports whether two validators have identical address, key, and
// share index.
func (v Validator) Equal(other Validator) bool {
	return v.Address == other.Address &&
		v.ShareIndex == other.ShareIndex &&
		v.PublicKey.Equal(other.PublicKey)
}

type encodableValidator struct {
	Address    string
	PublicKey  []byte
	ShareIndex uint32
}

// MarshalCBOR encodes the validator with its public key in compressed form.
func (v Validator) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(encodableValidator{
		Address:    v.Address,
		PublicKey:  v.PublicKey.Bytes(),
		ShareIndex: v.ShareIndex,
	})
}

// UnmarshalCBOR decodes a validator, rejecting malformed public key points.
func (v *Validator) UnmarshalCBOR(data []byte) error {
	var enc encodableValidator
	if err := cbor.Unmarshal(data, &enc); err != nil {
		return fmt.Errorf("could not decode validator: %w", crypto.ErrSerialization)
	}
	pk, err := crypto.PublicKeyFromBytes(enc.PublicKey)
	if err != nil {
		return fmt.Errorf("could not decode validator public key: %w", err)
	}
	v.Address = enc.Address
	v.PublicKey = pk
	v.ShareIndex = enc.ShareIndex
	return nil
}
