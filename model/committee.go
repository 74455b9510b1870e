package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

var (
	// ErrValidatorsNotSorted is returned when a validator list is not in
	// canonical (address) order. Ordering is an invariant consumed by
	// polynomial evaluation, so a mis-sorted list is rejected, never fixed
	// silently.
	ErrValidatorsNotSorted = errors.New("validators are not sorted in canonical order")

	// ErrDuplicateValidator is returned when two validators share an address
	// or a share index.
	ErrDuplicateValidator = errors.New("duplicate validator in committee")

	// ErrShareIndexMismatch is returned when a validator's share index does
	// not match its canonical position in the sorted committee.
	ErrShareIndexMismatch = errors.New("validator share index does not match canonical position")

	// ErrValidatorNotFound is returned by committee lookups for addresses or
	// indices outside the roster.
	ErrValidatorNotFound = errors.New("validator not in committee")

	// ErrInsufficientValidators is returned when a committee is too small
	// for the requested threshold.
	ErrInsufficientValidators = errors.New("insufficient validators for threshold")

	// ErrValidatorPublicKeyMismatch is returned when a validator's declared
	// public key (or share index) disagrees with the committee roster.
	ErrValidatorPublicKeyMismatch = errors.New("validator public key does not match committee roster")
)

// CanonicalOrder is the comparison function defining the committee's
// canonical validator order: lexicographic on address.
func CanonicalOrder(a, b Validator) int {
	return strings.Compare(a.Address, b.Address)
}

// SortValidators sorts a validator list into canonical order and assigns
// share indices by position. It is a convenience for callers assembling a
// roster; NewCommittee still validates the result.
func SortValidators(validators []Validator) []Validator {
	sorted := slices.Clone(validators)
	slices.SortFunc(sorted, CanonicalOrder)
	for i := range sorted {
		sorted[i].ShareIndex = uint32(i)
	}
	return sorted
}

// Committee is an ordered validator set in canonical order. It is immutable
// after construction; every accessor returns copies.
type Committee struct {
	validators []Validator
	byAddress  map[string]int
}

// NewCommittee validates a sorted validator list and constructs the
// committee. The list must be in canonical order, free of duplicate
// addresses, and each validator's share index must equal its position.
func NewCommittee(validators []Validator) (*Committee, error) {
	if len(validators) == 0 {
		return nil, ErrInsufficientValidators
	}
	if !slices.IsSortedFunc(validators, CanonicalOrder) {
		return nil, ErrValidatorsNotSorted
	}
	byAddress := make(map[string]int, len(validators))
	for i, v := range validators {
		if _, ok := byAddress[v.Address]; ok {
			return nil, fmt.Errorf("address %s: %w", v.Address, ErrDuplicateValidator)
		}
		if v.ShareIndex != uint32(i) {
			return nil, fmt.Errorf("validator %s has share index %d at position %d: %w",
				v.Address, v.ShareIndex, i, ErrShareIndexMismatch)
		}
		byAddress[v.Address] = i
	}
	return &Committee{
		validators: slices.Clone(validators),
		byAddress:  byAddress,
	}, nil
}

// Size returns the number of validators in the committee.
func (c *Committee) Size() int {
	return len(c.validators)
}

// Validators returns a copy of the committee in canonical order.
func (c *Committee) Validators() []Validator {
	return slices.Clone(c.validators)
}

// ByAddress returns the validator with the given address.
func (c *Committee) ByAddress(address string) (Validator, error) {
	i, ok := c.byAddress[address]
	if !ok {
		return Validator{}, fmt.Errorf("address %s: %w", address, ErrValidatorNotFound)
	}
	return c.validators[i], nil
}

// ByIndex returns the validator at the given share index.
func (c *Committee) ByIndex(index uint32) (Validator, error) {
	if int(index) >= len(c.validators) {
		return Validator{}, fmt.Errorf("share index %d: %w", index, ErrValidatorNotFound)
	}
	return c.validators[index], nil
}

// Contains reports whether the given validator appears in the committee with
// the exact same address, public key, and share index.
func (c *Committee) Contains(v Validator) bool {
	i, ok := c.byAddress[v.Address]
	if !ok {
		return false
	}
	return c.validators[i].Equal(v)
}
