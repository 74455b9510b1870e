package dkg

import "errors"

var (
	// ErrDealerNotInValidatorSet is returned when a validator message's
	// dealer is not a member of the committee.
	ErrDealerNotInValidatorSet = errors.New("dealer not in validator set")

	// ErrUnknownDealer is returned when looking up a transcript for a
	// dealer that has not been registered.
	ErrUnknownDealer = errors.New("no transcript registered for dealer")

	// ErrDuplicateDealer is returned when a second transcript from an
	// already-registered dealer is ingested. The previously accepted
	// transcript is unaffected.
	ErrDuplicateDealer = errors.New("transcript already registered for dealer")
)
