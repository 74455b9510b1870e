package tpke

import "errors"

var (
	// ErrCiphertextInvalid is returned when a ciphertext fails its pairing
	// validity check: the authentication tag does not match the commitment,
	// nonce, payload, and associated data it claims to bind.
	ErrCiphertextInvalid = errors.New("ciphertext verification failed")

	// ErrDecryptionFailure is returned when the symmetric layer rejects the
	// payload under the combined shared secret. No partial plaintext is ever
	// released.
	ErrDecryptionFailure = errors.New("threshold decryption failed")

	// ErrInsufficientShares is returned when fewer than threshold distinct
	// decryption shares are supplied to a combination.
	ErrInsufficientShares = errors.New("insufficient decryption shares for threshold")

	// ErrSubsetMismatch is returned when precomputed decryption shares bound
	// to different validator subsets are combined, or when the supplied
	// shares do not cover exactly the subset they were precomputed for.
	ErrSubsetMismatch = errors.New("precomputed shares bound to a different validator subset")
)
