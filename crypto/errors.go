package crypto

import "errors"

// ErrSerialization is the sentinel wrapped by every decode path in the
// module when a byte payload is malformed: wrong length, a group element
// that fails the compressed-point or subgroup check, or a truncated field.
// Callers match it with errors.Is.
var ErrSerialization = errors.New("malformed serialized input")

// ErrZeroScalar is returned when key generation or dealing draws a zero
// scalar where the protocol requires an invertible one.
var ErrZeroScalar = errors.New("scalar must be non-zero")
