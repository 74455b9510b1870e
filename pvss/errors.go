package pvss

import "errors"

var (
	// ErrInvalidTranscript is returned when a transcript fails its public
	// verification equations against the dealer's declared commitments.
	ErrInvalidTranscript = errors.New("invalid PVSS transcript")

	// ErrInvalidAggregate is returned when an aggregated transcript violates
	// a combination invariant: inconsistent committee shape across the
	// constituent transcripts, a failed verification equation, or a constant
	// commitment that does not match the sum of its contributions.
	ErrInvalidAggregate = errors.New("transcript aggregate does not match the received PVSS instances")

	// ErrInvalidPublicKey is returned when a structurally valid aggregate
	// yields a malformed committee public key at extraction time (the
	// identity element). Aggregate-consistency checks always fire first.
	ErrInvalidPublicKey = errors.New("invalid DKG public key")

	// ErrInsufficientTranscripts is returned when aggregation is attempted
	// with fewer verified transcripts than the threshold.
	ErrInsufficientTranscripts = errors.New("insufficient transcripts for aggregation")

	// ErrInvalidShareIndex is returned when a share index is outside the
	// committee's range.
	ErrInvalidShareIndex = errors.New("share index outside committee range")

	// ErrMismatchedShareUpdates is returned when share recovery inputs do
	// not line up: no shares, or index and share counts that differ.
	ErrMismatchedShareUpdates = errors.New("share recovery inputs misaligned")
)
