package pvss

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/exp/slices"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
	"github.com/ghardin1314/ferveo/tpke"
)

// AggregatedTranscript is the homomorphic sum of a set of verified
// transcripts: combined commitments, combined blinded shares, combined
// proof of knowledge, plus the sorted share indices of the contributing
// dealers. It is derived, read-only, and deterministic for a given input
// set regardless of arrival order.
type AggregatedTranscript struct {
	Transcript
	Contributors []uint32
	Threshold    uint32
}

// Aggregate combines verified transcripts, keyed by dealer share index,
// into an AggregatedTranscript. All transcripts must have been dealt for
// the same committee and threshold; shape mismatches are combination
// invariant violations. Fewer than threshold transcripts cannot form an
// aggregate.
func Aggregate(
	committee *model.Committee,
	threshold uint32,
	transcripts map[uint32]*Transcript,
) (*AggregatedTranscript, error) {
	if uint32(len(transcripts)) < threshold {
		return nil, fmt.Errorf("%d transcripts, need %d: %w",
			len(transcripts), threshold, ErrInsufficientTranscripts)
	}

	contributors := make([]uint32, 0, len(transcripts))
	for dealer := range transcripts {
		if int(dealer) >= committee.Size() {
			return nil, fmt.Errorf("dealer index %d outside committee: %w", dealer, ErrInvalidAggregate)
		}
		contributors = append(contributors, dealer)
	}
	// Sorting the contributor set makes aggregation independent of map
	// iteration and message arrival order.
	slices.Sort(contributors)

	n := committee.Size()
	coeffs := make([]bls12381.G1Affine, threshold)
	shares := make([]bls12381.G2Affine, n)
	var sigma bls12381.G2Affine

	for _, dealer := range contributors {
		t := transcripts[dealer]
		if uint32(len(t.Coefficients)) != threshold {
			return nil, fmt.Errorf("dealer %d committed to %d coefficients, expected %d: %w",
				dealer, len(t.Coefficients), threshold, ErrInvalidAggregate)
		}
		if len(t.Shares) != n {
			return nil, fmt.Errorf("dealer %d dealt %d shares for committee of %d: %w",
				dealer, len(t.Shares), n, ErrInvalidAggregate)
		}
		for k := range coeffs {
			coeffs[k] = crypto.SumG1(coeffs[k], t.Coefficients[k])
		}
		for i := range shares {
			shares[i] = crypto.SumG2(shares[i], t.Shares[i])
		}
		sigma = crypto.SumG2(sigma, t.Sigma)
	}

	return &AggregatedTranscript{
		Transcript: Transcript{
			Coefficients: coeffs,
			Shares:       shares,
			Sigma:        sigma,
		},
		Contributors: contributors,
		Threshold:    threshold,
	}, nil
}

// Verify checks that the aggregate is a valid combination of the given
// transcripts: the summed transcript must itself pass full verification
// against the committee, and the aggregate's constant commitment must equal
// the sum of the contributing transcripts' constant commitments. A failed
// attribution lets a validator re-verify individual transcripts to find the
// faulty dealer.
func (a *AggregatedTranscript) Verify(
	committee *model.Committee,
	transcripts map[uint32]*Transcript,
) error {
	if err := a.Transcript.Verify(committee); err != nil {
		return fmt.Errorf("aggregate failed transcript verification: %w", ErrInvalidAggregate)
	}

	var sum bls12381.G1Affine
	for _, dealer := range a.Contributors {
		t, ok := transcripts[dealer]
		if !ok {
			return fmt.Errorf("no transcript for contributor %d: %w", dealer, ErrInvalidAggregate)
		}
		if len(t.Coefficients) == 0 {
			return fmt.Errorf("contributor %d has no commitments: %w", dealer, ErrInvalidAggregate)
		}
		sum = crypto.SumG1(sum, t.Coefficients[0])
	}
	if !sum.Equal(&a.Coefficients[0]) {
		return fmt.Errorf("aggregate constant commitment does not match contributions: %w", ErrInvalidAggregate)
	}
	return nil
}

// PublicKey extracts the committee public key g*Phi(0) from the aggregate.
// The contributor set must meet the threshold, and the resulting key must be
// a usable group element.
func (a *AggregatedTranscript) PublicKey() (*tpke.PublicKey, error) {
	if uint32(len(a.Contributors)) < a.Threshold {
		return nil, fmt.Errorf("%d contributors, need %d: %w",
			len(a.Contributors), a.Threshold, ErrInsufficientTranscripts)
	}
	if len(a.Coefficients) == 0 {
		return nil, ErrInvalidPublicKey
	}
	key := a.Coefficients[0]
	if key.IsInfinity() {
		return nil, fmt.Errorf("aggregate public key is the identity element: %w", ErrInvalidPublicKey)
	}
	return &tpke.PublicKey{Point: key}, nil
}

// DecryptPrivateKeyShare unblinds the validator's aggregated encrypted
// share with its decryption key, yielding the private key share
// Z_i = h*Phi(alpha_i) used to derive decryption shares. The caller owns
// the result and must zeroize it on release.
func (a *AggregatedTranscript) DecryptPrivateKeyShare(
	keypair *crypto.Keypair,
	shareIndex uint32,
) (*tpke.PrivateKeyShare, error) {
	if int(shareIndex) >= len(a.Shares) {
		return nil, fmt.Errorf("share index %d for %d shares: %w",
			shareIndex, len(a.Shares), ErrInvalidShareIndex)
	}
	return &tpke.PrivateKeyShare{
		Point: keypair.UnblindG2(&a.Shares[shareIndex]),
	}, nil
}

// ShareAggregate returns the aggregated blinded share for a validator,
// needed by third parties verifying that validator's decryption shares.
func (a *AggregatedTranscript) ShareAggregate(shareIndex uint32) (bls12381.G2Affine, error) {
	if int(shareIndex) >= len(a.Shares) {
		return bls12381.G2Affine{}, fmt.Errorf("share index %d for %d shares: %w",
			shareIndex, len(a.Shares), ErrInvalidShareIndex)
	}
	return a.Shares[shareIndex], nil
}
