// Package pvss implements publicly verifiable secret sharing: per-dealer
// transcript generation, third-party verification against polynomial
// commitments, and aggregation of verified transcripts into the committee's
// key material.
//
// Dealing, verification, and aggregation are pure computations over
// immutable inputs; verifying N transcripts parallelizes with no shared
// state.
package pvss

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
)

// Transcript is one dealer's complete PVSS contribution:
//
//   - Coefficients: Feldman commitments F_k = g*a_k to the secret
//     polynomial, one per coefficient (F_0 commits to the dealer's secret).
//   - Shares: the blinded polynomial evaluations Y_i = ek_i*phi(alpha_i),
//     one per committee validator, positional by share index.
//   - Sigma: proof of knowledge h*s of the secret free coefficient.
//
// A transcript is produced once by exactly one dealer and is immutable
// thereafter. Anyone can verify it without private data.
type Transcript struct {
	Coefficients []bls12381.G1Affine
	Shares       []bls12381.G2Affine
	Sigma        bls12381.G2Affine
}

// Deal generates a dealer's transcript for the given committee and
// threshold: a random polynomial of degree threshold-1 is sampled, evaluated
// at every validator's domain point, and each evaluation is blinded under
// the recipient's public encryption key. The polynomial and its evaluations
// are zeroized before returning.
func Deal(committee *model.Committee, threshold uint32) (*Transcript, error) {
	n := committee.Size()
	if threshold == 0 || int(threshold) > n {
		return nil, fmt.Errorf("threshold %d for committee of %d: %w",
			threshold, n, model.ErrInsufficientValidators)
	}

	poly, err := crypto.NewSecretPolynomial(int(threshold) - 1)
	if err != nil {
		return nil, fmt.Errorf("sampling secret polynomial: %w", err)
	}
	defer poly.Zeroize()

	shares := make([]bls12381.G2Affine, n)
	for _, v := range committee.Validators() {
		eval := poly.Evaluate(crypto.DomainPoint(v.ShareIndex))
		shares[v.ShareIndex] = crypto.ScalarMulG2(&v.PublicKey.Point, &eval)
		eval.SetZero()
	}

	secret := poly.Secret()
	h := crypto.G2Generator()
	sigma := crypto.ScalarMulG2(&h, &secret)
	secret.SetZero()

	return &Transcript{
		Coefficients: poly.Commitments(),
		Shares:       shares,
		Sigma:        sigma,
	}, nil
}

// VerifyOptimistic checks only the proof of knowledge: e(F_0, h) == e(g, sigma).
// The per-share commitment check is deferred to full verification.
func (t *Transcript) VerifyOptimistic() bool {
	if len(t.Coefficients) == 0 {
		return false
	}
	gNeg := crypto.G1GeneratorNeg()
	h := crypto.G2Generator()
	ok, err := crypto.PairingProductIsOne(
		[]bls12381.G1Affine{t.Coefficients[0], gNeg},
		[]bls12381.G2Affine{h, t.Sigma},
	)
	return err == nil && ok
}

// Verify performs the full public check of the transcript against the
// committee: for every validator i, the blinded share must satisfy
// e(g, Y_i) == e(A_i, ek_i) with A_i the committed polynomial evaluated in
// the exponent at the validator's domain point. It never requires private
// shares, is deterministic, and is safe to repeat or parallelize.
func (t *Transcript) Verify(committee *model.Committee) error {
	if len(t.Coefficients) == 0 {
		return fmt.Errorf("transcript has no commitments: %w", ErrInvalidTranscript)
	}
	if len(t.Shares) != committee.Size() {
		return fmt.Errorf("transcript has %d shares for committee of %d: %w",
			len(t.Shares), committee.Size(), ErrInvalidTranscript)
	}
	if !t.VerifyOptimistic() {
		return fmt.Errorf("proof of knowledge check failed: %w", ErrInvalidTranscript)
	}

	gNeg := crypto.G1GeneratorNeg()
	for _, v := range committee.Validators() {
		commitment := crypto.EvaluateCommitments(t.Coefficients, crypto.DomainPoint(v.ShareIndex))
		ok, err := crypto.PairingProductIsOne(
			[]bls12381.G1Affine{gNeg, commitment},
			[]bls12381.G2Affine{t.Shares[v.ShareIndex], v.PublicKey.Point},
		)
		if err != nil {
			return fmt.Errorf("share check for validator %s: %w", v, err)
		}
		if !ok {
			return fmt.Errorf("share check failed for validator %s: %w", v, ErrInvalidTranscript)
		}
	}
	return nil
}

// Threshold returns the threshold the transcript was dealt for, which equals
// its number of polynomial commitments.
func (t *Transcript) Threshold() uint32 {
	return uint32(len(t.Coefficients))
}
