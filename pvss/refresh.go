package pvss

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
	"github.com/ghardin1314/ferveo/tpke"
)

// ShareUpdates is one helper validator's batch of additive corrections to
// the committee's private key shares: delta_i = h*d(alpha_i), positional by
// share index, for a random update polynomial d with a prescribed root.
// Applying every helper's delta moves the shares from Phi to Phi + sum d_j,
// which agrees with Phi exactly at the common root.
type ShareUpdates struct {
	Updates []bls12381.G2Affine
}

// PrepareRefreshUpdates samples a helper's update batch whose polynomial
// has its root at zero. Applying a full set of such batches re-randomizes
// every private key share while the committee public key, and the secret it
// protects, stay unchanged. Shares from before and after a refresh do not
// combine.
func PrepareRefreshUpdates(committee *model.Committee, threshold uint32) (*ShareUpdates, error) {
	var zero fr.Element
	return prepareUpdatesWithRoot(committee, threshold, zero)
}

// PrepareRecoveryUpdates samples a helper's update batch whose polynomial
// has its root at the given share index's domain point. Updated shares all
// agree with the original polynomial at that point, so they interpolate to
// the share living there without revealing the helpers' own shares. The
// index does not need to belong to a current member: an index one past the
// committee recovers a share for an incoming validator.
func PrepareRecoveryUpdates(committee *model.Committee, threshold uint32, recoverIndex uint32) (*ShareUpdates, error) {
	return prepareUpdatesWithRoot(committee, threshold, crypto.DomainPoint(recoverIndex))
}

func prepareUpdatesWithRoot(committee *model.Committee, threshold uint32, root fr.Element) (*ShareUpdates, error) {
	n := committee.Size()
	if threshold == 0 || int(threshold) > n {
		return nil, fmt.Errorf("threshold %d for committee of %d: %w",
			threshold, n, model.ErrInsufficientValidators)
	}

	poly, err := crypto.NewSecretPolynomialWithRoot(int(threshold)-1, root)
	if err != nil {
		return nil, fmt.Errorf("sampling update polynomial: %w", err)
	}
	defer poly.Zeroize()

	h := crypto.G2Generator()
	updates := make([]bls12381.G2Affine, n)
	for _, v := range committee.Validators() {
		eval := poly.Evaluate(crypto.DomainPoint(v.ShareIndex))
		updates[v.ShareIndex] = crypto.ScalarMulG2(&h, &eval)
		eval.SetZero()
	}
	return &ShareUpdates{Updates: updates}, nil
}

// ForValidator returns the correction addressed to one validator.
func (u *ShareUpdates) ForValidator(shareIndex uint32) (bls12381.G2Affine, error) {
	if int(shareIndex) >= len(u.Updates) {
		return bls12381.G2Affine{}, fmt.Errorf("share index %d for %d updates: %w",
			shareIndex, len(u.Updates), ErrInvalidShareIndex)
	}
	return u.Updates[shareIndex], nil
}

// ApplyShareUpdates folds helpers' corrections into a private key share.
// The input share is unchanged; the caller owns both and zeroizes whichever
// it releases.
func ApplyShareUpdates(share *tpke.PrivateKeyShare, updates ...bls12381.G2Affine) *tpke.PrivateKeyShare {
	points := make([]bls12381.G2Affine, 0, len(updates)+1)
	points = append(points, share.Point)
	points = append(points, updates...)
	return &tpke.PrivateKeyShare{Point: crypto.SumG2(points...)}
}

// UpdatePrivateKeyShare decrypts the validator's aggregated share and
// applies the helpers' corrections in one step, zeroizing the intermediate
// unblinded share.
func (a *AggregatedTranscript) UpdatePrivateKeyShare(
	keypair *crypto.Keypair,
	shareIndex uint32,
	updates ...bls12381.G2Affine,
) (*tpke.PrivateKeyShare, error) {
	share, err := a.DecryptPrivateKeyShare(keypair, shareIndex)
	if err != nil {
		return nil, err
	}
	defer share.Zeroize()
	return ApplyShareUpdates(share, updates...), nil
}

// RecoverPrivateKeyShare interpolates updated private key shares at the
// recovering validator's domain point, yielding the share that lives there.
// The share indices select the interpolation points and must align with the
// shares positionally. Correctness requires at least threshold updated
// shares; fewer interpolate to an unrelated point.
func RecoverPrivateKeyShare(
	recoverIndex uint32,
	shareIndices []uint32,
	shares []*tpke.PrivateKeyShare,
) (*tpke.PrivateKeyShare, error) {
	if len(shares) == 0 || len(shareIndices) != len(shares) {
		return nil, fmt.Errorf("%d share indices for %d shares: %w",
			len(shareIndices), len(shares), ErrMismatchedShareUpdates)
	}
	lagrange, err := crypto.LagrangeCoefficientsAt(
		crypto.DomainPoint(recoverIndex), crypto.DomainPoints(shareIndices))
	if err != nil {
		return nil, fmt.Errorf("computing lagrange coefficients: %w", err)
	}

	terms := make([]bls12381.G2Affine, len(shares))
	for i, share := range shares {
		terms[i] = crypto.ScalarMulG2(&share.Point, &lagrange[i])
	}
	return &tpke.PrivateKeyShare{Point: crypto.SumG2(terms...)}, nil
}
