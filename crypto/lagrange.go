package crypto

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// LagrangeCoefficientsAt computes the Lagrange basis coefficients
// lambda_i(x0) for the given distinct evaluation points, so that for any
// polynomial phi of degree < len(points):
//
//	phi(x0) = sum_i lambda_i(x0) * phi(points[i])
//
// The points must be pairwise distinct; duplicates would make a denominator
// vanish, so they are rejected rather than producing a wrong interpolation.
func LagrangeCoefficientsAt(x0 fr.Element, points []fr.Element) ([]fr.Element, error) {
	coeffs := make([]fr.Element, len(points))
	for i := range points {
		var num, den fr.Element
		num.SetOne()
		den.SetOne()
		for j := range points {
			if j == i {
				continue
			}
			// num *= (x_j - x0) ; den *= (x_j - x_i)
			var diff fr.Element
			diff.Sub(&points[j], &x0)
			num.Mul(&num, &diff)
			diff.Sub(&points[j], &points[i])
			if diff.IsZero() {
				return nil, fmt.Errorf("duplicate evaluation points at %d and %d", i, j)
			}
			den.Mul(&den, &diff)
		}
		den.Inverse(&den)
		coeffs[i].Mul(&num, &den)
	}
	return coeffs, nil
}

// LagrangeCoefficientsAtZero computes the basis coefficients lambda_i(0)
// used when reconstructing the shared secret. The points must additionally
// be non-zero: a zero point would put a validator on the secret's own
// evaluation point.
func LagrangeCoefficientsAtZero(points []fr.Element) ([]fr.Element, error) {
	for i := range points {
		if points[i].IsZero() {
			return nil, fmt.Errorf("evaluation point %d is zero", i)
		}
	}
	var zero fr.Element
	return LagrangeCoefficientsAt(zero, points)
}
