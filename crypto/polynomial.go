package crypto

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// SecretPolynomial is a random polynomial phi(x) = s + a_1*x + ... +
// a_{t-1}*x^{t-1} whose free coefficient is a dealer's secret contribution.
// It is a scoped secret: the dealer evaluates and commits to it once, then
// zeroizes it.
type SecretPolynomial struct {
	coeffs []fr.Element
}

// NewSecretPolynomial samples a random polynomial of the given degree with a
// random free coefficient, drawing all coefficients from crypto/rand.
func NewSecretPolynomial(degree int) (*SecretPolynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must be non-negative, got %d", degree)
	}
	coeffs := make([]fr.Element, degree+1)
	for i := range coeffs {
		if _, err := coeffs[i].SetRandom(); err != nil {
			return nil, fmt.Errorf("sampling polynomial coefficient %d: %w", i, err)
		}
	}
	if coeffs[0].IsZero() {
		return nil, ErrZeroScalar
	}
	return &SecretPolynomial{coeffs: coeffs}, nil
}

// NewSecretPolynomialWithRoot samples a random polynomial of the given
// degree conditioned on phi(root) = 0: all non-free coefficients are drawn
// from crypto/rand, and the free term is then fixed so the root holds.
// Share-update polynomials are built this way; a root at zero preserves the
// shared secret, a root at a validator's domain point preserves that
// validator's share.
func NewSecretPolynomialWithRoot(degree int, root fr.Element) (*SecretPolynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must be non-negative, got %d", degree)
	}
	coeffs := make([]fr.Element, degree+1)
	for i := 1; i <= degree; i++ {
		if _, err := coeffs[i].SetRandom(); err != nil {
			return nil, fmt.Errorf("sampling polynomial coefficient %d: %w", i, err)
		}
	}
	p := &SecretPolynomial{coeffs: coeffs}
	eval := p.Evaluate(root)
	coeffs[0].Neg(&eval)
	return p, nil
}

// Degree returns the degree of the polynomial.
func (p *SecretPolynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Secret returns the free coefficient phi(0).
func (p *SecretPolynomial) Secret() fr.Element {
	return p.coeffs[0]
}

// Evaluate computes phi(x) by Horner's rule.
func (p *SecretPolynomial) Evaluate(x fr.Element) fr.Element {
	var y fr.Element
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		y.Mul(&y, &x)
		y.Add(&y, &p.coeffs[i])
	}
	return y
}

// Commitments returns the Feldman commitment to the polynomial: one G1
// element g*a_k per coefficient.
func (p *SecretPolynomial) Commitments() []bls12381.G1Affine {
	g1 := G1Generator()
	out := make([]bls12381.G1Affine, len(p.coeffs))
	for i := range p.coeffs {
		out[i] = ScalarMulG1(&g1, &p.coeffs[i])
	}
	return out
}

// Zeroize overwrites all coefficients. The polynomial must not be used after
// this call.
func (p *SecretPolynomial) Zeroize() {
	for i := range p.coeffs {
		p.coeffs[i].SetZero()
	}
}

// EvaluateCommitments evaluates a committed polynomial in the exponent at
// point x: given commitments F_k = g*a_k, returns g*phi(x). Verifiers use it
// to check blinded shares without ever seeing the polynomial.
func EvaluateCommitments(commitments []bls12381.G1Affine, x fr.Element) bls12381.G1Affine {
	var acc bls12381.G1Jac
	var power fr.Element
	power.SetOne()
	for i := range commitments {
		term := ScalarMulG1(&commitments[i], &power)
		acc.AddMixed(&term)
		power.Mul(&power, &x)
	}
	var out bls12381.G1Affine
	out.FromJacobian(&acc)
	return out
}
