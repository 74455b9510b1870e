// Package crypto implements the group and polynomial arithmetic underlying
// the PVSS and threshold-encryption protocols: BLS12-381 pairing operations,
// secret polynomials with Feldman commitments, Lagrange interpolation, and
// per-validator keypairs.
//
// All operations in this package are pure computations over immutable inputs
// and are safe for concurrent use.
package crypto

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Sizes of the fixed-width element encodings used across all wire formats.
// Group elements are always encoded in compressed form.
const (
	ScalarSize = fr.Bytes
	G1Size     = bls12381.SizeOfG1AffineCompressed
	G2Size     = bls12381.SizeOfG2AffineCompressed
	GTSize     = bls12381.SizeOfGT
)

// Domain separation tag for hashing to G2 when constructing ciphertext
// authentication tags.
var hashToG2DST = []byte("FERVEO_TPKE_BLS12381G2_XMD:SHA-256_SSWU_RO_")

var (
	g1Gen    bls12381.G1Affine
	g2Gen    bls12381.G2Affine
	g1GenNeg bls12381.G1Affine
)

func init() {
	_, _, g1Gen, g2Gen = bls12381.Generators()
	g1GenNeg.Neg(&g1Gen)
}

// G1Generator returns the fixed generator g of G1.
func G1Generator() bls12381.G1Affine {
	return g1Gen
}

// G2Generator returns the fixed generator h of G2.
func G2Generator() bls12381.G2Affine {
	return g2Gen
}

// G1GeneratorNeg returns -g, used as the left-hand side of pairing-product
// equality checks.
func G1GeneratorNeg() bls12381.G1Affine {
	return g1GenNeg
}

// HashToG2 hashes a message to a point of G2 under the protocol's domain
// separation tag.
func HashToG2(msg []byte) (bls12381.G2Affine, error) {
	return bls12381.HashToG2(msg, hashToG2DST)
}

// ScalarMulG1 returns p*s.
func ScalarMulG1(p *bls12381.G1Affine, s *fr.Element) bls12381.G1Affine {
	var bi big.Int
	s.BigInt(&bi)
	var out bls12381.G1Affine
	out.ScalarMultiplication(p, &bi)
	return out
}

// ScalarMulG2 returns p*s.
func ScalarMulG2(p *bls12381.G2Affine, s *fr.Element) bls12381.G2Affine {
	var bi big.Int
	s.BigInt(&bi)
	var out bls12381.G2Affine
	out.ScalarMultiplication(p, &bi)
	return out
}

// SumG1 returns the group sum of the given points. The empty sum is the
// identity element.
func SumG1(points ...bls12381.G1Affine) bls12381.G1Affine {
	var acc bls12381.G1Jac
	for i := range points {
		acc.AddMixed(&points[i])
	}
	var out bls12381.G1Affine
	out.FromJacobian(&acc)
	return out
}

// SumG2 returns the group sum of the given points. The empty sum is the
// identity element.
func SumG2(points ...bls12381.G2Affine) bls12381.G2Affine {
	var acc bls12381.G2Jac
	for i := range points {
		acc.AddMixed(&points[i])
	}
	var out bls12381.G2Affine
	out.FromJacobian(&acc)
	return out
}

// PairingProductIsOne reports whether the pairing product over the given
// point pairs equals the identity of GT. It is the primitive behind every
// verification equation in the protocol: an equality e(a1,b1) == e(a2,b2)
// is checked as e(-a1,b1)*e(a2,b2) == 1.
func PairingProductIsOne(g1s []bls12381.G1Affine, g2s []bls12381.G2Affine) (bool, error) {
	return bls12381.PairingCheck(g1s, g2s)
}

// Pair computes the pairing e(p, q).
func Pair(p *bls12381.G1Affine, q *bls12381.G2Affine) (bls12381.GT, error) {
	return bls12381.Pair([]bls12381.G1Affine{*p}, []bls12381.G2Affine{*q})
}

// GTExp returns x^s in GT.
func GTExp(x *bls12381.GT, s *fr.Element) bls12381.GT {
	var bi big.Int
	s.BigInt(&bi)
	var out bls12381.GT
	out.Exp(*x, &bi)
	return out
}

// DomainPoint returns the polynomial evaluation point assigned to a share
// index. Index i evaluates at i+1 so that no validator ever sits on the
// secret's evaluation point zero.
func DomainPoint(shareIndex uint32) fr.Element {
	var x fr.Element
	x.SetUint64(uint64(shareIndex) + 1)
	return x
}

// DomainPoints returns the evaluation points for a set of share indices.
func DomainPoints(shareIndices []uint32) []fr.Element {
	points := make([]fr.Element, len(shareIndices))
	for i, idx := range shareIndices {
		points[i] = DomainPoint(idx)
	}
	return points
}
