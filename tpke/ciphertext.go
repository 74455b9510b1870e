package tpke

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ghardin1314/ferveo/crypto"
)

// NonceSize is the AEAD nonce width carried in every ciphertext.
const NonceSize = chacha20poly1305.NonceSize

// Ciphertext is the hybrid encryption of a payload under a committee public
// key:
//
//   - Commitment U = g*r binds the ephemeral scalar r.
//   - Nonce is the random AEAD nonce.
//   - Payload is the ChaCha20-Poly1305 sealing of the plaintext under the
//     key derived from the pairing shared secret e(Y*r, h).
//   - AuthTag W = H_G2(U || nonce || payload || aad)*r makes the whole
//     ciphertext publicly checkable before any decryption share is derived.
//
// A ciphertext is immutable once produced.
type Ciphertext struct {
	Commitment bls12381.G1Affine
	Nonce      [NonceSize]byte
	Payload    []byte
	AuthTag    bls12381.G2Affine
}

// Encrypt seals a payload under the committee public key, binding the
// associated data into both the AEAD and the authentication tag. The format
// is deterministic; the nonce and ephemeral scalar are randomized per call.
func Encrypt(pk *PublicKey, payload []byte, aad []byte) (*Ciphertext, error) {
	var r fr.Element
	if _, err := r.SetRandom(); err != nil {
		return nil, fmt.Errorf("sampling ephemeral scalar: %w", err)
	}
	if r.IsZero() {
		return nil, crypto.ErrZeroScalar
	}

	g1 := crypto.G1Generator()
	commitment := crypto.ScalarMulG1(&g1, &r)

	// Shared secret S = e(Y*r, h).
	yr := crypto.ScalarMulG1(&pk.Point, &r)
	h := crypto.G2Generator()
	secret, err := crypto.Pair(&yr, &h)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}

	aead, err := sharedSecretAEAD(&SharedSecret{Value: secret})
	if err != nil {
		return nil, err
	}
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("sampling nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce[:], payload, aad)

	tagPoint, err := tagHash(&commitment, nonce, sealed, aad)
	if err != nil {
		return nil, err
	}
	authTag := crypto.ScalarMulG2(&tagPoint, &r)

	return &Ciphertext{
		Commitment: commitment,
		Nonce:      nonce,
		Payload:    sealed,
		AuthTag:    authTag,
	}, nil
}

// Check verifies the ciphertext's pairing validity equation
// e(U, H_G2(U || nonce || payload || aad)) == e(g, W). It must pass before
// any decryption share is derived from the ciphertext, which is what makes
// the scheme CCA-secure rather than merely CPA-secure.
func (c *Ciphertext) Check(aad []byte) error {
	tagPoint, err := tagHash(&c.Commitment, c.Nonce, c.Payload, aad)
	if err != nil {
		return err
	}
	gNeg := crypto.G1GeneratorNeg()
	ok, err := crypto.PairingProductIsOne(
		[]bls12381.G1Affine{c.Commitment, gNeg},
		[]bls12381.G2Affine{tagPoint, c.AuthTag},
	)
	if err != nil {
		return fmt.Errorf("ciphertext pairing check: %w", err)
	}
	if !ok {
		return ErrCiphertextInvalid
	}
	return nil
}

// Decrypt checks the ciphertext and opens the payload with the combined
// shared secret. A tag mismatch fails without releasing partial plaintext.
func Decrypt(c *Ciphertext, aad []byte, sharedSecret *SharedSecret) ([]byte, error) {
	if err := c.Check(aad); err != nil {
		return nil, err
	}
	aead, err := sharedSecretAEAD(sharedSecret)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, c.Nonce[:], c.Payload, aad)
	if err != nil {
		return nil, ErrDecryptionFailure
	}
	return plaintext, nil
}

// Bytes encodes the ciphertext as
// commitment(48) || nonce(12) || len(payload)(4, big-endian) || payload || tag(96).
func (c *Ciphertext) Bytes() []byte {
	out := make([]byte, 0, crypto.G1Size+NonceSize+4+len(c.Payload)+crypto.G2Size)
	u := c.Commitment.Bytes()
	out = append(out, u[:]...)
	out = append(out, c.Nonce[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Payload)))
	out = append(out, c.Payload...)
	w := c.AuthTag.Bytes()
	out = append(out, w[:]...)
	return out
}

// CiphertextFromBytes decodes a ciphertext, rejecting malformed points and
// truncated payloads.
func CiphertextFromBytes(data []byte) (*Ciphertext, error) {
	minLen := crypto.G1Size + NonceSize + 4 + crypto.G2Size
	if len(data) < minLen {
		return nil, fmt.Errorf("ciphertext too short (%d bytes): %w", len(data), crypto.ErrSerialization)
	}
	var c Ciphertext
	off := 0
	if _, err := c.Commitment.SetBytes(data[off : off+crypto.G1Size]); err != nil {
		return nil, fmt.Errorf("invalid ciphertext commitment: %w", crypto.ErrSerialization)
	}
	off += crypto.G1Size
	copy(c.Nonce[:], data[off:off+NonceSize])
	off += NonceSize
	payloadLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if len(data) != minLen+int(payloadLen) {
		return nil, fmt.Errorf("ciphertext length mismatch: %w", crypto.ErrSerialization)
	}
	c.Payload = append([]byte(nil), data[off:off+int(payloadLen)]...)
	off += int(payloadLen)
	if _, err := c.AuthTag.SetBytes(data[off : off+crypto.G2Size]); err != nil {
		return nil, fmt.Errorf("invalid ciphertext auth tag: %w", crypto.ErrSerialization)
	}
	return &c, nil
}

// tagHash maps the ciphertext contents and associated data to the G2 point
// whose scalar multiple forms the authentication tag.
func tagHash(commitment *bls12381.G1Affine, nonce [NonceSize]byte, payload, aad []byte) (bls12381.G2Affine, error) {
	u := commitment.Bytes()
	input := make([]byte, 0, len(u)+NonceSize+len(payload)+len(aad))
	input = append(input, u[:]...)
	input = append(input, nonce[:]...)
	input = append(input, payload...)
	input = append(input, aad...)
	point, err := crypto.HashToG2(input)
	if err != nil {
		return bls12381.G2Affine{}, fmt.Errorf("hashing ciphertext tag: %w", err)
	}
	return point, nil
}

// sharedSecretAEAD derives the symmetric cipher from a GT shared secret.
func sharedSecretAEAD(s *SharedSecret) (cipher.AEAD, error) {
	key := sha256.Sum256(s.Bytes())
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing AEAD: %w", err)
	}
	return aead, nil
}
