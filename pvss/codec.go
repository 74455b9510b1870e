package pvss

import (
	"encoding/binary"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/exp/slices"

	"github.com/ghardin1314/ferveo/crypto"
)

// Wire format notes: all group elements use the fixed-width compressed
// encoding; counts and indices are 4-byte big-endian. Encodings must
// round-trip byte-exact across validators, so decoding rejects anything
// malformed instead of normalizing it.

// Bytes encodes the transcript as
// numCoeffs(4) || coefficients(48 each) || numShares(4) ||
// (index(4) || share(96)) each || sigma(96).
func (t *Transcript) Bytes() []byte {
	size := 4 + crypto.G1Size*len(t.Coefficients) + 4 + (4+crypto.G2Size)*len(t.Shares) + crypto.G2Size
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint32(out, uint32(len(t.Coefficients)))
	for i := range t.Coefficients {
		b := t.Coefficients[i].Bytes()
		out = append(out, b[:]...)
	}
	out = binary.BigEndian.AppendUint32(out, uint32(len(t.Shares)))
	for i := range t.Shares {
		out = binary.BigEndian.AppendUint32(out, uint32(i))
		b := t.Shares[i].Bytes()
		out = append(out, b[:]...)
	}
	sigma := t.Sigma.Bytes()
	out = append(out, sigma[:]...)
	return out
}

// TranscriptFromBytes decodes a transcript, rejecting malformed points,
// truncated fields, and out-of-order share indices.
func TranscriptFromBytes(data []byte) (*Transcript, error) {
	var t Transcript
	rest, err := decodeTranscriptInto(&t, data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transcript: %w", len(rest), crypto.ErrSerialization)
	}
	return &t, nil
}

func decodeTranscriptInto(t *Transcript, data []byte) ([]byte, error) {
	numCoeffs, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if numCoeffs == 0 {
		return nil, fmt.Errorf("transcript with no commitments: %w", crypto.ErrSerialization)
	}
	if len(data) < int(numCoeffs)*crypto.G1Size {
		return nil, fmt.Errorf("truncated commitments: %w", crypto.ErrSerialization)
	}
	t.Coefficients = make([]bls12381.G1Affine, numCoeffs)
	for i := range t.Coefficients {
		if data, err = readG1(&t.Coefficients[i], data); err != nil {
			return nil, fmt.Errorf("commitment %d: %w", i, err)
		}
	}

	numShares, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if len(data) < int(numShares)*(4+crypto.G2Size) {
		return nil, fmt.Errorf("truncated shares: %w", crypto.ErrSerialization)
	}
	t.Shares = make([]bls12381.G2Affine, numShares)
	for i := range t.Shares {
		var idx uint32
		if idx, data, err = readUint32(data); err != nil {
			return nil, err
		}
		if idx != uint32(i) {
			return nil, fmt.Errorf("share index %d at position %d: %w", idx, i, crypto.ErrSerialization)
		}
		if data, err = readG2(&t.Shares[i], data); err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
	}

	if data, err = readG2(&t.Sigma, data); err != nil {
		return nil, fmt.Errorf("sigma: %w", err)
	}
	return data, nil
}

// Bytes encodes the aggregate as its combined transcript followed by
// threshold(4) || numContributors(4) || sorted contributor indices(4 each).
func (a *AggregatedTranscript) Bytes() []byte {
	out := a.Transcript.Bytes()
	out = binary.BigEndian.AppendUint32(out, a.Threshold)
	out = binary.BigEndian.AppendUint32(out, uint32(len(a.Contributors)))
	// Content is order-independent, but the index list is sorted on encode
	// for determinism.
	sorted := slices.Clone(a.Contributors)
	slices.Sort(sorted)
	for _, idx := range sorted {
		out = binary.BigEndian.AppendUint32(out, idx)
	}
	return out
}

// AggregatedTranscriptFromBytes decodes an aggregated transcript.
func AggregatedTranscriptFromBytes(data []byte) (*AggregatedTranscript, error) {
	var a AggregatedTranscript
	rest, err := decodeTranscriptInto(&a.Transcript, data)
	if err != nil {
		return nil, err
	}
	if a.Threshold, rest, err = readUint32(rest); err != nil {
		return nil, err
	}
	var numContributors uint32
	if numContributors, rest, err = readUint32(rest); err != nil {
		return nil, err
	}
	if len(rest) != 4*int(numContributors) {
		return nil, fmt.Errorf("aggregate length mismatch: %w", crypto.ErrSerialization)
	}
	a.Contributors = make([]uint32, numContributors)
	for i := range a.Contributors {
		a.Contributors[i], rest, _ = readUint32(rest)
	}
	if !slices.IsSorted(a.Contributors) {
		return nil, fmt.Errorf("contributor indices not sorted: %w", crypto.ErrSerialization)
	}
	for i := 1; i < len(a.Contributors); i++ {
		if a.Contributors[i] == a.Contributors[i-1] {
			return nil, fmt.Errorf("duplicate contributor %d: %w", a.Contributors[i], crypto.ErrSerialization)
		}
	}
	return &a, nil
}

func readUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("truncated field: %w", crypto.ErrSerialization)
	}
	return binary.BigEndian.Uint32(data[:4]), data[4:], nil
}

func readG1(p *bls12381.G1Affine, data []byte) ([]byte, error) {
	if len(data) < crypto.G1Size {
		return nil, fmt.Errorf("truncated G1 element: %w", crypto.ErrSerialization)
	}
	if _, err := p.SetBytes(data[:crypto.G1Size]); err != nil {
		return nil, fmt.Errorf("invalid G1 element: %w", crypto.ErrSerialization)
	}
	return data[crypto.G1Size:], nil
}

func readG2(p *bls12381.G2Affine, data []byte) ([]byte, error) {
	if len(data) < crypto.G2Size {
		return nil, fmt.Errorf("truncated G2 element: %w", crypto.ErrSerialization)
	}
	if _, err := p.SetBytes(data[:crypto.G2Size]); err != nil {
		return nil, fmt.Errorf("invalid G2 element: %w", crypto.ErrSerialization)
	}
	return data[crypto.G2Size:], nil
}
