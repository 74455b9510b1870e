package dkg

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
	"github.com/ghardin1314/ferveo/pvss"
)

// ValidatorMessage is the unit broadcast between committee members during
// the dealing phase: a dealer's identity together with its transcript. The
// core treats transport as external; messages cross it as opaque byte
// payloads via Bytes and ValidatorMessageFromBytes.
type ValidatorMessage struct {
	Validator  model.Validator
	Transcript *pvss.Transcript
}

// envelope is the CBOR wire form of a ValidatorMessage. The transcript is
// nested as its fixed-width binary encoding so the envelope codec never
// touches group elements.
type envelope struct {
	Validator  model.Validator
	Transcript []byte
}

// Bytes encodes the message as a CBOR envelope.
func (m *ValidatorMessage) Bytes() ([]byte, error) {
	data, err := cbor.Marshal(envelope{
		Validator:  m.Validator,
		Transcript: m.Transcript.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not encode validator message: %w", err)
	}
	return data, nil
}

// ValidatorMessageFromBytes decodes a validator message, rejecting
// malformed envelopes and transcripts.
func ValidatorMessageFromBytes(data []byte) (*ValidatorMessage, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("could not decode validator message envelope: %w", crypto.ErrSerialization)
	}
	transcript, err := pvss.TranscriptFromBytes(env.Transcript)
	if err != nil {
		return nil, fmt.Errorf("could not decode message transcript: %w", err)
	}
	return &ValidatorMessage{
		Validator:  env.Validator,
		Transcript: transcript,
	}, nil
}
