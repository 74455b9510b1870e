// Package dkg implements the distributed key generation state machine. A
// DKG instance orchestrates one committee's session: it deals the local
// validator's transcript, ingests and verifies peers' validator messages,
// and aggregates verified transcripts into the committee public key once
// the threshold is reached.
//
// The instance is the only stateful object in the module. All mutations are
// serialized behind one mutex; the caller may ingest messages from multiple
// goroutines. The core performs no scheduling and no network I/O. Deciding
// when enough transcripts have been collected is the calling orchestrator's
// responsibility.
package dkg

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
	"github.com/ghardin1314/ferveo/pvss"
	"github.com/ghardin1314/ferveo/tpke"
)

// DKG is a single committee session. A new instance must be created for
// every session; a concluded or aborted instance is not reusable.
type DKG struct {
	log       zerolog.Logger
	committee *model.Committee
	threshold uint32
	me        model.Validator

	// mu protects state, transcripts, aggregate, and publicKey. Transcript
	// count bookkeeping and state transitions are not independently
	// composable, so every mutation runs under the lock.
	mu          sync.Mutex
	state       State
	transcripts map[uint32]*pvss.Transcript
	aggregate   *pvss.AggregatedTranscript
	publicKey   *tpke.PublicKey
}

// New creates a DKG session for the given committee. The local validator
// must be a committee member with a matching public key, and the threshold
// must not exceed the committee size.
func New(log zerolog.Logger, committee *model.Committee, me model.Validator, threshold uint32) (*DKG, error) {
	if threshold == 0 || int(threshold) > committee.Size() {
		return nil, fmt.Errorf("threshold %d for committee of %d: %w",
			threshold, committee.Size(), model.ErrInsufficientValidators)
	}
	member, err := committee.ByAddress(me.Address)
	if err != nil {
		return nil, fmt.Errorf("local validator: %w", err)
	}
	if !member.Equal(me) {
		return nil, fmt.Errorf("local validator %s: %w", me, model.ErrValidatorPublicKeyMismatch)
	}

	logger := log.With().
		Str("component", "dkg").
		Str("me", me.Address).
		Uint32("threshold", threshold).
		Int("committee_size", committee.Size()).
		Logger()

	return &DKG{
		log:         logger,
		committee:   committee,
		threshold:   threshold,
		me:          me,
		state:       Initialized,
		transcripts: make(map[uint32]*pvss.Transcript),
	}, nil
}

// State returns the current protocol phase.
func (d *DKG) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Threshold returns the session threshold.
func (d *DKG) Threshold() uint32 {
	return d.threshold
}

// Committee returns the session's validator set.
func (d *DKG) Committee() *model.Committee {
	return d.committee
}

// Deal produces the local validator's transcript, registers it, and moves
// the session to Dealing. The keypair must match the local validator's
// declared public key. Legal only in Initialized.
func (d *DKG) Deal(keypair *crypto.Keypair) (*ValidatorMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Initialized {
		return nil, NewInvalidStateError("deal", d.state)
	}
	if !keypair.PublicKey().Equal(d.me.PublicKey) {
		return nil, fmt.Errorf("dealing keypair does not match local validator %s: %w",
			d.me, model.ErrValidatorPublicKeyMismatch)
	}

	transcript, err := pvss.Deal(d.committee, d.threshold)
	if err != nil {
		return nil, fmt.Errorf("dealing transcript: %w", err)
	}

	d.transcripts[d.me.ShareIndex] = transcript
	d.state = Dealing
	d.log.Debug().Msg("dealt own transcript, entering dealing phase")

	return &ValidatorMessage{Validator: d.me, Transcript: transcript}, nil
}

// Ingest registers a peer's (or the local validator's own, when echoed back
// by the broadcast layer) validator message. The dealer must be a committee
// member not yet registered, and the transcript must pass full public
// verification. A rejected message never corrupts already-accepted state.
// Legal only in Dealing.
func (d *DKG) Ingest(msg *ValidatorMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Dealing {
		return NewInvalidStateError("ingest", d.state)
	}

	dealer := msg.Validator
	member, err := d.committee.ByAddress(dealer.Address)
	if err != nil {
		return fmt.Errorf("dealer %s: %w", dealer, ErrDealerNotInValidatorSet)
	}
	if !member.Equal(dealer) {
		return fmt.Errorf("dealer %s declared a different identity than the roster: %w",
			dealer, model.ErrValidatorPublicKeyMismatch)
	}
	if msg.Transcript == nil {
		return fmt.Errorf("dealer %s sent no transcript: %w", dealer, pvss.ErrInvalidTranscript)
	}
	if existing, ok := d.transcripts[dealer.ShareIndex]; ok {
		// Re-delivery of the exact same transcript is a broadcast echo, not
		// a second deal.
		if transcriptsEqual(existing, msg.Transcript) {
			return nil
		}
		return fmt.Errorf("dealer %s: %w", dealer, ErrDuplicateDealer)
	}

	if msg.Transcript.Threshold() != d.threshold {
		return fmt.Errorf("dealer %s dealt for threshold %d, session requires %d: %w",
			dealer, msg.Transcript.Threshold(), d.threshold, pvss.ErrInvalidTranscript)
	}
	if err := msg.Transcript.Verify(d.committee); err != nil {
		return fmt.Errorf("dealer %s: %w", dealer, err)
	}

	d.transcripts[dealer.ShareIndex] = msg.Transcript
	d.log.Debug().
		Str("dealer", dealer.Address).
		Int("verified_transcripts", len(d.transcripts)).
		Msg("ingested validator message")
	return nil
}

// Aggregate combines the verified transcripts into the committee's
// aggregated transcript and public key once at least threshold distinct
// dealers are registered, finalizing the session. Calling it again after
// finalization is idempotent and returns the same aggregate. Legal in
// Dealing and Finalized.
func (d *DKG) Aggregate() (*pvss.AggregatedTranscript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Finalized {
		return d.aggregate, nil
	}
	if d.state != Dealing {
		return nil, NewInvalidStateError("aggregate", d.state)
	}
	if uint32(len(d.transcripts)) < d.threshold {
		return nil, fmt.Errorf("%d verified transcripts, need %d: %w",
			len(d.transcripts), d.threshold, pvss.ErrInsufficientTranscripts)
	}

	d.state = Aggregating

	aggregate, err := pvss.Aggregate(d.committee, d.threshold, d.transcripts)
	if err != nil {
		d.state = Invalid
		d.log.Error().Err(err).Msg("aggregation failed, aborting session")
		return nil, fmt.Errorf("aggregating transcripts: %w", err)
	}
	if err := aggregate.Verify(d.committee, d.transcripts); err != nil {
		d.state = Invalid
		d.log.Error().Err(err).Msg("aggregate verification failed, aborting session")
		return nil, fmt.Errorf("verifying aggregate: %w", err)
	}
	publicKey, err := aggregate.PublicKey()
	if err != nil {
		d.state = Invalid
		d.log.Error().Err(err).Msg("public key extraction failed, aborting session")
		return nil, fmt.Errorf("extracting public key: %w", err)
	}

	d.aggregate = aggregate
	d.publicKey = publicKey
	d.state = Finalized
	d.log.Info().
		Int("contributors", len(aggregate.Contributors)).
		Msg("DKG finalized")
	return aggregate, nil
}

// PublicKey returns the committee public key. Legal only in Finalized.
func (d *DKG) PublicKey() (*tpke.PublicKey, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Finalized {
		return nil, NewInvalidStateError("read public key", d.state)
	}
	return d.publicKey, nil
}

// Transcript returns the registered transcript for a dealer address.
func (d *DKG) Transcript(address string) (*pvss.Transcript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	member, err := d.committee.ByAddress(address)
	if err != nil {
		return nil, fmt.Errorf("dealer %s: %w", address, ErrDealerNotInValidatorSet)
	}
	transcript, ok := d.transcripts[member.ShareIndex]
	if !ok {
		return nil, fmt.Errorf("dealer %s: %w", address, ErrUnknownDealer)
	}
	return transcript, nil
}

// VerifyAggregate re-verifies an aggregated transcript against this
// session's registered transcripts, e.g. one received from a peer instead
// of computed locally. Legal in Dealing and Finalized.
func (d *DKG) VerifyAggregate(aggregate *pvss.AggregatedTranscript) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Dealing && d.state != Finalized {
		return NewInvalidStateError("verify", d.state)
	}
	return aggregate.Verify(d.committee, d.transcripts)
}

// VerifyTranscripts re-runs full verification over every registered
// transcript in parallel and collects all failures. Verification is pure,
// so concurrent checks share no state.
func (d *DKG) VerifyTranscripts() error {
	d.mu.Lock()
	if d.state != Dealing && d.state != Finalized {
		d.mu.Unlock()
		return NewInvalidStateError("verify", d.state)
	}
	transcripts := make(map[uint32]*pvss.Transcript, len(d.transcripts))
	for dealer, t := range d.transcripts {
		transcripts[dealer] = t
	}
	d.mu.Unlock()

	var group multierror.Group
	for dealer, transcript := range transcripts {
		dealer, transcript := dealer, transcript
		group.Go(func() error {
			if err := transcript.Verify(d.committee); err != nil {
				return fmt.Errorf("dealer index %d: %w", dealer, err)
			}
			return nil
		})
	}
	return group.Wait().ErrorOrNil()
}

// Abort moves the session to the absorbing Invalid state and drops all
// session data. Every subsequent operation fails with an
// InvalidStateError. Aborting an already-aborted session is a no-op.
func (d *DKG) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Invalid {
		return
	}
	d.log.Warn().Str("state", d.state.String()).Msg("aborting DKG session")
	d.state = Invalid
	d.transcripts = make(map[uint32]*pvss.Transcript)
	d.aggregate = nil
	d.publicKey = nil
}

// transcriptsEqual compares two transcripts by their canonical encoding.
func transcriptsEqual(a, b *pvss.Transcript) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}
