package tokenchannel

import (
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// Builder accumulates operations for the next outbound move-token against a
// trial ledger, per spec.md §4.2: each operation is checked against the
// trial before being queued, so a failure is reported to the caller rather
// than silently queued.
type Builder struct {
	channel *Channel
	trial   *mutualcredit.MutualCredit

	localKey      identity.PublicKey
	remoteKey     identity.PublicKey
	previousToken [32]byte

	operations    []mutualcredit.Operation
	maxOperations int
}

// Len reports how many operations have been queued so far.
func (b *Builder) Len() int { return len(b.operations) }

// Full reports whether the builder has reached max_operations_in_batch.
func (b *Builder) Full() bool {
	return b.maxOperations > 0 && len(b.operations) >= b.maxOperations
}

// TryQueue validates op against the builder's trial ledger and, on success,
// appends it to the pending batch. The trial ledger's committed state
// becomes the basis for the next TryQueue call, so operations interact the
// way they would once actually applied in sequence.
func (b *Builder) TryQueue(op mutualcredit.Operation) error {
	if b.Full() {
		return ErrMaxOperationsReached
	}
	if _, err := b.trial.ApplyOutgoing(op); err != nil {
		return err
	}
	b.operations = append(b.operations, op)
	return nil
}

// Commit finalizes the batch: it asks signer to sign the unsigned
// move-token, installs the trial ledger as the channel's live state, flips
// direction to Outgoing, and returns the signed MoveToken ready for
// transmission.
func (b *Builder) Commit(signer identity.Signer, randNonce [16]byte) (*MoveToken, error) {
	mt := &MoveToken{
		Operations:        b.operations,
		PreviousToken:     b.previousToken,
		LocalKey:          b.localKey,
		RemoteKey:         b.remoteKey,
		MoveTokenCounter:  b.channel.moveTokenCounter + 1,
		NewBalance:        b.trial.Balance(),
		LocalPendingDebt:  b.trial.LocalPendingDebt(),
		RemotePendingDebt: b.trial.RemotePendingDebt(),
		RandNonce:         randNonce,
	}
	sig, err := signer.Sign(mt.SignedBuffer())
	if err != nil {
		return nil, err
	}
	mt.Signature = sig

	b.channel.mc = b.trial
	b.channel.lastOutgoing = mt
	b.channel.direction = Outgoing
	b.channel.moveTokenCounter = mt.MoveTokenCounter

	return mt, nil
}
