package tokenchannel

import (
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// ReceiveOutcome tags the four-way result of receiving a move-token, per
// spec.md §4.2.
type ReceiveOutcome int

const (
	// OutcomeDuplicate means the incoming token equals our last incoming
	// one; it should be ignored.
	OutcomeDuplicate ReceiveOutcome = iota
	// OutcomeRetransmit means the remote missed our last send; we should
	// resend LastOutgoing verbatim.
	OutcomeRetransmit
	// OutcomeMove means the token was accepted; TcMutations were applied.
	OutcomeMove
	// OutcomeInconsistent means the token's counters, balance, or
	// previous-token do not match our records.
	OutcomeInconsistent
)

// ReceiveResult is the return value of Channel.ReceiveMoveToken.
type ReceiveResult struct {
	Outcome      ReceiveOutcome
	LastOutgoing *MoveToken // set only for OutcomeRetransmit
	TokenWanted  bool       // set only for OutcomeMove
}

// Channel is a TokenChannel: a MutualCredit plus the direction that
// currently holds the token, per spec.md §3-4.2. A Channel instance is
// never mutated across a reset; a fresh one replaces it (friend.State holds
// the pointer).
type Channel struct {
	mc        *mutualcredit.MutualCredit
	direction Direction

	lastIncoming *MoveToken
	lastOutgoing *MoveToken

	moveTokenCounter uint64
}

// NewChannel creates a fresh token channel at the given starting balance,
// with direction Incoming (so the local side may build the first outbound
// move-token), matching the empty move-token exchange of spec.md §8
// scenario 1.
func NewChannel(balance mutualcredit.Balance) *Channel {
	return &Channel{
		mc:        mutualcredit.NewMutualCredit(balance),
		direction: Incoming,
	}
}

// MutualCredit returns the channel's ledger.
func (c *Channel) MutualCredit() *mutualcredit.MutualCredit { return c.mc }

// Direction reports which side currently holds the token.
func (c *Channel) Direction() Direction { return c.direction }

// LastIncoming returns the last move-token we received and applied, or nil.
func (c *Channel) LastIncoming() *MoveToken { return c.lastIncoming }

// LastOutgoing returns the last move-token we sent, or nil.
func (c *Channel) LastOutgoing() *MoveToken { return c.lastOutgoing }

// ReceiveMoveToken processes an inbound move-token, implementing spec.md
// §4.2's four-way outcome. Operations are applied strictly in order; if any
// fails its preconditions the whole token is rejected as
// OutcomeInconsistent, and the (possibly partially mutated) trial ledger is
// discarded rather than committed.
func (c *Channel) ReceiveMoveToken(mt *MoveToken) ReceiveResult {
	if c.lastIncoming != nil && sameToken(mt, c.lastIncoming) {
		return ReceiveResult{Outcome: OutcomeDuplicate}
	}

	// The remote missed our last send and is asking again: its
	// previous-token still points at what we sent, not at what we have
	// since received from it.
	if c.direction == Outgoing && c.lastOutgoing != nil && mt.PreviousToken == c.lastOutgoing.Hash() {
		return ReceiveResult{Outcome: OutcomeRetransmit, LastOutgoing: c.lastOutgoing}
	}

	var expectedPrev [32]byte
	if c.lastIncoming != nil {
		expectedPrev = c.lastIncoming.Hash()
	}
	if mt.PreviousToken != expectedPrev {
		return ReceiveResult{Outcome: OutcomeInconsistent}
	}
	if mt.MoveTokenCounter != c.moveTokenCounter+1 {
		return ReceiveResult{Outcome: OutcomeInconsistent}
	}

	trial := c.mc.Clone()
	for _, op := range mt.Operations {
		if _, err := trial.ApplyIncoming(op); err != nil {
			return ReceiveResult{Outcome: OutcomeInconsistent}
		}
	}
	if trial.Balance().Cmp(mt.NewBalance) != 0 {
		return ReceiveResult{Outcome: OutcomeInconsistent}
	}

	c.mc = trial
	c.lastIncoming = mt
	c.direction = Incoming
	c.moveTokenCounter = mt.MoveTokenCounter

	return ReceiveResult{Outcome: OutcomeMove, TokenWanted: wantsToken(mt)}
}

func wantsToken(mt *MoveToken) bool {
	// token_wanted is carried implicitly by the presence of an empty
	// operations list combined with an explicit request; callers that
	// need the token back immediately construct a zero-operation
	// move-token, mirroring original_source's retransmit-on-want pattern.
	return len(mt.Operations) == 0
}

func sameToken(a, b *MoveToken) bool {
	return a.Hash() == b.Hash()
}

// NewBuilder starts accumulating an outbound move-token. It is only valid
// when direction is Incoming, per spec.md §4.2.
func (c *Channel) NewBuilder(localKey, remoteKey identity.PublicKey, maxOperations int) (*Builder, error) {
	if c.direction != Incoming {
		return nil, ErrWrongDirection
	}
	var prevToken [32]byte
	if c.lastIncoming != nil {
		prevToken = c.lastIncoming.Hash()
	}
	return &Builder{
		channel:       c,
		trial:         c.mc.Clone(),
		localKey:      localKey,
		remoteKey:     remoteKey,
		previousToken: prevToken,
		maxOperations: maxOperations,
	}, nil
}

// InstallOutgoing replays a previously-signed move-token we sent, without
// re-signing it: used to restore a channel's live state from the durable
// mutation log on recovery, where the signature was already computed once
// and only needs to be replayed, not recreated. On the live path
// Builder.Commit has already installed the token, so installing that same
// token again is a no-op.
func (c *Channel) InstallOutgoing(mt *MoveToken) error {
	if c.direction == Outgoing && c.lastOutgoing != nil && sameToken(mt, c.lastOutgoing) {
		return nil
	}
	if c.direction != Incoming {
		return ErrWrongDirection
	}
	trial := c.mc.Clone()
	for _, op := range mt.Operations {
		if _, err := trial.ApplyOutgoing(op); err != nil {
			return err
		}
	}
	c.mc = trial
	c.lastOutgoing = mt
	c.direction = Outgoing
	c.moveTokenCounter = mt.MoveTokenCounter
	return nil
}

// ApplyLocalReset resurrects a fresh Channel deterministically after both
// sides' reset terms are known and compatible, per spec.md §4.2: it
// synthesises a zero-operation move-token whose previous-token is the
// remote's proposed reset token.
func ApplyLocalReset(ci *ChannelInconsistent, startingBalance mutualcredit.Balance) (*Channel, *MoveToken, error) {
	if !ci.Compatible() {
		return nil, nil, ErrNotReadyForReset
	}
	mt := &MoveToken{
		PreviousToken:    ci.OptRemoteResetTerms.ResetToken,
		MoveTokenCounter: 0,
		NewBalance:       startingBalance,
	}
	fresh := NewChannel(startingBalance)
	fresh.lastIncoming = mt
	fresh.direction = Outgoing
	return fresh, mt, nil
}
