package friend

import (
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"lukechampine.com/uint128"
)

// Status is whether the local controller wants this friend's channel
// enabled at all, set by Control's SetFriendStatus.
type Status int

const (
	// Disabled means the friend is known but inactive: no move-tokens are
	// built toward it even if online.
	Disabled Status = iota
	// Enabled means the friend participates in scheduling.
	Enabled
)

// State is the durable per-friend record described in spec.md §3.
type State struct {
	RemotePublicKey identity.PublicKey
	RemoteRelays    []Relay
	Name            string

	Status               Status
	WantedRemoteMaxDebt  uint128.Uint128
	WantedLocalRequests  mutualcredit.RequestsStatus

	// channel_status: exactly one of channel/inconsistent is non-nil.
	channel      *tokenchannel.Channel
	inconsistent *tokenchannel.ChannelInconsistent

	SentLocalRelays SentLocalRelays

	PendingResponses    *OperationQueue
	PendingRequests      *OperationQueue
	PendingUserRequests *OperationQueue

	inconsistencyCounter uint64
}

// NewState creates a friend record fresh off an AddFriend control command,
// with a brand-new Consistent channel at the given opening balance.
func NewState(remoteKey identity.PublicKey, relays []Relay, name string, openingBalance mutualcredit.Balance) *State {
	return &State{
		RemotePublicKey:     remoteKey,
		RemoteRelays:        relays,
		Name:                name,
		Status:              Disabled,
		WantedLocalRequests: mutualcredit.StatusClosed,
		channel:             tokenchannel.NewChannel(openingBalance),
		PendingResponses:    NewOperationQueue(),
		PendingRequests:     NewOperationQueue(),
		PendingUserRequests: NewOperationQueue(),
	}
}

// IsConsistent reports whether channel_status is Consistent.
func (s *State) IsConsistent() bool { return s.channel != nil }

// Channel returns the live token channel, or nil if the friend is currently
// Inconsistent.
func (s *State) Channel() *tokenchannel.Channel { return s.channel }

// Inconsistent returns the reset-protocol state, or nil if the friend is
// currently Consistent.
func (s *State) Inconsistent() *tokenchannel.ChannelInconsistent { return s.inconsistent }

// MarkInconsistent replaces a Consistent channel_status with Inconsistent,
// deriving fresh local reset terms from the channel's last agreed state per
// spec.md §4.2. The negation of the channel's own balance is offered as
// balance_for_reset, since a fresh channel for the other side must start at
// the negated view.
func (s *State) MarkInconsistent(localKey identity.PublicKey) {
	if s.channel == nil {
		return
	}
	s.inconsistencyCounter++
	balanceForReset := s.channel.MutualCredit().Balance().Neg()
	var lastIncoming *tokenchannel.MoveToken
	if s.channel.LastIncoming() != nil {
		lastIncoming = s.channel.LastIncoming()
	}
	s.inconsistent = &tokenchannel.ChannelInconsistent{
		LocalResetTerms: tokenchannel.ResetTerms{
			ResetToken:           tokenchannel.ComputeResetToken(localKey, s.RemotePublicKey, s.inconsistencyCounter),
			InconsistencyCounter: s.inconsistencyCounter,
			BalanceForReset:      balanceForReset,
		},
		OptLastIncomingToken: lastIncoming,
	}
	s.channel = nil
}

// ReceiveRemoteResetTerms records the remote's reset proposal, received via
// an InconsistencyError friend message.
func (s *State) ReceiveRemoteResetTerms(terms tokenchannel.ResetTerms) error {
	if s.inconsistent == nil {
		return ErrChannelConsistent
	}
	s.inconsistent.OptRemoteResetTerms = &terms
	return nil
}

// ResolveReset replaces Inconsistent with a fresh Consistent channel once
// both sides' reset terms are compatible, per spec.md §4.2.
func (s *State) ResolveReset() (*tokenchannel.MoveToken, error) {
	if s.inconsistent == nil {
		return nil, ErrChannelConsistent
	}
	fresh, mt, err := tokenchannel.ApplyLocalReset(s.inconsistent, s.inconsistent.LocalResetTerms.BalanceForReset.Neg())
	if err != nil {
		return nil, err
	}
	s.channel = fresh
	s.inconsistent = nil
	return mt, nil
}

// EstimateShouldSend implements spec.md §4.5's estimate_should_send: true
// when our wanted relays/limits diverge from what the channel last agreed,
// or any of the three queues holds work.
func (s *State) EstimateShouldSend(wantedRelays []Relay) bool {
	if s.SentLocalRelays.Diverges(wantedRelays) {
		return true
	}
	if s.channel != nil {
		mc := s.channel.MutualCredit()
		if mc.RemoteMaxDebt().Cmp(s.WantedRemoteMaxDebt) != 0 {
			return true
		}
		if mc.LocalRequestsStatus() != s.WantedLocalRequests {
			return true
		}
	}
	return s.PendingResponses.Len() > 0 ||
		s.PendingRequests.Len() > 0 ||
		s.PendingUserRequests.Len() > 0
}
