package funder

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"lukechampine.com/uint128"
)

// Mutation is FunderMutation, the only way to change durable FunderState,
// per spec.md §3. mutate() (here, Apply) is deterministic and total over a
// valid state, so replaying the mutation log reconstructs state exactly.
type Mutation interface {
	Apply(s *State) error
}

// AddFriend adds a new friend record at the given opening balance.
type AddFriend struct {
	PublicKey identity.PublicKey
	Relays    []friend.Relay
	Name      string
	Balance   mutualcredit.Balance
}

// Apply implements Mutation.
func (m AddFriend) Apply(s *State) error {
	if _, exists := s.Friends[m.PublicKey]; exists {
		return ErrFriendExists
	}
	s.Friends[m.PublicKey] = friend.NewState(m.PublicKey, m.Relays, m.Name, m.Balance)
	return nil
}

// RemoveFriend deletes a friend record entirely.
type RemoveFriend struct {
	PublicKey identity.PublicKey
}

// Apply implements Mutation.
func (m RemoveFriend) Apply(s *State) error {
	if _, exists := s.Friends[m.PublicKey]; !exists {
		return ErrFriendNotFound
	}
	delete(s.Friends, m.PublicKey)
	return nil
}

// AddRelay appends an owned relay address.
type AddRelay struct {
	Relay friend.Relay
}

// Apply implements Mutation.
func (m AddRelay) Apply(s *State) error {
	for _, r := range s.OwnedRelays {
		if r.PublicKey == m.Relay.PublicKey {
			return ErrRelayExists
		}
	}
	s.OwnedRelays = append(s.OwnedRelays, m.Relay)
	return nil
}

// RemoveRelay deletes an owned relay address by public key.
type RemoveRelay struct {
	PublicKey [33]byte
}

// Apply implements Mutation.
func (m RemoveRelay) Apply(s *State) error {
	for i, r := range s.OwnedRelays {
		if r.PublicKey == m.PublicKey {
			s.OwnedRelays = append(s.OwnedRelays[:i], s.OwnedRelays[i+1:]...)
			return nil
		}
	}
	return ErrRelayNotFound
}

// IndexIncomingRequest records, in the secondary request-origin index
// (spec.md §9), that a forwarded request arrived from the given friend.
type IndexIncomingRequest struct {
	RequestId mutualcredit.RequestId
	FriendKey identity.PublicKey
}

// Apply implements Mutation.
func (m IndexIncomingRequest) Apply(s *State) error {
	s.IndexIncomingRequest(m.RequestId, m.FriendKey)
	return nil
}

// ForgetRequest removes a settled request from the secondary index.
type ForgetRequest struct {
	RequestId mutualcredit.RequestId
}

// Apply implements Mutation.
func (m ForgetRequest) Apply(s *State) error {
	s.ForgetRequest(m.RequestId)
	return nil
}

// FriendMutation wraps a per-friend mutation under the owning friend's
// public key, per spec.md §3's `FriendMutation(key, FriendMutation)`.
type FriendMutation struct {
	PublicKey identity.PublicKey
	Inner     FriendInnerMutation
}

// Apply implements Mutation.
func (m FriendMutation) Apply(s *State) error {
	f, ok := s.Friends[m.PublicKey]
	if !ok {
		return ErrFriendNotFound
	}
	return m.Inner.apply(s, f)
}

// FriendInnerMutation is the per-friend mutation sum nested inside
// FriendMutation: status/limit changes, queue pushes/pops, and the token
// channel's own transitions (TcMutation in spec.md's terms).
type FriendInnerMutation interface {
	apply(s *State, f *friend.State) error
}

type SetStatus struct{ Status friend.Status }

func (m SetStatus) apply(s *State, f *friend.State) error { f.Status = m.Status; return nil }

type SetWantedRemoteMaxDebt struct{ Amount uint128.Uint128 }

func (m SetWantedRemoteMaxDebt) apply(s *State, f *friend.State) error {
	f.WantedRemoteMaxDebt = m.Amount
	return nil
}

type SetWantedLocalRequestsStatus struct{ Status mutualcredit.RequestsStatus }

func (m SetWantedLocalRequestsStatus) apply(s *State, f *friend.State) error {
	f.WantedLocalRequests = m.Status
	return nil
}

type SetName struct{ Name string }

func (m SetName) apply(s *State, f *friend.State) error { f.Name = m.Name; return nil }

type SetRemoteRelays struct{ Relays []friend.Relay }

func (m SetRemoteRelays) apply(s *State, f *friend.State) error {
	f.RemoteRelays = m.Relays
	return nil
}

type BeginLocalRelaysTransition struct{ Relays []friend.Relay }

func (m BeginLocalRelaysTransition) apply(s *State, f *friend.State) error {
	f.SentLocalRelays.BeginTransition(m.Relays)
	return nil
}

type AcknowledgeLocalRelays struct{}

func (m AcknowledgeLocalRelays) apply(s *State, f *friend.State) error {
	f.SentLocalRelays.Acknowledge()
	return nil
}

// PushPendingResponse appends to pending_responses.
type PushPendingResponse struct{ Operation mutualcredit.Operation }

func (m PushPendingResponse) apply(s *State, f *friend.State) error {
	f.PendingResponses.Push(m.Operation)
	return nil
}

// PopPendingResponse removes the front of pending_responses.
type PopPendingResponse struct{}

func (m PopPendingResponse) apply(s *State, f *friend.State) error {
	f.PendingResponses.Pop()
	return nil
}

// PushPendingRequest appends to pending_requests (forwarded requests).
type PushPendingRequest struct{ Operation mutualcredit.Operation }

func (m PushPendingRequest) apply(s *State, f *friend.State) error {
	f.PendingRequests.Push(m.Operation)
	return nil
}

// PopPendingRequest removes the front of pending_requests.
type PopPendingRequest struct{}

func (m PopPendingRequest) apply(s *State, f *friend.State) error {
	f.PendingRequests.Pop()
	return nil
}

// PushPendingUserRequest appends to pending_user_requests.
type PushPendingUserRequest struct{ Operation mutualcredit.Operation }

func (m PushPendingUserRequest) apply(s *State, f *friend.State) error {
	f.PendingUserRequests.Push(m.Operation)
	return nil
}

// PopPendingUserRequest removes the front of pending_user_requests.
type PopPendingUserRequest struct{}

func (m PopPendingUserRequest) apply(s *State, f *friend.State) error {
	f.PendingUserRequests.Pop()
	return nil
}

// ReceiveMoveToken replays an inbound move-token's effect on the friend's
// token channel (TcMutation in spec.md's terms). The signature has already
// been verified once by the handler before this mutation was logged;
// replay re-derives the same deterministic outcome from the stored bytes.
type ReceiveMoveToken struct{ MoveToken *tokenchannel.MoveToken }

func (m ReceiveMoveToken) apply(s *State, f *friend.State) error {
	if !f.IsConsistent() {
		return friend.ErrChannelInconsistent
	}
	result := f.Channel().ReceiveMoveToken(m.MoveToken)
	if result.Outcome == tokenchannel.OutcomeInconsistent {
		f.MarkInconsistent(s.LocalPublicKey)
	}
	return nil
}

// CommitOutgoing replays a previously-signed outbound move-token, installing
// it as the channel's live state without recomputing the signature.
type CommitOutgoing struct{ MoveToken *tokenchannel.MoveToken }

func (m CommitOutgoing) apply(s *State, f *friend.State) error {
	if !f.IsConsistent() {
		return friend.ErrChannelInconsistent
	}
	return f.Channel().InstallOutgoing(m.MoveToken)
}

// MarkInconsistent transitions a friend's channel_status to Inconsistent.
type MarkInconsistent struct{}

func (m MarkInconsistent) apply(s *State, f *friend.State) error {
	f.MarkInconsistent(s.LocalPublicKey)
	return nil
}

// ReceiveRemoteResetTerms records the remote's reset proposal.
type ReceiveRemoteResetTerms struct{ Terms tokenchannel.ResetTerms }

func (m ReceiveRemoteResetTerms) apply(s *State, f *friend.State) error {
	return f.ReceiveRemoteResetTerms(m.Terms)
}

// ResolveReset resurrects a fresh Consistent channel.
type ResolveReset struct{}

func (m ResolveReset) apply(s *State, f *friend.State) error {
	_, err := f.ResolveReset()
	return err
}
