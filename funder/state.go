package funder

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// RequestOrigin names the friend a forwarded request arrived from, used to
// route a cancellation failure back along the chain per spec.md §4.5's
// find_request_origin. An origin that is not found means the local node is
// the request's originator.
type RequestOrigin struct {
	FriendKey identity.PublicKey
}

// State is FunderState, the top-level durable state described in spec.md
// §3: local identity, the friends map, and the owned relay list.
type State struct {
	LocalPublicKey identity.PublicKey
	Friends        map[identity.PublicKey]*friend.State
	OwnedRelays    []friend.Relay

	// requestOrigin is the secondary request_id -> origin-friend index
	// named in spec.md §9 as a correctness-preserving optimisation over a
	// linear scan of every friend's pendingRemoteRequests.
	requestOrigin map[mutualcredit.RequestId]RequestOrigin
}

// NewState creates an empty FunderState for the given local identity.
func NewState(localKey identity.PublicKey) *State {
	return &State{
		LocalPublicKey: localKey,
		Friends:        make(map[identity.PublicKey]*friend.State),
		requestOrigin:  make(map[mutualcredit.RequestId]RequestOrigin),
	}
}

// FindRequestOrigin looks up the friend a forwarded request arrived from.
func (s *State) FindRequestOrigin(id mutualcredit.RequestId) (RequestOrigin, bool) {
	origin, ok := s.requestOrigin[id]
	return origin, ok
}

// IndexIncomingRequest records that requestId arrived from friendKey, so a
// later cancellation can be routed back without a linear scan. Called
// whenever a RequestSendFunds is accepted into a friend's
// pendingRemoteRequests.
func (s *State) IndexIncomingRequest(id mutualcredit.RequestId, friendKey identity.PublicKey) {
	s.requestOrigin[id] = RequestOrigin{FriendKey: friendKey}
}

// ForgetRequest removes a settled request from the secondary index.
func (s *State) ForgetRequest(id mutualcredit.RequestId) {
	delete(s.requestOrigin, id)
}

// IsFriendReady implements original_source handler/mod.rs's is_friend_ready:
// true when the friend is known, Enabled, its channel is Consistent, and its
// remote side currently accepts forwarded requests — the admission test a
// forwarding RequestSendFunds must pass before a hop even attempts to queue
// it, and the same boolean the Report Projector surfaces as
// FriendReport.IsRoutable (SPEC_FULL.md §4).
func (s *State) IsFriendReady(key identity.PublicKey) bool {
	f, ok := s.Friends[key]
	if !ok || f.Status != friend.Enabled || !f.IsConsistent() {
		return false
	}
	return f.Channel().MutualCredit().RemoteRequestsStatus() == mutualcredit.StatusOpen
}
