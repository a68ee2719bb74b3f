package handler

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
)

// handleFriendMessage dispatches one message from a known friend, per
// spec.md §4.4. Unknown sources are silently dropped.
func (h *Handler) handleFriendMessage(sc *scratch, e FriendMessageEvent) {
	f, ok := h.state.Friends[e.Source]
	if !ok {
		return
	}

	switch msg := e.Message.(type) {
	case MoveTokenRequest:
		h.handleMoveTokenRequest(sc, e.Source, f, msg)

	case InconsistencyErrorMsg:
		_ = h.mutate(sc, funder.FriendMutation{
			PublicKey: e.Source,
			Inner:     funder.ReceiveRemoteResetTerms{Terms: msg.RemoteResetTerms},
		})
		sc.command(e.Source).localReset = true

	case KeepAliveMsg:
		// No state change; receipt alone is enough to keep the friend's
		// liveness timer fresh at the Channeler layer.
	}
}

func (h *Handler) handleMoveTokenRequest(sc *scratch, src identity.PublicKey, f *friend.State, msg MoveTokenRequest) {
	if !f.IsConsistent() {
		return
	}
	if !identity.Verify(src, msg.MoveToken.SignedBuffer(), msg.MoveToken.Signature) {
		_ = h.mutate(sc, funder.FriendMutation{PublicKey: src, Inner: funder.MarkInconsistent{}})
		inconsistenciesDetected.Inc()
		sc.command(src).localReset = true
		return
	}
	result := f.Channel().ReceiveMoveToken(msg.MoveToken)
	switch result.Outcome {
	case tokenchannel.OutcomeMove:
		_ = h.mutate(sc, funder.FriendMutation{PublicKey: src, Inner: funder.ReceiveMoveToken{MoveToken: msg.MoveToken}})
		if result.TokenWanted || msg.TokenWanted {
			sc.command(src).trySend = true
			sc.command(src).remoteWantsToken = true
		}
		for _, op := range msg.MoveToken.Operations {
			h.handleAcceptedOperation(sc, src, op)
		}

	case tokenchannel.OutcomeRetransmit:
		sc.command(src).resendOutgoing = true

	case tokenchannel.OutcomeInconsistent:
		_ = h.mutate(sc, funder.FriendMutation{PublicKey: src, Inner: funder.MarkInconsistent{}})
		inconsistenciesDetected.Inc()
		sc.command(src).localReset = true

	case tokenchannel.OutcomeDuplicate:
		// Nothing to do; the remote will eventually time out and resend
		// their next real move.
	}
}

// handleAcceptedOperation reacts to one operation that src's move-token just
// committed atomically: RequestSendFunds is either ours to answer or ours to
// forward one hop further; ResponseSendFunds/FailureSendFunds settle a
// request this node itself pushed outward earlier, either back to whichever
// friend forwarded it to us (spec.md §9's request-origin index) or, if this
// node originated it, out to the control plane.
func (h *Handler) handleAcceptedOperation(sc *scratch, src identity.PublicKey, op mutualcredit.Operation) {
	switch o := op.(type) {
	case mutualcredit.RequestSendFunds:
		h.forwardRequest(sc, src, o)

	case mutualcredit.ResponseSendFunds:
		h.settleBackward(sc, o.RequestId, true, identity.PublicKey{})

	case mutualcredit.FailureSendFunds:
		h.settleBackward(sc, o.RequestId, false, o.ReportingPublicKey)
	}
}

func (h *Handler) forwardRequest(sc *scratch, src identity.PublicKey, o mutualcredit.RequestSendFunds) {
	_ = h.mutate(sc, funder.IndexIncomingRequest{RequestId: o.RequestId, FriendKey: src})

	hopIndex := -1
	for i, pk := range o.Route {
		if identity.PublicKey(pk) == h.state.LocalPublicKey {
			hopIndex = i
			break
		}
	}

	if hopIndex < 0 || hopIndex == len(o.Route)-1 {
		// We are the destination (or the route is malformed, which we
		// treat the same way: answer rather than forward further).
		h.resolveLocally(sc, src, o.RequestId)
		return
	}

	nextHop := identity.PublicKey(o.Route[hopIndex+1])
	if !h.state.IsFriendReady(nextHop) {
		h.cancelForward(sc, src, o.RequestId)
		return
	}

	nextFriend := h.state.Friends[nextHop]
	link := mutualcredit.FreezeLink{
		SharedCredits: nextFriend.Channel().MutualCredit().RemoteMaxDebt(),
		UsableRatio:   mutualcredit.Ratio{},
	}
	links := make([]mutualcredit.FreezeLink, len(o.FreezeLinks)+1)
	copy(links, o.FreezeLinks)
	links[len(o.FreezeLinks)] = link

	forwarded := mutualcredit.RequestSendFunds{
		RequestId:   o.RequestId,
		Route:       o.Route,
		DestPayment: o.DestPayment,
		InvoiceId:   o.InvoiceId,
		FreezeLinks: links,
	}
	if err := h.mutate(sc, funder.FriendMutation{PublicKey: nextHop, Inner: funder.PushPendingRequest{Operation: forwarded}}); err != nil {
		h.cancelForward(sc, src, o.RequestId)
		return
	}
	sc.command(nextHop).trySend = true
}

// resolveLocally answers a request addressed to this node with an unsigned
// success response, the same way sender.go's cancellation path reports an
// unsigned failure: neither operation's signature format is defined anywhere
// in this codebase, so none is attached.
func (h *Handler) resolveLocally(sc *scratch, src identity.PublicKey, requestId mutualcredit.RequestId) {
	_ = h.mutate(sc, funder.FriendMutation{
		PublicKey: src,
		Inner:     funder.PushPendingResponse{Operation: mutualcredit.ResponseSendFunds{RequestId: requestId}},
	})
	_ = h.mutate(sc, funder.ForgetRequest{RequestId: requestId})
	sc.command(src).trySend = true
}

// cancelForward answers a request this node cannot forward any further
// (unready next hop, or the forward push itself failed) with an immediate
// failure back toward whoever sent it to us.
func (h *Handler) cancelForward(sc *scratch, src identity.PublicKey, requestId mutualcredit.RequestId) {
	_ = h.mutate(sc, funder.FriendMutation{
		PublicKey: src,
		Inner: funder.PushPendingResponse{Operation: mutualcredit.FailureSendFunds{
			RequestId:          requestId,
			ReportingPublicKey: [33]byte(h.state.LocalPublicKey),
		}},
	})
	_ = h.mutate(sc, funder.ForgetRequest{RequestId: requestId})
	sc.command(src).trySend = true
}

// settleBackward propagates a response or failure that just settled a
// request this node pushed outward earlier, to whichever friend forwarded
// that request to us. If no origin is indexed, this node originated the
// request itself and the outcome is reported to the control plane instead.
func (h *Handler) settleBackward(sc *scratch, requestId mutualcredit.RequestId, success bool, reporter identity.PublicKey) {
	if origin, found := h.state.FindRequestOrigin(requestId); found {
		var op mutualcredit.Operation
		if success {
			op = mutualcredit.ResponseSendFunds{RequestId: requestId}
		} else {
			op = mutualcredit.FailureSendFunds{RequestId: requestId, ReportingPublicKey: reporter}
		}
		_ = h.mutate(sc, funder.FriendMutation{PublicKey: origin.FriendKey, Inner: funder.PushPendingResponse{Operation: op}})
		_ = h.mutate(sc, funder.ForgetRequest{RequestId: requestId})
		sc.command(origin.FriendKey).trySend = true
		return
	}

	sc.out.OutgoingControl = append(sc.out.OutgoingControl, ResponseReceived{
		RequestId: requestId,
		Success:   success,
		Reporter:  reporter,
	})
}
