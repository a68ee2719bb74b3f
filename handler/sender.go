package handler

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
)

// runScheduler is the Sender/Scheduler of spec.md §4.5, faithfully ported
// from original_source/components/funder/src/handler/sender.rs's two-pass
// algorithm (SPEC_FULL.md §4, item 1): pass 1 drains each commanded,
// online friend's queues and may inject cross-friend failures into
// failurePublicKeys; pass 2 drains only pending_responses, on every open
// builder: those opened purely to carry the injected failures and those
// pass 1 already started.
func (h *Handler) runScheduler(sc *scratch) error {
	builders := make(map[identity.PublicKey]*tokenchannel.Builder)
	builderTokenWanted := make(map[identity.PublicKey]bool)
	failurePublicKeys := make(map[identity.PublicKey]bool)

	for key, cmd := range sc.commandedSend {
		if !h.liveness.IsOnline(key) {
			continue
		}
		f, ok := h.state.Friends[key]
		if !ok {
			continue
		}

		if cmd.localReset {
			if err := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: funder.ResolveReset{}}); err != nil {
				return err
			}
			continue
		}

		if !f.IsConsistent() {
			if cmd.resendOutgoing || cmd.trySend {
				sc.out.OutgoingComms = append(sc.out.OutgoingComms, FriendMessageOut{
					Dest:    key,
					Message: InconsistencyErrorMsg{RemoteResetTerms: f.Inconsistent().LocalResetTerms},
				})
			}
			continue
		}

		if f.Channel().Direction() == tokenchannel.Outgoing {
			h.handleOutgoingDirection(sc, key, f, cmd)
			continue
		}

		builder, tokenWanted, err := h.collectFriendIter1(sc, key, f, cmd, failurePublicKeys)
		if err != nil {
			return err
		}
		if builder != nil {
			builders[key] = builder
			builderTokenWanted[key] = tokenWanted
		}
	}

	// Between passes: open a builder for every online failure target that
	// doesn't already have one.
	for key := range failurePublicKeys {
		if _, exists := builders[key]; exists {
			continue
		}
		if !h.liveness.IsOnline(key) {
			continue
		}
		f, ok := h.state.Friends[key]
		if !ok || !f.IsConsistent() || f.Channel().Direction() != tokenchannel.Incoming {
			continue
		}
		builder, err := f.Channel().NewBuilder(h.state.LocalPublicKey, key, h.config.MaxOperationsInBatch)
		if err != nil {
			continue
		}
		builders[key] = builder
	}

	// Pass 2: drain pending_responses only (pre-existing builders may have
	// more responses queued up behind what pass 1 already drained; newly
	// opened ones carry exactly the injected failure).
	for key, builder := range builders {
		f := h.state.Friends[key]
		for !builder.Full() {
			op, ok := f.PendingResponses.Peek()
			if !ok {
				break
			}
			if err := builder.TryQueue(op); err != nil {
				break
			}
			if err := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: funder.PopPendingResponse{}}); err != nil {
				return err
			}
		}
	}

	for key, builder := range builders {
		if builder.Len() == 0 {
			continue
		}
		if err := h.finalizeBuilder(sc, key, builder, builderTokenWanted[key]); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) handleOutgoingDirection(sc *scratch, key identity.PublicKey, f *friend.State, cmd *sendCommand) {
	if f.EstimateShouldSend(h.state.OwnedRelays) {
		sc.out.OutgoingComms = append(sc.out.OutgoingComms, FriendMessageOut{
			Dest:    key,
			Message: MoveTokenRequest{MoveToken: f.Channel().LastOutgoing(), TokenWanted: true},
		})
		return
	}
	if cmd.resendOutgoing {
		carriedRelays := f.Channel().LastOutgoing() != nil && len(f.Channel().LastOutgoing().OptLocalRelays) > 0
		sc.out.OutgoingComms = append(sc.out.OutgoingComms, FriendMessageOut{
			Dest:    key,
			Message: MoveTokenRequest{MoveToken: f.Channel().LastOutgoing(), TokenWanted: carriedRelays},
		})
	}
}

// collectFriendIter1 implements spec.md §4.5 step 4: build a
// PendingMoveToken, queue new-relays/limit changes, then drain the three
// queues in priority order, cancelling InsufficientTrust forwards back to
// their origin.
func (h *Handler) collectFriendIter1(
	sc *scratch,
	key identity.PublicKey,
	f *friend.State,
	cmd *sendCommand,
	failurePublicKeys map[identity.PublicKey]bool,
) (*tokenchannel.Builder, bool, error) {
	builder, err := f.Channel().NewBuilder(h.state.LocalPublicKey, key, h.config.MaxOperationsInBatch)
	if err != nil {
		return nil, false, nil
	}
	tokenWanted := cmd.resendOutgoing || cmd.remoteWantsToken

	if f.SentLocalRelays.Diverges(h.state.OwnedRelays) {
		if err := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: funder.BeginLocalRelaysTransition{Relays: h.state.OwnedRelays}}); err != nil {
			return nil, false, err
		}
		sc.out.OutgoingComms = append(sc.out.OutgoingComms, UpdateFriend{
			Friend:       key,
			FriendRelays: f.RemoteRelays,
			LocalRelays:  h.state.OwnedRelays,
		})
	}

	mc := f.Channel().MutualCredit()
	if mc.RemoteMaxDebt().Cmp(f.WantedRemoteMaxDebt) != 0 {
		if err := builder.TryQueue(mutualcredit.SetRemoteMaxDebt{Amount: f.WantedRemoteMaxDebt}); err != nil {
			tokenWanted = true
		}
	}
	if mc.LocalRequestsStatus() != f.WantedLocalRequests {
		var op mutualcredit.Operation
		if f.WantedLocalRequests == mutualcredit.StatusOpen {
			op = mutualcredit.EnableRequests{}
		} else {
			op = mutualcredit.DisableRequests{}
		}
		if err := builder.TryQueue(op); err != nil {
			tokenWanted = true
		}
	}

	if err := h.drainQueue(sc, key, f.PendingResponses, funder.PopPendingResponse{}, builder, &tokenWanted, failurePublicKeys, false); err != nil {
		return nil, false, err
	}
	if err := h.drainQueue(sc, key, f.PendingRequests, funder.PopPendingRequest{}, builder, &tokenWanted, failurePublicKeys, true); err != nil {
		return nil, false, err
	}
	if err := h.drainQueue(sc, key, f.PendingUserRequests, funder.PopPendingUserRequest{}, builder, &tokenWanted, failurePublicKeys, true); err != nil {
		return nil, false, err
	}

	if builder.Len() == 0 && !cmd.resendOutgoing && !cmd.remoteWantsToken {
		return nil, false, nil
	}
	return builder, tokenWanted, nil
}

// drainQueue drains one FIFO into the builder, applying the
// InsufficientTrust cancellation rule to forwarded RequestSendFunds
// operations when isForward is true.
func (h *Handler) drainQueue(
	sc *scratch,
	key identity.PublicKey,
	queue *friend.OperationQueue,
	popMutation funder.FriendInnerMutation,
	builder *tokenchannel.Builder,
	tokenWanted *bool,
	failurePublicKeys map[identity.PublicKey]bool,
	isForward bool,
) error {
	for {
		op, ok := queue.Peek()
		if !ok {
			return nil
		}
		err := builder.TryQueue(op)
		switch {
		case err == nil:
			if e := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: popMutation}); e != nil {
				return e
			}

		case err == mutualcredit.ErrRequestAlreadyExists:
			// A retransmit race; treat as a no-op success, per
			// SPEC_FULL.md §4 item 2.
			if e := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: popMutation}); e != nil {
				return e
			}

		case err == mutualcredit.ErrInsufficientTrust && isForward:
			req, isReq := op.(mutualcredit.RequestSendFunds)
			if e := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: popMutation}); e != nil {
				return e
			}
			if !isReq {
				*tokenWanted = true
				return nil
			}
			if origin, found := h.state.FindRequestOrigin(req.RequestId); found {
				if e := h.mutate(sc, funder.FriendMutation{
					PublicKey: origin.FriendKey,
					Inner:     funder.PushPendingResponse{Operation: mutualcredit.FailureSendFunds{RequestId: req.RequestId, ReportingPublicKey: [33]byte(h.state.LocalPublicKey)}},
				}); e != nil {
					return e
				}
				failurePublicKeys[origin.FriendKey] = true
			} else {
				sc.out.OutgoingControl = append(sc.out.OutgoingControl, ResponseReceived{
					RequestId: req.RequestId,
					Success:   false,
					Reporter:  h.state.LocalPublicKey,
				})
			}

		case err == tokenchannel.ErrMaxOperationsReached:
			*tokenWanted = true
			return nil

		default:
			*tokenWanted = true
			return nil
		}
	}
}

func (h *Handler) finalizeBuilder(sc *scratch, key identity.PublicKey, builder *tokenchannel.Builder, tokenWanted bool) error {
	nonce, err := identity.RandNonce()
	if err != nil {
		return err
	}
	mt, err := builder.Commit(h.signer, nonce)
	if err != nil {
		return err
	}
	if err := h.mutate(sc, funder.FriendMutation{PublicKey: key, Inner: funder.CommitOutgoing{MoveToken: mt}}); err != nil {
		return err
	}
	moveTokensSent.Inc()
	sc.out.OutgoingComms = append(sc.out.OutgoingComms, FriendMessageOut{
		Dest:    key,
		Message: MoveTokenRequest{MoveToken: mt, TokenWanted: tokenWanted},
	})
	return nil
}
