package handler

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
)

// handleControl dispatches one recognised control command, per spec.md
// §4.4/§6. Commands either modify FunderState directly or stamp a
// SendCommand for the Scheduler to act on.
func (h *Handler) handleControl(sc *scratch, cmd ControlCommand) error {
	switch c := cmd.(type) {
	case CmdAddRelay:
		return h.mutate(sc, funder.AddRelay{Relay: friend.Relay{PublicKey: c.PublicKey, Address: c.Address, Name: c.Name}})

	case CmdRemoveRelay:
		return h.mutate(sc, funder.RemoveRelay{PublicKey: c.PublicKey})

	case CmdAddFriend:
		if err := h.mutate(sc, funder.AddFriend{PublicKey: c.PublicKey, Relays: c.Relays, Name: c.Name, Balance: c.Balance}); err != nil {
			return err
		}
		sc.out.OutgoingComms = append(sc.out.OutgoingComms, AddFriendConfig{PublicKey: c.PublicKey})
		return nil

	case CmdRemoveFriend:
		if err := h.mutate(sc, funder.RemoveFriend{PublicKey: c.PublicKey}); err != nil {
			return err
		}
		sc.out.OutgoingComms = append(sc.out.OutgoingComms, RemoveFriendConfig{PublicKey: c.PublicKey})
		return nil

	case CmdSetFriendStatus:
		if err := h.mutate(sc, funder.FriendMutation{PublicKey: c.PublicKey, Inner: funder.SetStatus{Status: c.Status}}); err != nil {
			return err
		}
		if c.Status == friend.Enabled && h.liveness.IsOnline(c.PublicKey) {
			sc.command(c.PublicKey).trySend = true
		}
		return nil

	case CmdSetFriendRemoteMaxDebt:
		if err := h.mutate(sc, funder.FriendMutation{PublicKey: c.PublicKey, Inner: funder.SetWantedRemoteMaxDebt{Amount: c.Amount}}); err != nil {
			return err
		}
		sc.command(c.PublicKey).trySend = true
		return nil

	case CmdSetFriendRelays:
		if err := h.mutate(sc, funder.FriendMutation{PublicKey: c.PublicKey, Inner: funder.SetRemoteRelays{Relays: c.Relays}}); err != nil {
			return err
		}
		return nil

	case CmdSetFriendName:
		return h.mutate(sc, funder.FriendMutation{PublicKey: c.PublicKey, Inner: funder.SetName{Name: c.Name}})

	case CmdResetFriendChannel:
		f, ok := h.state.Friends[c.PublicKey]
		if !ok {
			return funder.ErrFriendNotFound
		}
		if f.IsConsistent() {
			if err := h.mutate(sc, funder.FriendMutation{PublicKey: c.PublicKey, Inner: funder.MarkInconsistent{}}); err != nil {
				return err
			}
		}
		if err := h.mutate(sc, funder.FriendMutation{
			PublicKey: c.PublicKey,
			Inner:     funder.ReceiveRemoteResetTerms{Terms: tokenchannel.ResetTerms{ResetToken: c.ResetToken}},
		}); err != nil {
			return err
		}
		sc.command(c.PublicKey).localReset = true
		return nil

	case CmdRequestSendFunds:
		return h.handleRequestSendFunds(sc, c)

	case CmdReceiptAck:
		// A receipt acknowledgement from control requires no ledger
		// mutation: the ledger was already settled when the matching
		// ResponseSendFunds was applied. Nothing is recorded for it.
		_ = c
		return nil

	default:
		return nil
	}
}

// handleRequestSendFunds admits a locally-originated payment request onto
// the first hop of its route, following the same
// queue_operation_or_failure/is_friend_ready admission test original_source
// applies to forwarded requests (SPEC_FULL.md §4, item 2).
func (h *Handler) handleRequestSendFunds(sc *scratch, c CmdRequestSendFunds) error {
	if len(c.Route) < 2 {
		return mutualcredit.ErrInvalidRoute
	}
	firstHop := identity.PublicKey(c.Route[1])
	if !h.state.IsFriendReady(firstHop) {
		sc.out.OutgoingControl = append(sc.out.OutgoingControl, ResponseReceived{
			RequestId: c.RequestId,
			Success:   false,
			Reporter:  h.state.LocalPublicKey,
		})
		return nil
	}

	op := mutualcredit.RequestSendFunds{
		RequestId:   c.RequestId,
		Route:       c.Route,
		DestPayment: c.DestPayment,
		InvoiceId:   c.InvoiceId,
	}
	if err := h.mutate(sc, funder.FriendMutation{
		PublicKey: firstHop,
		Inner:     funder.PushPendingUserRequest{Operation: op},
	}); err != nil {
		return err
	}
	sc.command(firstHop).trySend = true
	return nil
}
