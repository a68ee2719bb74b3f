package report

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// Project walks one handler invocation's ordered FunderMutation list and
// produces the coarser FunderReportMutation stream, per spec.md §4.6.
// state must reflect the mutations already applied (the handler applies
// each Mutation to live state before appending it to the output list, so by
// the time Project runs every derived field below is already current).
// Project is deterministic and replayable: given the same mutation list and
// the state it produced, it always emits the same report stream.
func Project(mutations []funder.Mutation, state *funder.State) []FunderReportMutation {
	var out []FunderReportMutation

	for _, m := range mutations {
		switch mu := m.(type) {
		case funder.AddFriend:
			out = append(out, AddFriendReport{PublicKey: mu.PublicKey, Name: mu.Name, Relays: mu.Relays})

		case funder.RemoveFriend:
			out = append(out, RemoveFriendReport{PublicKey: mu.PublicKey})

		case funder.AddRelay:
			out = append(out, AddRelayReport{Relay: mu.Relay})

		case funder.RemoveRelay:
			out = append(out, RemoveRelayReport{PublicKey: mu.PublicKey})

		case funder.FriendMutation:
			out = append(out, projectFriendMutation(state, mu)...)
		}
	}

	return out
}

func projectFriendMutation(state *funder.State, fm funder.FriendMutation) []FunderReportMutation {
	f, ok := state.Friends[fm.PublicKey]
	if !ok {
		// The friend was removed later in the same batch; nothing to
		// report for an intermediate mutation on a record that no longer
		// exists.
		return nil
	}

	switch fm.Inner.(type) {
	case funder.SetStatus:
		return []FunderReportMutation{SetFriendStatusReport{PublicKey: fm.PublicKey, Status: f.Status}}

	case funder.SetName:
		return []FunderReportMutation{SetFriendNameReport{PublicKey: fm.PublicKey, Name: f.Name}}

	case funder.SetRemoteRelays:
		return []FunderReportMutation{SetFriendRelaysReport{PublicKey: fm.PublicKey, Relays: f.RemoteRelays}}

	case funder.ReceiveMoveToken, funder.CommitOutgoing, funder.SetWantedRemoteMaxDebt,
		funder.SetWantedLocalRequestsStatus:
		return []FunderReportMutation{ledgerReport(fm.PublicKey, f, state)}

	case funder.ResolveReset:
		return []FunderReportMutation{
			SetFriendConsistentReport{PublicKey: fm.PublicKey},
			ledgerReport(fm.PublicKey, f, state),
		}

	case funder.MarkInconsistent:
		ci := f.Inconsistent()
		if ci == nil {
			return nil
		}
		rep := SetFriendInconsistentReport{PublicKey: fm.PublicKey, LocalResetToken: ci.LocalResetTerms.ResetToken}
		if ci.OptRemoteResetTerms != nil {
			token := ci.OptRemoteResetTerms.ResetToken
			rep.RemoteResetToken = &token
		}
		return []FunderReportMutation{rep}

	case funder.ReceiveRemoteResetTerms:
		ci := f.Inconsistent()
		if ci == nil || ci.OptRemoteResetTerms == nil {
			return nil
		}
		token := ci.OptRemoteResetTerms.ResetToken
		return []FunderReportMutation{SetFriendInconsistentReport{
			PublicKey:        fm.PublicKey,
			LocalResetToken:  ci.LocalResetTerms.ResetToken,
			RemoteResetToken: &token,
		}}

	default:
		// BeginLocalRelaysTransition/AcknowledgeLocalRelays and the raw
		// queue push/pop mutations have no UI-facing counterpart: the
		// control plane only cares about the ledger snapshot they lead to,
		// which the next ledgerReport-producing mutation will carry.
		return nil
	}
}

func ledgerReport(key identity.PublicKey, f *friend.State, state *funder.State) FunderReportMutation {
	if !f.IsConsistent() {
		// ReceiveMoveToken rejected the incoming token and marked the
		// friend Inconsistent as a side effect; surface that transition
		// instead of a stale ledger snapshot.
		ci := f.Inconsistent()
		rep := SetFriendInconsistentReport{PublicKey: key}
		if ci != nil {
			rep.LocalResetToken = ci.LocalResetTerms.ResetToken
			if ci.OptRemoteResetTerms != nil {
				token := ci.OptRemoteResetTerms.ResetToken
				rep.RemoteResetToken = &token
			}
		}
		return rep
	}
	mc := f.Channel().MutualCredit()
	return SetFriendLedgerReport{
		PublicKey:     key,
		Balance:       mc.Balance(),
		LocalMaxDebt:  mc.LocalMaxDebt(),
		RemoteMaxDebt: mc.RemoteMaxDebt(),
		IsRoutable:    state.IsFriendReady(key) && mc.RemoteRequestsStatus() == mutualcredit.StatusOpen,
	}
}

// Snapshot builds a full FriendReport for a friend currently in state,
// used to seed a freshly attached control-plane client (one-shot; not part
// of the mutation-diff stream).
func Snapshot(key identity.PublicKey, f *friend.State, state *funder.State) FriendReport {
	rep := FriendReport{
		PublicKey: key,
		Name:      f.Name,
		Relays:    f.RemoteRelays,
		Status:    f.Status,
	}
	if f.IsConsistent() {
		mc := f.Channel().MutualCredit()
		rep.Balance = mc.Balance()
		rep.LocalMaxDebt = mc.LocalMaxDebt()
		rep.RemoteMaxDebt = mc.RemoteMaxDebt()
		rep.Consistent = true
		rep.IsRoutable = state.IsFriendReady(key) && mc.RemoteRequestsStatus() == mutualcredit.StatusOpen
	} else {
		rep.Balance = mutualcredit.ZeroBalance
	}
	return rep
}
