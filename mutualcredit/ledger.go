package mutualcredit

import "lukechampine.com/uint128"

// FeePerHop is the flat per-hop relay margin folded into a RequestSendFunds's
// freeze computation. spec.md §4.1 leaves the fee schedule unspecified
// ("net +/- per fee schedule"); a flat per-remaining-hop fee is the simplest
// schedule that reproduces the worked example in spec.md §8 scenario 2,
// where a relay's margin is observable only as the difference between the
// freeze amounts it computes on its two adjacent channels.
var FeePerHop = uint128.From64(1)

// MutualCredit is the per-channel signed ledger described in spec.md §3-4.1.
// Every exported mutator returns the list of McMutations it applied, so
// callers can both mutate live state and append to the durable mutation log
// in the same call.
type MutualCredit struct {
	balance Balance

	localMaxDebt  uint128.Uint128
	remoteMaxDebt uint128.Uint128

	localPendingDebt  uint128.Uint128
	remotePendingDebt uint128.Uint128

	localRequestsStatus  RequestsStatus
	remoteRequestsStatus RequestsStatus

	// pendingLocalRequests holds requests we have forwarded outward (the
	// freeze lives on our remote_pending_debt); pendingRemoteRequests
	// holds requests forwarded to us (the freeze lives on our
	// local_pending_debt).
	pendingLocalRequests  map[RequestId]PendingRequest
	pendingRemoteRequests map[RequestId]PendingRequest
}

// NewMutualCredit builds a fresh ledger at the given starting balance, both
// requests statuses closed and both max-debt bounds at zero, matching the
// state a freshly AddFriend-ed channel starts in before any SetRemoteMaxDebt
// or EnableRequests has been exchanged.
func NewMutualCredit(balance Balance) *MutualCredit {
	return &MutualCredit{
		balance:               balance,
		pendingLocalRequests:  make(map[RequestId]PendingRequest),
		pendingRemoteRequests: make(map[RequestId]PendingRequest),
	}
}

// Clone returns a deep copy, used by the Scheduler to trial-apply an
// operation against a disposable ledger before committing it to the real
// channel state (handler/sender.go's queue_operation_or_failure).
func (mc *MutualCredit) Clone() *MutualCredit {
	out := &MutualCredit{
		balance:              mc.balance,
		localMaxDebt:         mc.localMaxDebt,
		remoteMaxDebt:        mc.remoteMaxDebt,
		localPendingDebt:     mc.localPendingDebt,
		remotePendingDebt:    mc.remotePendingDebt,
		localRequestsStatus:  mc.localRequestsStatus,
		remoteRequestsStatus: mc.remoteRequestsStatus,
	}
	out.pendingLocalRequests = make(map[RequestId]PendingRequest, len(mc.pendingLocalRequests))
	for k, v := range mc.pendingLocalRequests {
		out.pendingLocalRequests[k] = v
	}
	out.pendingRemoteRequests = make(map[RequestId]PendingRequest, len(mc.pendingRemoteRequests))
	for k, v := range mc.pendingRemoteRequests {
		out.pendingRemoteRequests[k] = v
	}
	return out
}

// Balance returns the current signed balance.
func (mc *MutualCredit) Balance() Balance { return mc.balance }

// LocalMaxDebt returns the upper bound on what our peer may owe us.
func (mc *MutualCredit) LocalMaxDebt() uint128.Uint128 { return mc.localMaxDebt }

// RemoteMaxDebt returns the upper bound on what we may owe our peer.
func (mc *MutualCredit) RemoteMaxDebt() uint128.Uint128 { return mc.remoteMaxDebt }

// LocalPendingDebt returns the sum of freezes held against requests forwarded
// to us (pendingRemoteRequests).
func (mc *MutualCredit) LocalPendingDebt() uint128.Uint128 { return mc.localPendingDebt }

// RemotePendingDebt returns the sum of freezes held against requests we
// forwarded outward (pendingLocalRequests).
func (mc *MutualCredit) RemotePendingDebt() uint128.Uint128 { return mc.remotePendingDebt }

// LocalRequestsStatus reports whether we currently accept new forwarded
// requests.
func (mc *MutualCredit) LocalRequestsStatus() RequestsStatus { return mc.localRequestsStatus }

// RemoteRequestsStatus reports whether our peer currently accepts new
// forwarded requests from us.
func (mc *MutualCredit) RemoteRequestsStatus() RequestsStatus { return mc.remoteRequestsStatus }

// PendingLocalRequest looks up a request we forwarded outward.
func (mc *MutualCredit) PendingLocalRequest(id RequestId) (PendingRequest, bool) {
	pr, ok := mc.pendingLocalRequests[id]
	return pr, ok
}

// PendingRemoteRequest looks up a request forwarded to us.
func (mc *MutualCredit) PendingRemoteRequest(id RequestId) (PendingRequest, bool) {
	pr, ok := mc.pendingRemoteRequests[id]
	return pr, ok
}

// McMutation is the effect of applying one Operation, per spec.md §4.1: a
// balance delta, a pending-debt delta, or an insert/remove of a pending
// request. It is nested inside TcMutation/FriendMutation/FunderMutation for
// the durable mutation log.
type McMutation interface {
	isMcMutation()
	apply(mc *MutualCredit)
}

type mcSetBalance struct{ Balance Balance }
type mcSetLocalMaxDebt struct{ Amount uint128.Uint128 }
type mcSetRemoteMaxDebt struct{ Amount uint128.Uint128 }
type mcSetLocalPendingDebt struct{ Amount uint128.Uint128 }
type mcSetRemotePendingDebt struct{ Amount uint128.Uint128 }
type mcSetLocalRequestsStatus struct{ Status RequestsStatus }
type mcSetRemoteRequestsStatus struct{ Status RequestsStatus }
type mcInsertLocalPendingRequest struct{ Request PendingRequest }
type mcRemoveLocalPendingRequest struct{ RequestId RequestId }
type mcInsertRemotePendingRequest struct{ Request PendingRequest }
type mcRemoveRemotePendingRequest struct{ RequestId RequestId }

func (mcSetBalance) isMcMutation()                  {}
func (mcSetLocalMaxDebt) isMcMutation()             {}
func (mcSetRemoteMaxDebt) isMcMutation()            {}
func (mcSetLocalPendingDebt) isMcMutation()         {}
func (mcSetRemotePendingDebt) isMcMutation()        {}
func (mcSetLocalRequestsStatus) isMcMutation()      {}
func (mcSetRemoteRequestsStatus) isMcMutation()     {}
func (mcInsertLocalPendingRequest) isMcMutation()   {}
func (mcRemoveLocalPendingRequest) isMcMutation()   {}
func (mcInsertRemotePendingRequest) isMcMutation()  {}
func (mcRemoveRemotePendingRequest) isMcMutation()  {}

func (m mcSetBalance) apply(mc *MutualCredit)           { mc.balance = m.Balance }
func (m mcSetLocalMaxDebt) apply(mc *MutualCredit)      { mc.localMaxDebt = m.Amount }
func (m mcSetRemoteMaxDebt) apply(mc *MutualCredit)     { mc.remoteMaxDebt = m.Amount }
func (m mcSetLocalPendingDebt) apply(mc *MutualCredit)  { mc.localPendingDebt = m.Amount }
func (m mcSetRemotePendingDebt) apply(mc *MutualCredit) { mc.remotePendingDebt = m.Amount }
func (m mcSetLocalRequestsStatus) apply(mc *MutualCredit) {
	mc.localRequestsStatus = m.Status
}
func (m mcSetRemoteRequestsStatus) apply(mc *MutualCredit) {
	mc.remoteRequestsStatus = m.Status
}
func (m mcInsertLocalPendingRequest) apply(mc *MutualCredit) {
	mc.pendingLocalRequests[m.Request.RequestId] = m.Request
}
func (m mcRemoveLocalPendingRequest) apply(mc *MutualCredit) {
	delete(mc.pendingLocalRequests, m.RequestId)
}
func (m mcInsertRemotePendingRequest) apply(mc *MutualCredit) {
	mc.pendingRemoteRequests[m.Request.RequestId] = m.Request
}
func (m mcRemoveRemotePendingRequest) apply(mc *MutualCredit) {
	delete(mc.pendingRemoteRequests, m.RequestId)
}

// Apply commits a previously computed McMutation, used both by
// ApplyOutgoing/ApplyIncoming internally and to replay the durable mutation
// log on recovery.
func (mc *MutualCredit) Apply(m McMutation) {
	m.apply(mc)
}

// ApplyOutgoing validates and applies an Operation we are about to emit
// toward our peer. On success it returns the McMutations that were applied,
// already committed to mc; on failure mc is left untouched and a typed error
// is returned.
func (mc *MutualCredit) ApplyOutgoing(op Operation) ([]McMutation, error) {
	switch o := op.(type) {
	case EnableRequests:
		return mc.commit(mcSetLocalRequestsStatus{Status: StatusOpen}), nil

	case DisableRequests:
		return mc.commit(mcSetLocalRequestsStatus{Status: StatusClosed}), nil

	case SetRemoteMaxDebt:
		// Outgoing SetRemoteMaxDebt is self-announcement: we are raising
		// (or lowering) the bound on what *we* are willing to owe our
		// peer, i.e. our own remote_max_debt field.
		return mc.commit(mcSetRemoteMaxDebt{Amount: o.Amount}), nil

	case RequestSendFunds:
		return mc.applyOutgoingRequest(o)

	case ResponseSendFunds:
		// We are the one settling a request our peer forwarded to us
		// (pendingRemoteRequests); the confirmation goes out in our own
		// next move-token.
		return mc.applyResponseToRemoteRequest(o.RequestId)

	case FailureSendFunds:
		return mc.applyFailureToRemoteRequest(o.RequestId)

	default:
		return nil, ErrInvalidRoute
	}
}

// ApplyIncoming validates and applies an Operation our peer has just sent
// us, mirroring ApplyOutgoing's direction semantics.
func (mc *MutualCredit) ApplyIncoming(op Operation) ([]McMutation, error) {
	switch o := op.(type) {
	case EnableRequests:
		return mc.commit(mcSetRemoteRequestsStatus{Status: StatusOpen}), nil

	case DisableRequests:
		return mc.commit(mcSetRemoteRequestsStatus{Status: StatusClosed}), nil

	case SetRemoteMaxDebt:
		// Incoming SetRemoteMaxDebt tells us what our peer now allows us
		// to owe them, i.e. our own local_max_debt field (spec.md §8
		// scenario 1: "after B applies it, B's view of local_max_debt
		// = 100").
		return mc.commit(mcSetLocalMaxDebt{Amount: o.Amount}), nil

	case RequestSendFunds:
		return mc.applyIncomingRequest(o)

	case ResponseSendFunds:
		// Our peer is settling a request we ourselves forwarded outward
		// to them (pendingLocalRequests); the confirmation arrived in
		// their move-token.
		return mc.applyResponseToLocalRequest(o.RequestId)

	case FailureSendFunds:
		return mc.applyFailureToLocalRequest(o.RequestId)

	default:
		return nil, ErrInvalidRoute
	}
}

func (mc *MutualCredit) commit(muts ...McMutation) []McMutation {
	for _, m := range muts {
		m.apply(mc)
	}
	return muts
}

// applyOutgoingRequest handles a RequestSendFunds we are forwarding toward
// our peer: it must accept (remote_requests_status == Open), the id must be
// unused on this channel, and the freeze we reserve increases our
// remote_pending_debt.
func (mc *MutualCredit) applyOutgoingRequest(o RequestSendFunds) ([]McMutation, error) {
	if mc.remoteRequestsStatus != StatusOpen {
		return nil, ErrRequestsAlreadyDisabled
	}
	if _, exists := mc.pendingLocalRequests[o.RequestId]; exists {
		return nil, ErrRequestAlreadyExists
	}
	if _, exists := mc.pendingRemoteRequests[o.RequestId]; exists {
		return nil, ErrRequestAlreadyExists
	}

	pathIndex := len(o.FreezeLinks)
	freeze, err := freezeCredit(o.DestPayment, len(o.Route), pathIndex)
	if err != nil {
		return nil, err
	}

	newRemotePending, ok := addMagnitudes(mc.remotePendingDebt, freeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	newBalance, ok := mc.balance.AddUint128(newRemotePending)
	_ = newBalance
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	if !withinUpperBound(mc.balance, newRemotePending, mc.localMaxDebt) {
		return nil, ErrInsufficientTrust
	}

	pr := PendingRequest{
		RequestId:    o.RequestId,
		Route:        o.Route,
		DestPayment:  o.DestPayment,
		InvoiceId:    o.InvoiceId,
		FreezeLinks:  o.FreezeLinks,
		PathIndex:    pathIndex,
		CreditFreeze: freeze,
	}
	return mc.commit(
		mcSetRemotePendingDebt{Amount: newRemotePending},
		mcInsertLocalPendingRequest{Request: pr},
	), nil
}

// applyIncomingRequest handles a RequestSendFunds our peer forwarded to us:
// it must be us who is open to it (local_requests_status == Open), and the
// freeze increases our local_pending_debt.
func (mc *MutualCredit) applyIncomingRequest(o RequestSendFunds) ([]McMutation, error) {
	if mc.localRequestsStatus != StatusOpen {
		return nil, ErrRequestsAlreadyDisabled
	}
	if _, exists := mc.pendingRemoteRequests[o.RequestId]; exists {
		return nil, ErrRequestAlreadyExists
	}
	if _, exists := mc.pendingLocalRequests[o.RequestId]; exists {
		return nil, ErrRequestAlreadyExists
	}

	pathIndex := len(o.FreezeLinks)
	freeze, err := freezeCredit(o.DestPayment, len(o.Route), pathIndex)
	if err != nil {
		return nil, err
	}

	newLocalPending, ok := addMagnitudes(mc.localPendingDebt, freeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	if !withinLowerBound(mc.balance, newLocalPending, mc.remoteMaxDebt) {
		return nil, ErrInsufficientTrust
	}

	pr := PendingRequest{
		RequestId:    o.RequestId,
		Route:        o.Route,
		DestPayment:  o.DestPayment,
		InvoiceId:    o.InvoiceId,
		FreezeLinks:  o.FreezeLinks,
		PathIndex:    pathIndex,
		CreditFreeze: freeze,
	}
	return mc.commit(
		mcSetLocalPendingDebt{Amount: newLocalPending},
		mcInsertRemotePendingRequest{Request: pr},
	), nil
}

// applyResponseToLocalRequest settles, with success, a request we ourselves
// forwarded outward: the freeze we reserved on remote_pending_debt is
// released and moves onto our balance as a debit (we now owe our peer the
// frozen amount, since they paid it onward on our behalf).
func (mc *MutualCredit) applyResponseToLocalRequest(id RequestId) ([]McMutation, error) {
	pr, exists := mc.pendingLocalRequests[id]
	if !exists {
		return nil, ErrRequestDoesNotExist
	}
	newRemotePending, ok := subMagnitudes(mc.remotePendingDebt, pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	newBalance, ok := mc.balance.SubUint128(pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	return mc.commit(
		mcSetRemotePendingDebt{Amount: newRemotePending},
		mcSetBalance{Balance: newBalance},
		mcRemoveLocalPendingRequest{RequestId: id},
	), nil
}

// applyFailureToLocalRequest settles, with failure, a request we forwarded
// outward: the freeze is released and the balance is untouched.
func (mc *MutualCredit) applyFailureToLocalRequest(id RequestId) ([]McMutation, error) {
	pr, exists := mc.pendingLocalRequests[id]
	if !exists {
		return nil, ErrRequestDoesNotExist
	}
	newRemotePending, ok := subMagnitudes(mc.remotePendingDebt, pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	return mc.commit(
		mcSetRemotePendingDebt{Amount: newRemotePending},
		mcRemoveLocalPendingRequest{RequestId: id},
	), nil
}

// applyResponseToRemoteRequest settles, with success, a request forwarded to
// us: the freeze on local_pending_debt is released and credited onto our
// balance (our peer now owes us the frozen amount).
func (mc *MutualCredit) applyResponseToRemoteRequest(id RequestId) ([]McMutation, error) {
	pr, exists := mc.pendingRemoteRequests[id]
	if !exists {
		return nil, ErrRequestDoesNotExist
	}
	newLocalPending, ok := subMagnitudes(mc.localPendingDebt, pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	newBalance, ok := mc.balance.AddUint128(pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	return mc.commit(
		mcSetLocalPendingDebt{Amount: newLocalPending},
		mcSetBalance{Balance: newBalance},
		mcRemoveRemotePendingRequest{RequestId: id},
	), nil
}

// applyFailureToRemoteRequest settles, with failure, a request forwarded to
// us: the freeze is released and the balance is untouched.
func (mc *MutualCredit) applyFailureToRemoteRequest(id RequestId) ([]McMutation, error) {
	pr, exists := mc.pendingRemoteRequests[id]
	if !exists {
		return nil, ErrRequestDoesNotExist
	}
	newLocalPending, ok := subMagnitudes(mc.localPendingDebt, pr.CreditFreeze)
	if !ok {
		return nil, ErrCreditCalculationOverflow
	}
	return mc.commit(
		mcSetLocalPendingDebt{Amount: newLocalPending},
		mcRemoveRemotePendingRequest{RequestId: id},
	), nil
}

// freezeCredit computes the credit this hop must freeze for a request with
// the given destination payment, traversing a route of routeLen public keys,
// where pathIndex is this hop's position in freeze_links (equivalently, the
// number of hops already traversed before us). The final hop (the
// destination) never forwards further and therefore never calls this.
func freezeCredit(destPayment uint128.Uint128, routeLen, pathIndex int) (uint128.Uint128, error) {
	if routeLen < 2 || pathIndex < 0 || pathIndex > routeLen-2 {
		return uint128.Zero, ErrInvalidFreezeLinks
	}
	remainingHops := (routeLen - 1) - (pathIndex + 1)
	fee, ok := mulUint128(FeePerHop, uint64(remainingHops))
	if !ok {
		return uint128.Zero, ErrCreditCalculationOverflow
	}
	freeze, ok := addMagnitudes(destPayment, fee)
	if !ok {
		return uint128.Zero, ErrCreditCalculationOverflow
	}
	return freeze, nil
}

func mulUint128(a uint128.Uint128, n uint64) (res uint128.Uint128, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return a.Mul64(n), true
}

// withinUpperBound reports whether balance+pending stays at or below
// upperBound, the b + remote_pending_debt <= local_max_debt invariant from
// spec.md §3, evaluated against a candidate new remote_pending_debt.
func withinUpperBound(balance Balance, newRemotePending, localMaxDebt uint128.Uint128) bool {
	sum, ok := balance.AddUint128(newRemotePending)
	if !ok {
		return false
	}
	return !sum.IsNeg() && sum.mag.Cmp(localMaxDebt) <= 0
}

// withinLowerBound reports whether balance-pending stays at or above
// -remoteMaxDebt, the b - local_pending_debt >= -remote_max_debt invariant
// from spec.md §3, evaluated against a candidate new local_pending_debt.
func withinLowerBound(balance Balance, newLocalPending, remoteMaxDebt uint128.Uint128) bool {
	diff, ok := balance.SubUint128(newLocalPending)
	if !ok {
		return false
	}
	if !diff.IsNeg() {
		return true
	}
	return diff.mag.Cmp(remoteMaxDebt) <= 0
}
