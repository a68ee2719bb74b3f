// Package report projects the durable funder mutation log onto a coarser,
// UI-facing vocabulary, per spec.md §4.6. It never reads a connection or a
// socket; it only reads funder.State and funder.Mutation values already
// produced by the handler.
package report

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"lukechampine.com/uint128"
)

// FriendReport is the wire-friendly projection of one friend.State, the way
// rpcserver.go turns internal channel structs into lnrpc responses.
type FriendReport struct {
	PublicKey     identity.PublicKey
	Name          string
	Relays        []friend.Relay
	Status        friend.Status
	Balance       mutualcredit.Balance
	LocalMaxDebt  uint128.Uint128
	RemoteMaxDebt uint128.Uint128
	Consistent    bool

	// IsRoutable is additive over spec.md: a friend is worth offering as a
	// next hop only once its channel is open, consistent, and its remote
	// side has its requests status Open (SPEC_FULL.md §4, item 4).
	IsRoutable bool
}

// FunderReportMutation is the coarse mutation vocabulary emitted to the
// control plane, one list per handler invocation, per spec.md §4.6.
type FunderReportMutation interface {
	isFunderReportMutation()
}

type AddFriendReport struct {
	PublicKey identity.PublicKey
	Name      string
	Relays    []friend.Relay
}

func (AddFriendReport) isFunderReportMutation() {}

type RemoveFriendReport struct{ PublicKey identity.PublicKey }

func (RemoveFriendReport) isFunderReportMutation() {}

type AddRelayReport struct{ Relay friend.Relay }

func (AddRelayReport) isFunderReportMutation() {}

type RemoveRelayReport struct{ PublicKey [33]byte }

func (RemoveRelayReport) isFunderReportMutation() {}

type SetFriendStatusReport struct {
	PublicKey identity.PublicKey
	Status    friend.Status
}

func (SetFriendStatusReport) isFunderReportMutation() {}

type SetFriendNameReport struct {
	PublicKey identity.PublicKey
	Name      string
}

func (SetFriendNameReport) isFunderReportMutation() {}

type SetFriendRelaysReport struct {
	PublicKey identity.PublicKey
	Relays    []friend.Relay
}

func (SetFriendRelaysReport) isFunderReportMutation() {}

// SetFriendLedgerReport carries every field a token-channel transition can
// move at once (balance, limits, routability), so the control plane need
// not stitch together several narrower events to redraw one friend row.
type SetFriendLedgerReport struct {
	PublicKey     identity.PublicKey
	Balance       mutualcredit.Balance
	LocalMaxDebt  uint128.Uint128
	RemoteMaxDebt uint128.Uint128
	IsRoutable    bool
}

func (SetFriendLedgerReport) isFunderReportMutation() {}

type SetFriendInconsistentReport struct {
	PublicKey        identity.PublicKey
	LocalResetToken  [32]byte
	RemoteResetToken *[32]byte
}

func (SetFriendInconsistentReport) isFunderReportMutation() {}

type SetFriendConsistentReport struct{ PublicKey identity.PublicKey }

func (SetFriendConsistentReport) isFunderReportMutation() {}
