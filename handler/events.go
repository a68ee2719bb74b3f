package handler

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"lukechampine.com/uint128"
)

// Event is the sum of inputs the handler dispatches on: Init, Control, or
// Comm (Liveness/Friend), per spec.md §4.4/§6.
type Event interface {
	isEvent()
}

// InitEvent is emitted once, at process start.
type InitEvent struct{}

func (InitEvent) isEvent() {}

// ControlEvent carries one recognised command from the control plane.
type ControlEvent struct {
	Command ControlCommand
}

func (ControlEvent) isEvent() {}

// LivenessEvent reports a friend transitioning online or offline.
type LivenessEvent struct {
	PublicKey identity.PublicKey
	Online    bool
}

func (LivenessEvent) isEvent() {}

// FriendMessageEvent carries a message from a known friend.
type FriendMessageEvent struct {
	Source  identity.PublicKey
	Message FriendMessage
}

func (FriendMessageEvent) isEvent() {}

// FriendMessage is the sum of messages a friend may send, per spec.md §6.
type FriendMessage interface {
	isFriendMessage()
}

// MoveTokenRequest carries a move-token and whether the sender wants the
// token back immediately.
type MoveTokenRequest struct {
	MoveToken   *tokenchannel.MoveToken
	TokenWanted bool
}

func (MoveTokenRequest) isFriendMessage() {}

// InconsistencyErrorMsg carries the remote's reset proposal.
type InconsistencyErrorMsg struct {
	RemoteResetTerms tokenchannel.ResetTerms
}

func (InconsistencyErrorMsg) isFriendMessage() {}

// KeepAliveMsg carries no payload.
type KeepAliveMsg struct{}

func (KeepAliveMsg) isFriendMessage() {}

// ControlCommand is the sum of recognised control-plane commands, per
// spec.md §6.
type ControlCommand interface {
	isControlCommand()
}

type CmdAddRelay struct {
	Name      string
	Address   string
	PublicKey [33]byte
}

func (CmdAddRelay) isControlCommand() {}

type CmdRemoveRelay struct{ PublicKey [33]byte }

func (CmdRemoveRelay) isControlCommand() {}

type CmdAddFriend struct {
	PublicKey identity.PublicKey
	Relays    []friend.Relay
	Name      string
	Balance   mutualcredit.Balance
}

func (CmdAddFriend) isControlCommand() {}

type CmdRemoveFriend struct{ PublicKey identity.PublicKey }

func (CmdRemoveFriend) isControlCommand() {}

type CmdSetFriendStatus struct {
	PublicKey identity.PublicKey
	Status    friend.Status
}

func (CmdSetFriendStatus) isControlCommand() {}

type CmdSetFriendRemoteMaxDebt struct {
	PublicKey identity.PublicKey
	Amount    uint128.Uint128
}

func (CmdSetFriendRemoteMaxDebt) isControlCommand() {}

type CmdSetFriendRelays struct {
	PublicKey identity.PublicKey
	Relays    []friend.Relay
}

func (CmdSetFriendRelays) isControlCommand() {}

type CmdSetFriendName struct {
	PublicKey identity.PublicKey
	Name      string
}

func (CmdSetFriendName) isControlCommand() {}

type CmdResetFriendChannel struct {
	PublicKey  identity.PublicKey
	ResetToken [32]byte
}

func (CmdResetFriendChannel) isControlCommand() {}

type CmdRequestSendFunds struct {
	RequestId   mutualcredit.RequestId
	Route       mutualcredit.Route
	DestPayment uint128.Uint128
	InvoiceId   mutualcredit.InvoiceId
}

func (CmdRequestSendFunds) isControlCommand() {}

type CmdReceiptAck struct {
	RequestId        mutualcredit.RequestId
	ReceiptSignature []byte
}

func (CmdReceiptAck) isControlCommand() {}
