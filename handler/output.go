package handler

import (
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// Output is FunderHandlerOutput, the three output streams produced by one
// Handle call, per spec.md §6.
type Output struct {
	FunderMutations    []funder.Mutation
	EphemeralMutations []EphemeralMutation

	OutgoingComms    []OutgoingComm
	OutgoingControl  []ControlOutput
}

// EphemeralMutation is a non-durable change to the liveness set.
type EphemeralMutation interface {
	isEphemeralMutation()
}

type SetOnline struct{ PublicKey identity.PublicKey }

func (SetOnline) isEphemeralMutation() {}

type SetOffline struct{ PublicKey identity.PublicKey }

func (SetOffline) isEphemeralMutation() {}

// OutgoingComm is either a message addressed to a friend, or a
// ChannelerConfig directive, per spec.md §6.
type OutgoingComm interface {
	isOutgoingComm()
}

// FriendMessageOut addresses a FriendMessage to a friend public key.
type FriendMessageOut struct {
	Dest    identity.PublicKey
	Message FriendMessage
}

func (FriendMessageOut) isOutgoingComm() {}

// ChannelerConfig is the sum of transport-facing configuration directives
// named in spec.md §6. funderd's Channeler collaborator (out of core scope)
// is the consumer.
type ChannelerConfig interface {
	isOutgoingComm()
	isChannelerConfig()
}

type SetRelays struct{ Relays []friend.Relay }

func (SetRelays) isOutgoingComm()     {}
func (SetRelays) isChannelerConfig()  {}

type UpdateFriend struct {
	Friend       identity.PublicKey
	FriendRelays []friend.Relay
	LocalRelays  []friend.Relay
}

func (UpdateFriend) isOutgoingComm()    {}
func (UpdateFriend) isChannelerConfig() {}

type RemoveFriendConfig struct{ PublicKey identity.PublicKey }

func (RemoveFriendConfig) isOutgoingComm()    {}
func (RemoveFriendConfig) isChannelerConfig() {}

type AddFriendConfig struct{ PublicKey identity.PublicKey }

func (AddFriendConfig) isOutgoingComm()    {}
func (AddFriendConfig) isChannelerConfig() {}

// ControlOutput is the sum of notifications delivered to the control plane,
// per spec.md §6.
type ControlOutput interface {
	isControlOutput()
}

// ResponseReceived reports the terminal outcome of a request this node
// originated.
type ResponseReceived struct {
	RequestId mutualcredit.RequestId
	Success   bool
	Receipt   []byte             // never populated by this package, even on Success
	Reporter  identity.PublicKey // set when !Success
}

func (ResponseReceived) isControlOutput() {}

// ReportMutations carries the diff stream produced by the report projector
// for this call.
type ReportMutations struct {
	Mutations []interface{}
}

func (ReportMutations) isControlOutput() {}
