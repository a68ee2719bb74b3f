package funderwire

import (
	"fmt"

	"github.com/creditmesh/funderd/handler"
)

// ToWire adapts a handler.FriendMessage (the core's internal sum type) to
// the funderwire.Message the Channeler actually puts on a connection. This
// conversion, and FromWire below, are the only place funderd's core and its
// transport layer touch: the core never imports funderwire.
func ToWire(msg handler.FriendMessage) (Message, error) {
	switch m := msg.(type) {
	case handler.MoveTokenRequest:
		return &MoveTokenRequestMsg{MoveToken: m.MoveToken, TokenWanted: m.TokenWanted}, nil

	case handler.InconsistencyErrorMsg:
		return &InconsistencyErrorMsg{RemoteResetTerms: m.RemoteResetTerms}, nil

	case handler.KeepAliveMsg:
		return &KeepAliveMsg{}, nil

	default:
		return nil, fmt.Errorf("funderwire: unconvertible friend message %T", msg)
	}
}

// FromWire is ToWire's inverse, used when the Channeler hands a freshly
// decoded message up to the handler as a FriendMessageEvent.
func FromWire(msg Message) (handler.FriendMessage, error) {
	switch m := msg.(type) {
	case *MoveTokenRequestMsg:
		return handler.MoveTokenRequest{MoveToken: m.MoveToken, TokenWanted: m.TokenWanted}, nil

	case *InconsistencyErrorMsg:
		return handler.InconsistencyErrorMsg{RemoteResetTerms: m.RemoteResetTerms}, nil

	case *KeepAliveMsg:
		return handler.KeepAliveMsg{}, nil

	default:
		return nil, fmt.Errorf("funderwire: unrecognised wire message %T", msg)
	}
}
