// Package funderwire encodes the messages a funderd node exchanges with a
// friend over a Channeler-provided transport, in the style of
// lnwire/message.go: a 2-byte big-endian type prefix followed by a
// type-specific payload, no inner length field or checksum (the transport
// below is assumed to already be framed and authenticated).
package funderwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessagePayload bounds a single encoded message, mirroring lnwire's
// guard against a malicious or buggy peer inflating one frame.
const MaxMessagePayload = 65535

// MessageType is the 2-byte tag identifying a funderwire.Message's concrete
// type on the wire.
type MessageType uint16

const (
	MsgMoveTokenRequest    MessageType = 1
	MsgInconsistencyError  MessageType = 2
	MsgKeepAlive           MessageType = 3
)

// UnknownMessage is returned by ReadMessage for an unrecognised message type.
type UnknownMessage struct {
	Type MessageType
}

func (u *UnknownMessage) Error() string {
	return fmt.Sprintf("funderwire: unknown message type %d", u.Type)
}

// Message is one funderd-to-friend wire message.
type Message interface {
	Decode(r io.Reader) error
	Encode(w io.Writer) error
	MsgType() MessageType
}

func makeEmptyMessage(t MessageType) (Message, error) {
	switch t {
	case MsgMoveTokenRequest:
		return &MoveTokenRequestMsg{}, nil
	case MsgInconsistencyError:
		return &InconsistencyErrorMsg{}, nil
	case MsgKeepAlive:
		return &KeepAliveMsg{}, nil
	default:
		return nil, &UnknownMessage{Type: t}
	}
}

// WriteMessage encodes msg with its type prefix onto w.
func WriteMessage(w io.Writer, msg Message) (int, error) {
	var payload bytes.Buffer
	if err := msg.Encode(&payload); err != nil {
		return 0, err
	}
	if payload.Len() > MaxMessagePayload {
		return 0, fmt.Errorf("funderwire: payload of %d bytes exceeds max %d",
			payload.Len(), MaxMessagePayload)
	}

	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(msg.MsgType()))
	n, err := w.Write(hdr[:])
	if err != nil {
		return n, err
	}
	m, err := w.Write(payload.Bytes())
	return n + m, err
}

// ReadMessage reads one type-prefixed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	msgType := MessageType(binary.BigEndian.Uint16(hdr[:]))

	msg, err := makeEmptyMessage(msgType)
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r); err != nil {
		return nil, err
	}
	return msg, nil
}
