package funderwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
)

// mutation kind tags, one byte each, prefixing every encoded funder.Mutation
// in funderdb's append-only mutation log. The set mirrors funder/mutations.go
// exactly: every exported Mutation/FriendInnerMutation implementation has
// exactly one tag here.
const (
	mutAddFriend                   uint8 = 1
	mutRemoveFriend                uint8 = 2
	mutAddRelay                     uint8 = 3
	mutRemoveRelay                  uint8 = 4
	mutIndexIncomingRequest         uint8 = 5
	mutForgetRequest                uint8 = 6
	mutFriendMutation               uint8 = 7
	mutSetStatus                    uint8 = 8
	mutSetWantedRemoteMaxDebt        uint8 = 9
	mutSetWantedLocalRequestsStatus uint8 = 10
	mutSetName                      uint8 = 11
	mutSetRemoteRelays               uint8 = 12
	mutBeginLocalRelaysTransition    uint8 = 13
	mutAcknowledgeLocalRelays        uint8 = 14
	mutPushPendingResponse           uint8 = 15
	mutPopPendingResponse            uint8 = 16
	mutPushPendingRequest            uint8 = 17
	mutPopPendingRequest             uint8 = 18
	mutPushPendingUserRequest        uint8 = 19
	mutPopPendingUserRequest         uint8 = 20
	mutReceiveMoveToken              uint8 = 21
	mutCommitOutgoing                uint8 = 22
	mutMarkInconsistent              uint8 = 23
	mutReceiveRemoteResetTerms       uint8 = 24
	mutResolveReset                  uint8 = 25
)

// EncodeMutation serializes a funder.Mutation for funderdb's append-only
// mutation log, the persistence-layer analogue of EncodeOperation.
func EncodeMutation(m funder.Mutation) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeMutation(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMutation is EncodeMutation's inverse.
func DecodeMutation(raw []byte) (funder.Mutation, error) {
	return readMutation(bytes.NewReader(raw))
}

func writeRelay(w io.Writer, r friend.Relay) error {
	if err := writeBytesFixed(w, r.PublicKey[:]); err != nil {
		return err
	}
	if err := writeString(w, r.Address); err != nil {
		return err
	}
	return writeString(w, r.Name)
}

func readRelay(r io.Reader) (friend.Relay, error) {
	var relay friend.Relay
	pk, err := readBytesFixed(r, 33)
	if err != nil {
		return relay, err
	}
	copy(relay.PublicKey[:], pk)
	if relay.Address, err = readString(r); err != nil {
		return relay, err
	}
	if relay.Name, err = readString(r); err != nil {
		return relay, err
	}
	return relay, nil
}

func writeRelays(w io.Writer, relays []friend.Relay) error {
	if err := writeUint32(w, uint32(len(relays))); err != nil {
		return err
	}
	for _, r := range relays {
		if err := writeRelay(w, r); err != nil {
			return err
		}
	}
	return nil
}

func readRelays(r io.Reader) ([]friend.Relay, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	relays := make([]friend.Relay, n)
	for i := range relays {
		if relays[i], err = readRelay(r); err != nil {
			return nil, err
		}
	}
	return relays, nil
}

func writeRequestId(w io.Writer, id mutualcredit.RequestId) error {
	return writeBytesFixed(w, id[:])
}

func readRequestId(r io.Reader) (mutualcredit.RequestId, error) {
	var id mutualcredit.RequestId
	raw, err := readBytesFixed(r, len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

func writeResetTerms(w io.Writer, t tokenchannel.ResetTerms) error {
	if err := writeBytesFixed(w, t.ResetToken[:]); err != nil {
		return err
	}
	if err := writeUint64(w, t.InconsistencyCounter); err != nil {
		return err
	}
	return writeBalance(w, t.BalanceForReset)
}

func readResetTerms(r io.Reader) (tokenchannel.ResetTerms, error) {
	var t tokenchannel.ResetTerms
	raw, err := readBytesFixed(r, 32)
	if err != nil {
		return t, err
	}
	copy(t.ResetToken[:], raw)
	if t.InconsistencyCounter, err = readUint64(r); err != nil {
		return t, err
	}
	if t.BalanceForReset, err = readBalance(r); err != nil {
		return t, err
	}
	return t, nil
}

func writeMutation(w io.Writer, m funder.Mutation) error {
	switch mu := m.(type) {
	case funder.AddFriend:
		if err := writeUint8(w, mutAddFriend); err != nil {
			return err
		}
		if err := writePublicKey(w, mu.PublicKey); err != nil {
			return err
		}
		if err := writeRelays(w, mu.Relays); err != nil {
			return err
		}
		if err := writeString(w, mu.Name); err != nil {
			return err
		}
		return writeBalance(w, mu.Balance)

	case funder.RemoveFriend:
		if err := writeUint8(w, mutRemoveFriend); err != nil {
			return err
		}
		return writePublicKey(w, mu.PublicKey)

	case funder.AddRelay:
		if err := writeUint8(w, mutAddRelay); err != nil {
			return err
		}
		return writeRelay(w, mu.Relay)

	case funder.RemoveRelay:
		if err := writeUint8(w, mutRemoveRelay); err != nil {
			return err
		}
		return writeBytesFixed(w, mu.PublicKey[:])

	case funder.IndexIncomingRequest:
		if err := writeUint8(w, mutIndexIncomingRequest); err != nil {
			return err
		}
		if err := writeRequestId(w, mu.RequestId); err != nil {
			return err
		}
		return writePublicKey(w, mu.FriendKey)

	case funder.ForgetRequest:
		if err := writeUint8(w, mutForgetRequest); err != nil {
			return err
		}
		return writeRequestId(w, mu.RequestId)

	case funder.FriendMutation:
		if err := writeUint8(w, mutFriendMutation); err != nil {
			return err
		}
		if err := writePublicKey(w, mu.PublicKey); err != nil {
			return err
		}
		return writeFriendInnerMutation(w, mu.Inner)

	default:
		return fmt.Errorf("funderwire: unknown mutation type %T", m)
	}
}

func readMutation(r io.Reader) (funder.Mutation, error) {
	tag, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	switch tag {
	case mutAddFriend:
		pk, err := readPublicKey(r)
		if err != nil {
			return nil, err
		}
		relays, err := readRelays(r)
		if err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		balance, err := readBalance(r)
		if err != nil {
			return nil, err
		}
		return funder.AddFriend{PublicKey: pk, Relays: relays, Name: name, Balance: balance}, nil

	case mutRemoveFriend:
		pk, err := readPublicKey(r)
		if err != nil {
			return nil, err
		}
		return funder.RemoveFriend{PublicKey: pk}, nil

	case mutAddRelay:
		relay, err := readRelay(r)
		if err != nil {
			return nil, err
		}
		return funder.AddRelay{Relay: relay}, nil

	case mutRemoveRelay:
		raw, err := readBytesFixed(r, 33)
		if err != nil {
			return nil, err
		}
		var pk [33]byte
		copy(pk[:], raw)
		return funder.RemoveRelay{PublicKey: pk}, nil

	case mutIndexIncomingRequest:
		id, err := readRequestId(r)
		if err != nil {
			return nil, err
		}
		friendKey, err := readPublicKey(r)
		if err != nil {
			return nil, err
		}
		return funder.IndexIncomingRequest{RequestId: id, FriendKey: friendKey}, nil

	case mutForgetRequest:
		id, err := readRequestId(r)
		if err != nil {
			return nil, err
		}
		return funder.ForgetRequest{RequestId: id}, nil

	case mutFriendMutation:
		pk, err := readPublicKey(r)
		if err != nil {
			return nil, err
		}
		inner, err := readFriendInnerMutation(r)
		if err != nil {
			return nil, err
		}
		return funder.FriendMutation{PublicKey: pk, Inner: inner}, nil

	default:
		return nil, fmt.Errorf("funderwire: unknown mutation tag %d", tag)
	}
}

func writeFriendInnerMutation(w io.Writer, m funder.FriendInnerMutation) error {
	switch mu := m.(type) {
	case funder.SetStatus:
		if err := writeUint8(w, mutSetStatus); err != nil {
			return err
		}
		return writeUint8(w, uint8(mu.Status))

	case funder.SetWantedRemoteMaxDebt:
		if err := writeUint8(w, mutSetWantedRemoteMaxDebt); err != nil {
			return err
		}
		return writeUint128(w, mu.Amount)

	case funder.SetWantedLocalRequestsStatus:
		if err := writeUint8(w, mutSetWantedLocalRequestsStatus); err != nil {
			return err
		}
		return writeUint8(w, uint8(mu.Status))

	case funder.SetName:
		if err := writeUint8(w, mutSetName); err != nil {
			return err
		}
		return writeString(w, mu.Name)

	case funder.SetRemoteRelays:
		if err := writeUint8(w, mutSetRemoteRelays); err != nil {
			return err
		}
		return writeRelays(w, mu.Relays)

	case funder.BeginLocalRelaysTransition:
		if err := writeUint8(w, mutBeginLocalRelaysTransition); err != nil {
			return err
		}
		return writeRelays(w, mu.Relays)

	case funder.AcknowledgeLocalRelays:
		return writeUint8(w, mutAcknowledgeLocalRelays)

	case funder.PushPendingResponse:
		if err := writeUint8(w, mutPushPendingResponse); err != nil {
			return err
		}
		return writeOperation(w, mu.Operation)

	case funder.PopPendingResponse:
		return writeUint8(w, mutPopPendingResponse)

	case funder.PushPendingRequest:
		if err := writeUint8(w, mutPushPendingRequest); err != nil {
			return err
		}
		return writeOperation(w, mu.Operation)

	case funder.PopPendingRequest:
		return writeUint8(w, mutPopPendingRequest)

	case funder.PushPendingUserRequest:
		if err := writeUint8(w, mutPushPendingUserRequest); err != nil {
			return err
		}
		return writeOperation(w, mu.Operation)

	case funder.PopPendingUserRequest:
		return writeUint8(w, mutPopPendingUserRequest)

	case funder.ReceiveMoveToken:
		if err := writeUint8(w, mutReceiveMoveToken); err != nil {
			return err
		}
		return writeMoveToken(w, mu.MoveToken)

	case funder.CommitOutgoing:
		if err := writeUint8(w, mutCommitOutgoing); err != nil {
			return err
		}
		return writeMoveToken(w, mu.MoveToken)

	case funder.MarkInconsistent:
		return writeUint8(w, mutMarkInconsistent)

	case funder.ReceiveRemoteResetTerms:
		if err := writeUint8(w, mutReceiveRemoteResetTerms); err != nil {
			return err
		}
		return writeResetTerms(w, mu.Terms)

	case funder.ResolveReset:
		return writeUint8(w, mutResolveReset)

	default:
		return fmt.Errorf("funderwire: unknown friend mutation type %T", m)
	}
}

func readFriendInnerMutation(r io.Reader) (funder.FriendInnerMutation, error) {
	tag, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	switch tag {
	case mutSetStatus:
		v, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		return funder.SetStatus{Status: friend.Status(v)}, nil

	case mutSetWantedRemoteMaxDebt:
		v, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		return funder.SetWantedRemoteMaxDebt{Amount: v}, nil

	case mutSetWantedLocalRequestsStatus:
		v, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		return funder.SetWantedLocalRequestsStatus{Status: mutualcredit.RequestsStatus(v)}, nil

	case mutSetName:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return funder.SetName{Name: name}, nil

	case mutSetRemoteRelays:
		relays, err := readRelays(r)
		if err != nil {
			return nil, err
		}
		return funder.SetRemoteRelays{Relays: relays}, nil

	case mutBeginLocalRelaysTransition:
		relays, err := readRelays(r)
		if err != nil {
			return nil, err
		}
		return funder.BeginLocalRelaysTransition{Relays: relays}, nil

	case mutAcknowledgeLocalRelays:
		return funder.AcknowledgeLocalRelays{}, nil

	case mutPushPendingResponse:
		op, err := readOperation(r)
		if err != nil {
			return nil, err
		}
		return funder.PushPendingResponse{Operation: op}, nil

	case mutPopPendingResponse:
		return funder.PopPendingResponse{}, nil

	case mutPushPendingRequest:
		op, err := readOperation(r)
		if err != nil {
			return nil, err
		}
		return funder.PushPendingRequest{Operation: op}, nil

	case mutPopPendingRequest:
		return funder.PopPendingRequest{}, nil

	case mutPushPendingUserRequest:
		op, err := readOperation(r)
		if err != nil {
			return nil, err
		}
		return funder.PushPendingUserRequest{Operation: op}, nil

	case mutPopPendingUserRequest:
		return funder.PopPendingUserRequest{}, nil

	case mutReceiveMoveToken:
		mt, err := readMoveToken(r)
		if err != nil {
			return nil, err
		}
		return funder.ReceiveMoveToken{MoveToken: mt}, nil

	case mutCommitOutgoing:
		mt, err := readMoveToken(r)
		if err != nil {
			return nil, err
		}
		return funder.CommitOutgoing{MoveToken: mt}, nil

	case mutMarkInconsistent:
		return funder.MarkInconsistent{}, nil

	case mutReceiveRemoteResetTerms:
		terms, err := readResetTerms(r)
		if err != nil {
			return nil, err
		}
		return funder.ReceiveRemoteResetTerms{Terms: terms}, nil

	case mutResolveReset:
		return funder.ResolveReset{}, nil

	default:
		return nil, fmt.Errorf("funderwire: unknown friend mutation tag %d", tag)
	}
}
