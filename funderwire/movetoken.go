package funderwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/creditmesh/funderd/tokenchannel"
	"github.com/lightningnetwork/lnd/tlv"
)

// tlv type numbers for MoveTokenRequestMsg's optional extension record. The
// relays list is the only field spec.md marks optional (opt_local_relays);
// everything else is a fixed MoveToken field and stays in the static
// payload, the way lnwire keeps required HTLC fields static and pushes only
// extensible/optional data into a trailing TLV stream.
const tlvTypeLocalRelays tlv.Type = 0

// MoveTokenRequestMsg carries a signed tokenchannel.MoveToken plus the
// token_wanted flag, per spec.md §6's FriendMessage::MoveTokenRequest.
type MoveTokenRequestMsg struct {
	MoveToken   *tokenchannel.MoveToken
	TokenWanted bool
}

var _ Message = (*MoveTokenRequestMsg)(nil)

func (m *MoveTokenRequestMsg) MsgType() MessageType { return MsgMoveTokenRequest }

// Encode writes the move-token's static fields followed by a TLV stream
// carrying OptLocalRelays when present.
func (m *MoveTokenRequestMsg) Encode(w io.Writer) error {
	wanted := uint8(0)
	if m.TokenWanted {
		wanted = 1
	}
	if err := writeUint8(w, wanted); err != nil {
		return err
	}
	return writeMoveToken(w, m.MoveToken)
}

// Decode reverses Encode.
func (m *MoveTokenRequestMsg) Decode(r io.Reader) error {
	wanted, err := readUint8(r)
	if err != nil {
		return err
	}
	m.TokenWanted = wanted != 0

	mt, err := readMoveToken(r)
	if err != nil {
		return err
	}
	m.MoveToken = mt
	return nil
}

// writeMoveToken serializes every MoveToken field, including the trailing
// OptLocalRelays TLV stream. Shared between MoveTokenRequestMsg's wire
// encoding and funderdb's mutation log, which persists move-tokens whole.
func writeMoveToken(w io.Writer, mt *tokenchannel.MoveToken) error {
	if err := writeOperations(w, mt.Operations); err != nil {
		return err
	}
	if err := writeBytesFixed(w, mt.PreviousToken[:]); err != nil {
		return err
	}
	if err := writePublicKey(w, mt.LocalKey); err != nil {
		return err
	}
	if err := writePublicKey(w, mt.RemoteKey); err != nil {
		return err
	}
	if err := writeUint64(w, mt.InconsistencyCounter); err != nil {
		return err
	}
	if err := writeUint64(w, mt.MoveTokenCounter); err != nil {
		return err
	}
	if err := writeBalance(w, mt.NewBalance); err != nil {
		return err
	}
	if err := writeUint128(w, mt.LocalPendingDebt); err != nil {
		return err
	}
	if err := writeUint128(w, mt.RemotePendingDebt); err != nil {
		return err
	}
	if err := writeBytesFixed(w, mt.RandNonce[:]); err != nil {
		return err
	}
	if err := writeVarBytes(w, mt.Signature); err != nil {
		return err
	}
	return encodeRelaysTLV(w, mt.OptLocalRelays)
}

// readMoveToken reverses writeMoveToken.
func readMoveToken(r io.Reader) (*tokenchannel.MoveToken, error) {
	mt := &tokenchannel.MoveToken{}

	var err error
	if mt.Operations, err = readOperations(r); err != nil {
		return nil, err
	}
	prevRaw, err := readBytesFixed(r, 32)
	if err != nil {
		return nil, err
	}
	copy(mt.PreviousToken[:], prevRaw)

	if mt.LocalKey, err = readPublicKey(r); err != nil {
		return nil, err
	}
	if mt.RemoteKey, err = readPublicKey(r); err != nil {
		return nil, err
	}
	if mt.InconsistencyCounter, err = readUint64(r); err != nil {
		return nil, err
	}
	if mt.MoveTokenCounter, err = readUint64(r); err != nil {
		return nil, err
	}
	if mt.NewBalance, err = readBalance(r); err != nil {
		return nil, err
	}
	if mt.LocalPendingDebt, err = readUint128(r); err != nil {
		return nil, err
	}
	if mt.RemotePendingDebt, err = readUint128(r); err != nil {
		return nil, err
	}
	nonceRaw, err := readBytesFixed(r, 16)
	if err != nil {
		return nil, err
	}
	copy(mt.RandNonce[:], nonceRaw)
	if mt.Signature, err = readVarBytes(r); err != nil {
		return nil, err
	}

	relays, err := decodeRelaysTLV(r)
	if err != nil {
		return nil, err
	}
	mt.OptLocalRelays = relays

	return mt, nil
}

// encodeRelaysTLV folds OptLocalRelays into a single-record TLV stream, or
// writes an explicit empty stream when there is nothing to carry: the
// reader always expects a (possibly empty) TLV tail, never its absence.
func encodeRelaysTLV(w io.Writer, relays []string) error {
	if len(relays) == 0 {
		return writeVarBytes(w, nil)
	}

	var relayBuf bytes.Buffer
	if err := writeUint32(&relayBuf, uint32(len(relays))); err != nil {
		return err
	}
	for _, addr := range relays {
		if err := writeString(&relayBuf, addr); err != nil {
			return err
		}
	}
	raw := relayBuf.Bytes()

	record := tlv.MakePrimitiveRecord(tlvTypeLocalRelays, &raw)
	stream, err := tlv.NewStream(record)
	if err != nil {
		return err
	}
	var tlvBuf bytes.Buffer
	if err := stream.Encode(&tlvBuf); err != nil {
		return err
	}
	return writeVarBytes(w, tlvBuf.Bytes())
}

func decodeRelaysTLV(r io.Reader) ([]string, error) {
	tlvBytes, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	if len(tlvBytes) == 0 {
		return nil, nil
	}

	var raw []byte
	record := tlv.MakePrimitiveRecord(tlvTypeLocalRelays, &raw)
	stream, err := tlv.NewStream(record)
	if err != nil {
		return nil, err
	}
	parsed, err := stream.DecodeWithParsedTypes(bytes.NewReader(tlvBytes))
	if err != nil {
		return nil, err
	}
	if _, ok := parsed[tlvTypeLocalRelays]; !ok {
		return nil, nil
	}

	relayReader := bytes.NewReader(raw)
	count, err := readUint32(relayReader)
	if err != nil {
		return nil, err
	}
	if count > maxListLen {
		return nil, fmt.Errorf("funderwire: relay count %d exceeds sanity limit", count)
	}
	relays := make([]string, count)
	for i := range relays {
		if relays[i], err = readString(relayReader); err != nil {
			return nil, err
		}
	}
	return relays, nil
}
