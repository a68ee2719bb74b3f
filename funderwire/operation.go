package funderwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/creditmesh/funderd/mutualcredit"
)

// EncodeOperation serializes a single Operation using the same codec a
// move-token's operations list uses on the wire. The mutation codec in
// mutation.go uses the same writeOperation encoding for operations embedded
// in queue-push mutations, so funderdb's log needs no second serialization
// format.
func EncodeOperation(op mutualcredit.Operation) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeOperation(&buf, op); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeOperation is EncodeOperation's inverse.
func DecodeOperation(raw []byte) (mutualcredit.Operation, error) {
	return readOperation(bytes.NewReader(raw))
}

// Operation kind tags, one byte each, prefixing every encoded
// mutualcredit.Operation inside a move-token's operations list.
const (
	opEnableRequests    uint8 = 1
	opDisableRequests   uint8 = 2
	opSetRemoteMaxDebt  uint8 = 3
	opRequestSendFunds  uint8 = 4
	opResponseSendFunds uint8 = 5
	opFailureSendFunds  uint8 = 6
)

func writeOperation(w io.Writer, op mutualcredit.Operation) error {
	switch o := op.(type) {
	case mutualcredit.EnableRequests:
		return writeUint8(w, opEnableRequests)

	case mutualcredit.DisableRequests:
		return writeUint8(w, opDisableRequests)

	case mutualcredit.SetRemoteMaxDebt:
		if err := writeUint8(w, opSetRemoteMaxDebt); err != nil {
			return err
		}
		return writeUint128(w, o.Amount)

	case mutualcredit.RequestSendFunds:
		if err := writeUint8(w, opRequestSendFunds); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.RequestId[:]); err != nil {
			return err
		}
		if err := writeRoute(w, o.Route); err != nil {
			return err
		}
		if err := writeUint128(w, o.DestPayment); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.InvoiceId[:]); err != nil {
			return err
		}
		return writeFreezeLinks(w, o.FreezeLinks)

	case mutualcredit.ResponseSendFunds:
		if err := writeUint8(w, opResponseSendFunds); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.RequestId[:]); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.RandNonce[:]); err != nil {
			return err
		}
		return writeVarBytes(w, o.Signature)

	case mutualcredit.FailureSendFunds:
		if err := writeUint8(w, opFailureSendFunds); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.RequestId[:]); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.ReportingPublicKey[:]); err != nil {
			return err
		}
		if err := writeBytesFixed(w, o.RandNonce[:]); err != nil {
			return err
		}
		return writeVarBytes(w, o.Signature)

	default:
		return fmt.Errorf("funderwire: unknown operation type %T", op)
	}
}

func readOperation(r io.Reader) (mutualcredit.Operation, error) {
	kind, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	switch kind {
	case opEnableRequests:
		return mutualcredit.EnableRequests{}, nil

	case opDisableRequests:
		return mutualcredit.DisableRequests{}, nil

	case opSetRemoteMaxDebt:
		amount, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		return mutualcredit.SetRemoteMaxDebt{Amount: amount}, nil

	case opRequestSendFunds:
		var o mutualcredit.RequestSendFunds
		idRaw, err := readBytesFixed(r, 16)
		if err != nil {
			return nil, err
		}
		copy(o.RequestId[:], idRaw)
		if o.Route, err = readRoute(r); err != nil {
			return nil, err
		}
		if o.DestPayment, err = readUint128(r); err != nil {
			return nil, err
		}
		invRaw, err := readBytesFixed(r, 32)
		if err != nil {
			return nil, err
		}
		copy(o.InvoiceId[:], invRaw)
		if o.FreezeLinks, err = readFreezeLinks(r); err != nil {
			return nil, err
		}
		return o, nil

	case opResponseSendFunds:
		var o mutualcredit.ResponseSendFunds
		idRaw, err := readBytesFixed(r, 16)
		if err != nil {
			return nil, err
		}
		copy(o.RequestId[:], idRaw)
		nonceRaw, err := readBytesFixed(r, 16)
		if err != nil {
			return nil, err
		}
		copy(o.RandNonce[:], nonceRaw)
		if o.Signature, err = readVarBytes(r); err != nil {
			return nil, err
		}
		return o, nil

	case opFailureSendFunds:
		var o mutualcredit.FailureSendFunds
		idRaw, err := readBytesFixed(r, 16)
		if err != nil {
			return nil, err
		}
		copy(o.RequestId[:], idRaw)
		pkRaw, err := readBytesFixed(r, 33)
		if err != nil {
			return nil, err
		}
		copy(o.ReportingPublicKey[:], pkRaw)
		nonceRaw, err := readBytesFixed(r, 16)
		if err != nil {
			return nil, err
		}
		copy(o.RandNonce[:], nonceRaw)
		if o.Signature, err = readVarBytes(r); err != nil {
			return nil, err
		}
		return o, nil

	default:
		return nil, fmt.Errorf("funderwire: unknown operation kind byte %d", kind)
	}
}

func writeOperations(w io.Writer, ops []mutualcredit.Operation) error {
	if err := writeUint32(w, uint32(len(ops))); err != nil {
		return err
	}
	for _, op := range ops {
		if err := writeOperation(w, op); err != nil {
			return err
		}
	}
	return nil
}

func readOperations(r io.Reader) ([]mutualcredit.Operation, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxListLen {
		return nil, fmt.Errorf("funderwire: operations count %d exceeds sanity limit", n)
	}
	ops := make([]mutualcredit.Operation, n)
	for i := range ops {
		op, err := readOperation(r)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
