package funderwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"lukechampine.com/uint128"
)

// maxListLen bounds every length-prefixed list this package decodes, the
// same defensive cap lnwire's Route/HopData decoders apply against a
// corrupt or hostile peer claiming an enormous count.
const maxListLen = 1 << 16

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeBytesFixed(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

func readBytesFixed(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeVarBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	return writeBytesFixed(w, b)
}

func readVarBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxListLen {
		return nil, fmt.Errorf("funderwire: var-bytes length %d exceeds sanity limit", n)
	}
	return readBytesFixed(r, int(n))
}

func writeString(w io.Writer, s string) error {
	return writeVarBytes(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
	b, err := readVarBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeUint128(w io.Writer, v uint128.Uint128) error {
	if err := writeUint64(w, v.Hi); err != nil {
		return err
	}
	return writeUint64(w, v.Lo)
}

func readUint128(r io.Reader) (uint128.Uint128, error) {
	hi, err := readUint64(r)
	if err != nil {
		return uint128.Uint128{}, err
	}
	lo, err := readUint64(r)
	if err != nil {
		return uint128.Uint128{}, err
	}
	return uint128.Uint128{Hi: hi, Lo: lo}, nil
}

func writeBalance(w io.Writer, b mutualcredit.Balance) error {
	return writeBytesFixed(w, b.Bytes())
}

func readBalance(r io.Reader) (mutualcredit.Balance, error) {
	raw, err := readBytesFixed(r, 17)
	if err != nil {
		return mutualcredit.ZeroBalance, err
	}
	bal, ok := mutualcredit.BalanceFromBytes(raw)
	if !ok {
		return mutualcredit.ZeroBalance, fmt.Errorf("funderwire: malformed balance encoding")
	}
	return bal, nil
}

func writePublicKey(w io.Writer, pk identity.PublicKey) error {
	return writeBytesFixed(w, pk[:])
}

func readPublicKey(r io.Reader) (identity.PublicKey, error) {
	raw, err := readBytesFixed(r, 33)
	if err != nil {
		return identity.PublicKey{}, err
	}
	var pk identity.PublicKey
	copy(pk[:], raw)
	return pk, nil
}

func writeRoute(w io.Writer, route mutualcredit.Route) error {
	if len(route) > maxListLen {
		return fmt.Errorf("funderwire: route of %d hops exceeds sanity limit", len(route))
	}
	if err := writeUint32(w, uint32(len(route))); err != nil {
		return err
	}
	for _, hop := range route {
		if err := writeBytesFixed(w, hop[:]); err != nil {
			return err
		}
	}
	return nil
}

func readRoute(r io.Reader) (mutualcredit.Route, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxListLen {
		return nil, fmt.Errorf("funderwire: route length %d exceeds sanity limit", n)
	}
	route := make(mutualcredit.Route, n)
	for i := range route {
		raw, err := readBytesFixed(r, 33)
		if err != nil {
			return nil, err
		}
		copy(route[i][:], raw)
	}
	return route, nil
}

func writeFreezeLinks(w io.Writer, links []mutualcredit.FreezeLink) error {
	if err := writeUint32(w, uint32(len(links))); err != nil {
		return err
	}
	for _, l := range links {
		if err := writeUint128(w, l.SharedCredits); err != nil {
			return err
		}
		if err := writeUint32(w, l.UsableRatio.Numerator); err != nil {
			return err
		}
		if err := writeUint32(w, l.UsableRatio.Denominator); err != nil {
			return err
		}
	}
	return nil
}

func readFreezeLinks(r io.Reader) ([]mutualcredit.FreezeLink, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxListLen {
		return nil, fmt.Errorf("funderwire: freeze-link count %d exceeds sanity limit", n)
	}
	links := make([]mutualcredit.FreezeLink, n)
	for i := range links {
		shared, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		num, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		den, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		links[i] = mutualcredit.FreezeLink{
			SharedCredits: shared,
			UsableRatio:   mutualcredit.Ratio{Numerator: num, Denominator: den},
		}
	}
	return links, nil
}
