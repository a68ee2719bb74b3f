package mutualcredit

import "lukechampine.com/uint128"

// Balance is a signed 128-bit quantity. The mutual-credit ledger's signed
// balance (spec.md §3) needs a sign the underlying uint128.Uint128 doesn't
// carry on its own, so Balance pairs a magnitude with a sign bit. Max-debt
// and pending-debt fields, which spec.md types as unsigned u128, are kept as
// plain uint128.Uint128 throughout the package.
type Balance struct {
	neg bool
	mag uint128.Uint128
}

// ZeroBalance is the additive identity.
var ZeroBalance = Balance{}

// BalanceFromInt64 builds a Balance from a signed machine integer, used by
// tests and control-plane bootstrap (AddFriend's initial balance).
func BalanceFromInt64(v int64) Balance {
	if v < 0 {
		return Balance{neg: true, mag: uint128.From64(uint64(-v))}
	}
	return Balance{mag: uint128.From64(uint64(v))}
}

// IsNeg reports whether the balance is strictly negative.
func (b Balance) IsNeg() bool {
	return b.neg && !b.mag.IsZero()
}

// IsZero reports whether the balance is exactly zero.
func (b Balance) IsZero() bool {
	return b.mag.IsZero()
}

// Neg returns -b.
func (b Balance) Neg() Balance {
	if b.mag.IsZero() {
		return b
	}
	return Balance{neg: !b.neg, mag: b.mag}
}

// Cmp returns -1, 0 or 1 as b is less than, equal to, or greater than o.
func (b Balance) Cmp(o Balance) int {
	bz, oz := b.mag.IsZero(), o.mag.IsZero()
	switch {
	case bz && oz:
		return 0
	case b.neg && !o.neg:
		return -1
	case !b.neg && o.neg:
		return 1
	case !b.neg && !o.neg:
		return b.mag.Cmp(o.mag)
	default: // both negative: larger magnitude is the smaller balance
		return o.mag.Cmp(b.mag)
	}
}

// addMagnitudes adds two non-negative uint128 magnitudes, reporting overflow
// rather than wrapping. lukechampine.com/uint128 panics on Add overflow
// (documented behavior since v1.1); we recover it into the ok=false case the
// ledger surfaces as CreditCalculationOverflow.
func addMagnitudes(a, b uint128.Uint128) (sum uint128.Uint128, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return a.Add(b), true
}

func subMagnitudes(a, b uint128.Uint128) (diff uint128.Uint128, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return a.Sub(b), true
}

// Add returns b+o; its second result is false if the addition overflowed a
// 128-bit signed magnitude.
func (b Balance) Add(o Balance) (Balance, bool) {
	switch {
	case b.neg == o.neg:
		sum, ok := addMagnitudes(b.mag, o.mag)
		return Balance{neg: b.neg, mag: sum}, ok
	case b.mag.Cmp(o.mag) >= 0:
		diff, ok := subMagnitudes(b.mag, o.mag)
		return Balance{neg: b.neg, mag: diff}, ok
	default:
		diff, ok := subMagnitudes(o.mag, b.mag)
		return Balance{neg: o.neg, mag: diff}, ok
	}
}

// Sub returns b-o.
func (b Balance) Sub(o Balance) (Balance, bool) {
	return b.Add(o.Neg())
}

// AddUint128 adds an unsigned amount to the balance (peer owes us more).
func (b Balance) AddUint128(amount uint128.Uint128) (Balance, bool) {
	return b.Add(Balance{mag: amount})
}

// SubUint128 subtracts an unsigned amount from the balance (we owe peer
// more).
func (b Balance) SubUint128(amount uint128.Uint128) (Balance, bool) {
	return b.Add(Balance{neg: true, mag: amount})
}

// String renders the balance for debug logging.
func (b Balance) String() string {
	if b.IsNeg() {
		return "-" + b.mag.String()
	}
	return b.mag.String()
}

// Bytes serializes the balance as a sign byte followed by the big-endian
// 128-bit magnitude, used to fold the balance into a MoveToken's signed
// buffer.
func (b Balance) Bytes() []byte {
	out := make([]byte, 17)
	if b.IsNeg() {
		out[0] = 1
	}
	putUint64BE(out[1:9], b.mag.Hi)
	putUint64BE(out[9:17], b.mag.Lo)
	return out
}

// BalanceFromBytes parses the 17-byte encoding Bytes produces, used by
// persistence and wire layers to reconstruct a Balance without reaching
// into its unexported fields.
func BalanceFromBytes(raw []byte) (Balance, bool) {
	if len(raw) != 17 {
		return ZeroBalance, false
	}
	mag := uint128.Uint128{
		Hi: getUint64BE(raw[1:9]),
		Lo: getUint64BE(raw[9:17]),
	}
	bal := Balance{mag: mag}
	if raw[0] == 1 {
		bal = bal.Neg()
	}
	return bal, true
}

func getUint64BE(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}

func putUint64BE(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}
