package tokenchannel

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"lukechampine.com/uint128"
)

// Direction tags which side of the channel currently holds the token: the
// side that sent the last move-token (Outgoing) or the side that received
// and applied it (Incoming). Exactly one side holds the token at a time.
type Direction int

const (
	// Incoming means we last received and applied a move-token; we may
	// build and send the next one.
	Incoming Direction = iota
	// Outgoing means we last sent a move-token; we are waiting for our
	// peer's next one (or a retransmit request).
	Outgoing
)

func (d Direction) String() string {
	if d == Outgoing {
		return "Outgoing"
	}
	return "Incoming"
}

// MoveToken is the wire-visible record of one channel-state transition,
// matching spec.md §3's MoveToken shape.
type MoveToken struct {
	Operations    []mutualcredit.Operation
	OptLocalRelays []string

	PreviousToken [32]byte
	LocalKey      identity.PublicKey
	RemoteKey     identity.PublicKey

	InconsistencyCounter uint64
	MoveTokenCounter     uint64

	NewBalance        mutualcredit.Balance
	LocalPendingDebt  uint128.Uint128
	RemotePendingDebt uint128.Uint128

	RandNonce [16]byte
	Signature identity.Signature
}

// SignedBuffer returns the canonical byte buffer that gets hashed and
// signed/verified for this move-token: a type-prefix byte, big-endian
// lengths, raw-bytes fields, in field declaration order, per spec.md §6.
func (mt *MoveToken) SignedBuffer() []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, 0x01) // MoveToken type prefix
	buf = append(buf, mt.PreviousToken[:]...)
	buf = append(buf, mt.LocalKey[:]...)
	buf = append(buf, mt.RemoteKey[:]...)
	buf = appendUint64(buf, mt.InconsistencyCounter)
	buf = appendUint64(buf, mt.MoveTokenCounter)
	buf = append(buf, mt.NewBalance.Bytes()...)
	buf = appendUint64(buf, mt.LocalPendingDebt.Hi)
	buf = appendUint64(buf, mt.LocalPendingDebt.Lo)
	buf = appendUint64(buf, mt.RemotePendingDebt.Hi)
	buf = appendUint64(buf, mt.RemotePendingDebt.Lo)
	buf = append(buf, mt.RandNonce[:]...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// Hash returns the 32-byte channel-token hash used as the next move-token's
// PreviousToken field, the way lnwallet derives a commitment's identifying
// hash from its signed contents.
func (mt *MoveToken) Hash() [32]byte {
	return sha256.Sum256(mt.SignedBuffer())
}

// ResetTerms is one side's proposal for resurrecting a fresh TokenChannel
// after an inconsistency, per spec.md §4.2.
type ResetTerms struct {
	ResetToken          [32]byte
	InconsistencyCounter uint64
	BalanceForReset      mutualcredit.Balance
}

// ChannelInconsistent is the state a friend's channel_status moves to on
// detecting divergence, per spec.md §3.
type ChannelInconsistent struct {
	LocalResetTerms      ResetTerms
	OptRemoteResetTerms  *ResetTerms
	OptLastIncomingToken *MoveToken
}

// Compatible reports whether the local and (if known) remote reset terms
// agree: the remote's balance_for_reset must be the negation of ours after
// sign normalisation, per spec.md §4.2.
func (ci *ChannelInconsistent) Compatible() bool {
	if ci.OptRemoteResetTerms == nil {
		return false
	}
	negRemote := ci.OptRemoteResetTerms.BalanceForReset.Neg()
	return ci.LocalResetTerms.BalanceForReset.Cmp(negRemote) == 0
}

// ComputeResetToken derives a fresh reset_token: a hash over the two
// identities and the inconsistency counter, matching spec.md's "hash over
// identifiers + counter".
func ComputeResetToken(local, remote identity.PublicKey, counter uint64) [32]byte {
	buf := make([]byte, 0, 33+33+8)
	buf = append(buf, local[:]...)
	buf = append(buf, remote[:]...)
	buf = appendUint64(buf, counter)
	return sha256.Sum256(buf)
}
