package funderwire

import (
	"io"

	"github.com/creditmesh/funderd/tokenchannel"
)

// InconsistencyErrorMsg carries the sender's reset proposal after it
// detects its peer's channel has diverged, per spec.md §6's
// FriendMessage::InconsistencyError.
type InconsistencyErrorMsg struct {
	RemoteResetTerms tokenchannel.ResetTerms
}

var _ Message = (*InconsistencyErrorMsg)(nil)

func (m *InconsistencyErrorMsg) MsgType() MessageType { return MsgInconsistencyError }

func (m *InconsistencyErrorMsg) Encode(w io.Writer) error {
	t := m.RemoteResetTerms
	if err := writeBytesFixed(w, t.ResetToken[:]); err != nil {
		return err
	}
	if err := writeUint64(w, t.InconsistencyCounter); err != nil {
		return err
	}
	return writeBalance(w, t.BalanceForReset)
}

func (m *InconsistencyErrorMsg) Decode(r io.Reader) error {
	raw, err := readBytesFixed(r, 32)
	if err != nil {
		return err
	}
	copy(m.RemoteResetTerms.ResetToken[:], raw)

	if m.RemoteResetTerms.InconsistencyCounter, err = readUint64(r); err != nil {
		return err
	}
	m.RemoteResetTerms.BalanceForReset, err = readBalance(r)
	return err
}

// KeepAliveMsg carries no payload; its receipt alone refreshes a friend's
// Channeler-layer liveness timer.
type KeepAliveMsg struct{}

var _ Message = (*KeepAliveMsg)(nil)

func (KeepAliveMsg) MsgType() MessageType { return MsgKeepAlive }
func (KeepAliveMsg) Encode(io.Writer) error  { return nil }
func (*KeepAliveMsg) Decode(io.Reader) error { return nil }
