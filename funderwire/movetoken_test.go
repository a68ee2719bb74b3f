package funderwire

import (
	"bytes"
	"testing"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestMoveTokenRequestRoundTrip(t *testing.T) {
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)

	mt := &tokenchannel.MoveToken{
		Operations: []mutualcredit.Operation{
			mutualcredit.SetRemoteMaxDebt{Amount: uint128.From64(42)},
			mutualcredit.EnableRequests{},
		},
		OptLocalRelays:    []string{"relay1.example.com:4100", "relay2.example.com:4100"},
		LocalKey:          signer.PublicKey(),
		RemoteKey:         signer.PublicKey(),
		MoveTokenCounter:  7,
		NewBalance:        mutualcredit.BalanceFromInt64(-5),
		LocalPendingDebt:  uint128.From64(3),
		RemotePendingDebt: uint128.From64(4),
	}
	sig, err := signer.Sign(mt.SignedBuffer())
	require.NoError(t, err)
	mt.Signature = sig

	msg := &MoveTokenRequestMsg{MoveToken: mt, TokenWanted: true}

	var buf bytes.Buffer
	_, err = WriteMessage(&buf, msg)
	require.NoError(t, err)

	decoded, err := ReadMessage(&buf)
	require.NoError(t, err)

	out, ok := decoded.(*MoveTokenRequestMsg)
	require.True(t, ok)
	require.True(t, out.TokenWanted)
	require.Equal(t, mt.MoveTokenCounter, out.MoveToken.MoveTokenCounter)
	require.Equal(t, mt.NewBalance.Cmp(out.MoveToken.NewBalance), 0)
	require.Equal(t, mt.OptLocalRelays, out.MoveToken.OptLocalRelays)
	require.Len(t, out.MoveToken.Operations, 2)
	require.Equal(t, mt.LocalPendingDebt, out.MoveToken.LocalPendingDebt)
}

func TestMoveTokenRequestRoundTripNoRelays(t *testing.T) {
	mt := &tokenchannel.MoveToken{NewBalance: mutualcredit.ZeroBalance}
	msg := &MoveTokenRequestMsg{MoveToken: mt}

	var buf bytes.Buffer
	_, err := WriteMessage(&buf, msg)
	require.NoError(t, err)

	decoded, err := ReadMessage(&buf)
	require.NoError(t, err)

	out := decoded.(*MoveTokenRequestMsg)
	require.False(t, out.TokenWanted)
	require.Empty(t, out.MoveToken.OptLocalRelays)
}

func TestInconsistencyErrorRoundTrip(t *testing.T) {
	msg := &InconsistencyErrorMsg{
		RemoteResetTerms: tokenchannel.ResetTerms{
			InconsistencyCounter: 3,
			BalanceForReset:      mutualcredit.BalanceFromInt64(10),
		},
	}

	var buf bytes.Buffer
	_, err := WriteMessage(&buf, msg)
	require.NoError(t, err)

	decoded, err := ReadMessage(&buf)
	require.NoError(t, err)

	out := decoded.(*InconsistencyErrorMsg)
	require.Equal(t, uint64(3), out.RemoteResetTerms.InconsistencyCounter)
	require.Equal(t, 0, out.RemoteResetTerms.BalanceForReset.Cmp(mutualcredit.BalanceFromInt64(10)))
}

func TestKeepAliveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteMessage(&buf, &KeepAliveMsg{})
	require.NoError(t, err)

	decoded, err := ReadMessage(&buf)
	require.NoError(t, err)
	_, ok := decoded.(*KeepAliveMsg)
	require.True(t, ok)
}
