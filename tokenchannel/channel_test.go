package tokenchannel

import (
	"testing"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestEmptyMoveTokenRoundTrip(t *testing.T) {
	// spec.md §8 scenario 1: an empty move-token is exchanged and both
	// ledgers hold balance=0, local_pending_debt=0, remote_pending_debt=0.
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)

	a := NewChannel(mutualcredit.ZeroBalance)
	builder, err := a.NewBuilder(signer.PublicKey(), identity.PublicKey{}, 10)
	require.NoError(t, err)

	nonce, err := identity.RandNonce()
	require.NoError(t, err)
	mt, err := builder.Commit(signer, nonce)
	require.NoError(t, err)
	require.Equal(t, Outgoing, a.Direction())

	b := NewChannel(mutualcredit.ZeroBalance)
	b.direction = Outgoing // receiver of the first token has not yet built one
	result := b.ReceiveMoveToken(mt)
	require.Equal(t, OutcomeMove, result.Outcome)
	require.Equal(t, Incoming, b.Direction())
	require.True(t, b.MutualCredit().Balance().IsZero())
	require.True(t, b.MutualCredit().LocalPendingDebt().IsZero())
	require.True(t, b.MutualCredit().RemotePendingDebt().IsZero())
}

func TestDuplicateMoveTokenIgnored(t *testing.T) {
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)

	a := NewChannel(mutualcredit.ZeroBalance)
	builder, _ := a.NewBuilder(signer.PublicKey(), identity.PublicKey{}, 10)
	nonce, _ := identity.RandNonce()
	mt, err := builder.Commit(signer, nonce)
	require.NoError(t, err)

	b := NewChannel(mutualcredit.ZeroBalance)
	b.direction = Outgoing
	first := b.ReceiveMoveToken(mt)
	require.Equal(t, OutcomeMove, first.Outcome)

	second := b.ReceiveMoveToken(mt)
	require.Equal(t, OutcomeDuplicate, second.Outcome)
}

func TestBuilderRejectsInvalidOperation(t *testing.T) {
	a := NewChannel(mutualcredit.ZeroBalance)
	signer, _ := identity.NewLocalSigner()
	builder, err := a.NewBuilder(signer.PublicKey(), identity.PublicKey{}, 10)
	require.NoError(t, err)

	// RequestSendFunds with remote_requests_status still Closed must be
	// rejected by the trial ledger, not silently queued.
	err = builder.TryQueue(mutualcredit.RequestSendFunds{
		RequestId:   mutualcredit.RequestId{1},
		Route:       mutualcredit.Route{{0x01}, {0x02}},
		DestPayment: uint128.From64(10),
	})
	require.Error(t, err)
	require.Equal(t, 0, builder.Len())
}

func TestNewBuilderWrongDirection(t *testing.T) {
	a := NewChannel(mutualcredit.ZeroBalance)
	signer, _ := identity.NewLocalSigner()
	_, err := a.NewBuilder(signer.PublicKey(), identity.PublicKey{}, 10)
	require.NoError(t, err)

	a.direction = Outgoing
	_, err = a.NewBuilder(signer.PublicKey(), identity.PublicKey{}, 10)
	require.ErrorIs(t, err, ErrWrongDirection)
}
