package mutualcredit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func reqID(b byte) RequestId {
	var id RequestId
	id[0] = b
	return id
}

func TestSetRemoteMaxDebtDirection(t *testing.T) {
	// spec.md §8 scenario 1: A:SetFriendRemoteMaxDebt(B,100) is applied
	// outgoing on A's side of the channel, incoming on B's; after B
	// applies it, B's view of local_max_debt is 100.
	a := NewMutualCredit(ZeroBalance)
	_, err := a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(100)})
	require.NoError(t, err)
	require.Equal(t, uint128.From64(100), a.RemoteMaxDebt())

	b := NewMutualCredit(ZeroBalance)
	_, err = b.ApplyIncoming(SetRemoteMaxDebt{Amount: uint128.From64(100)})
	require.NoError(t, err)
	require.Equal(t, uint128.From64(100), b.LocalMaxDebt())
}

func TestEnableDisableRequestsDirection(t *testing.T) {
	a := NewMutualCredit(ZeroBalance)
	_, err := a.ApplyOutgoing(EnableRequests{})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, a.LocalRequestsStatus())
	require.Equal(t, StatusClosed, a.RemoteRequestsStatus())

	b := NewMutualCredit(ZeroBalance)
	_, err = b.ApplyIncoming(EnableRequests{})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, b.RemoteRequestsStatus())
	require.Equal(t, StatusClosed, b.LocalRequestsStatus())
}

func TestRequestSendFundsRoundTripSuccess(t *testing.T) {
	// A forwards a request to B (outgoing on A's channel to B).
	a := NewMutualCredit(ZeroBalance)
	_, err := a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(1000)})
	require.NoError(t, err)
	_, err = a.ApplyIncoming(EnableRequests{}) // B told A it accepts requests
	require.NoError(t, err)

	route := Route{{0x01}, {0x02}, {0x03}}
	op := RequestSendFunds{
		RequestId:   reqID(1),
		Route:       route,
		DestPayment: uint128.From64(10),
		InvoiceId:   InvoiceId{},
	}
	_, err = a.ApplyOutgoing(op)
	require.NoError(t, err)

	pr, ok := a.PendingLocalRequest(reqID(1))
	require.True(t, ok)
	require.Equal(t, uint128.From64(10+1), pr.CreditFreeze) // 1 remaining hop * FeePerHop(1)
	require.Equal(t, pr.CreditFreeze, a.RemotePendingDebt())

	// The peer we forwarded to settles it; their confirmation arrives as
	// an incoming operation on this channel.
	_, err = a.ApplyIncoming(ResponseSendFunds{RequestId: reqID(1)})
	require.NoError(t, err)
	require.True(t, a.Balance().IsNeg())
	require.True(t, a.RemotePendingDebt().IsZero())
	_, stillPending := a.PendingLocalRequest(reqID(1))
	require.False(t, stillPending)
}

func TestRequestSendFundsFailureReleasesFreezeBalanceUnchanged(t *testing.T) {
	a := NewMutualCredit(ZeroBalance)
	_, err := a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(1000)})
	require.NoError(t, err)
	_, err = a.ApplyIncoming(EnableRequests{})
	require.NoError(t, err)

	route := Route{{0x01}, {0x02}}
	op := RequestSendFunds{RequestId: reqID(2), Route: route, DestPayment: uint128.From64(5)}
	_, err = a.ApplyOutgoing(op)
	require.NoError(t, err)

	_, err = a.ApplyIncoming(FailureSendFunds{RequestId: reqID(2), ReportingPublicKey: [33]byte{0x02}})
	require.NoError(t, err)
	require.True(t, a.Balance().IsZero())
	require.True(t, a.RemotePendingDebt().IsZero())
}

func TestRequestsAlreadyDisabled(t *testing.T) {
	a := NewMutualCredit(ZeroBalance)
	_, err := a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(1000)})
	require.NoError(t, err)
	// remote never enabled requests
	op := RequestSendFunds{RequestId: reqID(3), Route: Route{{0x01}, {0x02}}, DestPayment: uint128.From64(1)}
	_, err = a.ApplyOutgoing(op)
	require.ErrorIs(t, err, ErrRequestsAlreadyDisabled)
}

func TestRequestAlreadyExists(t *testing.T) {
	a := NewMutualCredit(ZeroBalance)
	_, _ = a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(1000)})
	_, _ = a.ApplyIncoming(EnableRequests{})
	op := RequestSendFunds{RequestId: reqID(4), Route: Route{{0x01}, {0x02}}, DestPayment: uint128.From64(1)}
	_, err := a.ApplyOutgoing(op)
	require.NoError(t, err)
	_, err = a.ApplyOutgoing(op)
	require.ErrorIs(t, err, ErrRequestAlreadyExists)
}

func TestInsufficientTrust(t *testing.T) {
	// spec.md §8 scenario 3: B->C has remote_max_debt=5; a 10-credit
	// request must be rejected with InsufficientTrust.
	b := NewMutualCredit(ZeroBalance)
	_, _ = b.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(5)})
	_, _ = b.ApplyIncoming(EnableRequests{})
	op := RequestSendFunds{RequestId: reqID(5), Route: Route{{0x01}, {0x02}}, DestPayment: uint128.From64(10)}
	_, err := b.ApplyOutgoing(op)
	require.ErrorIs(t, err, ErrInsufficientTrust)
	_, exists := b.PendingLocalRequest(reqID(5))
	require.False(t, exists, "rejected operation must not mutate the ledger")
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewMutualCredit(ZeroBalance)
	_, _ = a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(100)})
	clone := a.Clone()
	_, err := clone.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(200)})
	require.NoError(t, err)
	require.Equal(t, uint128.From64(100), a.RemoteMaxDebt())
	require.Equal(t, uint128.From64(200), clone.RemoteMaxDebt())
}

func TestBalanceBoundsInvariant(t *testing.T) {
	// I1: b - local_pending_debt >= -remote_max_debt and
	// b + remote_pending_debt <= local_max_debt must hold after every
	// successful application.
	a := NewMutualCredit(ZeroBalance)
	_, _ = a.ApplyOutgoing(SetRemoteMaxDebt{Amount: uint128.From64(50)})
	_, _ = a.ApplyIncoming(EnableRequests{})

	op := RequestSendFunds{RequestId: reqID(6), Route: Route{{0x01}, {0x02}}, DestPayment: uint128.From64(50)}
	_, err := a.ApplyOutgoing(op)
	require.NoError(t, err)

	sum, ok := a.Balance().AddUint128(a.RemotePendingDebt())
	require.True(t, ok)
	require.True(t, sum.Cmp(ZeroBalance) <= 0 || sum.mag.Cmp(a.LocalMaxDebt()) <= 0)
}
