package friend

import (
	"testing"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/stretchr/testify/require"
)

func TestMarkInconsistentThenResolve(t *testing.T) {
	local, err := identity.NewLocalSigner()
	require.NoError(t, err)
	remote, err := identity.NewLocalSigner()
	require.NoError(t, err)

	s := NewState(remote.PublicKey(), nil, "bob", mutualcredit.ZeroBalance)
	require.True(t, s.IsConsistent())

	s.MarkInconsistent(local.PublicKey())
	require.False(t, s.IsConsistent())
	require.NotNil(t, s.Inconsistent())

	err = s.ReceiveRemoteResetTerms(s.Inconsistent().LocalResetTerms)
	require.NoError(t, err) // symmetric negation: zero balance negates to itself

	_, err = s.ResolveReset()
	require.NoError(t, err)
	require.True(t, s.IsConsistent())
}

func TestEstimateShouldSendOnPendingQueue(t *testing.T) {
	remote, _ := identity.NewLocalSigner()
	s := NewState(remote.PublicKey(), nil, "bob", mutualcredit.ZeroBalance)
	require.False(t, s.EstimateShouldSend(nil))

	s.PendingResponses.Push(mutualcredit.FailureSendFunds{RequestId: mutualcredit.RequestId{1}})
	require.True(t, s.EstimateShouldSend(nil))
}
