package ephemeral

import (
	"testing"

	"github.com/creditmesh/funderd/identity"
	"github.com/stretchr/testify/require"
)

func TestLivenessToggling(t *testing.T) {
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)

	l := NewLiveness()
	require.False(t, l.IsOnline(signer.PublicKey()))

	l.SetOnline(signer.PublicKey())
	require.True(t, l.IsOnline(signer.PublicKey()))
	require.Len(t, l.OnlineKeys(), 1)

	l.SetOffline(signer.PublicKey())
	require.False(t, l.IsOnline(signer.PublicKey()))
	require.Empty(t, l.OnlineKeys())
}
