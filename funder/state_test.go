package funder

import (
	"testing"

	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestAddFriendThenMutate(t *testing.T) {
	local, err := identity.NewLocalSigner()
	require.NoError(t, err)
	remote, err := identity.NewLocalSigner()
	require.NoError(t, err)

	s := NewState(local.PublicKey())
	mut := AddFriend{PublicKey: remote.PublicKey(), Name: "bob", Balance: mutualcredit.ZeroBalance}
	require.NoError(t, mut.Apply(s))
	require.Contains(t, s.Friends, remote.PublicKey())

	require.ErrorIs(t, (AddFriend{PublicKey: remote.PublicKey()}).Apply(s), ErrFriendExists)

	fm := FriendMutation{
		PublicKey: remote.PublicKey(),
		Inner:     SetWantedRemoteMaxDebt{Amount: uint128.From64(100)},
	}
	require.NoError(t, fm.Apply(s))
	require.Equal(t, uint128.From64(100), s.Friends[remote.PublicKey()].WantedRemoteMaxDebt)
}

func TestIsFriendReady(t *testing.T) {
	local, _ := identity.NewLocalSigner()
	remote, _ := identity.NewLocalSigner()
	s := NewState(local.PublicKey())
	require.NoError(t, (AddFriend{PublicKey: remote.PublicKey(), Balance: mutualcredit.ZeroBalance}).Apply(s))
	require.False(t, s.IsFriendReady(remote.PublicKey()), "disabled friend is never ready")

	fm := FriendMutation{PublicKey: remote.PublicKey(), Inner: SetStatus{Status: friend.Enabled}}
	require.NoError(t, fm.Apply(s))
	require.False(t, s.IsFriendReady(remote.PublicKey()), "remote has not opened requests yet")

	_, err := s.Friends[remote.PublicKey()].Channel().MutualCredit().ApplyIncoming(mutualcredit.EnableRequests{})
	require.NoError(t, err)
	require.True(t, s.IsFriendReady(remote.PublicKey()))
}

func TestRequestOriginIndex(t *testing.T) {
	local, _ := identity.NewLocalSigner()
	remote, _ := identity.NewLocalSigner()
	s := NewState(local.PublicKey())
	id := mutualcredit.RequestId{9}
	_, found := s.FindRequestOrigin(id)
	require.False(t, found)

	s.IndexIncomingRequest(id, remote.PublicKey())
	origin, found := s.FindRequestOrigin(id)
	require.True(t, found)
	require.Equal(t, remote.PublicKey(), origin.FriendKey)

	s.ForgetRequest(id)
	_, found = s.FindRequestOrigin(id)
	require.False(t, found)
}
