package report

import (
	"testing"

	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func testKey(t *testing.T) identity.PublicKey {
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)
	return signer.PublicKey()
}

func TestProjectAddFriendThenSetRemoteMaxDebt(t *testing.T) {
	local := testKey(t)
	remote := testKey(t)
	state := funder.NewState(local)

	addFriend := funder.AddFriend{PublicKey: remote, Name: "bob", Balance: mutualcredit.ZeroBalance}
	require.NoError(t, addFriend.Apply(state))

	setDebt := funder.FriendMutation{PublicKey: remote, Inner: funder.SetWantedRemoteMaxDebt{Amount: uint128.From64(50)}}
	require.NoError(t, setDebt.Apply(state))

	// The channel's own remote_max_debt only moves once a move-token actually
	// carries SetRemoteMaxDebt. Projecting just the AddFriend mutation yields
	// exactly one AddFriendReport (setDebt, if projected, would add a ledger
	// snapshot).
	muts := Project([]funder.Mutation{addFriend}, state)
	require.Len(t, muts, 1)
	added, ok := muts[0].(AddFriendReport)
	require.True(t, ok)
	require.Equal(t, remote, added.PublicKey)
	require.Equal(t, "bob", added.Name)
}

func TestProjectReceiveMoveTokenEmitsLedgerSnapshot(t *testing.T) {
	local := testKey(t)
	remote := testKey(t)
	state := funder.NewState(local)
	require.NoError(t, (funder.AddFriend{PublicKey: remote, Balance: mutualcredit.ZeroBalance}).Apply(state))

	f := state.Friends[remote]
	builder, err := f.Channel().NewBuilder(local, remote, 10)
	require.NoError(t, err)
	require.NoError(t, builder.TryQueue(mutualcredit.SetRemoteMaxDebt{Amount: uint128.From64(200)}))

	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)
	nonce, err := identity.RandNonce()
	require.NoError(t, err)
	mt, err := builder.Commit(signer, nonce)
	require.NoError(t, err)

	// Apply the token to a fresh mirror state, the way the remote side would
	// see it: its channel starts Incoming, so ReceiveMoveToken applies
	// cleanly there.
	other := funder.NewState(remote)
	require.NoError(t, (funder.AddFriend{PublicKey: local, Balance: mutualcredit.ZeroBalance}).Apply(other))

	recvMut := funder.FriendMutation{PublicKey: local, Inner: funder.ReceiveMoveToken{MoveToken: mt}}
	require.NoError(t, recvMut.Apply(other))

	muts := Project([]funder.Mutation{recvMut}, other)
	require.Len(t, muts, 1)
	ledger, ok := muts[0].(SetFriendLedgerReport)
	require.True(t, ok)
	require.Equal(t, uint128.From64(200), ledger.LocalMaxDebt)
}

func TestProjectUnknownFriendMutationIsSkipped(t *testing.T) {
	local := testKey(t)
	remote := testKey(t)
	state := funder.NewState(local)

	muts := Project([]funder.Mutation{
		funder.FriendMutation{PublicKey: remote, Inner: funder.SetName{Name: "ghost"}},
	}, state)
	require.Empty(t, muts)
}

func TestSnapshotReflectsLiveState(t *testing.T) {
	local := testKey(t)
	remote := testKey(t)
	state := funder.NewState(local)
	require.NoError(t, (funder.AddFriend{PublicKey: remote, Name: "carol", Balance: mutualcredit.ZeroBalance}).Apply(state))

	f := state.Friends[remote]
	snap := Snapshot(remote, f, state)
	require.Equal(t, "carol", snap.Name)
	require.True(t, snap.Consistent)
	require.Equal(t, friend.Disabled, snap.Status)
}
