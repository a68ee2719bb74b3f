package handler

import (
	"testing"

	"github.com/creditmesh/funderd/ephemeral"
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

type node struct {
	key     identity.PublicKey
	signer  identity.Signer
	handler *Handler
}

func newNode(t *testing.T) *node {
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)
	state := funder.NewState(signer.PublicKey())
	h := New(state, ephemeral.NewLiveness(), signer, Config{MaxOperationsInBatch: 10})
	return &node{key: signer.PublicKey(), signer: signer, handler: h}
}

func addAndEnable(t *testing.T, n *node, peer identity.PublicKey) {
	_, err := n.handler.Handle(ControlEvent{Command: CmdAddFriend{PublicKey: peer, Balance: mutualcredit.ZeroBalance}})
	require.NoError(t, err)
	_, err = n.handler.Handle(ControlEvent{Command: CmdSetFriendStatus{PublicKey: peer, Status: friend.Enabled}})
	require.NoError(t, err)
	_, err = n.handler.Handle(LivenessEvent{PublicKey: peer, Online: true})
	require.NoError(t, err)
}

func firstMoveToken(t *testing.T, out *Output) *tokenchannel.MoveToken {
	for _, comm := range out.OutgoingComms {
		if fm, ok := comm.(FriendMessageOut); ok {
			if mtr, ok := fm.Message.(MoveTokenRequest); ok {
				return mtr.MoveToken
			}
		}
	}
	t.Fatal("no move-token produced")
	return nil
}

// TestSetRemoteMaxDebtPropagates exercises spec.md §8 scenario 1's core
// claim: A:SetFriendRemoteMaxDebt(B,100) produces an A->B move-token
// carrying SetRemoteMaxDebt(100); once B applies it, B's local_max_debt is
// 100.
func TestSetRemoteMaxDebtPropagates(t *testing.T) {
	a := newNode(t)
	b := newNode(t)

	addAndEnable(t, a, b.key)
	addAndEnable(t, b, a.key)

	out, err := a.handler.Handle(ControlEvent{Command: CmdSetFriendRemoteMaxDebt{PublicKey: b.key, Amount: uint128.From64(100)}})
	require.NoError(t, err)
	mt := firstMoveToken(t, out)

	_, err = b.handler.Handle(FriendMessageEvent{Source: a.key, Message: MoveTokenRequest{MoveToken: mt}})
	require.NoError(t, err)

	require.Equal(t, uint128.From64(100), b.handler.State().Friends[a.key].Channel().MutualCredit().LocalMaxDebt())
}

// TestLocalRequestRejectedWhenFriendNotReady exercises the admission check a
// locally-originated RequestSendFunds must pass (SPEC_FULL.md §4 item 2):
// if the first hop is not ready (never opened requests to us), the request
// fails immediately with a control-plane ResponseReceived{Failure}.
func TestLocalRequestRejectedWhenFriendNotReady(t *testing.T) {
	a := newNode(t)
	b := newNode(t)
	addAndEnable(t, a, b.key)
	addAndEnable(t, b, a.key)

	out, err := a.handler.Handle(ControlEvent{Command: CmdRequestSendFunds{
		RequestId:   mutualcredit.RequestId{1},
		Route:       mutualcredit.Route{{0xAA}, [33]byte(b.key)},
		DestPayment: uint128.From64(10),
	}})
	require.NoError(t, err)

	require.Len(t, out.OutgoingControl, 1)
	resp, ok := out.OutgoingControl[0].(ResponseReceived)
	require.True(t, ok)
	require.False(t, resp.Success)
}
