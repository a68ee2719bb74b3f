package funderwire

import (
	"testing"

	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func samplePublicKey(t *testing.T) identity.PublicKey {
	t.Helper()
	signer, err := identity.NewLocalSigner()
	require.NoError(t, err)
	return signer.PublicKey()
}

// roundTrip encodes m, decodes it back and returns the result, failing the
// test on any error the way the movetoken round-trip tests do.
func roundTrip(t *testing.T, m funder.Mutation) funder.Mutation {
	t.Helper()
	raw, err := EncodeMutation(m)
	require.NoError(t, err)
	out, err := DecodeMutation(raw)
	require.NoError(t, err)
	return out
}

func TestEncodeMutationRoundTrip(t *testing.T) {
	pk := samplePublicKey(t)
	relay := friend.Relay{PublicKey: pk, Address: "relay.example.com:4100", Name: "relay1"}
	requestId := mutualcredit.RequestId{1, 2, 3}

	mt := &tokenchannel.MoveToken{
		LocalKey:         pk,
		RemoteKey:        pk,
		MoveTokenCounter: 9,
		NewBalance:       mutualcredit.BalanceFromInt64(-7),
	}

	cases := []struct {
		name string
		m    funder.Mutation
	}{
		{"AddFriend", funder.AddFriend{
			PublicKey: pk,
			Relays:    []friend.Relay{relay},
			Name:      "alice",
			Balance:   mutualcredit.BalanceFromInt64(100),
		}},
		{"RemoveFriend", funder.RemoveFriend{PublicKey: pk}},
		{"AddRelay", funder.AddRelay{Relay: relay}},
		{"RemoveRelay", funder.RemoveRelay{PublicKey: [33]byte(pk)}},
		{"IndexIncomingRequest", funder.IndexIncomingRequest{RequestId: requestId, FriendKey: pk}},
		{"ForgetRequest", funder.ForgetRequest{RequestId: requestId}},
		{"FriendMutation/SetStatus", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.SetStatus{Status: friend.Enabled},
		}},
		{"FriendMutation/SetWantedRemoteMaxDebt", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.SetWantedRemoteMaxDebt{Amount: uint128.From64(500)},
		}},
		{"FriendMutation/SetWantedLocalRequestsStatus", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.SetWantedLocalRequestsStatus{Status: mutualcredit.StatusOpen},
		}},
		{"FriendMutation/SetName", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.SetName{Name: "bob"},
		}},
		{"FriendMutation/SetRemoteRelays", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.SetRemoteRelays{Relays: []friend.Relay{relay}},
		}},
		{"FriendMutation/BeginLocalRelaysTransition", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.BeginLocalRelaysTransition{Relays: []friend.Relay{relay}},
		}},
		{"FriendMutation/AcknowledgeLocalRelays", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.AcknowledgeLocalRelays{},
		}},
		{"FriendMutation/PushPendingResponse", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PushPendingResponse{Operation: mutualcredit.SetRemoteMaxDebt{Amount: uint128.From64(1)}},
		}},
		{"FriendMutation/PopPendingResponse", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PopPendingResponse{},
		}},
		{"FriendMutation/PushPendingRequest", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PushPendingRequest{Operation: mutualcredit.EnableRequests{}},
		}},
		{"FriendMutation/PopPendingRequest", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PopPendingRequest{},
		}},
		{"FriendMutation/PushPendingUserRequest", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PushPendingUserRequest{Operation: mutualcredit.EnableRequests{}},
		}},
		{"FriendMutation/PopPendingUserRequest", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.PopPendingUserRequest{},
		}},
		{"FriendMutation/ReceiveMoveToken", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.ReceiveMoveToken{MoveToken: mt},
		}},
		{"FriendMutation/CommitOutgoing", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.CommitOutgoing{MoveToken: mt},
		}},
		{"FriendMutation/MarkInconsistent", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.MarkInconsistent{},
		}},
		{"FriendMutation/ReceiveRemoteResetTerms", funder.FriendMutation{
			PublicKey: pk,
			Inner: funder.ReceiveRemoteResetTerms{Terms: tokenchannel.ResetTerms{
				InconsistencyCounter: 4,
				BalanceForReset:      mutualcredit.BalanceFromInt64(3),
			}},
		}},
		{"FriendMutation/ResolveReset", funder.FriendMutation{
			PublicKey: pk,
			Inner:     funder.ResolveReset{},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := roundTrip(t, tc.m)
			require.IsType(t, tc.m, out)
		})
	}
}

func TestDecodeMutationUnknownTag(t *testing.T) {
	_, err := DecodeMutation([]byte{0xff})
	require.Error(t, err)
}
