package handler

import (
	"testing"

	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

// deliverAll feeds every FriendMessageOut produced by a call (or by
// subsequent reactions to it) to its addressee, breadth-first, until no
// friend holds anything more to say. Each recipient's own outputs are fed
// back in turn, so a single triggering call settles an entire exchange.
func deliverAll(t *testing.T, nodes map[identity.PublicKey]*node, sender identity.PublicKey, out *Output) []*Output {
	type pending struct {
		from identity.PublicKey
		to   *node
		msg  FriendMessage
	}
	var queue []pending
	var all []*Output

	enqueue := func(from identity.PublicKey, out *Output) {
		all = append(all, out)
		for _, comm := range out.OutgoingComms {
			fm, ok := comm.(FriendMessageOut)
			if !ok {
				continue
			}
			dest, ok := nodes[fm.Dest]
			if !ok {
				continue
			}
			queue = append(queue, pending{from: from, to: dest, msg: fm.Message})
		}
	}

	enqueue(sender, out)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		next, err := p.to.handler.Handle(FriendMessageEvent{Source: p.from, Message: p.msg})
		require.NoError(t, err)
		enqueue(p.to.key, next)
	}
	return all
}

// responsesReceived collects every ResponseReceived emitted to the control
// plane across a batch of outputs, ignoring the interleaved ReportMutations
// notifications.
func responsesReceived(outs []*Output) []ResponseReceived {
	var all []ResponseReceived
	for _, o := range outs {
		for _, c := range o.OutgoingControl {
			if r, ok := c.(ResponseReceived); ok {
				all = append(all, r)
			}
		}
	}
	return all
}

// openRequests drives from's scheduler until it has announced, over its
// channel to `to`, that its own local requests are open (EnableRequests) —
// so that to's view of from becomes IsFriendReady.
func openRequests(t *testing.T, nodes map[identity.PublicKey]*node, from, to *node) {
	from.handler.State().Friends[to.key].WantedLocalRequests = mutualcredit.StatusOpen
	out, err := from.handler.Handle(LivenessEvent{PublicKey: to.key, Online: true})
	require.NoError(t, err)
	deliverAll(t, nodes, from.key, out)
}

// setMaxDebt has from announce, toward to, the upper bound on what from is
// willing to owe to.
func setMaxDebt(t *testing.T, nodes map[identity.PublicKey]*node, from, to *node, amount uint128.Uint128) {
	out, err := from.handler.Handle(ControlEvent{Command: CmdSetFriendRemoteMaxDebt{PublicKey: to.key, Amount: amount}})
	require.NoError(t, err)
	deliverAll(t, nodes, from.key, out)
}

func threeNodeChain(t *testing.T) (a, b, c *node, nodes map[identity.PublicKey]*node) {
	a = newNode(t)
	b = newNode(t)
	c = newNode(t)
	nodes = map[identity.PublicKey]*node{a.key: a, b.key: b, c.key: c}

	addAndEnable(t, a, b.key)
	addAndEnable(t, b, a.key)
	addAndEnable(t, b, c.key)
	addAndEnable(t, c, b.key)

	// B must accept requests forwarded to it by A (IsFriendReady from A's
	// side) and must trust A enough to absorb the freeze it forwards.
	openRequests(t, nodes, b, a)
	setMaxDebt(t, nodes, b, a, uint128.From64(1000))

	// C must do the same for B, one hop further along the route.
	openRequests(t, nodes, c, b)
	setMaxDebt(t, nodes, c, b, uint128.From64(1000))

	return a, b, c, nodes
}

// TestMultiHopRequestForwardsAndSettles exercises spec.md §8 scenario 2:
// A sends a request routed through B to C; B forwards it onward rather than
// answering it itself; C, being the destination, answers with a success;
// the response threads back through B to A's control plane.
func TestMultiHopRequestForwardsAndSettles(t *testing.T) {
	a, b, c, nodes := threeNodeChain(t)

	requestId := mutualcredit.RequestId{1}
	out, err := a.handler.Handle(ControlEvent{Command: CmdRequestSendFunds{
		RequestId:   requestId,
		Route:       mutualcredit.Route{[33]byte(a.key), [33]byte(b.key), [33]byte(c.key)},
		DestPayment: uint128.From64(10),
	}})
	require.NoError(t, err)
	require.Empty(t, responsesReceived([]*Output{out}), "admission onto the first hop must not resolve anything yet")

	outs := deliverAll(t, nodes, a.key, out)

	responses := responsesReceived(outs)
	require.Len(t, responses, 1)
	resp := responses[0]
	require.True(t, resp.Success)
	require.Equal(t, requestId, resp.RequestId)

	// B never created a pending_local_request with itself as final payer;
	// it relayed and is left with neither side of the freeze outstanding.
	_, stillPendingAtB := b.handler.State().Friends[c.key].Channel().MutualCredit().PendingLocalRequest(requestId)
	require.False(t, stillPendingAtB)
	_, stillPendingAtA := a.handler.State().Friends[b.key].Channel().MutualCredit().PendingLocalRequest(requestId)
	require.False(t, stillPendingAtA)

	// The payment settled onto C's balance with B, and onto B's balance
	// with A: both now negative (they owe upstream for having paid onward).
	require.True(t, b.handler.State().Friends[c.key].Channel().MutualCredit().Balance().IsNeg())
	require.True(t, a.handler.State().Friends[b.key].Channel().MutualCredit().Balance().IsNeg())
}

// TestMultiHopRequestFailsOnInsufficientTrust exercises spec.md §8 scenario
// 3: B cannot forward onward to C because B never trusts C with enough
// remote_max_debt; B cancels the forward itself and the failure threads all
// the way back to A's control plane, reporting B as the failing hop.
func TestMultiHopRequestFailsOnInsufficientTrust(t *testing.T) {
	a, b, c, nodes := threeNodeChain(t)

	// Undo the trust scenario threeNodeChain() just established between B
	// and C: C opened requests for B, but never announced enough max debt.
	setMaxDebt(t, nodes, c, b, uint128.Zero)

	requestId := mutualcredit.RequestId{2}
	out, err := a.handler.Handle(ControlEvent{Command: CmdRequestSendFunds{
		RequestId:   requestId,
		Route:       mutualcredit.Route{[33]byte(a.key), [33]byte(b.key), [33]byte(c.key)},
		DestPayment: uint128.From64(10),
	}})
	require.NoError(t, err)

	outs := deliverAll(t, nodes, a.key, out)
	responses := responsesReceived(outs)
	require.Len(t, responses, 1)
	resp := responses[0]
	require.False(t, resp.Success)
	require.Equal(t, requestId, resp.RequestId)
	require.Equal(t, b.key, resp.Reporter)
}
