package friend

import (
	"container/list"

	"github.com/creditmesh/funderd/mutualcredit"
)

// OperationQueue is a FIFO of pending operations awaiting transmission to
// this friend. Popping is itself a mutation in the durable log (friend.State
// only exposes Push/Peek/Pop so callers can wrap each in a FriendMutation),
// matching lnwallet/channel.go's use of append-only update logs as the
// source of truth.
type OperationQueue struct {
	items *list.List
}

// NewOperationQueue returns an empty queue.
func NewOperationQueue() *OperationQueue {
	return &OperationQueue{items: list.New()}
}

// Len returns the number of queued operations.
func (q *OperationQueue) Len() int { return q.items.Len() }

// Push appends an operation to the back of the queue.
func (q *OperationQueue) Push(op mutualcredit.Operation) {
	q.items.PushBack(op)
}

// Peek returns the operation at the front of the queue without removing it.
func (q *OperationQueue) Peek() (mutualcredit.Operation, bool) {
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(mutualcredit.Operation), true
}

// Pop removes and returns the operation at the front of the queue.
func (q *OperationQueue) Pop() (mutualcredit.Operation, bool) {
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	q.items.Remove(front)
	return front.Value.(mutualcredit.Operation), true
}

// All returns the queued operations in FIFO order without mutating the
// queue, for snapshotting into reports.
func (q *OperationQueue) All() []mutualcredit.Operation {
	out := make([]mutualcredit.Operation, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(mutualcredit.Operation))
	}
	return out
}
