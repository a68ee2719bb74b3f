// Package ephemeral holds the Funder handler's non-durable per-run state:
// the liveness set. It is never written to the mutation log and is rebuilt
// from scratch (empty) every time the process restarts, matching spec.md's
// "Ephemeral State: non-durable per-run state: liveness set".
package ephemeral

import "github.com/creditmesh/funderd/identity"

// Liveness tracks which friends the Liveness monitor currently reports
// online. It is deliberately a plain in-memory set with no persistence
// hooks: spec.md draws a hard line between durable FunderState (mutation
// log) and this ephemeral bookkeeping.
type Liveness struct {
	online map[identity.PublicKey]struct{}
}

// NewLiveness returns an empty liveness set, the correct state on process
// start: every friend is presumed offline until the Liveness monitor says
// otherwise.
func NewLiveness() *Liveness {
	return &Liveness{online: make(map[identity.PublicKey]struct{})}
}

// SetOnline marks a friend online.
func (l *Liveness) SetOnline(key identity.PublicKey) {
	l.online[key] = struct{}{}
}

// SetOffline marks a friend offline.
func (l *Liveness) SetOffline(key identity.PublicKey) {
	delete(l.online, key)
}

// IsOnline reports whether a friend is currently known to be online.
func (l *Liveness) IsOnline(key identity.PublicKey) bool {
	_, ok := l.online[key]
	return ok
}

// OnlineKeys returns every currently-online friend's public key, in no
// particular order.
func (l *Liveness) OnlineKeys() []identity.PublicKey {
	out := make([]identity.PublicKey, 0, len(l.online))
	for k := range l.online {
		out = append(out, k)
	}
	return out
}
