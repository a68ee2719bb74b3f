package friend

// Relay is one address a node advertises for itself or a friend advertises
// for itself, per spec.md §3's remote_relays/owned relay addresses.
type Relay struct {
	PublicKey [33]byte
	Address   string
	Name      string
}

// SentRelaysKind tags SentLocalRelays' three states, per spec.md §3.
type SentRelaysKind int

const (
	// SentRelaysNeverSent means we have never told this friend about our
	// relays.
	SentRelaysNeverSent SentRelaysKind = iota
	// SentRelaysLastSent means the list we last told the friend about.
	SentRelaysLastSent
	// SentRelaysTransition means a new list is queued but the friend has
	// only acknowledged the previous one so far.
	SentRelaysTransition
)

// SentLocalRelays is friend.State's memory of what the remote has been told
// about our own relay addresses.
type SentLocalRelays struct {
	Kind     SentRelaysKind
	Last     []Relay
	Previous []Relay // only meaningful when Kind == SentRelaysTransition
}

func relaysEqual(a, b []Relay) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Current returns the relay list the remote currently believes is ours:
// the new list once a Transition is acknowledged, otherwise the last one
// sent.
func (s *SentLocalRelays) Current() []Relay {
	switch s.Kind {
	case SentRelaysLastSent, SentRelaysTransition:
		return s.Last
	default:
		return nil
	}
}

// Diverges reports whether wanted differs from what we believe the remote
// has last been told, per spec.md §4.5 step 4a.
func (s *SentLocalRelays) Diverges(wanted []Relay) bool {
	return !relaysEqual(s.Current(), wanted)
}

// BeginTransition records that a new relay list has been queued for
// transmission, remembering the previous list until the friend acks it.
func (s *SentLocalRelays) BeginTransition(newRelays []Relay) {
	prev := s.Current()
	s.Kind = SentRelaysTransition
	s.Previous = prev
	s.Last = newRelays
}

// Acknowledge collapses a Transition back to LastSent once the friend's
// move-token counter confirms receipt.
func (s *SentLocalRelays) Acknowledge() {
	if s.Kind == SentRelaysTransition {
		s.Kind = SentRelaysLastSent
	}
}
