package handler

import (
	"github.com/creditmesh/funderd/ephemeral"
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/report"
	"github.com/davecgh/go-spew/spew"
)

// Config holds the knobs the handler itself consumes, per SPEC_FULL.md §2 —
// everything wire/transport/TLS related lives outside the core.
type Config struct {
	MaxOperationsInBatch int
}

// Handler is the single entry point described in spec.md §4.4: one
// Handle(event) -> Output call per input event, pure given inputs and the
// signing oracle.
type Handler struct {
	state    *funder.State
	liveness *ephemeral.Liveness
	signer   identity.Signer
	config   Config
}

// New builds a Handler over existing (e.g. recovered) state.
func New(state *funder.State, liveness *ephemeral.Liveness, signer identity.Signer, config Config) *Handler {
	return &Handler{state: state, liveness: liveness, signer: signer, config: config}
}

// State returns the handler's live FunderState, for wiring a report
// projector or persistence adapter that needs read access between calls.
func (h *Handler) State() *funder.State { return h.state }

// scratch collects one call's worth of output while sub-handlers run,
// matching original_source's MutableFunderState + MutableFunderHandlerOutput
// split between mutable scratch state and an accumulated output record.
type scratch struct {
	out           Output
	commandedSend map[identity.PublicKey]*sendCommand
}

func newScratch() *scratch {
	return &scratch{commandedSend: make(map[identity.PublicKey]*sendCommand)}
}

// sendCommand mirrors spec.md §4.5's SendCommands mapping: per-friend flags
// the Scheduler reads after dispatch completes.
type sendCommand struct {
	trySend         bool
	resendOutgoing  bool
	remoteWantsToken bool
	localReset      bool
}

func (s *scratch) command(key identity.PublicKey) *sendCommand {
	c, ok := s.commandedSend[key]
	if !ok {
		c = &sendCommand{}
		s.commandedSend[key] = c
	}
	return c
}

// mutate applies a funder.Mutation to the live state and records it on the
// scratch output, the way every sub-handler in original_source's
// handler/mod.rs calls MutableFunderState::mutate.
func (h *Handler) mutate(sc *scratch, m funder.Mutation) error {
	if err := m.Apply(h.state); err != nil {
		return err
	}
	sc.out.FunderMutations = append(sc.out.FunderMutations, m)
	return nil
}

// Handle dispatches one input event to the matching sub-handler and then
// runs the Scheduler over whatever friends were commanded, per spec.md
// §4.4-4.5.
func (h *Handler) Handle(event Event) (*Output, error) {
	log.Tracef("dispatching event: %v", newLogClosure(func() string {
		return spew.Sdump(event)
	}))

	sc := newScratch()

	var err error
	switch e := event.(type) {
	case InitEvent:
		observeEvent("init")
		err = h.handleInit(sc)
	case ControlEvent:
		observeEvent("control")
		err = h.handleControl(sc, e.Command)
	case LivenessEvent:
		observeEvent("liveness")
		h.handleLiveness(sc, e)
	case FriendMessageEvent:
		observeEvent("friend")
		h.handleFriendMessage(sc, e)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := h.runScheduler(sc); err != nil {
		return nil, err
	}

	if reportMuts := report.Project(sc.out.FunderMutations, h.state); len(reportMuts) > 0 {
		boxed := make([]interface{}, len(reportMuts))
		for i, m := range reportMuts {
			boxed[i] = m
		}
		sc.out.OutgoingControl = append(sc.out.OutgoingControl, ReportMutations{Mutations: boxed})
	}

	return &sc.out, nil
}

func (h *Handler) handleInit(sc *scratch) error {
	for key, f := range h.state.Friends {
		if f.Status == friend.Enabled && h.liveness.IsOnline(key) {
			sc.command(key).trySend = true
		}
	}
	sc.out.OutgoingComms = append(sc.out.OutgoingComms, SetRelays{Relays: h.state.OwnedRelays})
	return nil
}

func (h *Handler) handleLiveness(sc *scratch, e LivenessEvent) {
	if e.Online {
		sc.out.EphemeralMutations = append(sc.out.EphemeralMutations, SetOnline{PublicKey: e.PublicKey})
		h.liveness.SetOnline(e.PublicKey)
		sc.command(e.PublicKey).trySend = true
	} else {
		sc.out.EphemeralMutations = append(sc.out.EphemeralMutations, SetOffline{PublicKey: e.PublicKey})
		h.liveness.SetOffline(e.PublicKey)
	}
}
