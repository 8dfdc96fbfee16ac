package toplevel

import "github.com/1broseidon/wlframe/internal/wlerr"

// Phase is the lifecycle phase of a toplevel.
type Phase int

const (
	// PhaseUnconfigured means no configure has been received yet.
	PhaseUnconfigured Phase = iota
	// PhaseConfigured means configure state is pending a commit.
	PhaseConfigured
	// PhaseCommitted means the last configure has been applied.
	PhaseCommitted
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseUnconfigured:
		return "unconfigured"
	case PhaseConfigured:
		return "configured"
	case PhaseCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

type pendingFlags uint8

const (
	pendingToplevel pendingFlags = 1 << iota
	pendingDecoration
)

// Applied describes the outcome of a Commit.
type Applied struct {
	// Committed is false when the commit was deferred until the next frame
	// callback; pending state is kept in that case.
	Committed bool
	Previous  Snapshot
	Current   Snapshot
	// Serial is the configure serial to acknowledge, valid when Ack is set.
	Serial uint32
	Ack    bool

	SizeChanged       bool
	StateChanged      bool
	DecorationChanged bool
}

// Machine reconciles compositor configure events with what the window
// presents. Configure events merge into pending; Commit copies pending into
// current at a point where the previous frame has been presented.
type Machine struct {
	phase   Phase
	pending Snapshot
	current Snapshot
	flags   pendingFlags

	configuredOnce bool
	serial         uint32
	serialPending  bool
	acked          uint32
	ackedAny       bool

	frameReady bool
}

// NewMachine creates a machine whose pending and current snapshots start at
// the requested size and decoration mode.
func NewMachine(width, height int, mode DecorationMode) *Machine {
	initial := Snapshot{Width: width, Height: height, Decoration: mode}
	return &Machine{
		phase:      PhaseUnconfigured,
		pending:    initial,
		current:    initial,
		frameReady: true,
	}
}

// Phase returns the lifecycle phase.
func (m *Machine) Phase() Phase { return m.phase }

// Pending returns the not-yet-applied snapshot.
func (m *Machine) Pending() Snapshot { return m.pending }

// Current returns the last applied snapshot.
func (m *Machine) Current() Snapshot { return m.current }

// ConfiguredOnce reports whether the initial surface configure arrived.
func (m *Machine) ConfiguredOnce() bool { return m.configuredOnce }

// WaitingForFrame reports whether a commit is in flight and its frame
// callback has not fired yet.
func (m *Machine) WaitingForFrame() bool { return !m.frameReady }

// HasPending reports whether pending differs from what was last committed or
// a configure serial still needs acknowledging.
func (m *Machine) HasPending() bool {
	return m.flags != 0 || m.serialPending
}

// OnConfigure merges a toplevel configure into pending. Compositors send
// cumulative state, so the latest event wins. A zero dimension leaves the
// choice to the client and keeps the previous pending value.
func (m *Machine) OnConfigure(width, height int, state State) {
	if width > 0 {
		m.pending.Width = width
	}
	if height > 0 {
		m.pending.Height = height
	}
	m.pending.State = state
	m.flags |= pendingToplevel
	if m.phase == PhaseCommitted {
		m.phase = PhaseConfigured
	}
}

// OnSurfaceConfigure records the serial closing a configure sequence.
func (m *Machine) OnSurfaceConfigure(serial uint32) {
	m.serial = serial
	m.serialPending = true
	m.configuredOnce = true
	if m.phase != PhaseConfigured {
		m.phase = PhaseConfigured
	}
}

// OnDecorationModeChange merges a decoration mode into pending independently
// of geometry.
func (m *Machine) OnDecorationModeChange(mode DecorationMode) {
	if m.pending.Decoration == mode {
		return
	}
	m.pending.Decoration = mode
	m.flags |= pendingDecoration
	if m.phase == PhaseCommitted {
		m.phase = PhaseConfigured
	}
}

// RequestSize merges an application resize into pending. It is applied by the
// next eligible commit, including when a commit is in flight right now.
func (m *Machine) RequestSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.pending.Width = width
	m.pending.Height = height
	m.flags |= pendingToplevel
}

// FrameReady records that the frame callback of the last commit fired.
func (m *Machine) FrameReady() {
	m.frameReady = true
}

// FrameRequested records a commit made outside Commit that asked for a frame
// callback, such as a decoration-only update.
func (m *Machine) FrameRequested() {
	m.frameReady = false
}

// Invalidate marks the current snapshot for re-presentation by the next
// eligible commit without changing it.
func (m *Machine) Invalidate() {
	m.flags |= pendingToplevel
	if m.phase == PhaseCommitted {
		m.phase = PhaseConfigured
	}
}

// Ack records an acknowledged serial. Duplicate and older serials are no-ops
// and return false.
func (m *Machine) Ack(serial uint32) bool {
	if m.ackedAny && int32(serial-m.acked) <= 0 {
		return false
	}
	m.acked = serial
	m.ackedAny = true
	if m.serialPending && int32(m.serial-serial) <= 0 {
		m.serialPending = false
	}
	return true
}

// Commit applies pending to current. It fails with a protocol error before
// the initial configure and is deferred while the previous frame is still in
// flight.
func (m *Machine) Commit() (Applied, error) {
	if !m.configuredOnce {
		return Applied{}, wlerr.Protocol("toplevel commit", wlerr.ErrNotConfigured)
	}
	if !m.frameReady {
		return Applied{Previous: m.current, Current: m.current}, nil
	}

	prev := m.current
	m.current = m.pending
	a := Applied{
		Committed:         true,
		Previous:          prev,
		Current:           m.current,
		SizeChanged:       !prev.SameSize(m.current),
		StateChanged:      prev.State != m.current.State,
		DecorationChanged: prev.Decoration != m.current.Decoration,
	}
	if m.serialPending {
		serial := m.serial
		if m.Ack(serial) {
			a.Serial = serial
			a.Ack = true
		}
		m.serialPending = false
	}

	m.flags = 0
	m.frameReady = false
	m.phase = PhaseCommitted
	return a, nil
}
