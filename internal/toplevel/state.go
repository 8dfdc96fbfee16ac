package toplevel

import (
	"fmt"
	"strings"
)

// State is the toplevel state flag set reported by the compositor.
type State uint32

const (
	StateMaximized State = 1 << iota
	StateFullscreen
	StateResizing
	StateActivated
	StateTiledLeft
	StateTiledRight
	StateTiledTop
	StateTiledBottom
	StateSuspended
)

// StateNone is the empty flag set.
const StateNone State = 0

const dockedMask = StateMaximized | StateFullscreen | StateTiledLeft | StateTiledRight | StateTiledTop | StateTiledBottom

var stateNames = []struct {
	flag State
	name string
}{
	{StateMaximized, "maximized"},
	{StateFullscreen, "fullscreen"},
	{StateResizing, "resizing"},
	{StateActivated, "activated"},
	{StateTiledLeft, "tiled-left"},
	{StateTiledRight, "tiled-right"},
	{StateTiledTop, "tiled-top"},
	{StateTiledBottom, "tiled-bottom"},
	{StateSuspended, "suspended"},
}

// Has reports whether all flags in f are set.
func (s State) Has(f State) bool {
	return s&f == f
}

// Docked reports whether the window is attached to screen edges: maximized,
// fullscreen or tiled on any side. Docked windows draw no CSD borders.
func (s State) Docked() bool {
	return s&dockedMask != 0
}

// String returns the flag names joined with "|", or "none".
func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	var parts []string
	for _, n := range stateNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Names returns the names of the set flags.
func (s State) Names() []string {
	var out []string
	for _, n := range stateNames {
		if s&n.flag != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// ParseState builds a flag set from flag names.
func ParseState(names []string) (State, error) {
	var s State
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "none" {
			continue
		}
		found := false
		for _, n := range stateNames {
			if n.name == name {
				s |= n.flag
				found = true
				break
			}
		}
		if !found {
			return StateNone, fmt.Errorf("unknown toplevel state %q", raw)
		}
	}
	return s, nil
}

// DecorationMode selects who draws the window decorations.
type DecorationMode int

const (
	DecorationNone DecorationMode = iota
	DecorationClientSide
	DecorationServerSide
)

// String returns the string representation of the mode.
func (m DecorationMode) String() string {
	switch m {
	case DecorationNone:
		return "none"
	case DecorationClientSide:
		return "client-side"
	case DecorationServerSide:
		return "server-side"
	default:
		return "unknown"
	}
}

// ParseDecorationMode parses a mode name.
func ParseDecorationMode(s string) (DecorationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return DecorationNone, nil
	case "client-side", "client":
		return DecorationClientSide, nil
	case "server-side", "server":
		return DecorationServerSide, nil
	default:
		return DecorationNone, fmt.Errorf("unknown decoration mode %q", s)
	}
}

// Snapshot is one toplevel configuration.
type Snapshot struct {
	Width      int
	Height     int
	State      State
	Decoration DecorationMode
}

// Docked reports whether the snapshot state is docked.
func (s Snapshot) Docked() bool {
	return s.State.Docked()
}

// SameSize reports whether two snapshots have identical dimensions.
func (s Snapshot) SameSize(o Snapshot) bool {
	return s.Width == o.Width && s.Height == o.Height
}
