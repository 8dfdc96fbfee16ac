// Package trace replays recorded compositor sessions against the headless
// compositor. A trace is a YAML file listing compositor events and client
// requests in order; replaying it drives a real window session and records
// everything the session reports upward.
package trace

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/platform"
)

// Capabilities are the optional protocols the headless compositor
// advertises for a trace.
type Capabilities struct {
	ServerSideDecorations bool `yaml:"server_side_decorations"`
	Activation            bool `yaml:"activation"`
	PrimarySelection      bool `yaml:"primary_selection"`
}

func (c Capabilities) platform() platform.Capabilities {
	return platform.Capabilities{
		ServerSideDecorations: c.ServerSideDecorations,
		Activation:            c.Activation,
		PrimarySelection:      c.PrimarySelection,
	}
}

// Trace is one replayable session.
type Trace struct {
	Capabilities Capabilities `yaml:"capabilities"`
	// FrameLibrary offers a frame library to the session.
	FrameLibrary bool `yaml:"frame_library"`
	// AcceptDrops lists the drop actions windows accept. Empty means copy.
	AcceptDrops []string `yaml:"accept_drops"`
	// OfferData is the content external offers serve, by offer id and mime.
	OfferData map[uint32]map[string]string `yaml:"offer_data"`

	Steps []Step `yaml:"steps"`
}

// Step is one line of a trace. Exactly one of Event, Action, Wait and Pump
// is set; the remaining fields are that step's arguments.
type Step struct {
	// Event is an inbound event kind, such as "toplevel_configure".
	Event string `yaml:"event,omitempty"`
	// Action is a client request, such as "commit" or "set_title".
	Action string `yaml:"action,omitempty"`
	// Wait advances time and fires due timers.
	Wait time.Duration `yaml:"wait,omitempty"`
	// Pump delivers queued buffer releases and frame callbacks.
	Pump bool `yaml:"pump,omitempty"`

	// ExpectError makes the step pass only when it fails with an error
	// containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`

	Window  uint32 `yaml:"window,omitempty"`
	Surface uint32 `yaml:"surface,omitempty"`
	Edge    string `yaml:"edge,omitempty"`
	Output  uint32 `yaml:"output,omitempty"`
	Buffer  uint32 `yaml:"buffer,omitempty"`
	Offer   uint32 `yaml:"offer,omitempty"`
	Source  uint32 `yaml:"source,omitempty"`
	Serial  uint32 `yaml:"serial,omitempty"`
	// Generation defaults to the window's live frame generation.
	Generation uint64 `yaml:"generation,omitempty"`
	// RequestID defaults to the newest activation request.
	RequestID uint64 `yaml:"request_id,omitempty"`

	Width   int           `yaml:"width,omitempty"`
	Height  int           `yaml:"height,omitempty"`
	State   []string      `yaml:"state,omitempty"`
	Bits    uint32        `yaml:"bits,omitempty"`
	Mode    string        `yaml:"mode,omitempty"`
	Primary bool          `yaml:"primary,omitempty"`
	Mime    string        `yaml:"mime,omitempty"`
	Actions []string      `yaml:"actions,omitempty"`
	X       float64       `yaml:"x,omitempty"`
	Y       float64       `yaml:"y,omitempty"`
	Button  uint32        `yaml:"button,omitempty"`
	Pressed bool          `yaml:"pressed,omitempty"`
	Key     uint32        `yaml:"key,omitempty"`
	Rate    int           `yaml:"rate,omitempty"`
	Delay   time.Duration `yaml:"delay,omitempty"`
	Scale   int           `yaml:"scale,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Message string        `yaml:"message,omitempty"`

	Title      string            `yaml:"title,omitempty"`
	AppID      string            `yaml:"app_id,omitempty"`
	Decorated  bool              `yaml:"decorated,omitempty"`
	Shape      string            `yaml:"shape,omitempty"`
	Maximized  bool              `yaml:"maximized,omitempty"`
	Fullscreen bool              `yaml:"fullscreen,omitempty"`
	Data       map[string]string `yaml:"data,omitempty"`
}

// Name describes the step for errors and logs.
func (s Step) Name() string {
	switch {
	case s.Event != "":
		return "event " + s.Event
	case s.Action != "":
		return "action " + s.Action
	case s.Wait > 0:
		return "wait " + s.Wait.String()
	case s.Pump:
		return "pump"
	default:
		return "empty step"
	}
}

// Load reads and validates the trace at path.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}
	tr, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

// Parse decodes and validates a trace. Unknown keys are errors.
func Parse(data []byte) (*Trace, error) {
	var tr Trace
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tr); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Validate checks that every step names exactly one thing to do and that
// step kinds are known.
func (t *Trace) Validate() error {
	if _, err := parseActions(t.AcceptDrops); err != nil {
		return fmt.Errorf("accept_drops: %w", err)
	}
	for i, s := range t.Steps {
		n := 0
		if s.Event != "" {
			n++
			if _, ok := eventBuilders[s.Event]; !ok {
				return fmt.Errorf("step %d: unknown event %q", i+1, s.Event)
			}
		}
		if s.Action != "" {
			n++
			if _, ok := actions[s.Action]; !ok {
				return fmt.Errorf("step %d: unknown action %q", i+1, s.Action)
			}
		}
		if s.Wait != 0 {
			n++
			if s.Wait < 0 {
				return fmt.Errorf("step %d: wait must be positive", i+1)
			}
		}
		if s.Pump {
			n++
		}
		if n != 1 {
			return fmt.Errorf("step %d: exactly one of event, action, wait or pump must be set", i+1)
		}
	}
	return nil
}

// acceptedDrops returns the drop actions windows accept.
func (t *Trace) acceptedDrops() offer.Action {
	if len(t.AcceptDrops) == 0 {
		return offer.ActionCopy
	}
	a, _ := parseActions(t.AcceptDrops)
	return a
}

func parseActions(names []string) (offer.Action, error) {
	var a offer.Action
	for _, raw := range names {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "none", "":
		case "copy":
			a |= offer.ActionCopy
		case "move":
			a |= offer.ActionMove
		case "ask":
			a |= offer.ActionAsk
		default:
			return offer.ActionNone, fmt.Errorf("unknown drag action %q", raw)
		}
	}
	return a, nil
}
