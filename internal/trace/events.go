package trace

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/1broseidon/wlframe/internal/decor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/window"
)

// resolver turns step references into handles. It runs on the dispatch
// goroutine.
type resolver struct {
	session  *window.Session
	recorder *Recorder
}

func (r resolver) window(st Step) (*window.Window, error) {
	if st.Window == 0 {
		return nil, fmt.Errorf("window is required")
	}
	w, ok := r.session.Window(platform.WindowID(st.Window))
	if !ok {
		return nil, fmt.Errorf("unknown window %d", st.Window)
	}
	return w, nil
}

// surface returns st.Surface, or the surface of st.Window. With Edge set it
// returns that decoration edge's surface instead.
func (r resolver) surface(st Step) (platform.SurfaceID, error) {
	if st.Surface != 0 {
		return platform.SurfaceID(st.Surface), nil
	}
	w, err := r.window(st)
	if err != nil {
		return 0, fmt.Errorf("surface or window is required: %w", err)
	}
	if st.Edge == "" {
		return w.Surface(), nil
	}
	csd := w.Decorations()
	if csd == nil {
		return 0, fmt.Errorf("window %d has no client-side decorations", st.Window)
	}
	for _, e := range csd.Edges() {
		if e.Side.String() == st.Edge {
			return e.Surface, nil
		}
	}
	return 0, fmt.Errorf("window %d has no %q edge", st.Window, st.Edge)
}

// generation returns st.Generation, or the live frame generation of
// st.Window when unset.
func (r resolver) generation(st Step) (uint64, error) {
	if st.Generation != 0 {
		return st.Generation, nil
	}
	w, err := r.window(st)
	if err != nil {
		return 0, err
	}
	if b := w.Frame(); b != nil {
		return b.Generation(), nil
	}
	return 0, nil
}

type eventBuilder func(r resolver, st Step) (window.Event, error)

var eventBuilders = map[string]eventBuilder{
	"toplevel_configure": func(r resolver, st Step) (window.Event, error) {
		state, err := toplevel.ParseState(st.State)
		if err != nil {
			return nil, err
		}
		return window.ToplevelConfigure{Window: platform.WindowID(st.Window), Width: st.Width, Height: st.Height, State: state}, nil
	},
	"surface_configure": func(r resolver, st Step) (window.Event, error) {
		return window.SurfaceConfigure{Window: platform.WindowID(st.Window), Serial: st.Serial}, nil
	},
	"decoration_configure": func(r resolver, st Step) (window.Event, error) {
		mode, err := toplevel.ParseDecorationMode(st.Mode)
		if err != nil {
			return nil, err
		}
		return window.DecorationConfigure{Window: platform.WindowID(st.Window), Mode: mode}, nil
	},
	"toplevel_close": func(r resolver, st Step) (window.Event, error) {
		return window.ToplevelClose{Window: platform.WindowID(st.Window)}, nil
	},
	"frame_done": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.FrameDone{Surface: s}, nil
	},
	"buffer_release": func(r resolver, st Step) (window.Event, error) {
		return window.BufferRelease{Buffer: platform.BufferID(st.Buffer)}, nil
	},
	"frame_configure": func(r resolver, st Step) (window.Event, error) {
		gen, err := r.generation(st)
		if err != nil {
			return nil, err
		}
		return window.FrameConfigure{
			Window:     platform.WindowID(st.Window),
			Generation: gen,
			Width:      st.Width,
			Height:     st.Height,
			State:      st.Bits,
			Serial:     st.Serial,
		}, nil
	},
	"frame_commit": func(r resolver, st Step) (window.Event, error) {
		gen, err := r.generation(st)
		if err != nil {
			return nil, err
		}
		return window.FrameCommit{Window: platform.WindowID(st.Window), Generation: gen}, nil
	},
	"frame_close": func(r resolver, st Step) (window.Event, error) {
		gen, err := r.generation(st)
		if err != nil {
			return nil, err
		}
		return window.FrameClose{Window: platform.WindowID(st.Window), Generation: gen}, nil
	},
	"offer_created": func(r resolver, st Step) (window.Event, error) {
		return window.OfferCreated{Offer: platform.OfferID(st.Offer), Primary: st.Primary}, nil
	},
	"offer_mime": func(r resolver, st Step) (window.Event, error) {
		return window.OfferMime{Offer: platform.OfferID(st.Offer), Mime: st.Mime}, nil
	},
	"offer_source_actions": func(r resolver, st Step) (window.Event, error) {
		a, err := parseActions(st.Actions)
		if err != nil {
			return nil, err
		}
		return window.OfferSourceActions{Offer: platform.OfferID(st.Offer), Actions: a}, nil
	},
	"offer_action": func(r resolver, st Step) (window.Event, error) {
		a, err := parseActions(st.Actions)
		if err != nil {
			return nil, err
		}
		return window.OfferAction{Offer: platform.OfferID(st.Offer), Action: a}, nil
	},
	"selection": func(r resolver, st Step) (window.Event, error) {
		return window.Selection{Offer: platform.OfferID(st.Offer), Primary: st.Primary}, nil
	},
	"drag_enter": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.DragEnter{Offer: platform.OfferID(st.Offer), Serial: st.Serial, Surface: s, X: st.X, Y: st.Y}, nil
	},
	"drag_motion": func(r resolver, st Step) (window.Event, error) {
		return window.DragMotion{X: st.X, Y: st.Y}, nil
	},
	"drag_leave": func(r resolver, st Step) (window.Event, error) {
		return window.DragLeave{}, nil
	},
	"drop": func(r resolver, st Step) (window.Event, error) {
		return window.Drop{}, nil
	},
	"source_send": func(r resolver, st Step) (window.Event, error) {
		return window.SourceSend{
			Source: platform.SourceID(st.Source),
			Mime:   st.Mime,
			Writer: &sendCapture{recorder: r.recorder, source: st.Source, mime: st.Mime},
		}, nil
	},
	"source_cancelled": func(r resolver, st Step) (window.Event, error) {
		return window.SourceCancelled{Source: platform.SourceID(st.Source)}, nil
	},
	"activation_done": func(r resolver, st Step) (window.Event, error) {
		id := st.RequestID
		if id == 0 {
			id = r.recorder.lastRequest
		}
		return window.ActivationDone{RequestID: id, Token: st.Token}, nil
	},
	"output_enter": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.OutputEnter{Surface: s, Output: platform.OutputID(st.Output)}, nil
	},
	"output_leave": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.OutputLeave{Surface: s, Output: platform.OutputID(st.Output)}, nil
	},
	"output_scale": func(r resolver, st Step) (window.Event, error) {
		return window.OutputScale{Output: platform.OutputID(st.Output), Scale: st.Scale}, nil
	},
	"pointer_enter": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.PointerEnter{Surface: s, Serial: st.Serial, X: st.X, Y: st.Y}, nil
	},
	"pointer_leave": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.PointerLeave{Surface: s, Serial: st.Serial}, nil
	},
	"pointer_motion": func(r resolver, st Step) (window.Event, error) {
		return window.PointerMotion{X: st.X, Y: st.Y}, nil
	},
	"pointer_button": func(r resolver, st Step) (window.Event, error) {
		button := st.Button
		if button == 0 {
			button = decor.BtnLeft
		}
		return window.PointerButton{Serial: st.Serial, Button: button, Pressed: st.Pressed}, nil
	},
	"keyboard_enter": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.KeyboardEnter{Surface: s, Serial: st.Serial}, nil
	},
	"keyboard_leave": func(r resolver, st Step) (window.Event, error) {
		s, err := r.surface(st)
		if err != nil {
			return nil, err
		}
		return window.KeyboardLeave{Surface: s}, nil
	},
	"key": func(r resolver, st Step) (window.Event, error) {
		return window.Key{Serial: st.Serial, Key: st.Key, Pressed: st.Pressed}, nil
	},
	"repeat_info": func(r resolver, st Step) (window.Event, error) {
		return window.RepeatInfo{Rate: st.Rate, Delay: st.Delay}, nil
	},
	"compositor_error": func(r resolver, st Step) (window.Event, error) {
		msg := st.Message
		if msg == "" {
			msg = "connection lost"
		}
		return window.CompositorError{Err: errors.New(msg)}, nil
	},
}

// sendCapture collects what a local data source writes and records it on
// close.
type sendCapture struct {
	recorder *Recorder
	source   uint32
	mime     string
	buf      bytes.Buffer
}

func (c *sendCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *sendCapture) Close() error {
	c.recorder.addf("source_send %d %s: %q", c.source, c.mime, c.buf.String())
	return nil
}
