package trace

import (
	"fmt"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/window"
)

type action func(r resolver, st Step) error

// windowAction adapts a request on one window.
func windowAction(fn func(w *window.Window, st Step) error) action {
	return func(r resolver, st Step) error {
		w, err := r.window(st)
		if err != nil {
			return err
		}
		return fn(w, st)
	}
}

var actions = map[string]action{
	"create_window": func(r resolver, st Step) error {
		w, err := r.session.CreateWindow(window.Config{
			Title:     st.Title,
			AppID:     st.AppID,
			Width:     st.Width,
			Height:    st.Height,
			Decorated: st.Decorated,
		})
		if err != nil {
			return err
		}
		r.recorder.addf("window %d created surface=%d", w.ID, w.Surface())
		return nil
	},
	"commit": windowAction(func(w *window.Window, _ Step) error {
		return w.Commit()
	}),
	"request_size": windowAction(func(w *window.Window, st Step) error {
		return w.RequestSize(st.Width, st.Height)
	}),
	"set_title": windowAction(func(w *window.Window, st Step) error {
		return w.SetTitle(st.Title)
	}),
	"set_app_id": windowAction(func(w *window.Window, st Step) error {
		return w.SetAppID(st.AppID)
	}),
	"set_maximized": windowAction(func(w *window.Window, st Step) error {
		return w.SetMaximized(st.Maximized)
	}),
	"set_fullscreen": windowAction(func(w *window.Window, st Step) error {
		return w.SetFullscreen(st.Fullscreen, platform.OutputID(st.Output))
	}),
	"minimize": windowAction(func(w *window.Window, _ Step) error {
		return w.Minimize()
	}),
	"set_cursor": windowAction(func(w *window.Window, st Step) error {
		shape, err := cursor.ParseShape(st.Shape)
		if err != nil {
			return err
		}
		return w.SetCursor(shape)
	}),
	"set_decoration_mode": windowAction(func(w *window.Window, st Step) error {
		mode, err := toplevel.ParseDecorationMode(st.Mode)
		if err != nil {
			return err
		}
		return w.SetDecorationMode(mode)
	}),
	"enter_frame_library": windowAction(func(w *window.Window, _ Step) error {
		return w.EnterFrameLibrary()
	}),
	"request_activation": func(r resolver, st Step) error {
		w, err := r.window(st)
		if err != nil {
			return err
		}
		id, err := w.RequestActivation()
		if err != nil {
			return err
		}
		r.recorder.lastRequest = id
		r.recorder.addf("activation requested window=%d", w.ID)
		return nil
	},
	"destroy": windowAction(func(w *window.Window, _ Step) error {
		w.Destroy()
		return nil
	}),
	"set_clipboard": func(r resolver, st Step) error {
		if len(st.Data) == 0 {
			return fmt.Errorf("data is required")
		}
		data := make(map[string][]byte, len(st.Data))
		for mime, v := range st.Data {
			data[mime] = []byte(v)
		}
		src, err := r.session.SetClipboard(st.Primary, data)
		if err != nil {
			return err
		}
		r.recorder.addf("source %d set primary=%v", src.ID, src.Primary)
		return nil
	},
}
