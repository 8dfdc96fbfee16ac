package trace

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wlframe/internal/dispatch"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
	"github.com/1broseidon/wlframe/internal/window"
)

func testOptions() window.Options {
	opts := window.DefaultOptions()
	opts.Allocator = shm.HeapAllocator{}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func replayDirect(t *testing.T, tr *Trace) (*Env, error) {
	t.Helper()
	clock := NewManualClock(time.Unix(1700000000, 0))
	env, err := NewEnv(tr, testOptions(), clock.Now)
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	driver := &Direct{Session: env.Session, Clock: clock}
	return env, NewPlayer(env, driver, testOptions().Logger).Run(tr)
}

func hasLine(lines []string, want string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, want) {
			return true
		}
	}
	return false
}

func TestLoad_SessionTrace(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "session.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	env, err := replayDirect(t, tr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	lines := env.Recorder.Lines()
	for _, want := range []string{
		"window 1 created",
		"expected error: ",
		"resize window=1 800x600",
		`clipboard offer=100 primary=false self=false text/plain;charset=utf-8: "hello"`,
		"key window=1 30 pressed",
		"key window=1 30 repeat",
		"key window=1 30 released",
		"drag_enter window=1 offer=200 at 10,20",
		`drop window=1 offer=200 at 10,20 text/uri-list: "file:///tmp/a.txt\n"`,
		"activation requested window=1",
		"close window=1",
	} {
		if !hasLine(lines, want) {
			t.Errorf("missing %q in transcript:\n%s", want, strings.Join(lines, "\n"))
		}
	}

	comp := env.Compositor
	w, _ := env.Session.Window(1)
	s, ok := comp.Surface(w.Surface())
	if !ok {
		t.Fatalf("window surface missing")
	}
	if len(s.Acked) != 1 || s.Acked[0] != 1 {
		t.Fatalf("expected serial 1 acked, got %v", s.Acked)
	}
	if len(s.Activated) != 1 || s.Activated[0] != "tok-1" {
		t.Fatalf("expected activation with tok-1, got %v", s.Activated)
	}
	if got := comp.FinishedOffers(); len(got) != 1 || got[0] != platform.OfferID(200) {
		t.Fatalf("expected drop finished, got %v", got)
	}
	if v := comp.Violations(); len(v) > 0 {
		t.Fatalf("compositor violations: %v", v)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "steps:\n  - event: drop\n    colour: red\n", "colour"},
		{"unknown event", "steps:\n  - event: teleport\n", `unknown event "teleport"`},
		{"unknown action", "steps:\n  - action: explode\n", `unknown action "explode"`},
		{"two kinds", "steps:\n  - event: drop\n    pump: true\n", "exactly one"},
		{"empty step", "steps:\n  - window: 1\n", "exactly one"},
		{"bad drop action", "accept_drops: [fling]\n", "accept_drops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_EmptyTrace(t *testing.T) {
	tr, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tr.Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(tr.Steps))
	}
}

func TestRun_UnexpectedErrorStops(t *testing.T) {
	tr, err := Parse([]byte(`
steps:
  - action: set_title
    window: 7
    title: nobody
  - action: create_window
    width: 10
    height: 10
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env, err := replayDirect(t, tr)
	if err == nil || !strings.Contains(err.Error(), "step 1 (action set_title): unknown window 7") {
		t.Fatalf("expected step 1 failure, got %v", err)
	}
	if len(env.Session.Windows()) != 0 {
		t.Fatalf("expected replay to stop before step 2")
	}
}

func TestRun_ExpectedErrorMustOccur(t *testing.T) {
	tr, err := Parse([]byte(`
steps:
  - action: create_window
    width: 10
    height: 10
    expect_error: boom
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := replayDirect(t, tr); err == nil || !strings.Contains(err.Error(), `expected error containing "boom"`) {
		t.Fatalf("expected missing-error failure, got %v", err)
	}
}

func TestRun_CompositorErrorEndsReplay(t *testing.T) {
	tr, err := Parse([]byte(`
steps:
  - event: compositor_error
    message: broken pipe
  - action: create_window
    width: 10
    height: 10
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = replayDirect(t, tr)
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("expected compositor failure, got %v", err)
	}
}

func TestRun_FrameLibraryUsesLiveGeneration(t *testing.T) {
	tr, err := Parse([]byte(`
frame_library: true
steps:
  - action: create_window
    title: framed
    width: 300
    height: 200
    decorated: true
  - event: frame_configure
    window: 1
    width: 320
    height: 240
    bits: 1
    serial: 9
  - action: set_decoration_mode
    window: 1
    mode: client
  - action: enter_frame_library
    window: 1
  - event: frame_configure
    window: 1
    width: 330
    height: 250
    serial: 10
  - event: frame_close
    window: 1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env, err := replayDirect(t, tr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	f := env.Frames.Last()
	if f == nil || len(f.Commits) == 0 {
		t.Fatalf("expected the frame library to receive a commit")
	}
	if got := f.Commits[len(f.Commits)-1]; got.Width != 330 || got.Height != 250 || got.Serial != 10 {
		t.Fatalf("unexpected frame commit %+v", got)
	}
	if n := len(env.Frames.Frames); n != 2 {
		t.Fatalf("expected the frame rebuilt after re-entering, got %d frames", n)
	}
	if first := env.Frames.Frames[0]; len(first.Commits) != 1 || first.Commits[0].Serial != 9 {
		t.Fatalf("unexpected commits on the first frame %+v", first.Commits)
	}
	if !hasLine(env.Recorder.Lines(), "close window=1") {
		t.Fatalf("expected close from the frame library, got %v", env.Recorder.Lines())
	}
}

func TestReplay_ThroughDispatchLoop(t *testing.T) {
	tr, err := Parse([]byte(`
steps:
  - action: create_window
    width: 200
    height: 100
    decorated: true
  - event: toplevel_configure
    window: 1
    width: 400
    height: 300
  - event: surface_configure
    window: 1
    serial: 2
  - pump: true
  - action: set_title
    window: 1
    title: looped
  - pump: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := testOptions()
	env, err := NewEnv(tr, opts, nil)
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	loop := dispatch.New(env.Session, dispatch.Config{Logger: opts.Logger})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go loop.Run(ctx)

	if err := NewPlayer(env, &Looped{Ctx: ctx, Loop: loop}, opts.Logger).Run(tr); err != nil {
		t.Fatalf("replay: %v", err)
	}

	var info window.Info
	if err := loop.Call(ctx, func(s *window.Session) {
		w, _ := s.Window(1)
		info = w.Info()
	}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if info.Width != 400 || info.Title != "looped" {
		t.Fatalf("unexpected window info %+v", info)
	}
	cancel()
	<-loop.Done()
}
