package trace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/wlframe/internal/dispatch"
	"github.com/1broseidon/wlframe/internal/headless"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
	"github.com/1broseidon/wlframe/internal/timer"
	"github.com/1broseidon/wlframe/internal/window"
)

// maxPumpRounds bounds one pump step; traffic that has not settled by then
// points at a commit loop.
const maxPumpRounds = 20

// Env is a headless backend prepared for one trace.
type Env struct {
	Compositor *headless.Compositor
	Frames     *headless.FrameLibrary
	Timers     *timer.Table
	Session    *window.Session
	Recorder   *Recorder
}

// NewEnv builds a headless compositor and a session for tr. opts supplies
// the configured behavior; its Listener, Frames and Theme are replaced. now
// is the clock for the session timers, nil meaning real time.
func NewEnv(tr *Trace, opts window.Options, now func() time.Time) (*Env, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Allocator == nil {
		opts.Allocator = shm.DefaultAllocator()
	}

	comp := headless.New(tr.Capabilities.platform())
	for id, byMime := range tr.OfferData {
		data := make(map[string][]byte, len(byMime))
		for mime, v := range byMime {
			data[mime] = []byte(v)
		}
		comp.SetOfferData(platform.OfferID(id), data)
	}

	env := &Env{
		Compositor: comp,
		Timers:     timer.NewTable(now),
		Recorder:   NewRecorder(tr.acceptedDrops(), opts.Logger),
	}
	opts.Frames = nil
	if tr.FrameLibrary {
		env.Frames = &headless.FrameLibrary{}
		opts.Frames = env.Frames
	}
	opts.Listener = env.Recorder
	if opts.CursorSize <= 0 {
		opts.CursorSize = 24
	}
	opts.Theme = headless.NewCursorTheme(comp, opts.Allocator, opts.CursorSize)

	sess, err := window.NewSession(comp, env.Timers, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	env.Session = sess
	env.Recorder.session = sess
	return env, nil
}

// Driver delivers replay steps to a session.
type Driver interface {
	// Post delivers one compositor event.
	Post(ev window.Event) error
	// Call runs fn with the session, ordered after earlier posts.
	Call(fn func(*window.Session)) error
	// Wait lets d pass and fires the timers that came due.
	Wait(d time.Duration) error
}

// ManualClock is a clock that moves only when advanced.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current reading.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Direct drives the session synchronously on the calling goroutine with a
// manual clock. Replays through Direct are deterministic.
type Direct struct {
	Session *window.Session
	Clock   *ManualClock
}

func (d *Direct) Post(ev window.Event) error {
	return d.Session.Dispatch(ev)
}

func (d *Direct) Call(fn func(*window.Session)) error {
	fn(d.Session)
	return nil
}

func (d *Direct) Wait(dur time.Duration) error {
	d.Session.Timers().Dispatch(d.Clock.Advance(dur))
	return nil
}

// Looped drives a running dispatch loop in real time.
type Looped struct {
	Ctx  context.Context
	Loop *dispatch.Loop
}

func (l *Looped) Post(ev window.Event) error {
	if err := l.Loop.Post(l.Ctx, ev); err != nil {
		return err
	}
	if _, ok := ev.(window.CompositorError); ok {
		// The loop stops on this event; wait so the failure is reported
		// by this step.
		select {
		case <-l.Loop.Done():
			return l.Loop.Err()
		case <-l.Ctx.Done():
			return l.Ctx.Err()
		}
	}
	return nil
}

func (l *Looped) Call(fn func(*window.Session)) error {
	return l.Loop.Call(l.Ctx, fn)
}

func (l *Looped) Wait(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-l.Ctx.Done():
		return l.Ctx.Err()
	}
}

// Player runs the steps of a trace.
type Player struct {
	env    *Env
	driver Driver
	logger *slog.Logger
}

// NewPlayer creates a player for env. Steps go through driver.
func NewPlayer(env *Env, driver Driver, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{env: env, driver: driver, logger: logger}
}

// Run executes the steps in order and stops at the first step that fails
// unexpectedly.
func (p *Player) Run(tr *Trace) error {
	for i, st := range tr.Steps {
		err := p.step(st)
		if st.ExpectError != "" {
			if err == nil {
				return fmt.Errorf("step %d (%s): expected error containing %q", i+1, st.Name(), st.ExpectError)
			}
			if !strings.Contains(err.Error(), st.ExpectError) {
				return fmt.Errorf("step %d (%s): expected error containing %q, got: %w", i+1, st.Name(), st.ExpectError, err)
			}
			p.env.Recorder.addf("expected error: %v", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Name(), err)
		}
	}
	p.logger.Info("trace replayed", "steps", len(tr.Steps))
	return nil
}

func (p *Player) step(st Step) error {
	switch {
	case st.Event != "":
		return p.event(st)
	case st.Action != "":
		var err error
		if cerr := p.driver.Call(func(s *window.Session) {
			err = actions[st.Action](p.resolver(s), st)
		}); cerr != nil {
			return cerr
		}
		return err
	case st.Wait > 0:
		return p.driver.Wait(st.Wait)
	case st.Pump:
		return p.pump()
	default:
		return fmt.Errorf("empty step")
	}
}

func (p *Player) resolver(s *window.Session) resolver {
	return resolver{session: s, recorder: p.env.Recorder}
}

func (p *Player) event(st Step) error {
	var ev window.Event
	var err error
	if cerr := p.driver.Call(func(s *window.Session) {
		ev, err = eventBuilders[st.Event](p.resolver(s), st)
	}); cerr != nil {
		return cerr
	}
	if err != nil {
		return err
	}
	return p.driver.Post(ev)
}

// pump answers the session's outstanding frame callbacks and buffer
// releases the way a compositor repainting every commit would.
func (p *Player) pump() error {
	comp := p.env.Compositor
	for round := 0; round < maxPumpRounds; round++ {
		var releases []platform.BufferID
		var frames []platform.SurfaceID
		if err := p.driver.Call(func(*window.Session) {
			releases = comp.TakeReleases()
			frames = comp.TakeFrames()
		}); err != nil {
			return err
		}
		if len(releases) == 0 && len(frames) == 0 {
			return nil
		}
		for _, id := range releases {
			if err := p.driver.Post(window.BufferRelease{Buffer: id}); err != nil {
				return err
			}
		}
		for _, s := range frames {
			if err := p.driver.Post(window.FrameDone{Surface: s}); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("frame and release traffic did not settle after %d rounds", maxPumpRounds)
}
