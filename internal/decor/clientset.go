package decor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// Compositor is the part of the compositor client-side decorations use.
type Compositor interface {
	shm.BufferFactory
	CreateSubsurface(parent platform.SurfaceID) (platform.SurfaceID, error)
	DestroySurface(surface platform.SurfaceID)
	SetSubsurfacePosition(sub platform.SurfaceID, x, y int)
	Attach(surface platform.SurfaceID, buffer platform.BufferID)
	Damage(surface platform.SurfaceID, r platform.Rect)
	SetBufferScale(surface platform.SurfaceID, scale int)
	Commit(surface platform.SurfaceID)
}

type layoutKey struct {
	width   int
	height  int
	scale   int
	docked  bool
	focused bool
}

// Stats counts decoration work, for diagnostics and tests.
type Stats struct {
	Relayouts int
	Skipped   int
	Redraws   int
	Reallocs  int
	Presents  int
}

// ClientSet owns the four decoration edges of one window.
type ClientSet struct {
	comp     Compositor
	alloc    shm.Allocator
	tracker  *shm.Tracker
	renderer *Renderer
	logger   *slog.Logger

	parent platform.SurfaceID
	edges  [sideCount]*Edge

	key     layoutKey
	laidOut bool
	metrics Metrics
	title   string

	pointer pointerState
	// canSwap is set by each frame callback and cleared by the swap it
	// allows.
	canSwap bool

	stats Stats
}

// NewClientSet creates the edge sub-surfaces under parent. Nothing is drawn
// until the first Relayout.
func NewClientSet(comp Compositor, alloc shm.Allocator, tracker *shm.Tracker, renderer *Renderer, parent platform.SurfaceID, title string, logger *slog.Logger) (*ClientSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cs := &ClientSet{
		comp:     comp,
		alloc:    alloc,
		tracker:  tracker,
		renderer: renderer,
		logger:   logger,
		parent:   parent,
		title:    title,
		canSwap:  true,
	}
	for side := SideTop; side < sideCount; side++ {
		sub, err := comp.CreateSubsurface(parent)
		if err != nil {
			cs.Destroy()
			return nil, fmt.Errorf("create %s decoration surface: %w", side, err)
		}
		cs.edges[side] = &Edge{
			Side:    side,
			Surface: sub,
			Pair:    shm.NewBufferPair(comp, alloc, tracker),
		}
	}
	return cs, nil
}

// Destroy tears down the edges. Buffers the compositor still holds are
// retired and destroyed when their release arrives.
func (cs *ClientSet) Destroy() {
	for i, e := range cs.edges {
		if e == nil {
			continue
		}
		e.Pair.Destroy()
		cs.comp.DestroySurface(e.Surface)
		cs.edges[i] = nil
	}
	cs.laidOut = false
}

// Edges returns the live edges.
func (cs *ClientSet) Edges() []*Edge {
	var out []*Edge
	for _, e := range cs.edges {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Metrics returns the metrics of the last layout.
func (cs *ClientSet) Metrics() Metrics {
	return cs.metrics
}

// Stats returns the work counters.
func (cs *ClientSet) Stats() Stats {
	return cs.stats
}

// WindowGeometry returns the window geometry for the last layout.
func (cs *ClientSet) WindowGeometry() platform.Rect {
	return WindowGeometry(cs.key.width, cs.key.height, cs.metrics)
}

// Relayout lays the edges out for the committed snapshot. When width,
// height, scale, docked and focused all match the previous layout nothing is
// reallocated or redrawn and false is returned.
func (cs *ClientSet) Relayout(snap toplevel.Snapshot, scale int, focused bool) (bool, error) {
	if scale < 1 {
		scale = 1
	}
	key := layoutKey{
		width:   snap.Width,
		height:  snap.Height,
		scale:   scale,
		docked:  snap.Docked(),
		focused: focused,
	}
	if cs.laidOut && key == cs.key {
		cs.stats.Skipped++
		return false, nil
	}

	cs.metrics = ComputeMetrics(cs.renderer.Style(), key.docked)
	bounds := Layout(snap.Width, snap.Height, cs.metrics)
	for _, e := range cs.edges {
		if e == nil {
			continue
		}
		e.Bounds = bounds[e.Side]
		cs.comp.SetSubsurfacePosition(e.Surface, e.Bounds.X, e.Bounds.Y)
		cs.comp.SetBufferScale(e.Surface, scale)

		w, h := e.Bounds.Width*scale, e.Bounds.Height*scale
		if e.Bounds.Empty() {
			w, h = 0, 0
		}
		realloc, err := e.Pair.Resize(w, h)
		if err != nil {
			return false, fmt.Errorf("resize %s edge: %w", e.Side, err)
		}
		if realloc {
			cs.stats.Reallocs++
		}
		if e.Pair.Allocated() {
			if err := cs.draw(e, scale, focused); err != nil {
				return false, err
			}
		}
	}
	cs.key = key
	cs.laidOut = true
	cs.stats.Relayouts++
	cs.logger.Debug("decorations laid out",
		"width", snap.Width,
		"height", snap.Height,
		"scale", scale,
		"docked", key.docked,
		"focused", focused,
	)
	return true, nil
}

// draw renders one edge into its back buffer. A back buffer still held by
// the compositor marks the edge dirty; it is redrawn on release.
func (cs *ClientSet) draw(e *Edge, scale int, focused bool) error {
	back, err := e.Pair.Back()
	if errors.Is(err, shm.ErrBackBusy) {
		e.dirty = true
		return nil
	}
	if err != nil {
		return err
	}

	w, h := e.Pair.Width, e.Pair.Height
	if e.Side == SideTop {
		cs.renderer.Titlebar(back, TitlebarParams{
			Width:    w,
			Height:   h,
			Border:   cs.metrics.BorderWidth * scale,
			Titlebar: cs.metrics.VisibleTitlebar() * scale,
			Radius:   cs.metrics.CornerRadius * scale,
			Scale:    scale,
			Title:    cs.title,
			Focused:  focused,
			Hovered:  cs.pointer.inTitlebar,
			Hover:    cs.pointer.hover,
		})
	} else {
		cs.renderer.Border(back, w, h)
	}
	e.Pair.MarkDrawn()
	e.dirty = false
	cs.stats.Redraws++
	return nil
}

func (cs *ClientSet) redrawTop() error {
	top := cs.edges[SideTop]
	if top == nil || !cs.laidOut || !top.Pair.Allocated() {
		return nil
	}
	return cs.draw(top, cs.key.scale, cs.key.focused)
}

// SetTitle changes the titlebar text and redraws the top edge.
func (cs *ClientSet) SetTitle(title string) error {
	if title == cs.title {
		return nil
	}
	cs.title = title
	return cs.redrawTop()
}

// OnFrame records a frame callback. The next Present may swap each edge once.
func (cs *ClientSet) OnFrame() {
	cs.canSwap = true
}

// HasPendingUpdate reports whether any edge has drawn content not yet shown.
func (cs *ClientSet) HasPendingUpdate() bool {
	for _, e := range cs.edges {
		if e != nil && e.Pair.HasPendingUpdate {
			return true
		}
	}
	return false
}

// Present swaps edges with pending updates, at most once per frame
// callback, and attaches their front buffers. Edges without an allocation
// are unmapped. The caller commits the parent surface afterwards.
func (cs *ClientSet) Present() error {
	swapAllowed := cs.canSwap
	cs.canSwap = false
	for _, e := range cs.edges {
		if e == nil {
			continue
		}
		if !e.Pair.Allocated() {
			if e.attached != 0 {
				cs.comp.Attach(e.Surface, 0)
				cs.comp.Commit(e.Surface)
				e.attached = 0
			}
			continue
		}
		swapped := swapAllowed && e.Pair.Swap()
		if !swapped && (e.Pair.HasPendingUpdate || e.attached == e.Pair.FrontID()) {
			// Either already shown or waiting for the next frame to swap.
			continue
		}
		id, err := e.Pair.Attach()
		if err != nil {
			cs.logger.Error("attach decoration buffer", "edge", e.Side.String(), "error", err, "stack", wlerr.StackTrace(err))
			return err
		}
		cs.comp.Attach(e.Surface, id)
		cs.comp.Damage(e.Surface, platform.Rect{Width: e.Bounds.Width, Height: e.Bounds.Height})
		cs.comp.Commit(e.Surface)
		e.attached = id
		cs.stats.Presents++
	}
	return nil
}

// OnRelease redraws an edge whose redraw was refused while its back buffer
// was held. It reports whether a redraw happened.
func (cs *ClientSet) OnRelease(pair *shm.BufferPair) (bool, error) {
	for _, e := range cs.edges {
		if e == nil || e.Pair != pair || !e.dirty {
			continue
		}
		if e.Pair.BackBusy() {
			return false, nil
		}
		if err := cs.draw(e, cs.key.scale, cs.key.focused); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// edgeFor returns the edge drawn on surface.
func (cs *ClientSet) edgeFor(surface platform.SurfaceID) *Edge {
	for _, e := range cs.edges {
		if e != nil && e.Surface == surface {
			return e
		}
	}
	return nil
}

// Owns reports whether surface is one of the edge surfaces.
func (cs *ClientSet) Owns(surface platform.SurfaceID) bool {
	return cs.edgeFor(surface) != nil
}
