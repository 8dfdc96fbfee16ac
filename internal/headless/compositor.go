// Package headless is an in-memory compositor that records every request.
// It backs trace replay, the inspection tools and the package tests.
package headless

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/1broseidon/wlframe/internal/platform"
)

// Role is what a surface is used for.
type Role string

const (
	RoleNone       Role = ""
	RoleToplevel   Role = "toplevel"
	RoleSubsurface Role = "subsurface"
)

// Surface is the recorded state of one surface.
type Surface struct {
	ID        platform.SurfaceID
	Role      Role
	Parent    platform.SurfaceID
	X, Y      int
	Scale     int
	Pending   platform.BufferID
	Attached  bool
	Committed platform.BufferID
	Commits   int
	Damage    []platform.Rect

	FrameRequested bool

	Title      string
	AppID      string
	Geometry   platform.Rect
	MinW, MinH int
	MaxW, MaxH int
	Maximized  bool
	Fullscreen bool
	Minimized  bool
	Acked      []uint32
	// ServerSide is the last requested decoration mode.
	ServerSide *bool
	Moves      int
	Resizes    []platform.Edges
	Activated  []string
}

// Buffer is the recorded state of one buffer.
type Buffer struct {
	ID   platform.BufferID
	Spec platform.BufferSpec
	// Held is set while the compositor may read the buffer: from the commit
	// that shows it until its release has been taken by the client.
	Held bool
}

// Source is a recorded data source.
type Source struct {
	ID       platform.SourceID
	Primary  bool
	Mimes    []string
	Selected bool
}

// TokenRequest is a recorded activation token request.
type TokenRequest struct {
	Surface   platform.SurfaceID
	RequestID uint64
	Serial    uint32
	AppID     string
}

// CursorState is the last pointer cursor set by the client.
type CursorState struct {
	Serial   uint32
	Surface  platform.SurfaceID
	HotspotX int
	HotspotY int
	Sets     int
}

// Compositor records requests and keeps enough state to check the buffer
// lifetime rules a real compositor would enforce.
type Compositor struct {
	caps platform.Capabilities

	nextSurface platform.SurfaceID
	nextBuffer  platform.BufferID
	nextSource  platform.SourceID

	surfaces map[platform.SurfaceID]*Surface
	buffers  map[platform.BufferID]*Buffer
	sources  map[platform.SourceID]*Source

	offerData     map[platform.OfferID]map[string][]byte
	offerAccepted map[platform.OfferID]string
	offerActions  map[platform.OfferID][2]uint32
	finished      []platform.OfferID
	destroyed     []platform.OfferID

	tokens []TokenRequest

	cursor CursorState

	releases []platform.BufferID
	frames   []platform.SurfaceID

	log        []string
	violations []string
}

// New creates a compositor advertising caps.
func New(caps platform.Capabilities) *Compositor {
	return &Compositor{
		caps:          caps,
		surfaces:      make(map[platform.SurfaceID]*Surface),
		buffers:       make(map[platform.BufferID]*Buffer),
		sources:       make(map[platform.SourceID]*Source),
		offerData:     make(map[platform.OfferID]map[string][]byte),
		offerAccepted: make(map[platform.OfferID]string),
		offerActions:  make(map[platform.OfferID][2]uint32),
	}
}

var _ platform.Compositor = (*Compositor)(nil)

func (c *Compositor) record(format string, args ...any) {
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

func (c *Compositor) violate(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.violations = append(c.violations, msg)
	c.record("VIOLATION %s", msg)
}

func (c *Compositor) surface(id platform.SurfaceID, op string) *Surface {
	s, ok := c.surfaces[id]
	if !ok {
		c.violate("%s on unknown surface %d", op, id)
		return nil
	}
	return s
}

// Capabilities returns the advertised optional protocols.
func (c *Compositor) Capabilities() platform.Capabilities { return c.caps }

// SetCapabilities changes the advertised optional protocols.
func (c *Compositor) SetCapabilities(caps platform.Capabilities) { c.caps = caps }

func (c *Compositor) CreateSurface() (platform.SurfaceID, error) {
	c.nextSurface++
	c.surfaces[c.nextSurface] = &Surface{ID: c.nextSurface, Scale: 1}
	c.record("create_surface %d", c.nextSurface)
	return c.nextSurface, nil
}

func (c *Compositor) DestroySurface(id platform.SurfaceID) {
	s := c.surface(id, "destroy_surface")
	if s == nil {
		return
	}
	if s.Committed != 0 {
		c.queueRelease(s.Committed)
	}
	delete(c.surfaces, id)
	c.record("destroy_surface %d", id)
}

func (c *Compositor) CreateToplevel(id platform.SurfaceID) error {
	s := c.surface(id, "create_toplevel")
	if s == nil {
		return fmt.Errorf("unknown surface %d", id)
	}
	s.Role = RoleToplevel
	c.record("create_toplevel %d", id)
	return nil
}

func (c *Compositor) DestroyToplevel(id platform.SurfaceID) {
	s := c.surface(id, "destroy_toplevel")
	if s == nil {
		return
	}
	if s.Role != RoleToplevel {
		c.violate("destroy_toplevel on surface %d with role %q", id, s.Role)
		return
	}
	if s.Committed != 0 {
		c.queueRelease(s.Committed)
		s.Committed = 0
	}
	s.Role = RoleNone
	s.ServerSide = nil
	c.record("destroy_toplevel %d", id)
}

func (c *Compositor) CreateSubsurface(parent platform.SurfaceID) (platform.SurfaceID, error) {
	if c.surface(parent, "create_subsurface") == nil {
		return 0, fmt.Errorf("unknown parent surface %d", parent)
	}
	id, _ := c.CreateSurface()
	s := c.surfaces[id]
	s.Role = RoleSubsurface
	s.Parent = parent
	c.record("create_subsurface %d parent=%d", id, parent)
	return id, nil
}

func (c *Compositor) SetSubsurfacePosition(id platform.SurfaceID, x, y int) {
	if s := c.surface(id, "set_position"); s != nil {
		s.X, s.Y = x, y
	}
}

func (c *Compositor) CreateBuffer(spec platform.BufferSpec) (platform.BufferID, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Stride < spec.Width*4 {
		return 0, fmt.Errorf("invalid buffer %dx%d stride %d", spec.Width, spec.Height, spec.Stride)
	}
	c.nextBuffer++
	c.buffers[c.nextBuffer] = &Buffer{ID: c.nextBuffer, Spec: spec}
	c.record("create_buffer %d %dx%d offset=%d", c.nextBuffer, spec.Width, spec.Height, spec.Offset)
	return c.nextBuffer, nil
}

func (c *Compositor) DestroyBuffer(id platform.BufferID) {
	b, ok := c.buffers[id]
	if !ok {
		c.violate("destroy of unknown buffer %d", id)
		return
	}
	if b.Held {
		c.violate("buffer %d destroyed while held by the compositor", id)
	}
	delete(c.buffers, id)
	c.record("destroy_buffer %d", id)
}

func (c *Compositor) Attach(id platform.SurfaceID, buffer platform.BufferID) {
	s := c.surface(id, "attach")
	if s == nil {
		return
	}
	if buffer != 0 {
		if _, ok := c.buffers[buffer]; !ok {
			c.violate("attach of destroyed buffer %d to surface %d", buffer, id)
			return
		}
	}
	s.Pending = buffer
	s.Attached = true
}

func (c *Compositor) Damage(id platform.SurfaceID, r platform.Rect) {
	if s := c.surface(id, "damage"); s != nil {
		s.Damage = append(s.Damage, r)
	}
}

func (c *Compositor) SetBufferScale(id platform.SurfaceID, scale int) {
	if s := c.surface(id, "set_buffer_scale"); s != nil {
		s.Scale = scale
	}
}

func (c *Compositor) RequestFrame(id platform.SurfaceID) {
	if s := c.surface(id, "frame"); s != nil {
		s.FrameRequested = true
	}
}

func (c *Compositor) Commit(id platform.SurfaceID) {
	s := c.surface(id, "commit")
	if s == nil {
		return
	}
	s.Commits++
	if s.Attached {
		if s.Pending != 0 {
			b, ok := c.buffers[s.Pending]
			if !ok {
				c.violate("commit of destroyed buffer %d on surface %d", s.Pending, id)
			} else {
				b.Held = true
				c.cancelRelease(s.Pending)
			}
		}
		if s.Committed != 0 && s.Committed != s.Pending {
			c.queueRelease(s.Committed)
		}
		s.Committed = s.Pending
		s.Attached = false
	}
	if s.FrameRequested {
		s.FrameRequested = false
		c.frames = append(c.frames, id)
	}
	c.record("commit %d buffer=%d", id, s.Committed)
}

func (c *Compositor) queueRelease(id platform.BufferID) {
	for _, r := range c.releases {
		if r == id {
			return
		}
	}
	c.releases = append(c.releases, id)
}

func (c *Compositor) cancelRelease(id platform.BufferID) {
	for i, r := range c.releases {
		if r == id {
			c.releases = append(c.releases[:i], c.releases[i+1:]...)
			return
		}
	}
}

// TakeReleases returns and clears the queued buffer releases. The buffers
// stop being held at this point.
func (c *Compositor) TakeReleases() []platform.BufferID {
	out := c.releases
	c.releases = nil
	for _, id := range out {
		if b, ok := c.buffers[id]; ok {
			b.Held = false
		}
	}
	return out
}

// TakeFrames returns and clears the surfaces whose frame callback is due.
func (c *Compositor) TakeFrames() []platform.SurfaceID {
	out := c.frames
	c.frames = nil
	return out
}

func (c *Compositor) AckConfigure(id platform.SurfaceID, serial uint32) {
	if s := c.surface(id, "ack_configure"); s != nil {
		s.Acked = append(s.Acked, serial)
		c.record("ack_configure %d serial=%d", id, serial)
	}
}

func (c *Compositor) SetWindowGeometry(id platform.SurfaceID, r platform.Rect) {
	if s := c.surface(id, "set_window_geometry"); s != nil {
		s.Geometry = r
	}
}

func (c *Compositor) SetMinSize(id platform.SurfaceID, w, h int) {
	if s := c.surface(id, "set_min_size"); s != nil {
		s.MinW, s.MinH = w, h
	}
}

func (c *Compositor) SetMaxSize(id platform.SurfaceID, w, h int) {
	if s := c.surface(id, "set_max_size"); s != nil {
		s.MaxW, s.MaxH = w, h
	}
}

func (c *Compositor) SetTitle(id platform.SurfaceID, title string) {
	if s := c.surface(id, "set_title"); s != nil {
		s.Title = title
	}
}

func (c *Compositor) SetAppID(id platform.SurfaceID, appID string) {
	if s := c.surface(id, "set_app_id"); s != nil {
		s.AppID = appID
	}
}

func (c *Compositor) SetMaximized(id platform.SurfaceID, maximized bool) {
	if s := c.surface(id, "set_maximized"); s != nil {
		s.Maximized = maximized
		c.record("set_maximized %d %v", id, maximized)
	}
}

func (c *Compositor) SetFullscreen(id platform.SurfaceID, fullscreen bool, output platform.OutputID) {
	if s := c.surface(id, "set_fullscreen"); s != nil {
		s.Fullscreen = fullscreen
		c.record("set_fullscreen %d %v output=%d", id, fullscreen, output)
	}
}

func (c *Compositor) SetMinimized(id platform.SurfaceID) {
	if s := c.surface(id, "set_minimized"); s != nil {
		s.Minimized = true
		c.record("set_minimized %d", id)
	}
}

func (c *Compositor) Move(id platform.SurfaceID, serial uint32) {
	if s := c.surface(id, "move"); s != nil {
		s.Moves++
		c.record("move %d serial=%d", id, serial)
	}
}

func (c *Compositor) Resize(id platform.SurfaceID, serial uint32, edges platform.Edges) {
	if s := c.surface(id, "resize"); s != nil {
		s.Resizes = append(s.Resizes, edges)
		c.record("resize %d serial=%d edges=%d", id, serial, edges)
	}
}

func (c *Compositor) RequestDecorationMode(id platform.SurfaceID, serverSide bool) {
	if s := c.surface(id, "set_decoration_mode"); s != nil {
		v := serverSide
		s.ServerSide = &v
		c.record("set_decoration_mode %d server_side=%v", id, serverSide)
	}
}

func (c *Compositor) SetCursor(serial uint32, surface platform.SurfaceID, hx, hy int) {
	if surface != 0 && c.surface(surface, "set_cursor") == nil {
		return
	}
	c.cursor = CursorState{Serial: serial, Surface: surface, HotspotX: hx, HotspotY: hy, Sets: c.cursor.Sets + 1}
	c.record("set_cursor serial=%d surface=%d hotspot=%d,%d", serial, surface, hx, hy)
}

// Cursor returns the last cursor set on the pointer.
func (c *Compositor) Cursor() CursorState { return c.cursor }

func (c *Compositor) CreateDataSource(primary bool, mimes []string) (platform.SourceID, error) {
	c.nextSource++
	c.sources[c.nextSource] = &Source{ID: c.nextSource, Primary: primary, Mimes: append([]string(nil), mimes...)}
	c.record("create_data_source %d primary=%v mimes=%s", c.nextSource, primary, strings.Join(mimes, ","))
	return c.nextSource, nil
}

func (c *Compositor) DestroyDataSource(id platform.SourceID) {
	if _, ok := c.sources[id]; !ok {
		c.violate("destroy of unknown data source %d", id)
		return
	}
	delete(c.sources, id)
	c.record("destroy_data_source %d", id)
}

func (c *Compositor) SetSelection(id platform.SourceID, primary bool, serial uint32) {
	for _, s := range c.sources {
		if s.Primary == primary {
			s.Selected = s.ID == id
		}
	}
	c.record("set_selection %d primary=%v serial=%d", id, primary, serial)
}

// SetOfferData registers the bytes an offer serves per mime type.
func (c *Compositor) SetOfferData(id platform.OfferID, data map[string][]byte) {
	c.offerData[id] = data
}

func (c *Compositor) AcceptOffer(id platform.OfferID, serial uint32, mime string) {
	c.offerAccepted[id] = mime
	c.record("accept_offer %d serial=%d mime=%q", id, serial, mime)
}

func (c *Compositor) SetOfferActions(id platform.OfferID, supported, preferred uint32) {
	c.offerActions[id] = [2]uint32{supported, preferred}
	c.record("set_offer_actions %d supported=%d preferred=%d", id, supported, preferred)
}

func (c *Compositor) ReceiveOffer(id platform.OfferID, mime string) (io.ReadCloser, error) {
	c.record("receive_offer %d mime=%q", id, mime)
	data, ok := c.offerData[id]
	if !ok {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	b, ok := data[mime]
	if !ok {
		return nil, fmt.Errorf("offer %d has no data for %q", id, mime)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (c *Compositor) FinishOffer(id platform.OfferID) {
	c.finished = append(c.finished, id)
	c.record("finish_offer %d", id)
}

func (c *Compositor) DestroyOffer(id platform.OfferID) {
	c.destroyed = append(c.destroyed, id)
	c.record("destroy_offer %d", id)
}

func (c *Compositor) RequestActivationToken(surface platform.SurfaceID, requestID uint64, serial uint32, appID string) error {
	if !c.caps.Activation {
		return fmt.Errorf("activation protocol not bound")
	}
	c.tokens = append(c.tokens, TokenRequest{Surface: surface, RequestID: requestID, Serial: serial, AppID: appID})
	c.record("request_activation_token surface=%d request=%d", surface, requestID)
	return nil
}

func (c *Compositor) Activate(id platform.SurfaceID, token string) {
	if s := c.surface(id, "activate"); s != nil {
		s.Activated = append(s.Activated, token)
		c.record("activate %d token=%q", id, token)
	}
}

// Surface returns a copy of a surface's recorded state.
func (c *Compositor) Surface(id platform.SurfaceID) (Surface, bool) {
	s, ok := c.surfaces[id]
	if !ok {
		return Surface{}, false
	}
	return *s, true
}

// Children returns the sub-surfaces of parent in creation order.
func (c *Compositor) Children(parent platform.SurfaceID) []Surface {
	var out []Surface
	for _, s := range c.surfaces {
		if s.Parent == parent {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Buffer returns a copy of a buffer's recorded state.
func (c *Compositor) Buffer(id platform.BufferID) (Buffer, bool) {
	b, ok := c.buffers[id]
	if !ok {
		return Buffer{}, false
	}
	return *b, true
}

// Buffers returns the number of live buffers.
func (c *Compositor) Buffers() int { return len(c.buffers) }

// Sources returns the live data sources.
func (c *Compositor) Sources() []Source {
	var out []Source
	for _, s := range c.sources {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tokens returns the recorded activation token requests.
func (c *Compositor) Tokens() []TokenRequest { return c.tokens }

// FinishedOffers returns the offers finished after a drop.
func (c *Compositor) FinishedOffers() []platform.OfferID { return c.finished }

// DestroyedOffers returns the offers destroyed by the client.
func (c *Compositor) DestroyedOffers() []platform.OfferID { return c.destroyed }

// AcceptedMime returns the mime type last accepted for an offer.
func (c *Compositor) AcceptedMime(id platform.OfferID) string { return c.offerAccepted[id] }

// OfferActions returns the supported and preferred actions set for an offer.
func (c *Compositor) OfferActions(id platform.OfferID) (uint32, uint32) {
	a := c.offerActions[id]
	return a[0], a[1]
}

// Log returns the recorded request log.
func (c *Compositor) Log() []string { return c.log }

// Violations returns the protocol rule violations observed.
func (c *Compositor) Violations() []string { return c.violations }
