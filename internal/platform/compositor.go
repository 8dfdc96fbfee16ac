package platform

import "io"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// SurfaceID identifies a compositor surface (main surface, decoration
// sub-surface or cursor surface).
type SurfaceID uint32

// BufferID identifies a compositor buffer. Zero means "no buffer".
type BufferID uint32

// OutputID identifies a compositor output (monitor).
type OutputID uint32

// OfferID identifies a compositor data offer.
type OfferID uint32

// SourceID identifies a locally created data source.
type SourceID uint32

// Rect describes a rectangular region in surface-local coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// BufferFormat is a shared-memory pixel format.
type BufferFormat uint32

const (
	FormatARGB8888 BufferFormat = 0
	FormatXRGB8888 BufferFormat = 1
)

// BufferSpec describes a shared-memory buffer carved out of a pool.
// FD is -1 for buffers that are not backed by a file descriptor.
type BufferSpec struct {
	FD     int
	Offset int
	Width  int
	Height int
	Stride int
	Format BufferFormat
}

// Edges is the resize-edge bitmask used by interactive resize requests.
type Edges uint32

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1
	EdgeBottom Edges = 2
	EdgeLeft   Edges = 4
	EdgeRight  Edges = 8
)

// Capabilities lists the optional protocols the compositor advertised.
type Capabilities struct {
	ServerSideDecorations bool
	Activation            bool
	PrimarySelection      bool
}

// Compositor is the outbound request surface of a compositor connection.
// Global discovery and binding happen outside this package; implementations
// only need to forward each request on the wire.
type Compositor interface {
	Capabilities() Capabilities

	CreateSurface() (SurfaceID, error)
	DestroySurface(surface SurfaceID)
	CreateToplevel(surface SurfaceID) error
	// DestroyToplevel removes the toplevel role so another owner, such as a
	// frame library, can give the surface a new one.
	DestroyToplevel(surface SurfaceID)
	CreateSubsurface(parent SurfaceID) (SurfaceID, error)
	SetSubsurfacePosition(sub SurfaceID, x, y int)

	CreateBuffer(spec BufferSpec) (BufferID, error)
	DestroyBuffer(buffer BufferID)
	Attach(surface SurfaceID, buffer BufferID)
	Damage(surface SurfaceID, r Rect)
	SetBufferScale(surface SurfaceID, scale int)
	RequestFrame(surface SurfaceID)
	Commit(surface SurfaceID)

	AckConfigure(surface SurfaceID, serial uint32)
	SetWindowGeometry(surface SurfaceID, r Rect)
	SetMinSize(surface SurfaceID, width, height int)
	SetMaxSize(surface SurfaceID, width, height int)
	SetTitle(surface SurfaceID, title string)
	SetAppID(surface SurfaceID, appID string)
	SetMaximized(surface SurfaceID, maximized bool)
	SetFullscreen(surface SurfaceID, fullscreen bool, output OutputID)
	SetMinimized(surface SurfaceID)
	Move(surface SurfaceID, serial uint32)
	Resize(surface SurfaceID, serial uint32, edges Edges)
	RequestDecorationMode(surface SurfaceID, serverSide bool)
	SetCursor(serial uint32, surface SurfaceID, hotspotX, hotspotY int)

	CreateDataSource(primary bool, mimes []string) (SourceID, error)
	DestroyDataSource(source SourceID)
	SetSelection(source SourceID, primary bool, serial uint32)

	AcceptOffer(offer OfferID, serial uint32, mime string)
	SetOfferActions(offer OfferID, supported, preferred uint32)
	ReceiveOffer(offer OfferID, mime string) (io.ReadCloser, error)
	FinishOffer(offer OfferID)
	DestroyOffer(offer OfferID)

	RequestActivationToken(surface SurfaceID, requestID uint64, serial uint32, appID string) error
	Activate(surface SurfaceID, token string)
}

// FrameLibrary is an optional decoration library that wraps a surface in a
// frame it decorates itself.
type FrameLibrary interface {
	Decorate(surface SurfaceID, title, appID string) (Frame, error)
}

// Frame is a decorated toplevel handle owned by a FrameLibrary.
type Frame interface {
	Commit(width, height int, serial uint32)
	SetTitle(title string)
	SetAppID(appID string)
	SetMinSize(width, height int)
	SetMaxSize(width, height int)
	SetMaximized(maximized bool)
	SetFullscreen(fullscreen bool)
	SetMinimized()
	Map()
	Destroy()
}
