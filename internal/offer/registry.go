package offer

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// DefaultMaxMimes bounds the mime set of one offer.
const DefaultMaxMimes = 32

// OfferCompositor is the part of the compositor that handles offers.
type OfferCompositor interface {
	AcceptOffer(offer platform.OfferID, serial uint32, mime string)
	SetOfferActions(offer platform.OfferID, supported, preferred uint32)
	ReceiveOffer(offer platform.OfferID, mime string) (io.ReadCloser, error)
	FinishOffer(offer platform.OfferID)
	DestroyOffer(offer platform.OfferID)
}

// Options configures a Registry.
type Options struct {
	MaxMimes int
	// FastPath serves reads of self offers from the local source instead of
	// a compositor pipe.
	FastPath bool
	Logger   *slog.Logger
}

// Registry is the fixed pool of data offers. It is owned by the dispatch
// loop and not safe for concurrent use.
type Registry struct {
	comp     OfferCompositor
	sources  *Sources
	maxMimes int
	fastPath bool
	logger   *slog.Logger

	slots [Capacity]Offer
	seq   uint64

	// dnd is the slot of the offer currently over one of our surfaces, or -1.
	dnd int
}

// NewRegistry creates an empty registry. sources may be nil, which disables
// self-offer detection.
func NewRegistry(comp OfferCompositor, sources *Sources, opts Options) *Registry {
	if opts.MaxMimes <= 0 {
		opts.MaxMimes = DefaultMaxMimes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Registry{
		comp:     comp,
		sources:  sources,
		maxMimes: opts.MaxMimes,
		fastPath: opts.FastPath,
		logger:   opts.Logger,
		dnd:      -1,
	}
	for i := range r.slots {
		r.slots[i].Slot = i
	}
	return r
}

// Create records a new offer. It takes the lowest free slot, then the
// lowest expired one. When all slots hold live offers the oldest is expired
// to make room and an exhausted error is returned alongside the valid handle.
func (r *Registry) Create(id platform.OfferID, primary bool) (Handle, error) {
	slot := -1
	for i := range r.slots {
		if r.slots[i].ID == 0 && !r.slots[i].live() {
			slot = i
			break
		}
	}
	if slot < 0 {
		for i := range r.slots {
			if !r.slots[i].live() {
				slot = i
				break
			}
		}
	}

	var diag error
	if slot < 0 {
		slot = r.oldest()
		victim := r.slots[slot]
		r.logger.Warn("offer pool full, expiring oldest offer",
			"evicted_offer", victim.ID,
			"evicted_type", victim.Type.String(),
			"offer", id,
		)
		diag = wlerr.Exhausted("create offer",
			fmt.Errorf("all %d offer slots live, expired offer %d", Capacity, victim.ID))
		r.expire(slot)
	}

	r.seq++
	o := &r.slots[slot]
	gen := o.Gen
	*o = Offer{
		ID:      id,
		Type:    TypeNew,
		Slot:    slot,
		Gen:     gen,
		Seq:     r.seq,
		Primary: primary,
	}
	return o.Handle(), diag
}

func (r *Registry) oldest() int {
	best := -1
	for i := range r.slots {
		if !r.slots[i].live() {
			continue
		}
		if best < 0 || r.slots[i].Seq < r.slots[best].Seq {
			best = i
		}
	}
	return best
}

// expire destroys the offer in slot and bumps the slot generation.
func (r *Registry) expire(slot int) {
	o := &r.slots[slot]
	if !o.live() {
		return
	}
	r.comp.DestroyOffer(o.ID)
	o.Type = TypeExpired
	o.Gen++
	o.finalized = false
	if r.dnd == slot {
		r.dnd = -1
	}
}

func (r *Registry) find(id platform.OfferID) (*Offer, error) {
	if id == 0 {
		return nil, ErrUnknownOffer
	}
	for i := range r.slots {
		if r.slots[i].ID == id && r.slots[i].live() {
			return &r.slots[i], nil
		}
	}
	return nil, fmt.Errorf("offer %d: %w", id, ErrUnknownOffer)
}

func (r *Registry) resolve(h Handle) (*Offer, error) {
	if h.Slot < 0 || h.Slot >= Capacity {
		return nil, wlerr.Stale("resolve offer", fmt.Errorf("slot %d out of range", h.Slot))
	}
	o := &r.slots[h.Slot]
	if o.Gen != h.Gen || !o.live() {
		return nil, wlerr.Stale("resolve offer", fmt.Errorf("slot %d generation %d: %w", h.Slot, h.Gen, wlerr.ErrExpiredOffer))
	}
	return o, nil
}

// AddMime appends an advertised mime type. Duplicates are rejected, and so
// is growth beyond the configured bound. The identity type of a local
// source marks the offer as a self offer instead of being listed.
func (r *Registry) AddMime(id platform.OfferID, mime string) error {
	o, err := r.find(id)
	if err != nil {
		return err
	}
	if r.sources != nil && IsIdentity(mime) {
		o.Identity = mime
		o.SelfOffer = r.sources.IsLocalIdentity(mime)
		return nil
	}
	if o.HasMime(mime) {
		return fmt.Errorf("offer %d %q: %w", id, mime, ErrDuplicateMime)
	}
	if len(o.Mimes) >= r.maxMimes {
		return wlerr.Exhausted("add offer mime",
			fmt.Errorf("offer %d already has %d mime types, dropping %q", id, r.maxMimes, mime))
	}
	o.Mimes = append(o.Mimes, mime)
	return nil
}

// SetSourceActions records the actions the drag source supports.
func (r *Registry) SetSourceActions(id platform.OfferID, actions Action) error {
	o, err := r.find(id)
	if err != nil {
		return err
	}
	o.SourceActions = actions
	return nil
}

// Selection makes id the clipboard or primary selection offer and expires
// the previous one. A zero id clears the selection. It returns the handle of
// the new selection offer when there is one.
func (r *Registry) Selection(id platform.OfferID, primary bool) (Handle, bool, error) {
	typ := TypeClipboard
	if primary {
		typ = TypePrimarySelection
	}
	for i := range r.slots {
		if r.slots[i].Type == typ && r.slots[i].ID != id {
			r.expire(i)
		}
	}
	if id == 0 {
		return Handle{}, false, nil
	}
	o, err := r.find(id)
	if err != nil {
		return Handle{}, false, err
	}
	o.Type = typ
	o.Primary = primary
	o.finalized = true
	return o.Handle(), true, nil
}

// Current returns the live offer of the given role.
func (r *Registry) Current(typ Type) (Handle, bool) {
	for i := range r.slots {
		if r.slots[i].Type == typ && r.slots[i].finalized {
			return r.slots[i].Handle(), true
		}
	}
	return Handle{}, false
}

// Enter makes id the drag-and-drop offer over surface. Any previous drag
// offer is expired.
func (r *Registry) Enter(id platform.OfferID, serial uint32, surface platform.SurfaceID, x, y float64) (Handle, error) {
	if r.dnd >= 0 && r.slots[r.dnd].ID != id {
		r.expire(r.dnd)
	}
	o, err := r.find(id)
	if err != nil {
		return Handle{}, err
	}
	o.Type = TypeDragAndDrop
	o.finalized = true
	o.Surface = surface
	o.X, o.Y = x, y
	o.EnterSerial = serial
	r.dnd = o.Slot
	return o.Handle(), nil
}

// Motion updates the position of the current drag.
func (r *Registry) Motion(x, y float64) (Handle, bool) {
	if r.dnd < 0 {
		return Handle{}, false
	}
	o := &r.slots[r.dnd]
	o.X, o.Y = x, y
	return o.Handle(), true
}

// Leave ends the current drag. A dropped offer stays readable until it is
// released.
func (r *Registry) Leave() {
	if r.dnd < 0 {
		return
	}
	slot := r.dnd
	r.dnd = -1
	if !r.slots[slot].Dropped {
		r.expire(slot)
	}
}

// Drop marks the current drag offer dropped and returns it.
func (r *Registry) Drop() (Handle, error) {
	if r.dnd < 0 {
		return Handle{}, fmt.Errorf("drop without drag offer: %w", ErrUnknownOffer)
	}
	o := &r.slots[r.dnd]
	o.Dropped = true
	return o.Handle(), nil
}

// DropMime returns the first advertised type of DropMimePreference.
func (r *Registry) DropMime(h Handle) (string, error) {
	o, err := r.resolve(h)
	if err != nil {
		return "", err
	}
	for _, m := range DropMimePreference {
		if o.HasMime(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("offer %d: no supported drop type: %w", o.ID, ErrMimeNotOffered)
}

// Accept tells the drag source which mime type would be read on drop. An
// empty mime rejects the drag.
func (r *Registry) Accept(h Handle, mime string) error {
	o, err := r.resolve(h)
	if err != nil {
		return err
	}
	if mime != "" && !o.HasMime(mime) {
		return fmt.Errorf("offer %d %q: %w", o.ID, mime, ErrMimeNotOffered)
	}
	o.AcceptedMime = mime
	r.comp.AcceptOffer(o.ID, o.EnterSerial, mime)
	return nil
}

// ResolveAction negotiates the drop action against the actions the target
// accepts and tells the compositor. It returns the preferred action.
func (r *Registry) ResolveAction(h Handle, target Action) (Action, error) {
	o, err := r.resolve(h)
	if err != nil {
		return ActionNone, err
	}
	preferred := ResolveAction(o.SourceActions, target)
	r.comp.SetOfferActions(o.ID, uint32(target), uint32(preferred))
	return preferred, nil
}

// ConfirmAction records the action the compositor selected.
func (r *Registry) ConfirmAction(id platform.OfferID, action Action) error {
	o, err := r.find(id)
	if err != nil {
		return err
	}
	o.DndAction = action
	return nil
}

// Get returns a copy of the offer behind h.
func (r *Registry) Get(h Handle) (Offer, error) {
	o, err := r.resolve(h)
	if err != nil {
		return Offer{}, err
	}
	out := *o
	out.Mimes = append([]string(nil), o.Mimes...)
	return out, nil
}

// Receive opens a reader for mime. The offer must be finalized, not expired,
// and must advertise mime. Self offers are served locally when the fast path
// is enabled and the offer still belongs to the live local source.
func (r *Registry) Receive(h Handle, mime string) (io.ReadCloser, error) {
	o, err := r.resolve(h)
	if err != nil {
		return nil, err
	}
	if !o.finalized {
		return nil, fmt.Errorf("offer %d: %w", o.ID, ErrNotFinalized)
	}
	if !o.HasMime(mime) {
		return nil, fmt.Errorf("offer %d %q: %w", o.ID, mime, ErrMimeNotOffered)
	}
	if r.fastPath && o.SelfOffer && r.sources != nil {
		if data, ok := r.sources.LocalData(o.Identity, mime); ok {
			r.logger.Debug("serving self offer locally", "offer", o.ID, "mime", mime)
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	rc, err := r.comp.ReceiveOffer(o.ID, mime)
	if err != nil {
		return nil, wlerr.Compositor("receive offer", fmt.Errorf("offer %d %q: %w", o.ID, mime, err))
	}
	return rc, nil
}

// Release finishes a completed drop or paste and expires the offer.
func (r *Registry) Release(h Handle) error {
	o, err := r.resolve(h)
	if err != nil {
		return err
	}
	if o.Type == TypeDragAndDrop && o.Dropped && o.AcceptedMime != "" && o.DndAction != ActionNone {
		r.comp.FinishOffer(o.ID)
	}
	r.expire(o.Slot)
	return nil
}

// Destroyed handles an offer torn down outside the registry's control.
func (r *Registry) Destroyed(id platform.OfferID) {
	o, err := r.find(id)
	if err != nil {
		return
	}
	r.expire(o.Slot)
}

// Live returns copies of the live offers in slot order.
func (r *Registry) Live() []Offer {
	var out []Offer
	for i := range r.slots {
		if r.slots[i].live() {
			o := r.slots[i]
			o.Mimes = append([]string(nil), o.Mimes...)
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of live offers.
func (r *Registry) Len() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].live() {
			n++
		}
	}
	return n
}
