package offer

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

type fakeComp struct {
	destroyed []platform.OfferID
	finished  []platform.OfferID
	accepted  map[platform.OfferID]string
	actions   map[platform.OfferID][2]uint32
	received  []string

	nextSource platform.SourceID
	sources    map[platform.SourceID][]string
	selections []platform.SourceID
	srcGone    []platform.SourceID
}

func newFakeComp() *fakeComp {
	return &fakeComp{
		accepted: make(map[platform.OfferID]string),
		actions:  make(map[platform.OfferID][2]uint32),
		sources:  make(map[platform.SourceID][]string),
	}
}

func (f *fakeComp) AcceptOffer(o platform.OfferID, _ uint32, mime string) { f.accepted[o] = mime }
func (f *fakeComp) SetOfferActions(o platform.OfferID, supported, preferred uint32) {
	f.actions[o] = [2]uint32{supported, preferred}
}
func (f *fakeComp) ReceiveOffer(o platform.OfferID, mime string) (io.ReadCloser, error) {
	f.received = append(f.received, mime)
	return io.NopCloser(bytes.NewReader([]byte("remote"))), nil
}
func (f *fakeComp) FinishOffer(o platform.OfferID)  { f.finished = append(f.finished, o) }
func (f *fakeComp) DestroyOffer(o platform.OfferID) { f.destroyed = append(f.destroyed, o) }

func (f *fakeComp) CreateDataSource(_ bool, mimes []string) (platform.SourceID, error) {
	f.nextSource++
	f.sources[f.nextSource] = mimes
	return f.nextSource, nil
}
func (f *fakeComp) DestroyDataSource(s platform.SourceID) {
	f.srcGone = append(f.srcGone, s)
	delete(f.sources, s)
}
func (f *fakeComp) SetSelection(s platform.SourceID, _ bool, _ uint32) {
	f.selections = append(f.selections, s)
}

func newRegistry(opts Options) (*Registry, *Sources, *fakeComp) {
	comp := newFakeComp()
	src := NewSources(comp, nil)
	return NewRegistry(comp, src, opts), src, comp
}

func TestCreate_NinthOfferExpiresOldest(t *testing.T) {
	r, _, comp := newRegistry(Options{})
	var handles []Handle
	for i := 1; i <= Capacity; i++ {
		h, err := r.Create(platform.OfferID(i), false)
		if err != nil {
			t.Fatalf("offer %d: %v", i, err)
		}
		handles = append(handles, h)
	}
	if r.Len() != Capacity {
		t.Fatalf("expected %d live offers, got %d", Capacity, r.Len())
	}

	h, err := r.Create(9, false)
	if !wlerr.Is(err, wlerr.KindExhausted) {
		t.Fatalf("expected exhausted diagnostic, got %v", err)
	}
	if r.Len() != Capacity {
		t.Fatalf("expected %d live offers after eviction, got %d", Capacity, r.Len())
	}
	if len(comp.destroyed) != 1 || comp.destroyed[0] != 1 {
		t.Fatalf("expected only offer 1 destroyed, got %v", comp.destroyed)
	}
	if h.Slot != handles[0].Slot {
		t.Fatalf("expected the oldest slot reused, got slot %d", h.Slot)
	}
	if _, err := r.Get(handles[0]); !wlerr.Is(err, wlerr.KindStale) {
		t.Fatalf("evicted handle must be stale, got %v", err)
	}
	for _, old := range handles[1:] {
		if _, err := r.Get(old); err != nil {
			t.Fatalf("surviving handle %+v: %v", old, err)
		}
	}
}

func TestCreate_PrefersFreeThenExpiredSlots(t *testing.T) {
	r, _, _ := newRegistry(Options{})
	a, _ := r.Create(1, false)
	b, _ := r.Create(2, false)
	r.Selection(1, false)
	if err := r.Release(a); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Slot 0 is expired, slots 2.. are free; a free slot wins.
	c, _ := r.Create(3, false)
	if c.Slot != 2 {
		t.Fatalf("expected free slot 2, got %d", c.Slot)
	}
	for i := 4; i <= Capacity+1; i++ {
		r.Create(platform.OfferID(i), false)
	}
	// Offer 9 took the expired slot 0 without evicting anything.
	if r.Len() != Capacity {
		t.Fatalf("expected a full pool, got %d", r.Len())
	}
	o, err := r.Get(b)
	if err != nil || o.ID != 2 {
		t.Fatalf("offer 2 must survive, got %+v %v", o, err)
	}
}

func TestPool_NeverExceedsCapacity(t *testing.T) {
	r, _, _ := newRegistry(Options{})
	for i := 1; i <= 100; i++ {
		r.Create(platform.OfferID(i), i%2 == 0)
		if i%3 == 0 {
			r.Selection(platform.OfferID(i), false)
		}
		if r.Len() > Capacity {
			t.Fatalf("after offer %d: %d live offers", i, r.Len())
		}
	}
}

func TestAddMime_RejectsDuplicatesAndBounds(t *testing.T) {
	r, _, _ := newRegistry(Options{MaxMimes: 2})
	r.Create(1, false)
	if err := r.AddMime(1, "text/plain"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddMime(1, "text/plain"); !errors.Is(err, ErrDuplicateMime) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := r.AddMime(1, "text/uri-list"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddMime(1, "TEXT"); !wlerr.Is(err, wlerr.KindExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if err := r.AddMime(42, "TEXT"); !errors.Is(err, ErrUnknownOffer) {
		t.Fatalf("expected unknown offer, got %v", err)
	}
}

func TestResolveAction(t *testing.T) {
	tests := []struct {
		name           string
		source, target Action
		want           Action
	}{
		{"copy and move source, copy target", ActionCopy | ActionMove, ActionCopy, ActionCopy},
		{"all both sides", ActionCopy | ActionMove | ActionAsk, ActionCopy | ActionMove | ActionAsk, ActionCopy},
		{"move over ask", ActionMove | ActionAsk, ActionMove | ActionAsk, ActionMove},
		{"ask only", ActionAsk, ActionCopy | ActionAsk, ActionAsk},
		{"disjoint", ActionMove, ActionCopy, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAction(tt.source, tt.target); got != tt.want {
				t.Fatalf("ResolveAction(%v, %v) = %v, want %v", tt.source, tt.target, got, tt.want)
			}
		})
	}
}

func TestDragAndDrop_Scenario(t *testing.T) {
	r, _, comp := newRegistry(Options{})
	r.Create(5, false)
	r.AddMime(5, "text/plain")
	r.AddMime(5, "text/uri-list")
	r.SetSourceActions(5, ActionCopy|ActionMove)

	h, err := r.Enter(5, 77, 1, 10, 20)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	mime, err := r.DropMime(h)
	if err != nil || mime != "text/uri-list" {
		t.Fatalf("expected text/uri-list, got %q %v", mime, err)
	}
	if err := r.Accept(h, mime); err != nil {
		t.Fatalf("accept: %v", err)
	}
	action, err := r.ResolveAction(h, ActionCopy)
	if err != nil || action != ActionCopy {
		t.Fatalf("expected copy, got %v %v", action, err)
	}
	if comp.actions[5] != [2]uint32{uint32(ActionCopy), uint32(ActionCopy)} {
		t.Fatalf("unexpected set_actions %v", comp.actions[5])
	}
	r.ConfirmAction(5, ActionCopy)

	dropped, err := r.Drop()
	if err != nil || dropped != h {
		t.Fatalf("drop: %+v %v", dropped, err)
	}
	r.Leave()
	rc, err := r.Receive(h, mime)
	if err != nil {
		t.Fatalf("receive after leave of a dropped offer: %v", err)
	}
	rc.Close()
	if err := r.Release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(comp.finished) != 1 || comp.finished[0] != 5 {
		t.Fatalf("expected finish for offer 5, got %v", comp.finished)
	}
	if _, err := r.Receive(h, mime); !wlerr.Is(err, wlerr.KindStale) || !errors.Is(err, wlerr.ErrExpiredOffer) {
		t.Fatalf("expected stale expired-offer error, got %v", err)
	}
}

func TestLeave_ExpiresUndroppedOffer(t *testing.T) {
	r, _, comp := newRegistry(Options{})
	r.Create(5, false)
	r.AddMime(5, "text/plain")
	h, _ := r.Enter(5, 1, 1, 0, 0)
	r.Leave()
	if _, err := r.Receive(h, "text/plain"); !wlerr.Is(err, wlerr.KindStale) {
		t.Fatalf("expected stale error after leave, got %v", err)
	}
	if len(comp.destroyed) != 1 {
		t.Fatalf("expected offer destroyed on leave")
	}
}

func TestReceive_Validation(t *testing.T) {
	r, _, _ := newRegistry(Options{})
	h, _ := r.Create(1, false)
	r.AddMime(1, "text/plain")
	if _, err := r.Receive(h, "text/plain"); !errors.Is(err, ErrNotFinalized) {
		t.Fatalf("expected not-finalized error, got %v", err)
	}
	r.Selection(1, false)
	if _, err := r.Receive(h, "image/png"); !errors.Is(err, ErrMimeNotOffered) {
		t.Fatalf("expected mime error, got %v", err)
	}
	rc, err := r.Receive(h, "text/plain")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "remote" {
		t.Fatalf("unexpected data %q", b)
	}
}

func TestSelection_ReplacesPrevious(t *testing.T) {
	r, _, comp := newRegistry(Options{})
	r.Create(1, false)
	first, _, _ := r.Selection(1, false)
	r.Create(2, true)
	r.Selection(2, true)
	r.Create(3, false)
	r.Selection(3, false)

	if _, err := r.Get(first); err == nil {
		t.Fatalf("replaced selection offer must expire")
	}
	if h, ok := r.Current(TypePrimarySelection); !ok {
		t.Fatalf("primary selection must survive a clipboard change")
	} else if o, _ := r.Get(h); o.ID != 2 {
		t.Fatalf("unexpected primary offer %d", o.ID)
	}
	if _, ok, _ := r.Selection(0, false); ok {
		t.Fatalf("clearing selection returns no handle")
	}
	if _, ok := r.Current(TypeClipboard); ok {
		t.Fatalf("clipboard must be empty after clear")
	}
	if len(comp.destroyed) != 2 {
		t.Fatalf("expected offers 1 and 3 destroyed, got %v", comp.destroyed)
	}
}

func TestSelfOffer_FastPathOnlyForLiveSource(t *testing.T) {
	r, src, comp := newRegistry(Options{FastPath: true})
	s, err := src.Set(false, 10, map[string][]byte{"text/plain": []byte("local")})
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	r.Create(1, false)
	r.AddMime(1, "text/plain")
	r.AddMime(1, s.Identity)
	h, _, _ := r.Selection(1, false)
	o, _ := r.Get(h)
	if !o.SelfOffer || o.HasMime(s.Identity) {
		t.Fatalf("expected self offer without listing the identity, got %+v", o)
	}
	rc, err := r.Receive(h, "text/plain")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "local" || len(comp.received) != 0 {
		t.Fatalf("expected local fast path, got %q with %d pipe reads", b, len(comp.received))
	}

	// A newer local source makes the old identity stale; the external path
	// must be used even though the offer was flagged as a self offer.
	if _, err := src.Set(false, 11, map[string][]byte{"text/plain": []byte("newer")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rc, err = r.Receive(h, "text/plain")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	b, _ = io.ReadAll(rc)
	if string(b) != "remote" {
		t.Fatalf("stale identity must use the external path, got %q", b)
	}
}

func TestSelfOffer_DisabledFastPathUsesCompositor(t *testing.T) {
	r, src, comp := newRegistry(Options{})
	s, _ := src.Set(false, 1, map[string][]byte{"text/plain": []byte("local")})
	r.Create(1, false)
	r.AddMime(1, "text/plain")
	r.AddMime(1, s.Identity)
	h, _, _ := r.Selection(1, false)
	if _, err := r.Receive(h, "text/plain"); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(comp.received) != 1 {
		t.Fatalf("expected compositor read without fast path")
	}
}
