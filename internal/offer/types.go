// Package offer tracks clipboard, primary selection and drag-and-drop data
// offers in a fixed pool of slots, and the data sources this process offers.
package offer

import (
	"errors"
	"strings"

	"github.com/1broseidon/wlframe/internal/platform"
)

// Capacity is the number of offer slots.
const Capacity = 8

// Type is the role of an offer.
type Type int

const (
	// TypeExpired marks a slot whose offer was destroyed.
	TypeExpired Type = iota
	TypeClipboard
	TypeDragAndDrop
	TypePrimarySelection
	// TypeNew is an offer still receiving mime types, before a selection or
	// enter event gave it a role.
	TypeNew
)

// String returns the string representation of the type.
func (t Type) String() string {
	switch t {
	case TypeExpired:
		return "expired"
	case TypeClipboard:
		return "clipboard"
	case TypeDragAndDrop:
		return "drag-and-drop"
	case TypePrimarySelection:
		return "primary-selection"
	case TypeNew:
		return "new"
	default:
		return "unknown"
	}
}

// Action is a drag-and-drop action set, using the compositor's bit values.
type Action uint32

const (
	ActionNone Action = 0
	ActionCopy Action = 1
	ActionMove Action = 2
	ActionAsk  Action = 4
)

// String returns the action names joined with "|", or "none".
func (a Action) String() string {
	if a == ActionNone {
		return "none"
	}
	var parts []string
	if a&ActionCopy != 0 {
		parts = append(parts, "copy")
	}
	if a&ActionMove != 0 {
		parts = append(parts, "move")
	}
	if a&ActionAsk != 0 {
		parts = append(parts, "ask")
	}
	return strings.Join(parts, "|")
}

// ResolveAction picks the action for a drop from the actions both sides
// support, preferring copy, then move, then ask.
func ResolveAction(source, target Action) Action {
	both := source & target
	for _, a := range []Action{ActionCopy, ActionMove, ActionAsk} {
		if both&a != 0 {
			return a
		}
	}
	return ActionNone
}

// DropMimePreference is the order in which drop mime types are chosen.
var DropMimePreference = []string{
	"text/uri-list",
	"text/plain;charset=utf-8",
	"UTF8_STRING",
	"text/plain",
	"STRING",
	"TEXT",
}

// Handle refers to an offer slot at one generation. A handle outlives its
// offer safely: once the slot is expired or reused the handle no longer
// resolves.
type Handle struct {
	Slot int
	Gen  uint32
}

// Offer is the record of one data offer.
type Offer struct {
	ID            platform.OfferID
	Type          Type
	Slot          int
	Gen           uint32
	Seq           uint64
	SelfOffer     bool
	Primary       bool
	AcceptedMime  string
	SourceActions Action
	DndAction     Action
	Mimes         []string
	// Identity is the source identity advertised by an offer created from
	// this process.
	Identity string

	Surface     platform.SurfaceID
	X, Y        float64
	EnterSerial uint32
	Dropped     bool
	finalized   bool
}

// Finalized reports whether a selection or enter event gave the offer a role.
func (o *Offer) Finalized() bool {
	return o.finalized
}

// HasMime reports whether mime was advertised.
func (o *Offer) HasMime(mime string) bool {
	for _, m := range o.Mimes {
		if m == mime {
			return true
		}
	}
	return false
}

// Handle returns the handle of the offer.
func (o *Offer) Handle() Handle {
	return Handle{Slot: o.Slot, Gen: o.Gen}
}

func (o *Offer) live() bool {
	return o.Type != TypeExpired
}

var (
	// ErrUnknownOffer is returned for events about offers not in the pool,
	// typically ones that were evicted.
	ErrUnknownOffer = errors.New("unknown offer")
	// ErrDuplicateMime is returned when a mime type is advertised twice.
	ErrDuplicateMime = errors.New("mime type already advertised")
	// ErrMimeNotOffered is returned when reading a mime type the offer lacks.
	ErrMimeNotOffered = errors.New("mime type not offered")
	// ErrNotFinalized is returned when reading an offer before its selection or
	// enter event.
	ErrNotFinalized = errors.New("offer not finalized")
)
