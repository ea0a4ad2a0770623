// Package layer implements the three-tier z-ordered layer stack of spec
// §3/§4.3: background, windows-and-overlays, and always-on-top. Every
// window is a layer; so are the menu bar, open dropdowns, the desktop-icon
// context menu, and crash dialogs.
//
// Grounded on video_compositor.go's source-list-plus-layer-number model
// (RegisterSource / GetLayer / sort-by-layer), generalized from "one video
// source per layer number" to a dense ordered stack with explicit tiers.
package layer

import (
	"errors"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

// ErrNotFound is returned by operations referencing an unknown layer id.
var ErrNotFound = errors.New("layer: not found")

// Tier groups layers into the three z-order bands spec §4.3 requires.
type Tier int

const (
	TierBackground Tier = iota
	TierNormal
	TierAlwaysOnTop
)

// ID identifies a layer within a Stack.
type ID uint32

// Layer is a general compositable surface: a rectangle with pixels, either
// opaque or alpha-blended.
type Layer struct {
	ID     ID
	Rect   geom.Rect
	Opaque bool
	Tier   Tier
	Pixels *pixel.Buffer
}

// Stack is the ordered back-to-front list of layers. Create one with
// NewStack; the zero value has no layer map and cannot be added to.
type Stack struct {
	nextID ID
	order  []ID // dense total order, back to front
	layers map[ID]*Layer
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{layers: make(map[ID]*Layer), nextID: 1}
}

// Add inserts a new layer at the front (top) of its tier (so it renders
// over earlier same-tier siblings) and returns its id.
func (s *Stack) Add(rect geom.Rect, opaque bool, tier Tier) ID {
	id := s.nextID
	s.nextID++
	s.layers[id] = &Layer{ID: id, Rect: rect, Opaque: opaque, Tier: tier}
	s.insertAtTierFront(id, tier)
	return id
}

// insertAtTierFront places id at the end (front-most position) of its
// tier's span, so same-tier layers stack in creation order, matching how
// the teacher appends new sources to c.sources before sorting by layer
// number.
func (s *Stack) insertAtTierFront(id ID, tier Tier) {
	_, hi := s.tierBounds(tier)
	s.insertAt(hi, id)
}

// tierBounds returns the [lo, hi) index range within s.order currently
// occupied by the given tier. s.order is always tier-sorted (every insert
// goes through insertAt within a tier's span), so this is a single scan.
func (s *Stack) tierBounds(tier Tier) (lo, hi int) {
	lo = len(s.order)
	hi = len(s.order)
	for i, existing := range s.order {
		t := s.layers[existing].Tier
		if t == tier {
			if lo == len(s.order) {
				lo = i
			}
			hi = i + 1
		} else if t > tier && lo == len(s.order) {
			lo, hi = i, i
			break
		}
	}
	return lo, hi
}

func (s *Stack) insertAt(idx int, id ID) {
	s.order = append(s.order, 0)
	copy(s.order[idx+1:], s.order[idx:])
	s.order[idx] = id
}

// Remove deletes a layer from the stack.
func (s *Stack) Remove(id ID) error {
	if _, ok := s.layers[id]; !ok {
		return ErrNotFound
	}
	delete(s.layers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the layer for id.
func (s *Stack) Get(id ID) (*Layer, bool) {
	l, ok := s.layers[id]
	return l, ok
}

// Raise moves id to the front (top) of its own tier. Per spec invariant,
// raise cannot cross a tier boundary.
func (s *Stack) Raise(id ID) error {
	l, ok := s.layers[id]
	if !ok {
		return ErrNotFound
	}
	s.removeFromOrder(id)
	_, hi := s.tierBounds(l.Tier)
	s.insertAt(hi, id)
	return nil
}

// Lower moves id to the back of its own tier.
func (s *Stack) Lower(id ID) error {
	l, ok := s.layers[id]
	if !ok {
		return ErrNotFound
	}
	s.removeFromOrder(id)
	lo, _ := s.tierBounds(l.Tier)
	s.insertAt(lo, id)
	return nil
}

func (s *Stack) removeFromOrder(id ID) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Move repositions a layer's rect without changing z-order.
func (s *Stack) Move(id ID, rect geom.Rect) error {
	l, ok := s.layers[id]
	if !ok {
		return ErrNotFound
	}
	l.Rect = rect
	return nil
}

// SetPixels replaces a layer's backing pixel buffer.
func (s *Stack) SetPixels(id ID, buf *pixel.Buffer) error {
	l, ok := s.layers[id]
	if !ok {
		return ErrNotFound
	}
	l.Pixels = buf
	return nil
}

// IterBackToFront calls fn for every layer from the bottom of the stack
// (background) to the top (always-on-top front), stopping early if fn
// returns false.
func (s *Stack) IterBackToFront(fn func(*Layer) bool) {
	for _, id := range s.order {
		if l, ok := s.layers[id]; ok {
			if !fn(l) {
				return
			}
		}
	}
}

// TopHit returns the topmost layer whose rect contains (x, y), searching
// front-to-back, or nil if none does.
func (s *Stack) TopHit(x, y int32) *Layer {
	for i := len(s.order) - 1; i >= 0; i-- {
		l := s.layers[s.order[i]]
		if l.Rect.Contains(x, y) {
			return l
		}
	}
	return nil
}

// Len returns the number of layers currently in the stack.
func (s *Stack) Len() int { return len(s.order) }
