package window

import (
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/shm"
)

// Store owns every Window. Creation, destruction, and z-reorder mutate the
// store itself; everything else mutates a single Window in place.
type Store struct {
	stack   *layer.Stack
	shm     *shm.Table
	windows map[ID]*Window
	focused ID
}

// NewStore creates an empty store backed by the given layer stack and
// shared-memory table.
func NewStore(stack *layer.Stack, shmTable *shm.Table) *Store {
	return &Store{stack: stack, shm: shmTable, windows: make(map[ID]*Window)}
}

// Create allocates a window, adds its layer, and returns its id.
func (s *Store) Create(owner Subscription, ownerProc ProcessID, outer geom.Rect, flags Flags, shmHandle shm.Handle, title string) (ID, error) {
	if outer.Empty() {
		return 0, ErrInvalidWindow
	}
	if _, err := s.shm.Map(shmHandle); err != nil {
		return 0, ErrInvalidWindow
	}

	tier := layer.TierNormal
	if flags.has(AlwaysOnTop) {
		tier = layer.TierAlwaysOnTop
	}
	id := s.stack.Add(outer, true, tier)

	w := &Window{
		ID:                id,
		OwnerSubscription: owner,
		OwnerProcess:      ownerProc,
		OuterRect:         outer,
		Flags:             flags,
		SHM:               shmHandle,
		Title:             title,
		Visible:           true,
	}
	w.ClientSize = geom.Size{Width: w.ClientRect().Width, Height: w.ClientRect().Height}
	s.windows[id] = w
	return id, nil
}

// Get returns the window for id.
func (s *Store) Get(id ID) (*Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

// WindowsOwnedBy returns every window id owned by proc, for the session
// loop's PROCESS_EXITED cleanup sweep (spec §5's failure model).
func (s *Store) WindowsOwnedBy(proc ProcessID) []ID {
	var ids []ID
	for id, w := range s.windows {
		if w.OwnerProcess == proc {
			ids = append(ids, id)
		}
	}
	return ids
}

// Focused returns the currently focused window id, or 0 if none.
func (s *Store) Focused() ID { return s.focused }

// DestroyResult carries what the caller needs to finish tearing a window
// down: the rect to damage, the owner to notify, and the window that
// should receive focus next (0 if none).
type DestroyResult struct {
	OwnerSubscription Subscription
	DamagedRect       geom.Rect
	NewFocus          ID
}

// Destroy unmaps the window's SHM, removes its layer, and — if it held
// focus — moves focus to the topmost visible window.
func (s *Store) Destroy(id ID) (DestroyResult, error) {
	w, ok := s.windows[id]
	if !ok {
		return DestroyResult{}, ErrNotFound
	}
	s.shm.Unmap(w.SHM)
	_ = s.stack.Remove(id)
	delete(s.windows, id)

	res := DestroyResult{OwnerSubscription: w.OwnerSubscription, DamagedRect: w.OuterRect}
	if s.focused == id {
		s.focused = 0
		res.NewFocus = s.topmostVisible()
		s.focused = res.NewFocus
	}
	return res, nil
}

// topmostVisible walks the stack back to front and returns the last
// (front-most) visible, non-minimized window, or 0 if there is none.
func (s *Store) topmostVisible() ID {
	var found ID
	s.stack.IterBackToFront(func(l *layer.Layer) bool {
		if w, ok := s.windows[l.ID]; ok && w.Visible && !w.Minimized {
			found = l.ID
		}
		return true
	})
	return found
}

// FocusResult reports what changed so the caller can repaint chrome and
// re-layout the menu bar.
type FocusResult struct {
	OldFocus ID
	NewFocus ID
}

// Focus raises id within its tier and makes it the focused window.
func (s *Store) Focus(id ID) (FocusResult, error) {
	if _, ok := s.windows[id]; !ok {
		return FocusResult{}, ErrNotFound
	}
	if err := s.stack.Raise(id); err != nil {
		return FocusResult{}, err
	}
	old := s.focused
	s.focused = id
	if old != 0 {
		if w, ok := s.windows[old]; ok {
			w.invalidateChrome()
		}
	}
	s.windows[id].invalidateChrome()
	return FocusResult{OldFocus: old, NewFocus: id}, nil
}

// SetTitle updates a window's title (truncated to 64 bytes per spec) and
// invalidates its chrome cache.
func (s *Store) SetTitle(id ID, title string) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	if len(title) > 64 {
		title = title[:64]
	}
	w.Title = title
	w.invalidateChrome()
	return nil
}

// SetFlags replaces a window's flag set and invalidates its chrome cache.
func (s *Store) SetFlags(id ID, flags Flags) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	w.Flags = flags
	w.invalidateChrome()
	return nil
}

// SetVisible toggles whether a window receives input and composes.
func (s *Store) SetVisible(id ID, visible bool) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	w.Visible = visible
	return nil
}

// SetMinimized toggles whether a window composes while retaining state.
func (s *Store) SetMinimized(id ID, minimized bool) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	w.Minimized = minimized
	return nil
}

// Move repositions a window's outer rect without changing z-order, for
// title-bar drags. It returns the old rect so the caller can damage both.
func (s *Store) Move(id ID, outer geom.Rect) (geom.Rect, error) {
	w, ok := s.windows[id]
	if !ok {
		return geom.Rect{}, ErrNotFound
	}
	old := w.OuterRect
	w.OuterRect = outer
	if err := s.stack.Move(id, outer); err != nil {
		return geom.Rect{}, err
	}
	return old, nil
}

// SetMenuBarDef replaces a window's parsed menu-bar blob.
func (s *Store) SetMenuBarDef(id ID, blob []byte) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	w.MenuBarDef = blob
	return nil
}

// ResizeRequest records resize bookkeeping for id. The store never acts on
// it directly; ApplyPendingResizes does that at the top of the next frame.
func (s *Store) ResizeRequest(id ID, newSHM shm.Handle, newClient geom.Size) error {
	w, ok := s.windows[id]
	if !ok {
		return ErrNotFound
	}
	w.ResizePending = &ResizePending{NewSHM: newSHM, NewClient: newClient}
	return nil
}

// ApplyPendingResizes applies every window's pending resize, if any, and
// returns the set of rects (old and new outer rect per window) that must
// be damaged. A pending resize whose new SHM fails to map is dropped; the
// old mapping remains live.
func (s *Store) ApplyPendingResizes() []geom.Rect {
	var damaged []geom.Rect
	for _, w := range s.windows {
		if w.ResizePending == nil {
			continue
		}
		pending := w.ResizePending
		w.ResizePending = nil

		if _, err := s.shm.Map(pending.NewSHM); err != nil {
			continue
		}
		s.shm.Unmap(w.SHM)
		w.SHM = pending.NewSHM
		w.ClientSize = pending.NewClient

		oldOuter := w.OuterRect
		newOuter := geom.Rect{X: oldOuter.X, Y: oldOuter.Y, Width: pending.NewClient.Width, Height: pending.NewClient.Height}
		if !w.Flags.has(Borderless) {
			newOuter.Height += TitleBarHeight
		}
		w.OuterRect = newOuter
		_ = s.stack.Move(w.ID, newOuter)
		w.invalidateChrome()

		damaged = append(damaged, oldOuter, newOuter)
	}
	return damaged
}
