package input

import (
	"errors"
	"time"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/window"
)

// ErrDragInProgress is returned when a second drag is requested while one
// is already active. Per spec §9's resolved open question, overlapping
// drags are rejected rather than silently overwritten.
var ErrDragInProgress = errors.New("input: drag already in progress")

// DragThreshold and DblClickInterval are the constants spec §4.5
// references without pinning a value; resolved in DESIGN.md to match the
// desktop-icon manager's explicit 5px threshold and a conventional
// double-click window.
const (
	DragThreshold    = 5
	DblClickInterval = 400 * time.Millisecond
)

// MenuRouter is implemented by the menu-bar subsystem. The input router
// defers to it whenever a dropdown is open or the cursor is over the menu
// bar band, per spec §4.5 step 1.
type MenuRouter interface {
	DropdownOpen() bool
	HitTestBar(x, y int32) bool
	HandleMove(x, y int32)
	HandleClick(x, y int32, button Button) bool // true if consumed
}

// DesktopRouter is implemented by the desktop-icon manager. Deferred to
// whenever an icon drag is in progress or the background is hit, per spec
// §4.5 steps 2 and the "desktop hit" click rule.
type DesktopRouter interface {
	DragInProgress() bool
	HitTestBackground(x, y int32) bool
	HandleMove(x, y int32)
	HandleClick(x, y int32, button Button) bool // true if consumed
	EndDrag() []geom.Rect
}

// State is the InputState of spec §3: cursor position, held buttons,
// modifiers, and the bookkeeping needed to synthesize double-clicks and
// drags.
type State struct {
	CursorX, CursorY int32
	ButtonsHeld      uint8
	Modifiers        Modifier
	LastClickTime    time.Time
	LastClickTarget  window.ID
	DragOrigin       geom.Rect // zero-area rect whose X,Y is the origin point
}

type windowDrag struct {
	id             window.ID
	origin         geom.Rect
	cursorOriginX  int32
	cursorOriginY  int32
	moving         bool // crossed DragThreshold
}

// MouseTarget describes who should receive a routed mouse event.
type MouseTarget struct {
	WindowID window.ID
	LocalX   int32
	LocalY   int32
}

// Outcome is one routed effect of an input event, for the caller (the
// session loop, eventually via ipcchan) to turn into a client event or a
// chrome/menu side effect.
type Outcome struct {
	Kind     OutcomeKind
	Target   MouseTarget
	KeyBytes []byte
	Button   string // chrome button name: "close", "minimize", "maximize"
	Delta    int32  // scroll delta, OutcomeMouseScroll only
}

// OutcomeKind enumerates what a routed Outcome represents.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeMouseMove
	OutcomeMouseDown
	OutcomeMouseUp
	OutcomeDoubleClick
	OutcomeKey
	OutcomeChromeButton
	OutcomeWindowDragStart
	OutcomeWindowDragMove
	OutcomeWindowDragEnd
	OutcomeMouseScroll
)

// Router turns raw kernel events into routed outcomes plus the damage
// rects any cursor or window movement produced.
type Router struct {
	windows *window.Store
	stack   *layer.Stack
	keymap  *Keymap
	mods    ModifierTracker
	state   State
	screenW int32
	screenH int32

	menu       MenuRouter
	desktop    DesktopRouter
	background layer.ID

	drag *windowDrag
}

// NewRouter creates a router bound to a window store, layer stack, and
// screen bounds. The menu and desktop collaborators may be nil until those
// subsystems are wired in; routing then simply skips those steps.
func NewRouter(windows *window.Store, stack *layer.Stack, keymap *Keymap, screenW, screenH int32) *Router {
	return &Router{windows: windows, stack: stack, keymap: keymap, screenW: screenW, screenH: screenH}
}

// SetMenuRouter wires in the menu-bar subsystem.
func (r *Router) SetMenuRouter(m MenuRouter) { r.menu = m }

// SetDesktopRouter wires in the desktop-icon manager.
func (r *Router) SetDesktopRouter(d DesktopRouter) { r.desktop = d }

// SetBackgroundLayer records which layer id is the screen-covering
// background (wallpaper+icons) layer per spec §4.3, so button-down hit
// testing can tell a desktop hit from a window hit even though both are
// ordinary TopHit results.
func (r *Router) SetBackgroundLayer(id layer.ID) { r.background = id }

// State returns the router's current input state, for callers that need to
// inspect cursor position or held buttons (the cursor subsystem, for one).
func (r *Router) State() State { return r.state }

// Handle processes one raw kernel event and returns the outcomes it
// produced plus any rects it damaged (cursor motion, window drag).
func (r *Router) Handle(ev Event) ([]Outcome, []geom.Rect) {
	switch ev.Type {
	case KeyDown, KeyUp:
		return r.handleKey(ev)
	case MouseMove:
		return r.handleMove(ev.A, ev.B)
	case MouseDown:
		return r.handleButton(Button(ev.A), ev.B, ev.C, true)
	case MouseUp:
		return r.handleButton(Button(ev.A), ev.B, ev.C, false)
	case MouseScroll:
		return r.handleScroll(ev.A)
	}
	return nil, nil
}

// handleScroll routes a scroll delta to whichever window currently sits
// under the cursor, mirroring handleButtonDown's TopHit lookup rather than
// the focused window — scrolling follows the pointer, not focus.
func (r *Router) handleScroll(delta int32) ([]Outcome, []geom.Rect) {
	l := r.stack.TopHit(r.state.CursorX, r.state.CursorY)
	if l == nil || l.ID == r.background {
		return nil, nil
	}
	if _, ok := r.windows.Get(l.ID); !ok {
		return nil, nil
	}
	return []Outcome{{Kind: OutcomeMouseScroll, Target: MouseTarget{WindowID: l.ID}, Delta: delta}}, nil
}

func (r *Router) handleKey(ev Event) ([]Outcome, []geom.Rect) {
	code := Scancode(ev.A)
	down := ev.Type == KeyDown
	if r.mods.HandleKey(code, down) {
		r.state.Modifiers = r.mods.Mask()
		return nil, nil
	}
	if !down {
		return nil, nil
	}
	bytes, ok := r.keymap.Translate(code, r.mods.Mask())
	if !ok {
		return nil, nil
	}
	focused := r.windows.Focused()
	if focused == 0 {
		return nil, nil
	}
	return []Outcome{{Kind: OutcomeKey, Target: MouseTarget{WindowID: focused}, KeyBytes: bytes}}, nil
}

func (r *Router) handleMove(x, y int32) ([]Outcome, []geom.Rect) {
	x = clamp(x, 0, r.screenW-1)
	y = clamp(y, 0, r.screenH-1)
	r.state.CursorX, r.state.CursorY = x, y

	if r.menu != nil && r.menu.DropdownOpen() {
		r.menu.HandleMove(x, y)
		return nil, nil
	}
	if r.desktop != nil && r.desktop.DragInProgress() {
		r.desktop.HandleMove(x, y)
		return nil, nil
	}
	if r.drag != nil {
		return r.updateWindowDrag(x, y)
	}

	l := r.stack.TopHit(x, y)
	if l == nil {
		return nil, nil
	}
	if l.ID == r.background {
		if r.desktop != nil {
			r.desktop.HandleMove(x, y)
		}
		return nil, nil
	}
	return []Outcome{{Kind: OutcomeMouseMove, Target: MouseTarget{
		WindowID: l.ID,
		LocalX:   x - l.Rect.X,
		LocalY:   y - l.Rect.Y,
	}}}, nil
}

func (r *Router) updateWindowDrag(x, y int32) ([]Outcome, []geom.Rect) {
	d := r.drag
	dx, dy := x-d.cursorOriginX, y-d.cursorOriginY
	if !d.moving {
		if dx*dx+dy*dy < DragThreshold*DragThreshold {
			return nil, nil
		}
		d.moving = true
	}
	newRect := d.origin.Translate(dx, dy)
	oldRect, err := r.windows.Move(d.id, newRect)
	if err != nil {
		r.drag = nil
		return nil, nil
	}
	return []Outcome{{Kind: OutcomeWindowDragMove, Target: MouseTarget{WindowID: d.id}}}, []geom.Rect{oldRect, newRect}
}

func (r *Router) handleButton(btn Button, x, y int32, down bool) ([]Outcome, []geom.Rect) {
	if down {
		r.state.ButtonsHeld |= 1 << uint(btn)
	} else {
		r.state.ButtonsHeld &^= 1 << uint(btn)
	}

	if !down {
		return r.handleButtonUp(x, y)
	}
	return r.handleButtonDown(btn, x, y)
}

func (r *Router) handleButtonUp(x, y int32) ([]Outcome, []geom.Rect) {
	if r.drag != nil {
		id := r.drag.id
		r.drag = nil
		return []Outcome{{Kind: OutcomeWindowDragEnd, Target: MouseTarget{WindowID: id}}}, nil
	}
	if r.desktop != nil && r.desktop.DragInProgress() {
		return nil, r.desktop.EndDrag()
	}
	l := r.stack.TopHit(x, y)
	if l == nil || l.ID == r.background {
		return nil, nil
	}
	return []Outcome{{Kind: OutcomeMouseUp, Target: MouseTarget{WindowID: l.ID, LocalX: x - l.Rect.X, LocalY: y - l.Rect.Y}}}, nil
}

func (r *Router) handleButtonDown(btn Button, x, y int32) ([]Outcome, []geom.Rect) {
	if r.menu != nil {
		if r.menu.DropdownOpen() {
			if r.menu.HandleClick(x, y, btn) {
				return nil, nil
			}
			// The click closed the dropdown but landed outside it; fall
			// through so the same click still reaches window/desktop routing.
		} else if r.menu.HitTestBar(x, y) {
			r.menu.HandleClick(x, y, btn)
			return nil, nil
		}
	}
	l := r.stack.TopHit(x, y)
	if l == nil {
		return nil, nil
	}
	if l.ID == r.background {
		if r.desktop != nil && r.desktop.HitTestBackground(x, y) {
			r.desktop.HandleClick(x, y, btn)
		}
		return nil, nil
	}

	outcomes := r.detectDoubleClick(l.ID)

	w, ok := r.windows.Get(l.ID)
	if ok {
		localX, localY := x-l.Rect.X, y-l.Rect.Y
		if w.Flags&window.Borderless == 0 && localY < window.TitleBarHeight {
			if name := window.HitButton(w, localX, localY); name != "" {
				return append(outcomes, Outcome{Kind: OutcomeChromeButton, Target: MouseTarget{WindowID: l.ID}, Button: name}), nil
			}
			if btn == ButtonLeft {
				if err := r.startWindowDrag(l.ID, x, y); err != nil {
					return outcomes, nil
				}
				r.windows.Focus(l.ID)
				return append(outcomes, Outcome{Kind: OutcomeWindowDragStart, Target: MouseTarget{WindowID: l.ID}}), nil
			}
		}
		r.windows.Focus(l.ID)
		return append(outcomes, Outcome{Kind: OutcomeMouseDown, Target: MouseTarget{WindowID: l.ID, LocalX: localX, LocalY: localY}}), nil
	}

	return append(outcomes, Outcome{Kind: OutcomeMouseDown, Target: MouseTarget{WindowID: l.ID, LocalX: x - l.Rect.X, LocalY: y - l.Rect.Y}}), nil
}

func (r *Router) detectDoubleClick(target window.ID) []Outcome {
	now := time.Now()
	isDouble := target == r.state.LastClickTarget && now.Sub(r.state.LastClickTime) < DblClickInterval
	r.state.LastClickTime = now
	r.state.LastClickTarget = target
	if isDouble {
		return []Outcome{{Kind: OutcomeDoubleClick, Target: MouseTarget{WindowID: target}}}
	}
	return nil
}

func (r *Router) startWindowDrag(id window.ID, x, y int32) error {
	if r.drag != nil {
		return ErrDragInProgress
	}
	w, ok := r.windows.Get(id)
	if !ok {
		return window.ErrNotFound
	}
	r.drag = &windowDrag{id: id, origin: w.OuterRect, cursorOriginX: x, cursorOriginY: y}
	r.state.DragOrigin = geom.Rect{X: x, Y: y}
	return nil
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
