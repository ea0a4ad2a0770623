package input

import (
	"testing"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/shm"
	"github.com/brianmayclone/anyos-sub003/window"
)

type fakeMapper struct{}

func (fakeMapper) ShmMap(h shm.Handle) ([]byte, error) { return make([]byte, 64), nil }
func (fakeMapper) ShmUnmap(h shm.Handle)               {}

func newTestRouter(t *testing.T) (*Router, *window.Store) {
	t.Helper()
	stack := layer.NewStack()
	store := window.NewStore(stack, shm.NewTable(fakeMapper{}))
	r := NewRouter(store, stack, NewKeymap(), 800, 600)
	return r, store
}

func TestMouseDownOnInteriorFocusesAndReportsLocalCoords(t *testing.T) {
	r, store := newTestRouter(t)
	id, _ := store.Create(1, 1, geom.Rect{X: 10, Y: 10, Width: 100, Height: 100}, 0, 1, "w")

	outcomes, _ := r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 50, C: 80})

	if store.Focused() != id {
		t.Fatalf("focused = %v, want %v", store.Focused(), id)
	}
	var found bool
	for _, o := range outcomes {
		if o.Kind == OutcomeMouseDown && o.Target.WindowID == id {
			found = true
			if o.Target.LocalX != 40 || o.Target.LocalY != 70 {
				t.Fatalf("local coords = (%d,%d), want (40,70)", o.Target.LocalX, o.Target.LocalY)
			}
		}
	}
	if !found {
		t.Fatal("expected an OutcomeMouseDown for the interior click")
	}
}

func TestTitleBarClickStartsDragAfterThreshold(t *testing.T) {
	r, store := newTestRouter(t)
	id, _ := store.Create(1, 1, geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0, 1, "w")

	outcomes, _ := r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 50, C: 5})
	var started bool
	for _, o := range outcomes {
		if o.Kind == OutcomeWindowDragStart {
			started = true
		}
	}
	if !started {
		t.Fatal("clicking the title bar should start a window drag")
	}

	// Below threshold: no move outcome yet.
	outcomes, damage := r.Handle(Event{Type: MouseMove, A: 52, B: 6})
	if len(outcomes) != 0 || len(damage) != 0 {
		t.Fatal("sub-threshold move should not yet move the window")
	}

	// Past threshold: window actually moves.
	outcomes, damage = r.Handle(Event{Type: MouseMove, A: 60, B: 20})
	if len(outcomes) == 0 || len(damage) != 2 {
		t.Fatalf("past-threshold move should report a drag move with old+new damage, got %d outcomes, %d rects", len(outcomes), len(damage))
	}
	w, _ := store.Get(id)
	if w.OuterRect.X != 10 || w.OuterRect.Y != 15 {
		t.Fatalf("window rect after drag = %+v, want origin (10,15)", w.OuterRect)
	}

	outcomes, _ = r.Handle(Event{Type: MouseUp, A: int32(ButtonLeft), B: 60, C: 20})
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeWindowDragEnd {
		t.Fatal("button release should end the drag")
	}
}

func TestSecondDragIsRejectedWhileOneInProgress(t *testing.T) {
	r, store := newTestRouter(t)
	store.Create(1, 1, geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0, 1, "a")
	store.Create(1, 1, geom.Rect{X: 200, Y: 0, Width: 100, Height: 100}, 0, 2, "b")

	r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 50, C: 5})
	if r.drag == nil {
		t.Fatal("first click should have started a drag")
	}
	firstDragID := r.drag.id

	r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 250, C: 5})
	if r.drag.id != firstDragID {
		t.Fatal("a second drag must not replace the first while it is active")
	}
}

func TestDoubleClickDetection(t *testing.T) {
	r, store := newTestRouter(t)
	id, _ := store.Create(1, 1, geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, window.Borderless, 1, "w")

	outcomes, _ := r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 50, C: 50})
	for _, o := range outcomes {
		if o.Kind == OutcomeDoubleClick {
			t.Fatal("first click must not be a double click")
		}
	}
	r.Handle(Event{Type: MouseUp, A: int32(ButtonLeft), B: 50, C: 50})

	outcomes, _ = r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 50, C: 50})
	var double bool
	for _, o := range outcomes {
		if o.Kind == OutcomeDoubleClick && o.Target.WindowID == id {
			double = true
		}
	}
	if !double {
		t.Fatal("second click within the interval on the same target should be a double click")
	}
}

func TestChromeButtonClickReportsCloseButton(t *testing.T) {
	r, store := newTestRouter(t)
	store.Create(1, 1, geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0, 1, "w")

	outcomes, _ := r.Handle(Event{Type: MouseDown, A: int32(ButtonLeft), B: 90, C: 12})
	var gotClose bool
	for _, o := range outcomes {
		if o.Kind == OutcomeChromeButton && o.Button == "close" {
			gotClose = true
		}
	}
	if !gotClose {
		t.Fatalf("clicking the close button's hot spot should report OutcomeChromeButton \"close\", got %+v", outcomes)
	}
}

func TestMouseMoveClampsToScreen(t *testing.T) {
	r, _ := newTestRouter(t)
	r.Handle(Event{Type: MouseMove, A: 10000, B: -50})
	st := r.State()
	if st.CursorX != 799 || st.CursorY != 0 {
		t.Fatalf("clamped cursor = (%d,%d), want (799,0)", st.CursorX, st.CursorY)
	}
}
