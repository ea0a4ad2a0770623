package compose

import (
	"sync"
	"testing"
	"time"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

type fakeResizeApplier struct {
	rects []geom.Rect
}

func (f *fakeResizeApplier) ApplyPendingResizes() []geom.Rect {
	r := f.rects
	f.rects = nil
	return r
}

type fakeTicker struct {
	rects []geom.Rect
	calls int
}

func (f *fakeTicker) Tick(now time.Time) []geom.Rect {
	f.calls++
	r := f.rects
	f.rects = nil
	return r
}

type fakePresenter struct {
	fb    *pixel.Buffer
	dirty []geom.Rect
	calls int
}

func (f *fakePresenter) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	f.fb = fb
	f.dirty = dirty
	f.calls++
	return nil
}

func solidLayer(stack *layer.Stack, rect geom.Rect, opaque bool, tier layer.Tier, c pixel.ARGB) layer.ID {
	id := stack.Add(rect, opaque, tier)
	buf := pixel.NewBuffer(int(rect.Width), int(rect.Height))
	pixel.Fill(buf, c)
	_ = stack.SetPixels(id, buf)
	return id
}

func newTestEngine(screenW, screenH int) (*Engine, *layer.Stack, *sync.Mutex) {
	var mu sync.Mutex
	stack := layer.NewStack()
	e := NewEngine(&mu, stack, nil, nil, screenW, screenH)
	return e, stack, &mu
}

func TestFirstFrameComposesFullScreenDamage(t *testing.T) {
	e, stack, _ := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 10, 20, 30))

	rects := e.RunOnce(time.Time{})
	if len(rects) != 1 {
		t.Fatalf("want 1 full-screen damage rect, got %v", rects)
	}
	if got := e.Framebuffer().At(0, 0); got != pixel.NewARGB(255, 10, 20, 30) {
		t.Fatalf("framebuffer not painted: %v", got)
	}
}

func TestSecondFrameShortCircuitsWhenNothingChanged(t *testing.T) {
	e, stack, _ := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 1, 2, 3))

	if rects := e.RunOnce(time.Time{}); len(rects) == 0 {
		t.Fatal("first frame should have composed the initial full damage")
	}
	if rects := e.RunOnce(time.Time{}); rects != nil {
		t.Fatalf("second frame with no new damage should short-circuit, got %v", rects)
	}
}

func TestOpaqueLayerOverwritesBackground(t *testing.T) {
	e, stack, _ := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 255, 0, 0))
	solidLayer(stack, geom.Rect{X: 1, Y: 1, Width: 2, Height: 2}, true, layer.TierNormal, pixel.NewARGB(255, 0, 255, 0))

	e.RunOnce(time.Time{})

	if got := e.Framebuffer().At(1, 1); got != pixel.NewARGB(255, 0, 255, 0) {
		t.Fatalf("opaque top layer should fully overwrite, got %v", got)
	}
	if got := e.Framebuffer().At(0, 0); got != pixel.NewARGB(255, 255, 0, 0) {
		t.Fatalf("background outside the top layer should be untouched, got %v", got)
	}
}

func TestTranslucentLayerAlphaBlends(t *testing.T) {
	e, stack, _ := newTestEngine(2, 2)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))

	id := stack.Add(geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, false, layer.TierNormal)
	buf := pixel.NewBuffer(2, 2)
	pixel.Fill(buf, pixel.NewARGB(128, 255, 255, 255))
	_ = stack.SetPixels(id, buf)

	e.RunOnce(time.Time{})

	got := e.Framebuffer().At(0, 0)
	want := pixel.Over(pixel.NewARGB(255, 0, 0, 0), pixel.NewARGB(128, 255, 255, 255))
	if got != want {
		t.Fatalf("blend mismatch: got %v want %v", got, want)
	}
}

// Damage is tracked in 64x64 tiles, so the screen spans two tiles per axis
// and the far layer sits in a tile the marked rect does not touch.
func TestLayerOutsideDamageRectIsSkipped(t *testing.T) {
	e, stack, mu := newTestEngine(128, 128)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 128, Height: 128}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	e.RunOnce(time.Time{})

	farID := solidLayer(stack, geom.Rect{X: 96, Y: 96, Width: 2, Height: 2}, true, layer.TierNormal, pixel.NewARGB(255, 9, 9, 9))
	_ = farID

	mu.Lock()
	e.Damage(geom.Rect{X: 0, Y: 0, Width: 2, Height: 2})
	mu.Unlock()

	rects := e.RunOnce(time.Time{})
	if len(rects) != 1 {
		t.Fatalf("want exactly the one marked rect, got %v", rects)
	}
	if got := e.Framebuffer().At(97, 97); got != pixel.NewARGB(255, 0, 0, 0) {
		t.Fatalf("layer outside the damaged rect must not be composed, got %v", got)
	}
}

func TestPendingResizesAreAppliedAndDamaged(t *testing.T) {
	e, stack, _ := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	e.RunOnce(time.Time{})

	resize := &fakeResizeApplier{rects: []geom.Rect{{X: 0, Y: 0, Width: 1, Height: 1}}}
	e.resize = resize

	rects := e.RunOnce(time.Time{})
	if len(rects) == 0 {
		t.Fatal("a resize-produced rect should have driven a compose pass")
	}
}

func TestTickerDamageDrivesAFrame(t *testing.T) {
	e, stack, _ := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	e.RunOnce(time.Time{})

	ticker := &fakeTicker{rects: []geom.Rect{{X: 0, Y: 0, Width: 1, Height: 1}}}
	e.AddTicker(ticker)

	if rects := e.RunOnce(time.Time{}); len(rects) == 0 {
		t.Fatal("ticker damage should have produced a compose pass")
	}
	if ticker.calls != 1 {
		t.Fatalf("ticker should be called exactly once per RunOnce, got %d", ticker.calls)
	}
}

func TestPresenterReceivesComposedFrameAndDirtyRects(t *testing.T) {
	var mu sync.Mutex
	stack := layer.NewStack()
	presenter := &fakePresenter{}
	e := NewEngine(&mu, stack, nil, presenter, 4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 5, 6, 7))

	e.RunOnce(time.Time{})

	if presenter.calls != 1 {
		t.Fatalf("Present should be called once, got %d", presenter.calls)
	}
	if presenter.fb != e.Framebuffer() {
		t.Fatal("Present should receive the engine's own framebuffer")
	}
	if len(presenter.dirty) != 1 {
		t.Fatalf("Present should receive the drained damage rects, got %v", presenter.dirty)
	}
}

func TestPresenterNotCalledWhenDamageEmpty(t *testing.T) {
	var mu sync.Mutex
	stack := layer.NewStack()
	presenter := &fakePresenter{}
	e := NewEngine(&mu, stack, nil, presenter, 4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	e.RunOnce(time.Time{})
	presenter.calls = 0

	e.RunOnce(time.Time{})
	if presenter.calls != 0 {
		t.Fatalf("Present should not be called on a short-circuited frame, got %d calls", presenter.calls)
	}
}

func TestResizeReallocatesFramebufferAndMarksFullDamage(t *testing.T) {
	e, stack, mu := newTestEngine(4, 4)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 4, Height: 4}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	e.RunOnce(time.Time{})

	mu.Lock()
	e.Resize(8, 6)
	mu.Unlock()

	if e.Framebuffer().Width != 8 || e.Framebuffer().Height != 6 {
		t.Fatalf("framebuffer should be reallocated to the new size, got %dx%d", e.Framebuffer().Width, e.Framebuffer().Height)
	}
	rects := e.RunOnce(time.Time{})
	if len(rects) != 1 || rects[0].Width != 8 || rects[0].Height != 6 {
		t.Fatalf("resize should mark the whole new screen dirty, got %v", rects)
	}
}

func TestAlwaysOnTopLayersComposeInCreationOrder(t *testing.T) {
	e, stack, _ := newTestEngine(2, 2)
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, true, layer.TierBackground, pixel.NewARGB(255, 0, 0, 0))
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, true, layer.TierAlwaysOnTop, pixel.NewARGB(255, 1, 1, 1))
	solidLayer(stack, geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, true, layer.TierAlwaysOnTop, pixel.NewARGB(255, 2, 2, 2))

	e.RunOnce(time.Time{})

	if got := e.Framebuffer().At(0, 0); got != pixel.NewARGB(255, 2, 2, 2) {
		t.Fatalf("the later always-on-top layer should win, got %v", got)
	}
}
