// Package compose implements the render thread's per-frame algorithm of
// spec §4.11: acquire the shared lock, apply deferred window resizes, tick
// animations, drain accumulated damage, and walk the layer stack
// back-to-front over each dirty rect copying opaque pixels or alpha-over
// blending translucent ones.
//
// Grounded on video_compositor.go's composite/compositeFullFrame/blendFrame
// lock-acquire -> clear -> iterate-sources -> blend -> signal-vsync shape,
// generalized from "one video source per layer number, full-frame every
// tick" to layer.Stack's dense tier-ordered stack composed only over the
// rects damage.Set actually drained.
package compose

import (
	"sync"
	"time"

	"github.com/brianmayclone/anyos-sub003/damage"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

// FrameInterval is the 16ms pacing target of spec §4.11 step 8, matching
// the teacher's 60Hz COMPOSITOR_REFRESH_INTERVAL.
const FrameInterval = time.Second / 60

// Presenter hands a composed frame to a display backend: a GPU blitter
// issuing one blit per dirty rect, or a CPU memcpy to the primary surface.
// Implemented by the gpu package.
type Presenter interface {
	Present(fb *pixel.Buffer, dirty []geom.Rect) error
}

// ResizeApplier applies windows' deferred resizes at the top of a frame and
// reports the rects that must be damaged as a result. Satisfied by
// *window.Store.
type ResizeApplier interface {
	ApplyPendingResizes() []geom.Rect
}

// Ticker advances one animation to now and reports the rects it dirtied:
// cursor blink, the menu bar's clock-minute rollover, dock bounce.
type Ticker interface {
	Tick(now time.Time) []geom.Rect
}

// Engine runs spec §4.11's frame algorithm over a shared layer stack. mu is
// the big lock the management thread shares (spec §5): the entire compose
// pass runs inside it, so a client can never observe a torn frame.
type Engine struct {
	mu      sync.Locker
	stack   *layer.Stack
	damage  *damage.Set
	fb      *pixel.Buffer
	resize  ResizeApplier
	tickers []Ticker
	present Presenter

	screenW, screenH int
}

// NewEngine creates a render engine over stack for a screenW x screenH
// screen. resize and present may be nil (tests, or a headless run with no
// window store yet). mu must be the same lock the management thread holds
// while mutating the stack.
func NewEngine(mu sync.Locker, stack *layer.Stack, resize ResizeApplier, present Presenter, screenW, screenH int) *Engine {
	return &Engine{
		mu:      mu,
		stack:   stack,
		damage:  damage.NewSet(screenW, screenH),
		fb:      pixel.NewBuffer(screenW, screenH),
		resize:  resize,
		present: present,
		screenW: screenW,
		screenH: screenH,
	}
}

// AddTicker registers an animation to advance every frame.
func (e *Engine) AddTicker(t Ticker) {
	e.tickers = append(e.tickers, t)
}

// Damage marks r dirty for the next frame. Callers must hold mu.
func (e *Engine) Damage(r geom.Rect) {
	e.damage.Mark(r)
}

// DamageAll marks the whole screen dirty, e.g. after a resolution change.
// Callers must hold mu.
func (e *Engine) DamageAll() {
	e.damage.MarkAll()
}

// Resize reallocates the framebuffer and damage tracker for a new screen
// size. Per spec §4.2, a resolution change always produces full damage.
// Callers must hold mu.
func (e *Engine) Resize(w, h int) {
	e.screenW, e.screenH = w, h
	e.fb.Resize(w, h)
	e.damage.Resize(w, h)
}

// Framebuffer returns the composited surface. Valid between RunOnce calls;
// headless presenters and tests read it directly.
func (e *Engine) Framebuffer() *pixel.Buffer { return e.fb }

// RunOnce executes one pass of spec §4.11 steps 1-7: lock, apply resizes,
// tick animations, short-circuit on empty damage, drain damage, compose
// each rect, unlock, present. It returns the rects composed this pass, or
// nil if there was nothing to do. now is threaded through explicitly so
// tests can drive animation ticks deterministically; Run supplies the wall
// clock for the real render thread.
func (e *Engine) RunOnce(now time.Time) []geom.Rect {
	e.mu.Lock()

	if e.resize != nil {
		for _, r := range e.resize.ApplyPendingResizes() {
			e.damage.Mark(r)
		}
	}
	for _, t := range e.tickers {
		for _, r := range t.Tick(now) {
			e.damage.Mark(r)
		}
	}

	if e.damage.IsEmpty() {
		e.mu.Unlock()
		return nil
	}

	rects := e.damage.Drain()
	for _, r := range rects {
		e.composeRect(r)
	}
	e.mu.Unlock()

	if e.present != nil {
		_ = e.present.Present(e.fb, rects)
	}
	return rects
}

// composeRect walks the layer stack back-to-front over one damage rect,
// per spec §4.11 step 6: opaque layers are copied verbatim, translucent
// ones alpha-over blended. A layer whose rect doesn't intersect r is
// skipped entirely, matching the spec's "intersection with zero area skips
// the layer for that rect".
func (e *Engine) composeRect(r geom.Rect) {
	e.stack.IterBackToFront(func(l *layer.Layer) bool {
		if l.Pixels == nil {
			return true
		}
		clip := l.Rect.Intersect(r)
		if clip.Empty() {
			return true
		}
		blendClip(e.fb, l.Rect, clip, l.Pixels, l.Opaque)
		return true
	})
}

// blendClip paints the clip region of a layer into fb. layerRect locates
// src in screen space so clip (itself in screen space) can be translated
// back to src-local coordinates, the same relationship blendStrip uses
// between a video source's frame and the compositor's finalFrame.
func blendClip(fb *pixel.Buffer, layerRect, clip geom.Rect, src *pixel.Buffer, opaque bool) {
	for y := clip.Y; y < clip.Bottom(); y++ {
		srcY := int(y - layerRect.Y)
		for x := clip.X; x < clip.Right(); x++ {
			srcX := int(x - layerRect.X)
			s := src.At(srcX, srcY)
			switch {
			case opaque:
				fb.Set(int(x), int(y), s)
			case s.A() == 0:
				// fully transparent, nothing to do
			case s.A() == 255:
				fb.Set(int(x), int(y), s)
			default:
				fb.Set(int(x), int(y), pixel.Over(fb.At(int(x), int(y)), s))
			}
		}
	}
}

// Run drives the render thread until stop is closed, calling RunOnce at
// most once per FrameInterval (spec §4.11 step 8's 16ms pacing). It always
// sleeps out the remainder of the interval, whether or not a frame was
// actually composed, so an idle screen doesn't spin the CPU.
func (e *Engine) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		start := time.Now()
		e.RunOnce(start)
		if elapsed := time.Since(start); elapsed < FrameInterval {
			time.Sleep(FrameInterval - elapsed)
		}
	}
}
