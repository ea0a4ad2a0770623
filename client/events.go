package client

import (
	"github.com/rs/zerolog/log"

	"github.com/brianmayclone/anyos-sub003/ipcchan"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/window"
)

// EventKind identifies a translated client event. Numbered independently
// of ipcchan's wire codes, the way window.rs's own EVENT_* constants are
// numbered independently of the compositor's EVT_* codes — a client
// program should never need to know the wire format.
type EventKind uint32

const (
	EventKeyDown EventKind = iota + 1
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventMouseScroll
	EventWindowClose
	EventMenuItem
	// EventResize is never produced by this port's session package today
	// (see Window.ResizeSurface's doc comment); it is wired here because
	// ipcchan.EvtResize already exists on the wire and a future
	// chrome-driven resize should not need a second client-side API.
	EventResize
	EventThemeChanged
	EventFontSmoothingChanged
	EventResolutionChanged
)

// Event is one message delivered to a client, already decoded from
// ipcchan's fixed five-word wire format.
type Event struct {
	Kind     EventKind
	WindowID window.ID
	X, Y     int32
	Delta    int32
	KeyBytes []byte
	Width    int32
	Height   int32
	Value    uint32
}

// PollEvent drains one pending message addressed to h, translating it the
// way window.rs's get_event does, and reallocates the owning window's
// surface in place on a resize event before returning. It does not block;
// ok is false when nothing is pending.
func (h *Handle) PollEvent() (Event, bool) {
	var msg ipcchan.Message
	if len(h.pending) > 0 {
		msg, h.pending = h.pending[0], h.pending[1:]
	} else {
		var ok bool
		msg, ok = h.channel.Poll(h.sub)
		if !ok {
			return Event{}, false
		}
	}

	ev := h.translate(msg)
	if ev.Kind == EventThemeChanged {
		h.theme = ev.Value
	}
	if ev.Kind == EventResize {
		if w, ok := h.windows[ev.WindowID]; ok {
			if err := w.reallocateFor(ev.Width, ev.Height); err != nil {
				log.Warn().Err(err).Uint32("window", uint32(ev.WindowID)).Msg("client: resize-event reallocation failed")
			}
		}
	}
	return ev, true
}

// reallocateFor is ResizeSurface's body without the outbound RESIZE_SHM
// command — the compositor already knows the new size, since it is the
// one that told w about it.
func (w *Window) reallocateFor(width, height int32) error {
	size := int(width) * int(height) * 4
	newHandle := w.h.shm.AllocShm(size)
	buf, err := w.h.shm.ShmMap(newHandle)
	if err != nil {
		return err
	}
	w.h.shm.ShmUnmap(w.shmHandle)
	w.shmHandle = newHandle
	w.Width, w.Height = width, height
	w.Surface = &pixel.Buffer{Width: int(width), Height: int(height), Pix: buf}
	return nil
}

func (h *Handle) translate(msg ipcchan.Message) Event {
	switch msg[0] {
	case ipcchan.EvtKeyDown, ipcchan.EvtKeyUp:
		kind := EventKeyDown
		if msg[0] == ipcchan.EvtKeyUp {
			kind = EventKeyUp
		}
		n := msg[2] >> 24
		if n > 3 {
			n = 3
		}
		kb := make([]byte, n)
		for i := range kb {
			kb[i] = byte(msg[2] >> uint(8*i))
		}
		return Event{Kind: kind, WindowID: window.ID(msg[1]), KeyBytes: kb}
	case ipcchan.EvtMouseDown:
		return Event{Kind: EventMouseDown, WindowID: window.ID(msg[1]), X: int32(msg[2]), Y: int32(msg[3])}
	case ipcchan.EvtMouseUp:
		return Event{Kind: EventMouseUp, WindowID: window.ID(msg[1]), X: int32(msg[2]), Y: int32(msg[3])}
	case ipcchan.EvtMouseMove:
		return Event{Kind: EventMouseMove, WindowID: window.ID(msg[1]), X: int32(msg[2]), Y: int32(msg[3])}
	case ipcchan.EvtMouseScroll:
		return Event{Kind: EventMouseScroll, WindowID: window.ID(msg[1]), Delta: int32(msg[2])}
	case ipcchan.EvtWindowClose:
		return Event{Kind: EventWindowClose, WindowID: window.ID(msg[1])}
	case ipcchan.EvtResize:
		return Event{Kind: EventResize, WindowID: window.ID(msg[1]), Width: int32(msg[2]), Height: int32(msg[3])}
	case ipcchan.EvtMenuItem:
		return Event{Kind: EventMenuItem, WindowID: window.ID(msg[1]), Value: msg[2]}
	case ipcchan.EvtThemeChanged:
		return Event{Kind: EventThemeChanged, Value: msg[1]}
	case ipcchan.EvtFontSmoothingChg:
		return Event{Kind: EventFontSmoothingChanged, Value: msg[1]}
	case ipcchan.EvtResolutionChanged:
		return Event{Kind: EventResolutionChanged, Width: int32(msg[1]), Height: int32(msg[2])}
	default:
		return Event{Kind: EventKind(msg[0])}
	}
}
