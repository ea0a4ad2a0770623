// Package client is the thin library a real anyOS GUI program links
// against to talk to the compositor over spec.md §6's command/event wire
// format. It owns no widgets, no layout, no text rendering — just the
// connection, window lifecycle, and the raw pixel surface, matching §9's
// note that anything richer belongs in a separate toolkit built on top.
//
// Grounded directly on original_source's libs/stdlib/src/ui/window.rs: one
// process-wide connection state (window.rs's CompState), one boxed record
// per live window (WinInfo) holding a raw pointer into its shared-memory
// surface (WinSurface), create_window()/set_title()/move_window() issued
// back to back from one public Create call, and get_event() translating
// the compositor's numeric wire codes into a library-local, stable event
// enum before handing them to the caller.
package client

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianmayclone/anyos-sub003/ipcchan"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
	"github.com/brianmayclone/anyos-sub003/window"
)

// pollInterval and replyTimeout bound the synchronous request/response
// round trips CreateWindow needs. ipcchan.Channel gives each subscription
// exactly one mailbox shared by both directions (see channel.go), so a
// reply to a just-issued command sits in the same queue PollEvent reads;
// awaitOne siphons off anything that isn't the reply it's waiting for and
// hands it to the next PollEvent call instead of discarding it.
const (
	pollInterval = time.Millisecond
	replyTimeout = 500 * time.Millisecond
)

var (
	// ErrMailboxFull is returned when the channel drops a command because
	// the client's own inbound mailbox is already full.
	ErrMailboxFull = errors.New("client: command dropped, mailbox full")
	// ErrTimeout is returned when the compositor never answers a
	// CreateWindow request within replyTimeout.
	ErrTimeout = errors.New("client: compositor did not reply in time")
)

// ShmAllocator is the narrow slice of a kernel backend a client needs to
// own shared-memory window surfaces: allocate a block, map it into this
// process, and release it. kernel.Interface itself omits AllocShm — a real
// client reaches it through a separate kernel syscall outside the
// compositor's own view (see kernel.Interface's doc comment) — so this is
// satisfied structurally by *kernel/ebitenbackend.Backend and
// *kernel/headless.Backend rather than by any interface they declare.
type ShmAllocator interface {
	AllocShm(size int) shm.Handle
	ShmMap(h shm.Handle) ([]byte, error)
	ShmUnmap(h shm.Handle)
}

// Handle is one client process's connection to the compositor: window.rs's
// CompState, minus the "static mut" — a real program owns exactly one of
// these for its process lifetime.
type Handle struct {
	channel   *ipcchan.Channel
	shm       ShmAllocator
	sub       ipcchan.Subscription
	processID uint32

	windows map[window.ID]*Window
	pending []ipcchan.Message // events drained while awaiting a reply

	// theme caches the last THEME_CHANGED broadcast PollEvent observed.
	// spec.md §9's Open Question about a fixed shared-memory theme address
	// is resolved this way: each client library instance keeps its own
	// cached copy rather than reading a well-known address, so Theme
	// reflects only what this process has actually been told.
	theme uint32
}

// Theme returns whether the last THEME_CHANGED broadcast this Handle saw
// named the light theme. Before any such event arrives, it reports false
// (dark), matching window.DefaultTheme.
func (h *Handle) Theme() (light bool) { return h.theme == 1 }

// New wraps an already-established channel subscription as a client
// handle. In-process callers (cmd/democlient, tests) get sub from
// session.Session.Connect; a real cross-process transport would establish
// it over whatever syscall anyOS uses to open the compositor's channel.
func New(channel *ipcchan.Channel, alloc ShmAllocator, sub ipcchan.Subscription, processID uint32) *Handle {
	return &Handle{
		channel:   channel,
		shm:       alloc,
		sub:       sub,
		processID: processID,
		windows:   make(map[window.ID]*Window),
	}
}

// Subscription returns the channel subscription backing h, for a caller
// that needs it to disconnect (session.Session.Disconnect).
func (h *Handle) Subscription() ipcchan.Subscription { return h.sub }

// Window is one client-owned surface: window.rs's WinInfo, minus the
// ext_id address trick window.rs needs to hand C callers a stable
// identity — Go already gives every *Window a stable one.
type Window struct {
	h         *Handle
	id        window.ID
	shmHandle shm.Handle

	Width, Height int32
	// Surface wraps the window's mapped shared-memory block directly — no
	// copy — the same way window.rs's WinSurface keeps a raw pointer into
	// it. Write pixels into it, then call Present.
	Surface *pixel.Buffer
}

// ID returns the compositor-assigned window id, for matching against an
// Event's WindowID field.
func (w *Window) ID() window.ID { return w.id }

func (h *Handle) sendFireAndForget(msg ipcchan.Message) error {
	if !h.channel.EmitTo(h.sub, msg) {
		return ErrMailboxFull
	}
	return nil
}

// awaitOne blocks for a message whose first word is code, stashing
// anything else it reads in h.pending so a later PollEvent still sees it.
// Callers must not run PollEvent concurrently with an outstanding
// awaitOne — matching window.rs's single-threaded CompState, this
// library assumes one goroutine drives a Handle at a time.
func (h *Handle) awaitOne(code uint32) (ipcchan.Message, bool) {
	deadline := time.Now().Add(replyTimeout)
	for time.Now().Before(deadline) {
		msg, ok := h.channel.Poll(h.sub)
		if !ok {
			time.Sleep(pollInterval)
			continue
		}
		if msg[0] == code {
			return msg, true
		}
		h.pending = append(h.pending, msg)
	}
	return ipcchan.Message{}, false
}

// CreateWindow asks the compositor for a new top-level window and maps its
// shared-memory surface, mirroring window.rs's create()/create_ex(): one
// CREATE_WINDOW command carrying position, size and flags inline (this
// port's wire format folds window.rs's separate move_window call into the
// same message), then an inline SET_TITLE if title is non-empty.
func (h *Handle) CreateWindow(title string, x, y, width, height int32, flags window.Flags) (*Window, error) {
	size := int(width) * int(height) * pixel.BytesPerPixel
	shmHandle := h.shm.AllocShm(size)

	msg := ipcchan.Message{
		ipcchan.CmdCreateWindow,
		h.processID,
		uint32(width)<<16 | uint32(height)&0xffff,
		uint32(x)<<16 | uint32(y)&0xffff,
		uint32(shmHandle)<<16 | uint32(flags),
	}
	if err := h.sendFireAndForget(msg); err != nil {
		return nil, err
	}
	resp, ok := h.awaitOne(ipcchan.RespWindowCreated)
	if !ok {
		h.shm.ShmUnmap(shmHandle)
		return nil, ErrTimeout
	}
	id := window.ID(resp[1])

	buf, err := h.shm.ShmMap(shmHandle)
	if err != nil {
		return nil, err
	}

	w := &Window{
		h:         h,
		id:        id,
		shmHandle: shmHandle,
		Width:     width,
		Height:    height,
		Surface:   &pixel.Buffer{Width: int(width), Height: int(height), Pix: buf},
	}
	h.windows[id] = w

	if title != "" {
		if err := w.SetTitle(title); err != nil {
			log.Warn().Err(err).Msg("client: initial SetTitle failed")
		}
	}
	return w, nil
}

// Destroy tears the window down, fire-and-forget the way window.rs's
// destroy() is: the compositor's RespWindowDestroyed reply (if any arrives
// before the mailbox is reused) is simply never waited on, matching that a
// client has nothing useful left to do with a window it just asked to be
// destroyed.
func (w *Window) Destroy() error {
	err := w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdDestroyWindow, uint32(w.id), 0, 0, 0})
	w.h.shm.ShmUnmap(w.shmHandle)
	delete(w.h.windows, w.id)
	return err
}

// SetTitle renames the window. Titles of 8 bytes or less go inline in the
// command words; longer ones go through a throwaway shared-memory block,
// per handler.go's two-mode SET_TITLE encoding.
func (w *Window) SetTitle(title string) error {
	if len(title) <= 8 {
		b, c := encodeInlineTitle(title)
		return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetTitle, uint32(w.id), b, c, 0})
	}
	handle := w.h.shm.AllocShm(len(title))
	buf, err := w.h.shm.ShmMap(handle)
	if err != nil {
		return err
	}
	copy(buf, title)
	w.h.shm.ShmUnmap(handle)
	return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetTitle, uint32(w.id), uint32(handle), 0, uint32(len(title))})
}

func encodeInlineTitle(s string) (b, c uint32) {
	var raw [8]byte
	copy(raw[:], s)
	b = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	c = uint32(raw[4]) | uint32(raw[5])<<8 | uint32(raw[6])<<16 | uint32(raw[7])<<24
	return b, c
}

// Move repositions the window without resizing it.
func (w *Window) Move(x, y int32) error {
	return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetWindowPos, uint32(w.id), uint32(x), uint32(y), 0})
}

// Present pushes the current contents of Surface to the screen.
func (w *Window) Present() error {
	return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdPresent, uint32(w.id), uint32(w.shmHandle), 0, 0})
}

// ResizeSurface allocates a new shared-memory block of the given size and
// hands it to the compositor via RESIZE_SHM, mirroring window.rs's
// resize_shm call — there the compositor's own EVENT_RESIZE triggers this
// automatically inside get_event; this session package never emits that
// event today (no chrome-driven resize-drag exists yet), so callers drive
// it explicitly until that lands.
func (w *Window) ResizeSurface(width, height int32) error {
	size := int(width) * int(height) * pixel.BytesPerPixel
	newHandle := w.h.shm.AllocShm(size)
	buf, err := w.h.shm.ShmMap(newHandle)
	if err != nil {
		return err
	}
	if err := w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdResizeSHM, uint32(w.id), uint32(newHandle), uint32(width), uint32(height)}); err != nil {
		w.h.shm.ShmUnmap(newHandle)
		return err
	}
	w.h.shm.ShmUnmap(w.shmHandle)
	w.shmHandle = newHandle
	w.Width, w.Height = width, height
	w.Surface = &pixel.Buffer{Width: int(width), Height: int(height), Pix: buf}
	return nil
}
