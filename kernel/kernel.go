// Package kernel defines the compositor process's entire view of anyOS: the
// "Kernel primitives consumed" table of spec §6, collapsed into one Go
// interface plus two implementations — kernel/ebitenbackend for an
// interactive run, kernel/headless for tests and CI.
//
// Grounded on video_interface.go's VideoOutput/VideoSource split and its
// NewVideoOutput(backend) factory: that file already drew the line between
// "the thing that owns a display and a key handler" and "the thing that
// pushes pixels into it". Interface generalizes the same line from one
// video chip driving one CRT to one compositor exclusively owning the
// framebuffer, the cursor, the input stream, and process control.
package kernel

import (
	"github.com/brianmayclone/anyos-sub003/desktopicons"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
)

// FramebufferInfo mirrors map_framebuffer()'s {addr, w, h, pitch} result.
// There is no raw pointer to hand back in Go, so Width/Height/Pitch are the
// only fields a caller ever needs — the backing store is always the
// *pixel.Buffer a session's compose.Engine already owns.
type FramebufferInfo struct {
	Width, Height, Pitch int
}

// SysEventKind is one of the three system lifecycle notifications
// evt_sys_subscribe delivers, numbered exactly as spec §6 lists them.
type SysEventKind uint32

const (
	ProcessSpawned    SysEventKind = 0x0020
	ProcessExited     SysEventKind = 0x0021
	ResolutionChanged SysEventKind = 0x0040
)

// SysEvent is one delivered system event. Only the fields relevant to Kind
// are populated; the rest are zero.
type SysEvent struct {
	Kind     SysEventKind
	PID      uint32
	ExitCode int32
	Width    int
	Height   int
}

// Interface is the compositor process's entire view of the kernel:
// framebuffer and cursor ownership, nonblocking input and system-event
// polling, process control, display-mode control, shared-memory mapping,
// and crash-report retrieval. A session wires exactly one Interface value
// into window.Store (via shm.Mapper), compose.Engine (via Interface.Present
// satisfying compose.Presenter), desktopicons.Manager (via
// Interface.ListMounts satisfying desktopicons.MountLister), and the
// management loop's event pump.
type Interface interface {
	// RegisterCompositor claims exclusive compositor status. A second call
	// from a different Interface value over the same backend fails.
	RegisterCompositor() error

	MapFramebuffer() (FramebufferInfo, error)

	// CursorTakeover returns the cursor's current position and transfers
	// ownership away from whatever splash screen the kernel showed first.
	CursorTakeover() (x, y int32)

	// PollInput nonblockingly drains up to len(events) pending input
	// events, returning how many were written.
	PollInput(events []input.Event) int

	// PollSysEvents nonblockingly drains pending system lifecycle events.
	PollSysEvents(events []SysEvent) int

	Spawn(path string, args []string) (pid uint32, err error)
	Kill(pid uint32) error
	TryWaitpid(pid uint32) (exited bool, exitCode int32)

	SetResolution(w, h int) error
	ListResolutions() []geom.Size

	// SetCritical exempts this process from OOM and fault-recovery kills.
	SetCritical()

	// ListMounts satisfies desktopicons.MountLister directly.
	ListMounts() ([]desktopicons.Mount, error)

	// CrashReport fetches the kernel's crash report blob for a process
	// that just exited fatally, for crashdialog.DecodeReport to parse.
	CrashReport(pid uint32) ([]byte, error)

	// ShmMap/ShmUnmap satisfy shm.Mapper directly.
	ShmMap(h shm.Handle) ([]byte, error)
	ShmUnmap(h shm.Handle)

	// Present hands a composed frame to the display, satisfying
	// compose.Presenter directly — a kernel backend can run the render
	// loop with no GPU device in between, or a session can put a
	// gpu.VulkanDevice ahead of it and still end here.
	Present(fb *pixel.Buffer, dirty []geom.Rect) error

	// Run blocks pumping the backend's own event loop (ebiten's
	// RunGame, or nothing at all for the headless backend) until stop is
	// closed, or the user closes the window.
	Run(stop <-chan struct{}) error

	Close() error
}
