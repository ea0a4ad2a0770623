// Package headless implements kernel.Interface entirely in memory, for
// tests, CI, and `cmd/compositor --backend=headless`. It mirrors
// voodoo_vulkan_headless.go's pattern of a same-shaped stand-in with no
// real hardware underneath: every method that would block on a device or
// the OS instead reads and writes plain Go state a test can script with
// Push/Exit.
package headless

import (
	"errors"
	"sync"

	"github.com/brianmayclone/anyos-sub003/desktopicons"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
)

// ErrAlreadyRegistered is returned by a second RegisterCompositor call.
var ErrAlreadyRegistered = errors.New("headless: compositor already registered")

// ErrNoSuchProcess is returned by Kill for an unknown pid.
var ErrNoSuchProcess = errors.New("headless: no such process")

type process struct {
	exited   bool
	exitCode int32
}

// Backend is a headless kernel.Interface. The zero value is not usable;
// construct with New.
type Backend struct {
	mu sync.Mutex

	registered       bool
	width, height    int
	cursorX, cursorY int32

	inputQueue []input.Event
	sysQueue   []kernel.SysEvent

	processes map[uint32]*process
	nextPID   uint32

	shmNext    shm.Handle
	shmBlocks  map[shm.Handle][]byte

	mounts      []desktopicons.Mount
	crashBlobs  map[uint32][]byte

	primary *pixel.Buffer
	critical bool
}

// New creates a headless backend with a width x height framebuffer and no
// mounts, processes, or queued input.
func New(width, height int) *Backend {
	return &Backend{
		width:      width,
		height:     height,
		processes:  make(map[uint32]*process),
		nextPID:    1,
		shmBlocks:  make(map[shm.Handle][]byte),
		crashBlobs: make(map[uint32][]byte),
		primary:    pixel.NewBuffer(width, height),
	}
}

func (b *Backend) RegisterCompositor() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registered {
		return ErrAlreadyRegistered
	}
	b.registered = true
	return nil
}

func (b *Backend) MapFramebuffer() (kernel.FramebufferInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return kernel.FramebufferInfo{Width: b.width, Height: b.height, Pitch: b.width * pixel.BytesPerPixel}, nil
}

func (b *Backend) CursorTakeover() (int32, int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursorX, b.cursorY
}

// PushInput and PushSysEvent let a test or a scripted driver feed synthetic
// events, since there is no real device for PollInput/PollSysEvents to
// read.
func (b *Backend) PushInput(ev input.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputQueue = append(b.inputQueue, ev)
}

func (b *Backend) PushSysEvent(ev kernel.SysEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sysQueue = append(b.sysQueue, ev)
}

// SetCursor moves the simulated cursor, for tests driving CursorTakeover.
func (b *Backend) SetCursor(x, y int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorX, b.cursorY = x, y
}

// SetMounts replaces the mount list ListMounts reports.
func (b *Backend) SetMounts(mounts []desktopicons.Mount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mounts = mounts
}

// SetCrashBlob registers the raw crash report bytes CrashReport(pid)
// returns.
func (b *Backend) SetCrashBlob(pid uint32, blob []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crashBlobs[pid] = blob
}

func (b *Backend) PollInput(events []input.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(events, b.inputQueue)
	b.inputQueue = b.inputQueue[n:]
	return n
}

func (b *Backend) PollSysEvents(events []kernel.SysEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(events, b.sysQueue)
	b.sysQueue = b.sysQueue[n:]
	return n
}

func (b *Backend) Spawn(path string, args []string) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pid := b.nextPID
	b.nextPID++
	b.processes[pid] = &process{}
	return pid, nil
}

func (b *Backend) Kill(pid uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.processes[pid]
	if !ok {
		return ErrNoSuchProcess
	}
	p.exited = true
	p.exitCode = -1
	return nil
}

func (b *Backend) TryWaitpid(pid uint32) (bool, int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.processes[pid]
	if !ok {
		return true, -1
	}
	return p.exited, p.exitCode
}

// Exit lets a test simulate a tracked process exiting on its own, queuing
// the matching ProcessExited system event the way a real kernel would.
func (b *Backend) Exit(pid uint32, code int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.processes[pid]; ok {
		p.exited = true
		p.exitCode = code
	}
	b.sysQueue = append(b.sysQueue, kernel.SysEvent{Kind: kernel.ProcessExited, PID: pid, ExitCode: code})
}

func (b *Backend) SetResolution(w, h int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = w, h
	b.primary.Resize(w, h)
	b.sysQueue = append(b.sysQueue, kernel.SysEvent{Kind: kernel.ResolutionChanged, Width: w, Height: h})
	return nil
}

func (b *Backend) ListResolutions() []geom.Size {
	return []geom.Size{{Width: 640, Height: 480}, {Width: 800, Height: 600}, {Width: 1024, Height: 768}}
}

func (b *Backend) SetCritical() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.critical = true
}

func (b *Backend) ListMounts() ([]desktopicons.Mount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]desktopicons.Mount(nil), b.mounts...), nil
}

func (b *Backend) CrashReport(pid uint32) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.crashBlobs[pid]
	if !ok {
		return nil, errors.New("headless: no crash report for pid")
	}
	return blob, nil
}

func (b *Backend) ShmMap(h shm.Handle) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.shmBlocks[h]; ok {
		return buf, nil
	}
	return nil, errors.New("headless: unknown shm handle")
}

func (b *Backend) ShmUnmap(h shm.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shmBlocks, h)
}

// AllocShm creates a new shm block of size bytes and returns its handle,
// for tests to hand to a client stub before it issues RESIZE_SHM.
func (b *Backend) AllocShm(size int) shm.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shmNext++
	h := b.shmNext
	b.shmBlocks[h] = make([]byte, size)
	return h
}

func (b *Backend) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range dirty {
		pixel.CopyIntoRect(b.primary, fb, r)
	}
	return nil
}

// Snapshot returns the last presented frame, for tests to assert on.
func (b *Backend) Snapshot() *pixel.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.primary
}

// Run blocks until stop is closed; there is no window to pump.
func (b *Backend) Run(stop <-chan struct{}) error {
	<-stop
	return nil
}

func (b *Backend) Close() error { return nil }
