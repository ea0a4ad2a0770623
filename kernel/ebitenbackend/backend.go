// Package ebitenbackend is the interactive kernel.Interface: a resizable
// host window showing the compositor's composed frame, with keyboard,
// mouse, and process-lifecycle events fed back in.
//
// Grounded on video_backend_ebiten.go's EbitenOutput: the same
// running/frameBuffer/bufferMutex/vsyncChan shape and the same F11
// fullscreen toggle; unlike the teacher's Start, Run does not wait for the
// first Draw. The teacher's backend is keyboard-only — a retro console
// has no pointing device — so pollMouse below has no teacher original; it
// is written to the same "sample ebiten's polling API once per Update,
// translate into the compositor's own event shape" pattern
// handleKeyboardInput uses for keys.
package ebitenbackend

import (
	"errors"
	"os/exec"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/brianmayclone/anyos-sub003/desktopicons"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
)

// ErrAlreadyRegistered is returned by a second RegisterCompositor call.
var ErrAlreadyRegistered = errors.New("ebitenbackend: compositor already registered")

// ErrNoSuchProcess is returned by Kill/TryWaitpid for an unknown pid.
var ErrNoSuchProcess = errors.New("ebitenbackend: no such process")

type processState struct {
	cmd      *exec.Cmd
	exited   bool
	exitCode int32
}

// Backend is the interactive kernel.Interface. Construct with New, then
// call Run to open the window and pump events until stop is closed.
type Backend struct {
	mu sync.Mutex

	width, height int
	scale         int
	fullscreen    bool
	registered    bool
	running       bool

	image *ebiten.Image
	rgba  []byte

	lastMouseX, lastMouseY int
	mouseInit              bool

	inputQueue []input.Event
	sysQueue   []kernel.SysEvent

	processes map[uint32]*processState
	nextPID   uint32

	shmBlocks map[shm.Handle][]byte
	shmNext   shm.Handle

	mounts     []desktopicons.Mount
	crashBlobs map[uint32][]byte

	vsyncChan chan struct{}
}

// New creates an interactive backend at width x height, scaled 1:1 in a
// windowed (non-fullscreen) frame.
func New(width, height int) *Backend {
	return &Backend{
		width:      width,
		height:     height,
		scale:      1,
		rgba:       make([]byte, width*height*pixel.BytesPerPixel),
		processes:  make(map[uint32]*processState),
		nextPID:    1,
		shmBlocks:  make(map[shm.Handle][]byte),
		crashBlobs: make(map[uint32][]byte),
		vsyncChan:  make(chan struct{}, 1),
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

// CursorTakeover returns ebiten's live cursor position directly; there is
// no separate kernel splash screen to hand ownership over from in this
// rewrite, so the "takeover" is really just the first read.
func (b *Backend) CursorTakeover() (int32, int32) {
	x, y := ebiten.CursorPosition()
	return int32(x), int32(y)
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

// Spawn launches path as a real child process, matching original_source's
// kernel spawn() primitive. Its exit is tracked by a goroutine that queues
// a ProcessExited system event when the process dies, the same
// notification shape TryWaitpid and the crash dialog pipeline both expect.
func (b *Backend) Spawn(path string, args []string) (uint32, error) {
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	pid := b.nextPID
	b.nextPID++
	b.processes[pid] = &processState{cmd: cmd}
	b.mu.Unlock()

	go func() {
		waitErr := cmd.Wait()
		code := int32(0)
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = int32(exitErr.ExitCode())
		} else if waitErr != nil {
			code = -1
		}
		b.mu.Lock()
		if p, ok := b.processes[pid]; ok {
			p.exited = true
			p.exitCode = code
		}
		b.sysQueue = append(b.sysQueue, kernel.SysEvent{Kind: kernel.ProcessExited, PID: pid, ExitCode: code})
		b.mu.Unlock()
	}()
	return pid, nil
}

func (b *Backend) Kill(pid uint32) error {
	b.mu.Lock()
	p, ok := b.processes[pid]
	b.mu.Unlock()
	if !ok {
		return ErrNoSuchProcess
	}
	if p.cmd == nil || p.cmd.Process == nil {
		return ErrNoSuchProcess
	}
	return p.cmd.Process.Kill()
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

func (b *Backend) SetResolution(w, h int) error {
	b.mu.Lock()
	b.width, b.height = w, h
	b.rgba = make([]byte, w*h*pixel.BytesPerPixel)
	b.image = nil
	fullscreen := b.fullscreen
	scale := b.scale
	b.sysQueue = append(b.sysQueue, kernel.SysEvent{Kind: kernel.ResolutionChanged, Width: w, Height: h})
	b.mu.Unlock()

	if !fullscreen {
		ebiten.SetWindowSize(w*scale, h*scale)
	}
	return nil
}

// ListResolutions reports the fixed set of modes this backend's window can
// be set to; a real display-enumeration primitive has no equivalent on a
// host OS ebiten runs atop, so the list is a fixed table: the three modes
// headless.Backend reports plus 1280x720.
func (b *Backend) ListResolutions() []geom.Size {
	return []geom.Size{{Width: 640, Height: 480}, {Width: 800, Height: 600}, {Width: 1024, Height: 768}, {Width: 1280, Height: 720}}
}

func (b *Backend) SetCritical() {
	// Exempting this OS process from an OOM/fault-recovery killer has no
	// meaning on a host OS the compositor is merely a guest process on, so
	// this is a deliberate no-op kept to satisfy the interface.
}

// ListMounts reports anyOS-level mounts, not the host machine's real
// filesystem table — set with SetMounts by the session at startup (from
// config) and whenever a mount event arrives.
func (b *Backend) ListMounts() ([]desktopicons.Mount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]desktopicons.Mount(nil), b.mounts...), nil
}

// SetMounts replaces the mount list ListMounts reports.
func (b *Backend) SetMounts(mounts []desktopicons.Mount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mounts = mounts
}

func (b *Backend) CrashReport(pid uint32) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.crashBlobs[pid]
	if !ok {
		return nil, errors.New("ebitenbackend: no crash report for pid")
	}
	return blob, nil
}

// SetCrashBlob registers the raw crash report bytes CrashReport(pid) will
// return once that process is known to have exited fatally.
func (b *Backend) SetCrashBlob(pid uint32, blob []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crashBlobs[pid] = blob
}

func (b *Backend) ShmMap(h shm.Handle) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.shmBlocks[h]; ok {
		return buf, nil
	}
	return nil, errors.New("ebitenbackend: unknown shm handle")
}

func (b *Backend) ShmUnmap(h shm.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shmBlocks, h)
}

// AllocShm creates a new shm block of size bytes, for a client stub to
// request before issuing RESIZE_SHM.
func (b *Backend) AllocShm(size int) shm.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shmNext++
	h := b.shmNext
	b.shmBlocks[h] = make([]byte, size)
	return h
}

// Present converts the composed frame's dirty rects from ARGB to ebiten's
// RGBA layout. The conversion is restricted to dirty pixels, but Draw still
// uploads the whole rgba slice every frame — ebiten.Image.WritePixels has
// no partial-update form, the same reason UpdateFrame/Draw in the teacher's
// backend always copies the entire frameBuffer regardless of how much of it
// actually changed.
func (b *Backend) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range dirty {
		argbToRGBA(b.rgba, fb, r)
	}
	return nil
}

func argbToRGBA(dst []byte, buf *pixel.Buffer, r geom.Rect) {
	x0, y0 := max(int(r.X), 0), max(int(r.Y), 0)
	x1, y1 := min(int(r.X)+int(r.Width), buf.Width), min(int(r.Y)+int(r.Height), buf.Height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			p := buf.At(x, y)
			off := (y*buf.Width + x) * pixel.BytesPerPixel
			if off+4 > len(dst) {
				continue
			}
			dst[off+0] = p.R()
			dst[off+1] = p.G()
			dst[off+2] = p.B()
			dst[off+3] = p.A()
		}
	}
}

// Run opens the window, starts ebiten's game loop in a goroutine exactly
// as Start does in video_backend_ebiten.go, and blocks until stop is
// closed or the user closes the window.
func (b *Backend) Run(stop <-chan struct{}) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	w, h, scale, fullscreen := b.width, b.height, b.scale, b.fullscreen
	b.mu.Unlock()

	ebiten.SetWindowSize(w*scale, h*scale)
	ebiten.SetWindowTitle("anyOS")
	ebiten.SetWindowResizable(false)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if fullscreen {
		ebiten.SetFullscreen(true)
	}

	done := make(chan error, 1)
	go func() {
		done <- ebiten.RunGame(b)
	}()

	go func() {
		<-stop
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	err := <-done
	if err == ebiten.Termination {
		return nil
	}
	return err
}

func (b *Backend) Close() error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	return nil
}

// Update implements ebiten.Game: it is called once per tick, and is the
// only place this backend reads ebiten's input state, mirroring
// EbitenOutput.Update's F11-toggle-then-handleKeyboardInput shape.
func (b *Backend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()
	if !running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		b.mu.Lock()
		b.fullscreen = !b.fullscreen
		ebiten.SetFullscreen(b.fullscreen)
		if !b.fullscreen {
			ebiten.SetWindowSize(b.width*b.scale, b.height*b.scale)
		}
		b.mu.Unlock()
	}

	b.pollKeyboard()
	b.pollMouse()
	return nil
}

// Draw implements ebiten.Game: it uploads the whole rgba buffer to the
// window image every frame, the same WritePixels-then-DrawImage shape as
// EbitenOutput.Draw, and signals the first-frame-ready vsync the way Start
// waits on before returning.
func (b *Backend) Draw(screen *ebiten.Image) {
	b.mu.Lock()
	if b.image == nil {
		b.image = ebiten.NewImage(b.width, b.height)
	}
	b.image.WritePixels(b.rgba)
	b.mu.Unlock()

	screen.DrawImage(b.image, nil)

	select {
	case b.vsyncChan <- struct{}{}:
	default:
	}
}

func (b *Backend) Layout(_, _ int) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

var keyScancodes = map[ebiten.Key]input.Scancode{
	ebiten.KeyShiftLeft:    input.ScLeftShift,
	ebiten.KeyShiftRight:   input.ScRightShift,
	ebiten.KeyControlLeft:  input.ScLeftCtrl,
	ebiten.KeyControlRight: input.ScRightCtrl,
	ebiten.KeyAltLeft:      input.ScLeftAlt,
	ebiten.KeyAltRight:     input.ScRightAlt,
	ebiten.KeyMetaLeft:     input.ScLeftMeta,
	ebiten.KeyMetaRight:    input.ScRightMeta,
}

// scancodeFor maps an ebiten key to the compositor's own Scancode space.
// The well-known modifier keys get the fixed ScLeft*/ScRight* values
// input.ModifierTracker watches; every other key is numbered by its own
// ebiten.Key value, offset away from that 1000+ modifier range.
func scancodeFor(key ebiten.Key) input.Scancode {
	if sc, ok := keyScancodes[key]; ok {
		return sc
	}
	return input.Scancode(key) + 1
}

var pressedKeysBuf []ebiten.Key
var releasedKeysBuf []ebiten.Key

func (b *Backend) pollKeyboard() {
	pressedKeysBuf = inpututil.AppendJustPressedKeys(pressedKeysBuf[:0])
	for _, k := range pressedKeysBuf {
		b.queueInput(input.Event{Type: input.KeyDown, A: int32(scancodeFor(k))})
	}
	releasedKeysBuf = inpututil.AppendJustReleasedKeys(releasedKeysBuf[:0])
	for _, k := range releasedKeysBuf {
		b.queueInput(input.Event{Type: input.KeyUp, A: int32(scancodeFor(k))})
	}
}

var mouseButtons = []struct {
	ebiten ebiten.MouseButton
	button input.Button
}{
	{ebiten.MouseButtonLeft, input.ButtonLeft},
	{ebiten.MouseButtonRight, input.ButtonRight},
	{ebiten.MouseButtonMiddle, input.ButtonMiddle},
}

// pollMouse has no teacher original — video_backend_ebiten.go never reads a
// pointing device. It samples ebiten's cursor/button/wheel state the same
// way pollKeyboard samples key state, and emits the compositor's own
// Mouse{Down,Up,Move,Scroll} tuples.
func (b *Backend) pollMouse() {
	x, y := ebiten.CursorPosition()
	b.mu.Lock()
	moved := !b.mouseInit || x != b.lastMouseX || y != b.lastMouseY
	b.lastMouseX, b.lastMouseY = x, y
	b.mouseInit = true
	b.mu.Unlock()
	if moved {
		b.queueInput(input.Event{Type: input.MouseMove, A: int32(x), B: int32(y)})
	}

	for _, mb := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(mb.ebiten) {
			b.queueInput(input.Event{Type: input.MouseDown, A: int32(mb.button), B: int32(x), C: int32(y)})
		}
		if inpututil.IsMouseButtonJustReleased(mb.ebiten) {
			b.queueInput(input.Event{Type: input.MouseUp, A: int32(mb.button), B: int32(x), C: int32(y)})
		}
	}

	_, yoff := ebiten.Wheel()
	if yoff != 0 {
		delta := int32(yoff)
		if delta == 0 {
			if yoff > 0 {
				delta = 1
			} else {
				delta = -1
			}
		}
		b.queueInput(input.Event{Type: input.MouseScroll, A: delta})
	}
}

func (b *Backend) queueInput(ev input.Event) {
	b.mu.Lock()
	b.inputQueue = append(b.inputQueue, ev)
	b.mu.Unlock()
}
