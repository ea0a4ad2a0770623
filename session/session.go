// Package session implements the Management Loop and its Shared State of
// spec §4.12/§5: the single big-lock object every subsystem package hangs
// off, the login/logout lifecycle, and the glue that turns an ipcchan
// command into the window/menu/desktop/crash-dialog state changes spec §6
// describes.
//
// Grounded directly on original_source's main.rs: Session mirrors its
// top-level Compositor struct (one of everything, one lock), and loop.go's
// control flow follows management_loop/handle_ipc_commands/
// handle_system_events/perform_logout nearly line for line. The goroutine
// split (one for compose.Engine.Run, one for the management loop) stands in
// for the teacher's spawn_render_thread plus its priority-setting comment;
// Go has no portable thread-priority API, so Session just starts the render
// goroutine first and relies on the OS scheduler, a documented limitation
// rather than a silent one.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianmayclone/anyos-sub003/compose"
	"github.com/brianmayclone/anyos-sub003/config"
	"github.com/brianmayclone/anyos-sub003/crashdialog"
	"github.com/brianmayclone/anyos-sub003/cursor"
	"github.com/brianmayclone/anyos-sub003/desktopicons"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/ipcchan"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/menu"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
	"github.com/brianmayclone/anyos-sub003/state"
	"github.com/brianmayclone/anyos-sub003/window"
)

// mountPollInterval mirrors desktopicons' own mountPollInterval constant;
// kept separate since the session loop, not the manager, decides when to
// call PollMounts (spec §4.12 step 6).
const mountPollInterval = 3 * time.Second

// defaultWallpaperColor fills the background layer before any SET_WALLPAPER
// command arrives, matching the teacher's muted slate-blue default video
// surface color rather than leaving the buffer at zero-alpha black.
const defaultWallpaperColor = pixel.ARGB(0xff2b3440)

// Config seeds a Session's subsystems and on-disk state paths.
type Config struct {
	Kernel       kernel.Interface
	ScreenWidth  int32
	ScreenHeight int32

	ConfPath     string // defaults to config.ConfPath
	AutostartDir string // defaults to config.AutostartDir
	IconDir      string // empty uses desktopicons.FallbackLoader
	WallpaperDir string // base dir wallpaper path strings are resolved against, if relative

	// DockPath, if non-empty, is spawned first on reveal, ahead of
	// AutostartDir's entries, matching spec §4.12 step 2's "spawn dock +
	// autostart programs".
	DockPath string

	// LoginPath is spawned once at startup and again after every logout,
	// matching spec §4.12 step 8's "respawn login". Left empty, Run skips
	// the login subprocess entirely (a headless/test configuration).
	LoginPath string
}

// Session is the compositor's entire shared state object: one layer
// stack, one window store, one menu bar, one desktop-icon manager, one
// crash-dialog manager, one cursor, one input router, one compose engine,
// all behind the single big lock spec §5 mandates.
type Session struct {
	mu sync.Mutex

	kernel kernel.Interface

	channel  *ipcchan.Channel
	stack    *layer.Stack
	shmTable *shm.Table
	windows  *window.Store
	menuBar  *menu.Bar
	desktop  *desktopicons.Manager
	crashes  *crashdialog.Manager
	pointer  *cursor.Cursor
	router   *input.Router
	engine   *compose.Engine
	shared   *state.Shared

	confPath     string
	autostartDir string
	wallpaperDir string
	dockPath     string
	loginPath    string

	background layer.ID
	wallpaper  *pixel.Buffer // clean loaded wallpaper, re-composited with icons on every desktop redraw
	theme      window.Theme

	screenW, screenH int32

	trackedPIDs  map[uint32]bool // autostart/dock pids, killed on logout
	loginPID     uint32
	loginPending bool
	revealed     bool // menu bar + desktop shown (post-login)
	logoutWanted bool

	lastMountPoll time.Time

	// subProcess and processSub track the subscription<->process mapping
	// ipcchan.Channel itself doesn't expose (it only counts subscribers,
	// it doesn't let a caller enumerate them). loop.go needs the full set
	// each pass to call ipcchan.Dispatch per live subscription, and
	// handler.go needs the reverse lookup to report a destroyed window's
	// owning process.
	subProcess map[ipcchan.Subscription]uint32
	processSub map[uint32]ipcchan.Subscription
}

// New wires every subsystem package into one Session, ready for Run.
func New(cfg Config) *Session {
	s := &Session{
		kernel:       cfg.Kernel,
		confPath:     cfg.ConfPath,
		autostartDir: cfg.AutostartDir,
		wallpaperDir: cfg.WallpaperDir,
		dockPath:     cfg.DockPath,
		loginPath:    cfg.LoginPath,
		screenW:      cfg.ScreenWidth,
		screenH:      cfg.ScreenHeight,
		trackedPIDs:  make(map[uint32]bool),
		theme:        window.DefaultTheme,
		subProcess:   make(map[ipcchan.Subscription]uint32),
		processSub:   make(map[uint32]ipcchan.Subscription),
	}
	if s.confPath == "" {
		s.confPath = config.ConfPath
	}
	if s.autostartDir == "" {
		s.autostartDir = config.AutostartDir
	}

	settings, err := config.Load(s.confPath)
	if err != nil {
		log.Warn().Err(err).Str("path", s.confPath).Msg("session: failed to load compositor.conf, using defaults")
	}
	screenW, screenH := int(s.screenW), int(s.screenH)
	if settings.HasResolution() {
		screenW, screenH = int(settings.Width), int(settings.Height)
	}
	themeName := state.ThemeDark
	if settings.Theme != "" {
		themeName = settings.Theme
	}
	fontSmoothing := 0
	if settings.HasFontSmoothing() {
		fontSmoothing = settings.FontSmoothing
	}
	s.shared = state.New(themeName, fontSmoothing, screenW, screenH)
	s.screenW, s.screenH = int32(screenW), int32(screenH)
	if themeName == state.ThemeLight {
		s.theme = window.LightTheme
	}

	s.channel = ipcchan.New(256)
	s.stack = layer.NewStack()
	s.shmTable = shm.NewTable(cfg.Kernel)
	s.windows = window.NewStore(s.stack, s.shmTable)
	s.menuBar = menu.NewBar(s.screenW)
	s.crashes = crashdialog.NewManager(s.stack, s.screenW, s.screenH)

	var loader desktopicons.IconLoader
	if cfg.IconDir != "" {
		loader = desktopicons.DiskLoader{IconDir: cfg.IconDir}
	}
	s.desktop = desktopicons.NewManager(s.screenW, loader, s.persistIconPositions)

	arrow, hotX, hotY := cursor.DefaultArrow()
	s.pointer = cursor.New(arrow, hotX, hotY)

	s.background = s.stack.Add(geom.Rect{Width: uint32(s.screenW), Height: uint32(s.screenH)}, true, layer.TierBackground)
	s.wallpaper = pixel.NewBuffer(int(s.screenW), int(s.screenH))
	pixel.Fill(s.wallpaper, defaultWallpaperColor)
	s.stack.SetPixels(s.background, pixel.NewBuffer(int(s.screenW), int(s.screenH)))

	keymap := buildDefaultKeymap()
	s.router = input.NewRouter(s.windows, s.stack, keymap, s.screenW, s.screenH)
	s.router.SetMenuRouter(s.menuBar)
	s.router.SetDesktopRouter(s.desktop)
	s.router.SetBackgroundLayer(s.background)

	s.engine = compose.NewEngine(&s.mu, s.stack, s.windows, s.kernel, screenW, screenH)
	s.engine.AddTicker(tickerFunc(s.tickCursor))

	return s
}

// tickerFunc adapts a plain func(time.Time) []geom.Rect to compose.Ticker.
type tickerFunc func(time.Time) []geom.Rect

func (f tickerFunc) Tick(now time.Time) []geom.Rect { return f(now) }

func (s *Session) tickCursor(now time.Time) []geom.Rect {
	var rects []geom.Rect
	if r := s.pointer.Tick(now); r != nil {
		rects = append(rects, *r)
	}
	return rects
}

// damage marks r dirty on the compose engine. Callers must already hold
// s.mu, matching compose.Engine.Damage's own locking contract.
func (s *Session) damage(r geom.Rect) {
	if r.Empty() {
		return
	}
	s.engine.Damage(r)
}

func (s *Session) damageAll() {
	s.engine.DamageAll()
}

// composeWindowBuffer rebuilds a window's full outer-rect layer buffer
// from its live client SHM pixels plus its cached chrome bitmap. No
// teacher or pack package does this composition directly: window.Store
// caches chrome alone and layer.Stack just holds whatever buffer it's
// given, so PRESENT's "marks damaged; next frame composites from the new
// SHM" (spec §6) requires this session-level glue to actually build the
// layer's pixels before compose.Engine ever sees them.
func (s *Session) composeWindowBuffer(w *window.Window) (*pixel.Buffer, error) {
	outerW, outerH := int(w.OuterRect.Width), int(w.OuterRect.Height)
	buf := pixel.NewBuffer(outerW, outerH)

	clientBuf, err := s.shmTable.Map(w.SHM)
	if err != nil {
		return buf, err
	}
	clientRect := w.ClientRect()
	clientW, clientH := int(w.ClientSize.Width), int(w.ClientSize.Height)
	need := clientW * clientH * pixel.BytesPerPixel
	if need > 0 && need <= len(clientBuf) {
		src := &pixel.Buffer{Width: clientW, Height: clientH, Pix: clientBuf[:need]}
		pixel.CopyInto(buf, int(clientRect.X), int(clientRect.Y), src)
	}

	if !w.Flags.has(window.Borderless) {
		chrome, err := s.windows.Chrome(w.ID, s.theme)
		if err == nil && chrome != nil {
			pixel.CopyInto(buf, 0, 0, chrome)
		}
	}
	return buf, nil
}

// refreshWindowLayer rebuilds and installs a window's layer pixels, for
// every command that changes what a window should show: PRESENT, a resize
// applied by ApplyPendingResizes, a title change, a focus change
// (chrome-only), or a theme change.
func (s *Session) refreshWindowLayer(id window.ID) {
	w, ok := s.windows.Get(id)
	if !ok {
		return
	}
	buf, err := s.composeWindowBuffer(w)
	if err != nil {
		log.Warn().Err(err).Uint32("window", uint32(id)).Msg("session: failed to map client SHM for present")
	}
	s.stack.SetPixels(id, buf)
}

// applyTheme switches the active theme, invalidates every window's chrome
// cache, rebuilds every window layer, and damages the whole screen — the
// "writes to shared readonly DLL page; damages all" effect spec §6's
// SET_THEME row describes, minus the fixed-address page (see
// state.Shared's package doc and DESIGN.md's Open Question resolution).
func (s *Session) applyTheme(name string) {
	s.shared.SetTheme(name)
	if name == state.ThemeLight {
		s.theme = window.LightTheme
	} else {
		s.theme = window.DefaultTheme
	}
	for _, id := range s.allWindowIDs() {
		if w, ok := s.windows.Get(id); ok {
			s.windows.SetFlags(id, w.Flags) // reused purely for its chrome-invalidation side effect
			s.refreshWindowLayer(id)
		}
	}
	s.damageAll()
}

// refreshDesktopLayer recomposites the background layer from the clean
// wallpaper buffer plus the desktop-icon manager's current icon/context-menu
// state. Rendering icons onto a stored-in-place layer buffer (rather than a
// fresh copy of the wallpaper each time) would leave ghost icon pixels
// behind after a drag or mount change, since the layer stack has no
// separate icon plane to clear between draws. Callers must hold s.mu.
func (s *Session) refreshDesktopLayer() {
	buf := pixel.NewBuffer(int(s.screenW), int(s.screenH))
	pixel.CopyInto(buf, 0, 0, s.wallpaper)
	s.desktop.Render(buf)
	s.stack.SetPixels(s.background, buf)
}

func (s *Session) allWindowIDs() []window.ID {
	var ids []window.ID
	s.stack.IterBackToFront(func(l *layer.Layer) bool {
		if _, ok := s.windows.Get(l.ID); ok {
			ids = append(ids, l.ID)
		}
		return true
	})
	return ids
}

// persistIconPositions is desktopicons.Manager's onPersist callback,
// writing the full icon set to the on-disk positions file for the
// currently-applicable uid. anyOS has no multi-user session concept
// surfaced to this package yet, so uid 0 stands in, matching
// desktopicons.PositionsPath's single-file layout.
func (s *Session) persistIconPositions(icons []desktopicons.Icon) {
	if err := desktopicons.SavePositions(desktopicons.PositionsPath, 0, icons); err != nil {
		log.Warn().Err(err).Msg("session: failed to persist desktop icon positions")
	}
}

// RunOnce drives exactly one render-thread frame, for tests and for the
// render goroutine started by Run.
func (s *Session) RunOnce(now time.Time) []geom.Rect {
	return s.engine.RunOnce(now)
}

// Engine exposes the compose engine for callers that want to drive or
// inspect frames directly (tests, a custom render loop).
func (s *Session) Engine() *compose.Engine { return s.engine }

// Channel exposes the event channel so client-facing transport code (a
// real IPC listener, or a test harness) can subscribe processes and hand
// their commands to Dispatch.
func (s *Session) Channel() *ipcchan.Channel { return s.channel }

// ScreenSize reports the session's current resolution.
func (s *Session) ScreenSize() (w, h int32) { return s.screenW, s.screenH }

// Connect subscribes a client process to the event channel and records
// the subscription<->process mapping loop.go and handler.go both rely on.
func (s *Session) Connect(processID uint32) ipcchan.Subscription {
	sub := s.channel.Subscribe(processID)
	s.mu.Lock()
	s.subProcess[sub] = processID
	s.processSub[processID] = sub
	s.mu.Unlock()
	return sub
}

// Disconnect tears down a client's subscription and bookkeeping entry.
func (s *Session) Disconnect(sub ipcchan.Subscription) {
	s.mu.Lock()
	if pid, ok := s.subProcess[sub]; ok {
		delete(s.subProcess, sub)
		delete(s.processSub, pid)
	}
	s.mu.Unlock()
	s.channel.Unsubscribe(sub)
}

// Subscriptions returns a snapshot of every live subscription, for
// loop.go to dispatch against once per pass.
func (s *Session) Subscriptions() []ipcchan.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]ipcchan.Subscription, 0, len(s.subProcess))
	for sub := range s.subProcess {
		subs = append(subs, sub)
	}
	return subs
}
