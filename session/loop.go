package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianmayclone/anyos-sub003/config"
	"github.com/brianmayclone/anyos-sub003/crashdialog"
	"github.com/brianmayclone/anyos-sub003/desktopicons"
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/ipcchan"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/window"
)

// pollTimeout is the management loop's idle sleep between passes. spec
// §4.12 step 1 calls for a channel wait with a timeout that shortens while
// a login subprocess is pending; loginPollTimeout is that shorter bound.
const (
	pollTimeout      = 16 * time.Millisecond
	loginPollTimeout = 4 * time.Millisecond
)

// maxInputBatch and maxSysEventBatch size the buffers PollInput and
// PollSysEvents drain into each pass.
const (
	maxInputBatch    = 64
	maxSysEventBatch = 16
)

// Run starts the render thread and then drives the management loop of
// spec §4.12 until stop is closed. It returns once the management loop
// exits (always after stop closes; it never exits on its own).
//
// Grounded on original_source main.rs's spawn_render_thread plus its
// caller's own management_loop call — the two-goroutine split stands in
// for the teacher's two pinned-priority OS threads. Go has no portable
// thread-priority API, so the render goroutine is merely started first
// and left to the OS scheduler; §5's "render thread is highest priority"
// is consequently a documented limitation rather than an enforced one.
func (s *Session) Run(stop <-chan struct{}) error {
	if err := s.kernel.RegisterCompositor(); err != nil {
		return err
	}
	s.kernel.SetCritical()

	if s.loginPath != "" {
		s.spawnLogin()
	}

	go s.engine.Run(stop)
	s.manageLoop(stop)
	return nil
}

func (s *Session) spawnLogin() {
	pid, err := s.kernel.Spawn(s.loginPath, nil)
	if err != nil {
		log.Warn().Err(err).Str("path", s.loginPath).Msg("session: failed to spawn login client")
		return
	}
	s.mu.Lock()
	s.loginPID = pid
	s.loginPending = true
	s.mu.Unlock()
}

// manageLoop runs spec §4.12's nine-step pass until stop closes.
func (s *Session) manageLoop(stop <-chan struct{}) {
	inputBuf := make([]input.Event, maxInputBatch)
	sysBuf := make([]kernel.SysEvent, maxSysEventBatch)

	for {
		select {
		case <-stop:
			return
		default:
		}

		timeout := pollTimeout
		s.mu.Lock()
		if s.loginPending {
			timeout = loginPollTimeout
		}
		s.mu.Unlock()

		workDone := false

		if s.checkLoginStatus() {
			workDone = true
		}
		if s.drainInput(inputBuf) {
			workDone = true
		}
		if s.drainCommands() {
			workDone = true
		}
		if s.drainSysEvents(sysBuf) {
			workDone = true
		}
		if s.pollDesktopMounts() {
			workDone = true
		}

		s.mu.Lock()
		logout := s.logoutWanted
		s.logoutWanted = false
		s.mu.Unlock()
		if logout {
			s.performLogout()
			workDone = true
		}

		// Step 9: the render thread free-runs at compose.FrameInterval and
		// self-gates on empty damage (compose.Engine.RunOnce), so there is
		// no separate wake signal to send here — marking damage above
		// already did the job spec §4.12 step 9 describes.
		if !workDone {
			time.Sleep(timeout)
		}
	}
}

// checkLoginStatus implements step 2: poll a pending login subprocess,
// and on a clean exit spawn the dock and autostart programs and reveal
// the menu bar. A nonzero exit respawns login rather than revealing the
// desktop, treating it as a failed authentication attempt.
func (s *Session) checkLoginStatus() bool {
	s.mu.Lock()
	pid := s.loginPID
	pending := s.loginPending
	s.mu.Unlock()
	if !pending {
		return false
	}

	exited, exitCode := s.kernel.TryWaitpid(pid)
	if !exited {
		return false
	}

	s.mu.Lock()
	s.loginPending = false
	s.mu.Unlock()

	if exitCode != 0 {
		log.Warn().Int32("exit_code", exitCode).Msg("session: login client exited abnormally, respawning")
		s.spawnLogin()
		return true
	}

	s.revealDesktop()
	return true
}

// revealDesktop spawns the dock and every autostart program, then shows
// the menu bar and desktop icons, matching spec §4.12 step 2.
func (s *Session) revealDesktop() {
	if s.dockPath != "" {
		s.trackSpawn(s.dockPath, nil)
	}
	paths, err := config.ListAutostart(s.autostartDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", s.autostartDir).Msg("session: failed to list autostart programs")
	}
	for _, path := range paths {
		s.trackSpawn(path, nil)
	}

	s.mu.Lock()
	s.revealed = true
	s.damageAll()
	s.mu.Unlock()
}

// trackSpawn spawns path and records its pid so performLogout can kill it.
func (s *Session) trackSpawn(path string, args []string) {
	pid, err := s.kernel.Spawn(path, args)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("session: failed to spawn autostart program")
		return
	}
	s.mu.Lock()
	s.trackedPIDs[pid] = true
	s.mu.Unlock()
}

// drainInput implements step 3: feed raw kernel input through the router
// under the lock, damaging whatever it reports plus cursor motion.
func (s *Session) drainInput(buf []input.Event) bool {
	n := s.kernel.PollInput(buf)
	if n == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range buf[:n] {
		s.handleRawInputLocked(ev)
	}
	return true
}

func (s *Session) handleRawInputLocked(ev input.Event) {
	if ev.Type == input.MouseMove || ev.Type == input.MouseDown || ev.Type == input.MouseUp {
		if r := s.pointer.Move(s.engine.Framebuffer(), ev.A, ev.B); r != nil {
			for _, rect := range r {
				s.damage(rect)
			}
		}
	}

	outcomes, rects := s.router.Handle(ev)
	for _, r := range rects {
		s.damage(r)
	}
	for _, oc := range outcomes {
		s.applyOutcome(oc)
	}

	if s.touchedDesktop(ev) {
		s.refreshDesktopLayer()
		if l, ok := s.stack.Get(s.background); ok {
			s.damage(l.Rect)
		}
		if action := s.desktop.TakeAction(); action.Kind != desktopicons.ActionNone {
			s.performDesktopAction(action)
		}
	}
}

// touchedDesktop reports whether ev landed on the background layer, so
// the caller knows to re-render desktop icons. Router itself doesn't
// surface this (desktop hits produce no Outcome), so this repeats its own
// small TopHit lookup against the cursor position Router.Handle has just
// recorded for ev.
func (s *Session) touchedDesktop(ev input.Event) bool {
	switch ev.Type {
	case input.MouseMove, input.MouseDown, input.MouseUp:
	default:
		return false
	}
	l := s.stack.TopHit(s.router.State().CursorX, s.router.State().CursorY)
	return l != nil && l.ID == s.background
}

// performDesktopAction carries out a desktop-icon context-menu action.
// ActionEject has no corresponding kernel primitive in §6's table (no
// unmount call is specified), so it is logged only; ActionOpen likewise
// has no specified launcher binary, so it is left as a hook for a future
// file-manager wiring rather than inventing one.
func (s *Session) performDesktopAction(action desktopicons.Action) {
	log.Info().Str("kind", actionKindName(action.Kind)).Str("mount", action.MountPath).Msg("session: desktop icon action")
}

func actionKindName(k desktopicons.ActionKind) string {
	switch k {
	case desktopicons.ActionOpen:
		return "open"
	case desktopicons.ActionEject:
		return "eject"
	default:
		return "none"
	}
}

// applyOutcome turns one routed input.Outcome into the client event or
// chrome/menu side effect it represents. Callers must hold s.mu.
func (s *Session) applyOutcome(oc input.Outcome) {
	switch oc.Kind {
	case input.OutcomeMouseMove:
		s.emitToOwner(oc.Target.WindowID, ipcchan.Message{ipcchan.EvtMouseMove, uint32(oc.Target.WindowID), uint32(oc.Target.LocalX), uint32(oc.Target.LocalY), 0})
	case input.OutcomeMouseDown:
		s.emitToOwner(oc.Target.WindowID, ipcchan.Message{ipcchan.EvtMouseDown, uint32(oc.Target.WindowID), uint32(oc.Target.LocalX), uint32(oc.Target.LocalY), 0})
	case input.OutcomeMouseUp:
		s.emitToOwner(oc.Target.WindowID, ipcchan.Message{ipcchan.EvtMouseUp, uint32(oc.Target.WindowID), uint32(oc.Target.LocalX), uint32(oc.Target.LocalY), 0})
	case input.OutcomeMouseScroll:
		s.emitToOwner(oc.Target.WindowID, ipcchan.Message{ipcchan.EvtMouseScroll, uint32(oc.Target.WindowID), uint32(oc.Delta), 0, 0})
	case input.OutcomeKey:
		s.emitKeyBytes(oc.Target.WindowID, oc.KeyBytes)
	case input.OutcomeDoubleClick:
		// No dedicated wire event exists for a double click in §6's table;
		// client programs detect it themselves from two ordinary
		// mouse-down events, matching how original_source's own window.rs
		// leaves double-click detection to the widget layer.
	case input.OutcomeChromeButton:
		s.applyChromeButton(oc.Target.WindowID, oc.Button)
	case input.OutcomeWindowDragStart, input.OutcomeWindowDragMove, input.OutcomeWindowDragEnd:
		// Chrome-driven window moves change only the window's screen
		// position, never its client-area size, so nothing in a client's
		// own coordinate space changes; §6 defines no MOVED event and none
		// is needed here, matching how SET_WINDOW_POS itself draws no echo.
	}
}

// emitKeyBytes packs up to 3 bytes of a key translation into one event
// word per spec §6's word-oriented wire format, with the byte count in the
// high byte; Router's Keymap returns at most 3 bytes (escape sequences).
func (s *Session) emitKeyBytes(id window.ID, key []byte) {
	if len(key) == 0 {
		return
	}
	var packed uint32
	for i := 0; i < len(key) && i < 3; i++ {
		packed |= uint32(key[i]) << uint(8*i)
	}
	packed |= uint32(len(key)) << 24
	s.emitToOwner(id, ipcchan.Message{ipcchan.EvtKeyDown, uint32(id), packed, 0, 0})
}

func (s *Session) applyChromeButton(id window.ID, button string) {
	switch button {
	case "close":
		s.emitToOwner(id, ipcchan.Message{ipcchan.EvtWindowClose, uint32(id), 0, 0, 0})
	case "minimize":
		if err := s.windows.SetMinimized(id, true); err == nil {
			if w, ok := s.windows.Get(id); ok {
				s.damage(w.OuterRect)
			}
		}
	case "maximize":
		// No saved-rect restore state is specified in §3 for un-maximizing;
		// left as a chrome-only no-op until a client asks for one via
		// SET_WINDOW_POS/RESIZE_SHM itself.
	}
}

// emitToOwner looks up id's owning subscription and sends it msg.
func (s *Session) emitToOwner(id window.ID, msg ipcchan.Message) {
	w, ok := s.windows.Get(id)
	if !ok {
		return
	}
	s.channel.EmitTo(ipcchan.Subscription(w.OwnerSubscription), msg)
}

// drainCommands implements step 4: dispatch every live subscription's
// queued commands through Session's ipcchan.Handler.
func (s *Session) drainCommands() bool {
	h := s.Handler()
	did := false
	for _, sub := range s.Subscriptions() {
		if resp := ipcchan.Dispatch(s.channel, sub, h); len(resp) > 0 {
			did = true
		}
	}
	return did
}

// drainSysEvents implements step 5: process exit and resolution-change
// notifications, under the lock.
func (s *Session) drainSysEvents(buf []kernel.SysEvent) bool {
	n := s.kernel.PollSysEvents(buf)
	if n == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range buf[:n] {
		switch ev.Kind {
		case kernel.ProcessExited:
			s.handleProcessExitedLocked(ev)
		case kernel.ResolutionChanged:
			s.handleResolutionChangedLocked(ev)
		}
	}
	return true
}

// handleProcessExitedLocked implements spec §5's client-crash failure
// model: destroy every window the dead process owned, remove its status
// icons, drop its subscription, and — if the exit looks fatal — show a
// crash dialog.
func (s *Session) handleProcessExitedLocked(ev kernel.SysEvent) {
	delete(s.trackedPIDs, ev.PID)

	proc := window.ProcessID(ev.PID)
	for _, id := range s.windows.WindowsOwnedBy(proc) {
		res, err := s.windows.Destroy(id)
		if err != nil {
			continue
		}
		s.menuBar.RemoveMenu(id)
		s.damage(res.DamagedRect)
		if res.NewFocus != 0 {
			s.menuBar.OnFocusChange(res.NewFocus)
			s.refreshWindowLayer(res.NewFocus)
		}
		s.channel.Broadcast(ipcchan.Message{ipcchan.EvtWindowClosed, uint32(id), ev.PID, 0, 0})
	}
	if removed := s.menuBar.RemoveStatusIconsByOwner(ev.PID); len(removed) > 0 {
		s.damage(statusTrayRect(s.screenW))
	}
	if sub, ok := s.processSub[ev.PID]; ok {
		delete(s.subProcess, sub)
		delete(s.processSub, ev.PID)
		s.channel.Unsubscribe(sub)
	}

	if crashdialog.IsFatal(ev.ExitCode) {
		s.showCrashDialog(ev.PID, ev.ExitCode)
	}
}

func (s *Session) showCrashDialog(pid uint32, exitCode int32) {
	var report crashdialog.Report
	if blob, err := s.kernel.CrashReport(pid); err == nil {
		if r, err := crashdialog.DecodeReport(blob, pid, exitCode); err == nil {
			report = r
		} else {
			report = crashdialog.FallbackReport(pid, exitCode)
		}
	} else {
		report = crashdialog.FallbackReport(pid, exitCode)
	}
	_, rect := s.crashes.Show(report)
	s.damage(rect)
}

// handleResolutionChangedLocked implements spec §4.2/testable property 5:
// full damage, a resized background layer, and an outgoing broadcast.
// Windows keep their logical outer rects; nothing about them is resized.
func (s *Session) handleResolutionChangedLocked(ev kernel.SysEvent) {
	s.screenW, s.screenH = int32(ev.Width), int32(ev.Height)
	s.shared.SetResolution(ev.Width, ev.Height)
	s.engine.Resize(ev.Width, ev.Height)
	s.menuBar.SetScreenWidth(int32(ev.Width))

	// A resolution change has no surviving source image to rescale from
	// (only the already-scaled buffer), so the wallpaper reverts to the
	// solid fallback color until the client resends SET_WALLPAPER.
	s.wallpaper.Resize(int(ev.Width), int(ev.Height))
	pixel.Fill(s.wallpaper, defaultWallpaperColor)
	if _, ok := s.stack.Get(s.background); ok {
		_ = s.stack.Move(s.background, geom.Rect{Width: uint32(ev.Width), Height: uint32(ev.Height)})
	}
	s.refreshDesktopLayer()

	s.damageAll()
	_ = config.SaveResolution(s.confPath, ev.Width, ev.Height)
	s.channel.Broadcast(ipcchan.Message{ipcchan.EvtResolutionChanged, uint32(ev.Width), uint32(ev.Height), 0, 0})
}

// pollDesktopMounts implements step 6.
func (s *Session) pollDesktopMounts() bool {
	s.mu.Lock()
	due := time.Since(s.lastMountPoll) >= mountPollInterval
	s.mu.Unlock()
	if !due {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMountPoll = time.Now()
	rects, err := s.desktop.PollMounts(s.kernel)
	if err != nil {
		log.Warn().Err(err).Msg("session: failed to poll mounts")
		return false
	}
	if len(rects) == 0 {
		return false
	}
	s.refreshDesktopLayer()
	for _, r := range rects {
		s.damage(r)
	}
	return true
}

// RequestLogout arms the logout sequence for the next management pass.
// Spec §6's command table names no wire code for logout, so this is the
// programmatic trigger a session-manager-style client or host program
// calls instead of a fabricated command code.
func (s *Session) RequestLogout() {
	s.mu.Lock()
	s.logoutWanted = true
	s.mu.Unlock()
}

// performLogout implements spec §4.12 step 8 / testable property 6: kill
// every tracked service pid, destroy all client windows and their menus,
// drop connected clients' status icons, hide the menu bar and desktop, and
// respawn login.
func (s *Session) performLogout() {
	s.mu.Lock()
	pids := make([]uint32, 0, len(s.trackedPIDs))
	for pid := range s.trackedPIDs {
		pids = append(pids, pid)
	}
	s.mu.Unlock()

	for _, pid := range pids {
		_ = s.kernel.Kill(pid)
	}

	time.Sleep(100 * time.Millisecond) // grace period, spec §8 testable property 6

	s.mu.Lock()
	for _, id := range s.allWindowIDs() {
		if res, err := s.windows.Destroy(id); err == nil {
			s.menuBar.RemoveMenu(id)
			s.damage(res.DamagedRect)
		}
	}
	for sub, pid := range s.subProcess {
		s.menuBar.RemoveStatusIconsByOwner(pid)
		s.channel.Unsubscribe(sub)
	}
	s.subProcess = make(map[ipcchan.Subscription]uint32)
	s.processSub = make(map[uint32]ipcchan.Subscription)
	s.trackedPIDs = make(map[uint32]bool)
	for _, r := range s.crashes.ClearAll() {
		s.damage(r)
	}
	s.revealed = false
	s.damageAll()
	s.mu.Unlock()

	if s.loginPath != "" {
		s.spawnLogin()
	}
}
