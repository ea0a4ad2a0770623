package session

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/ipcchan"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/menu"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
	"github.com/brianmayclone/anyos-sub003/state"
	"github.com/brianmayclone/anyos-sub003/window"
)

// handler adapts Session to ipcchan.Handler. It exists as a distinct type
// (rather than Session implementing the interface directly) so Session's
// own public surface doesn't advertise Lock/Unlock to unrelated callers.
type handler struct {
	s *Session
}

// Handler returns the ipcchan.Handler view of s, for wiring into
// ipcchan.Dispatch.
func (s *Session) Handler() ipcchan.Handler { return handler{s: s} }

func (handler) IsFast(code uint32) bool {
	switch code {
	case ipcchan.CmdCreateWindow, ipcchan.CmdSetTitle, ipcchan.CmdSetMenu,
		ipcchan.CmdStatusIcon, ipcchan.CmdSetWallpaper:
		return false
	default:
		return true
	}
}

func (h handler) Lock()   { h.s.mu.Lock() }
func (h handler) Unlock() { h.s.mu.Unlock() }

// HandleFast runs with s.mu already held by ipcchan.Dispatch's batching
// loop; it must never lock again.
func (h handler) HandleFast(cmd ipcchan.Message) (ipcchan.Response, bool) {
	s := h.s
	switch cmd[0] {
	case ipcchan.CmdDestroyWindow:
		s.handleDestroyWindow(cmd)
	case ipcchan.CmdPresent:
		s.handlePresent(cmd)
	case ipcchan.CmdSetWindowPos:
		s.handleSetWindowPos(cmd)
	case ipcchan.CmdResizeSHM:
		s.handleResizeSHM(cmd)
	case ipcchan.CmdUpdateMenuItem:
		s.handleUpdateMenuItem(cmd)
	case ipcchan.CmdFocusByTID:
		s.handleFocusByTID(cmd)
	case ipcchan.CmdHideByTID:
		s.handleHideByTID(cmd)
	case ipcchan.CmdSetTheme:
		s.applyTheme(themeName(cmd[1]))
		s.broadcastSimple(ipcchan.EvtThemeChanged, cmd[1])
	case ipcchan.CmdSetFontSmoothing:
		s.shared.SetFontSmoothing(int(cmd[1]))
		s.damageAll()
		s.broadcastSimple(ipcchan.EvtFontSmoothingChg, cmd[1])
	}
	return ipcchan.Response{}, false
}

// HandleSlow runs with s.mu NOT held; each branch takes the lock only
// around the metadata mutation, matching original_source's CREATE_WINDOW
// discipline of mapping SHM outside the lock and attaching the window
// inside a short lock cycle. CREATE_WINDOW's reply is emitted to the owner
// by the handler itself and also returned, so callers can count it as work
// done; they do not emit it again.
func (h handler) HandleSlow(cmd ipcchan.Message) (ipcchan.Response, bool) {
	s := h.s
	switch cmd[0] {
	case ipcchan.CmdCreateWindow:
		return s.handleCreateWindow(cmd)
	case ipcchan.CmdSetTitle:
		s.handleSetTitle(cmd)
	case ipcchan.CmdSetMenu:
		s.handleSetMenu(cmd)
	case ipcchan.CmdStatusIcon:
		s.handleStatusIcon(cmd)
	case ipcchan.CmdSetWallpaper:
		s.handleSetWallpaper(cmd)
	}
	return ipcchan.Response{}, false
}

// broadcastSimple emits a one-word-payload broadcast event, the shape
// THEME_CHANGED and FONT_SMOOTHING_CHANGED both use.
func (s *Session) broadcastSimple(code, value uint32) {
	s.channel.Broadcast(ipcchan.Message{code, value, 0, 0, 0})
}

// CREATE_WINDOW: owner_pid, (w<<16|h), (x<<16|y), (shm_id<<16|flags).
func (s *Session) handleCreateWindow(cmd ipcchan.Message) (ipcchan.Response, bool) {
	ownerPID := cmd[1]
	w := int32(cmd[2] >> 16)
	hgt := int32(cmd[2] & 0xffff)
	x := int32(cmd[3] >> 16)
	y := int32(cmd[3] & 0xffff)
	shmID := shm.Handle(cmd[4] >> 16)
	flags := window.Flags(cmd[4] & 0xff)

	outer := geom.Rect{X: x, Y: y, Width: uint32(w), Height: uint32(hgt)}

	sub, _ := s.channel.SubscriptionFor(ownerPID)

	s.mu.Lock()
	id, err := s.windows.Create(window.Subscription(sub), window.ProcessID(ownerPID), outer, flags, shmID, "")
	if err != nil {
		s.mu.Unlock()
		log.Warn().Err(err).Uint32("owner", ownerPID).Msg("session: CREATE_WINDOW failed")
		return ipcchan.Response{}, false
	}
	s.refreshWindowLayer(id)
	s.damage(outer)
	s.mu.Unlock()

	reply := ipcchan.Message{ipcchan.RespWindowCreated, uint32(id), uint32(shmID), ownerPID, 0}
	s.channel.EmitTo(sub, reply)
	s.channel.Broadcast(ipcchan.Message{ipcchan.EvtWindowOpened, uint32(id), ownerPID, 0, 0})
	return ipcchan.Response{Target: sub, Msg: reply}, true
}

// DESTROY_WINDOW: window_id.
func (s *Session) handleDestroyWindow(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	res, err := s.windows.Destroy(id)
	if err != nil {
		return
	}
	s.menuBar.RemoveMenu(id)
	if s.menuBar.DropdownOpen() {
		s.damageAll()
	}
	s.damage(res.DamagedRect)
	if res.NewFocus != 0 {
		s.menuBar.OnFocusChange(res.NewFocus)
		s.refreshWindowLayer(res.NewFocus)
	}

	sub := ipcchan.Subscription(res.OwnerSubscription)
	ownerProc := s.ownerProcessFor(sub)
	remaining := len(s.windows.WindowsOwnedBy(ownerProc))

	s.channel.EmitTo(sub, ipcchan.Message{ipcchan.RespWindowDestroyed, uint32(id), uint32(ownerProc), uint32(remaining), 0})
	s.channel.Broadcast(ipcchan.Message{ipcchan.EvtWindowClosed, uint32(id), uint32(ownerProc), 0, 0})
}

// ownerProcessFor recovers a window owner's process id from its last known
// subscription. The channel only tracks subscription<->process one way
// (SubscriptionFor), so this looks the subscription up in the session's
// own subProcess map; it returns 0 for an unknown subscription.
func (s *Session) ownerProcessFor(sub ipcchan.Subscription) window.ProcessID {
	if p, ok := s.subProcess[sub]; ok {
		return window.ProcessID(p)
	}
	return 0
}

// PRESENT: window_id, shm_id.
func (s *Session) handlePresent(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	w, ok := s.windows.Get(id)
	if !ok {
		return
	}
	if shm.Handle(cmd[2]) != w.SHM {
		// Stale or mismatched handle: spec §7 protocol-error rule, drop.
		return
	}
	s.refreshWindowLayer(id)
	s.damage(w.OuterRect)
}

// SET_TITLE: window_id, then an inline/SHM discriminated payload. d==0
// selects the 8-byte inline path (b,c little-endian, nul-terminated);
// d!=0 selects SHM mode (b=shm handle, d=byte length), per DESIGN.md's
// Open Question resolution — only two words remain once window_id and the
// mode discriminator are accounted for, short of spec.md's "12-byte"
// figure, which assumed a discriminator-free encoding this dispatch
// format can't express.
func (s *Session) handleSetTitle(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	var title string
	if cmd[4] == 0 {
		title = decodeInlineTitle(cmd[2], cmd[3])
	} else {
		buf, err := s.shmTable.Map(shm.Handle(cmd[2]))
		if err != nil {
			return
		}
		n := int(cmd[4])
		if n > len(buf) {
			n = len(buf)
		}
		title = string(buf[:n])
		s.shmTable.Unmap(shm.Handle(cmd[2]))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.windows.SetTitle(id, title); err != nil {
		return
	}
	s.refreshWindowLayer(id)
	if w, ok := s.windows.Get(id); ok {
		s.damage(w.OuterRect)
	}
}

func decodeInlineTitle(b, c uint32) string {
	raw := make([]byte, 8)
	raw[0], raw[1], raw[2], raw[3] = byte(b), byte(b>>8), byte(b>>16), byte(b>>24)
	raw[4], raw[5], raw[6], raw[7] = byte(c), byte(c>>8), byte(c>>16), byte(c>>24)
	for i, bt := range raw {
		if bt == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// SET_WINDOW_POS: window_id, x, y.
func (s *Session) handleSetWindowPos(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	w, ok := s.windows.Get(id)
	if !ok {
		return
	}
	newRect := geom.Rect{X: int32(cmd[2]), Y: int32(cmd[3]), Width: w.OuterRect.Width, Height: w.OuterRect.Height}
	oldRect, err := s.windows.Move(id, newRect)
	if err != nil {
		return
	}
	s.damage(oldRect)
	s.damage(newRect)
}

// RESIZE_SHM: window_id, new_shm_id, new_w, new_h.
func (s *Session) handleResizeSHM(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	newSize := geom.Size{Width: cmd[3], Height: cmd[4]}
	_ = s.windows.ResizeRequest(id, shm.Handle(cmd[2]), newSize)
}

// SET_MENU: window_id, shm_id, byte_len.
func (s *Session) handleSetMenu(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	buf, err := s.shmTable.Map(shm.Handle(cmd[2]))
	if err != nil {
		return
	}
	n := int(cmd[3])
	if n > len(buf) {
		n = len(buf)
	}
	blob := buf[:n]
	s.shmTable.Unmap(shm.Handle(cmd[2]))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.menuBar.SetMenu(id, blob); err != nil {
		// Malformed blob: spec §7, "client that sends a malformed menu
		// blob simply has no menu" — drop silently.
		return
	}
	_ = s.windows.SetMenuBarDef(id, blob)
	if s.windows.Focused() == id {
		s.damage(geom.Rect{Width: uint32(s.screenW), Height: menu.BarHeight})
	}
}

// ADD/REMOVE_STATUS_ICON: owner_pid, icon_id, shm. d distinguishes
// add (0) from remove (1) per DESIGN.md's Open Question resolution — spec
// §6 names one code for both and leaves the discriminator unspecified.
func (s *Session) handleStatusIcon(cmd ipcchan.Message) {
	ownerPID := cmd[1]
	iconID := cmd[2]

	if cmd[4] != 0 {
		s.mu.Lock()
		s.menuBar.RemoveStatusIcon(iconID)
		s.damage(statusTrayRect(s.screenW))
		s.mu.Unlock()
		return
	}

	buf, err := s.shmTable.Map(shm.Handle(cmd[3]))
	if err != nil {
		return
	}
	pixels := make([]byte, len(buf))
	copy(pixels, buf)
	s.shmTable.Unmap(shm.Handle(cmd[3]))

	s.mu.Lock()
	s.menuBar.AddStatusIcon(menu.StatusIcon{ID: iconID, Owner: ownerPID, Pixels: pixels})
	s.damage(statusTrayRect(s.screenW))
	s.mu.Unlock()
}

func statusTrayRect(screenW int32) geom.Rect {
	return geom.Rect{Width: uint32(screenW), Height: menu.BarHeight}
}

// UPDATE_MENU_ITEM: window_id, item_id, new_flags.
func (s *Session) handleUpdateMenuItem(cmd ipcchan.Message) {
	id := window.ID(cmd[1])
	if !s.menuBar.UpdateItemFlags(id, cmd[2], menu.ItemFlag(cmd[3])) {
		return
	}
	if s.menuBar.DropdownOpen() {
		s.damage(geom.Rect{Width: uint32(s.screenW), Height: menu.BarHeight})
	}
}

// FOCUS_BY_TID: tid. Raises and focuses the topmost window owned by tid.
func (s *Session) handleFocusByTID(cmd ipcchan.Message) {
	pid := window.ProcessID(cmd[1])
	target := s.topmostOwnedBy(pid)
	if target == 0 {
		return
	}
	res, err := s.windows.Focus(target)
	if err != nil {
		return
	}
	s.menuBar.OnFocusChange(target)
	if res.OldFocus != 0 {
		s.refreshWindowLayer(res.OldFocus)
	}
	s.refreshWindowLayer(target)
	s.damageAll()
}

// HIDE_BY_TID: tid. Minimizes every window owned by tid.
func (s *Session) handleHideByTID(cmd ipcchan.Message) {
	pid := window.ProcessID(cmd[1])
	for _, id := range s.windows.WindowsOwnedBy(pid) {
		if w, ok := s.windows.Get(id); ok {
			_ = s.windows.SetMinimized(id, true)
			s.damage(w.OuterRect)
		}
	}
}

func (s *Session) topmostOwnedBy(pid window.ProcessID) window.ID {
	var found window.ID
	s.stack.IterBackToFront(func(l *layer.Layer) bool {
		if w, ok := s.windows.Get(l.ID); ok && w.OwnerProcess == pid && w.Visible {
			found = l.ID
		}
		return true
	})
	return found
}

func themeName(v uint32) string {
	if v == 1 {
		return state.ThemeLight
	}
	return state.ThemeDark
}

// SET_WALLPAPER: shm_id, byte_len. The SHM blob holds a host filesystem
// path string, not raw pixels — loadWallpaper reads and decodes the file
// it names.
func (s *Session) handleSetWallpaper(cmd ipcchan.Message) {
	buf, err := s.shmTable.Map(shm.Handle(cmd[1]))
	if err != nil {
		return
	}
	n := int(cmd[2])
	if n > len(buf) {
		n = len(buf)
	}
	path := string(buf[:n])
	s.shmTable.Unmap(shm.Handle(cmd[1]))

	if !filepath.IsAbs(path) && s.wallpaperDir != "" {
		path = filepath.Join(s.wallpaperDir, path)
	}
	wallpaper, err := loadWallpaper(path, int(s.screenW), int(s.screenH))
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("session: failed to load wallpaper")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallpaper = wallpaper
	s.refreshDesktopLayer()
	s.damageAll()
}

// loadWallpaper decodes an arbitrary host image file and bilinearly
// scales it to exactly w x h, matching desktopicons.DiskLoader's own
// image.Decode + x/image/draw scaling idiom.
func loadWallpaper(path string, w, h int) (*pixel.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := pixel.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := scaled.PixOffset(x, y)
			out.Set(x, y, pixel.NewARGB(255, scaled.Pix[off], scaled.Pix[off+1], scaled.Pix[off+2]))
		}
	}
	return out, nil
}
