package client

import (
	"github.com/brianmayclone/anyos-sub003/ipcchan"
)

// SetMenu installs window w's menu bar definition from an already-encoded
// blob, via a throwaway shared-memory block — handler.go's SET_MENU reads
// it once and drops it immediately, so there is nothing to keep mapped
// afterward.
func (w *Window) SetMenu(blob []byte) error {
	handle := w.h.shm.AllocShm(len(blob))
	buf, err := w.h.shm.ShmMap(handle)
	if err != nil {
		return err
	}
	copy(buf, blob)
	w.h.shm.ShmUnmap(handle)
	return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetMenu, uint32(w.id), uint32(handle), uint32(len(blob)), 0})
}

// UpdateMenuItem changes one menu item's enabled/checked flags in place.
func (w *Window) UpdateMenuItem(itemID uint32, flags uint32) error {
	return w.h.sendFireAndForget(ipcchan.Message{ipcchan.CmdUpdateMenuItem, uint32(w.id), itemID, flags, 0})
}

// Focus raises and focuses the topmost window this process owns.
func (h *Handle) Focus() error {
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdFocusByTID, h.processID, 0, 0, 0})
}

// HideAll minimizes every window this process owns.
func (h *Handle) HideAll() error {
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdHideByTID, h.processID, 0, 0, 0})
}

// AddStatusIcon installs a menu-bar tray icon from ARGB pixel bytes,
// identified by iconID for a later RemoveStatusIcon.
func (h *Handle) AddStatusIcon(iconID uint32, argbPixels []byte) error {
	handle := h.shm.AllocShm(len(argbPixels))
	buf, err := h.shm.ShmMap(handle)
	if err != nil {
		return err
	}
	copy(buf, argbPixels)
	h.shm.ShmUnmap(handle)
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdStatusIcon, h.processID, iconID, uint32(handle), 0})
}

// RemoveStatusIcon removes a previously added tray icon. d (the command's
// fifth word) is the add/remove discriminator DESIGN.md's Open Question
// resolved: nonzero means remove.
func (h *Handle) RemoveStatusIcon(iconID uint32) error {
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdStatusIcon, h.processID, iconID, 0, 1})
}

// SetTheme switches the desktop between dark (0) and light (1) themes.
func (h *Handle) SetTheme(light bool) error {
	v := uint32(0)
	if light {
		v = 1
	}
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetTheme, v, 0, 0, 0})
}

// SetFontSmoothing adjusts the desktop-wide font smoothing level.
func (h *Handle) SetFontSmoothing(level int) error {
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetFontSmoothing, uint32(level), 0, 0, 0})
}

// SetWallpaper asks the compositor to load and display the image at path,
// passed through a throwaway shared-memory block the same way a long
// window title is.
func (h *Handle) SetWallpaper(path string) error {
	handle := h.shm.AllocShm(len(path))
	buf, err := h.shm.ShmMap(handle)
	if err != nil {
		return err
	}
	copy(buf, path)
	h.shm.ShmUnmap(handle)
	return h.sendFireAndForget(ipcchan.Message{ipcchan.CmdSetWallpaper, uint32(handle), uint32(len(path)), 0, 0})
}
