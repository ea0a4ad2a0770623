package menu

import "github.com/brianmayclone/anyos-sub003/window"

// Bar geometry constants: the menu bar height (22px, two pixels shorter
// than window.TitleBarHeight) and the spacing original_source's menu.rs
// uses between top-level titles.
const (
	BarHeight      = 22
	titlePadding   = 12
	dropdownWidth  = 180
	itemHeight     = 20
	separatorHeight = 7
	statusIconSize = 16
	statusIconGap  = 6
)

// titleLayout is the computed screen-space hit box of one top-level menu
// title within a window's menu bar, recomputed whenever that window's
// menus change or it becomes active.
type titleLayout struct {
	menuIndex int
	x0, x1    int32
}

// OpenDropdown is the currently open dropdown, if any: which window owns
// it, which top-level menu it belongs to, its screen origin, and which
// item index the cursor currently hovers.
type OpenDropdown struct {
	WindowID  window.ID
	MenuIndex int
	X, Y      int32
	HoverItem int // -1 if none
}

// StatusIcon is one entry in the right-justified system tray, owned by a
// client process rather than a window (spec §4.6's status icon tray).
type StatusIcon struct {
	ID           uint32
	Owner        uint32 // owning process id
	X            int32  // computed right-to-left, updated on add/remove
	Pixels       []byte // RGBA, statusIconSize*statusIconSize*4
}

// EventKind enumerates what a drained menu Event represents.
type EventKind int

const (
	EventItemClicked EventKind = iota
	EventStatusIconClicked
)

// Event is one user action against the menu bar or its dropdowns, queued
// for the session loop to turn into an IPC message to the owning client.
type Event struct {
	Kind         EventKind
	WindowID     window.ID
	ItemID       uint32
	StatusIconID uint32
	Owner        uint32
}
