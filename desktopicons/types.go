// Package desktopicons implements the mounted-volume desktop icons of spec
// §4.7: mount-path reconciliation, drag-to-move with a pixel threshold,
// a right-click context menu, and per-user position persistence.
//
// Grounded directly on original_source's DesktopIconManager in
// system/compositor/compositor/src/desktop/desktop_icons.rs — same
// reconciliation-by-mount-path, same default-position formula, same
// UID:mount_path:x:y persistence line format — rewritten with Go's
// os.ReadFile/WriteFile in place of the no_std fs syscalls, and
// golang.org/x/image/draw for the bitmap scaling the original does with
// libimage_client.
package desktopicons

const (
	// CellWidth/CellHeight is the footprint of one icon cell (icon plus
	// label band), and IconSize the fixed square the device bitmap is
	// scaled to, per SPEC_FULL's DOMAIN STACK entry for x/image/draw.
	CellWidth  = 90
	CellHeight = 90
	IconSize   = 32

	marginRight  = 20
	marginTop    = 60
	cellSpacing  = 95
	mountPollInterval = 3000 // ms, spec §4.7

	dragThreshold = 5 // px, spec §4.7
)

// Mount is one entry from the kernel's mount list.
type Mount struct {
	Path   string
	FSType string
}

// MountLister is satisfied by the kernel interface; desktopicons depends
// only on this narrow slice of it to stay decoupled from the kernel
// package, the same dependency-inversion shape as input.MenuRouter.
type MountLister interface {
	ListMounts() ([]Mount, error)
}

// Icon is one desktop drive icon.
type Icon struct {
	MountPath  string
	Label      string
	FSType     string
	X, Y       int32
	Pixels     []byte // RGBA, IconSize*IconSize*4
	Ejectable  bool
}

// ContextMenuItem is one row of the icon's right-click menu.
type ContextMenuItem struct {
	ID          uint32
	Label       string
	Enabled     bool
	IsSeparator bool
}

// Context menu item ids, matching the original's CTX_ITEM_* constants.
const (
	CtxOpen   uint32 = 1
	CtxEject  uint32 = 2
	CtxInfo   uint32 = 3
)

const (
	ctxItemHeight      = 24
	ctxSeparatorHeight = 9
	ctxPadding         = 4
	ctxWidth           = 160
)

// ContextMenu is the currently open right-click menu, if any.
type ContextMenu struct {
	X, Y       int32
	Width      int32
	Height     int32
	Items      []ContextMenuItem
	ItemsY     []int32
	HoverIndex int // -1 if none
	TargetIcon int
}

type dragState struct {
	iconIdx int
	offsetX int32
	offsetY int32
	originX int32
	originY int32
	moving  bool
}

// Action is the result of clicking an enabled context-menu item, for the
// session loop to carry out (spawn the file manager, issue an eject).
type Action struct {
	Kind      ActionKind
	MountPath string
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionOpen
	ActionEject
)
