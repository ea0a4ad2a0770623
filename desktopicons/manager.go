package desktopicons

import (
	"time"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
)

// Manager is the desktop icon collection plus its drag and context-menu
// state. It implements input.DesktopRouter.
type Manager struct {
	icons        []Icon
	lastPoll     time.Time
	contextMenu  *ContextMenu
	drag         *dragState
	selected     int // -1 if none
	screenWidth  int32
	loader       IconLoader
	onPersist    func([]Icon)

	lastAction    Action
	lastClickIcon int
	lastClickTime time.Time
}

// dblClickInterval mirrors input.DblClickInterval; kept as its own
// constant rather than importing it to avoid coupling the desktop-icon
// manager to the input router's tuning beyond the shared Button type.
const dblClickInterval = 400 * time.Millisecond

// NewManager creates an empty manager. loader supplies device icon
// bitmaps; persist, if non-nil, is invoked after every position change so
// the caller can write the positions file (see persist.go).
func NewManager(screenWidth int32, loader IconLoader, persist func([]Icon)) *Manager {
	if loader == nil {
		loader = FallbackLoader{}
	}
	return &Manager{screenWidth: screenWidth, selected: -1, loader: loader, onPersist: persist, lastClickIcon: -1}
}

// Icons returns the current icon set, for rendering.
func (m *Manager) Icons() []Icon { return m.icons }

// Selected returns the selected icon's index, or -1.
func (m *Manager) Selected() int { return m.selected }

// PollMounts reconciles the icon collection against the kernel's mount
// list, at most once per mountPollInterval. Reports whether icons changed
// (so the caller can mark damage) along with the changed icons' rects.
func (m *Manager) PollMounts(lister MountLister) ([]geom.Rect, error) {
	now := time.Now()
	if !m.lastPoll.IsZero() && now.Sub(m.lastPoll) < mountPollInterval*time.Millisecond {
		return nil, nil
	}
	m.lastPoll = now

	mounts, err := lister.ListMounts()
	if err != nil {
		return nil, err
	}

	filtered := mounts[:0:0]
	for _, mnt := range mounts {
		if mnt.Path == "/dev" {
			continue
		}
		filtered = append(filtered, mnt)
	}

	if sameMounts(filtered, m.icons) {
		return nil, nil
	}

	var damaged []geom.Rect
	for _, r := range m.icons {
		damaged = append(damaged, m.cellRect(r.X, r.Y))
	}

	newIcons := make([]Icon, 0, len(filtered))
	for i, mnt := range filtered {
		x, y := m.defaultPosition(i)
		for _, old := range m.icons {
			if old.MountPath == mnt.Path {
				x, y = old.X, old.Y
				break
			}
		}
		pixels := m.loader.LoadIcon(mnt.FSType, mnt.Path)
		newIcons = append(newIcons, Icon{
			MountPath: mnt.Path,
			Label:     deriveLabel(mnt.Path, mnt.FSType),
			FSType:    mnt.FSType,
			X:         x,
			Y:         y,
			Pixels:    pixels,
			Ejectable: isEjectable(mnt.Path, mnt.FSType),
		})
	}
	m.icons = newIcons
	m.selected = -1

	for _, r := range m.icons {
		damaged = append(damaged, m.cellRect(r.X, r.Y))
	}
	return damaged, nil
}

func sameMounts(mounts []Mount, icons []Icon) bool {
	if len(mounts) != len(icons) {
		return false
	}
	for i, mnt := range mounts {
		if mnt.Path != icons[i].MountPath {
			return false
		}
	}
	return true
}

func (m *Manager) defaultPosition(index int) (int32, int32) {
	x := m.screenWidth - CellWidth - marginRight
	y := int32(marginTop + index*cellSpacing)
	return x, y
}

func (m *Manager) cellRect(x, y int32) geom.Rect {
	return geom.Rect{X: x - 2, Y: y - 2, Width: CellWidth + 4, Height: CellHeight + 4}
}

// HitTestBackground always reports true. By the time input.Router calls
// it, the click has already been confirmed to land on the background
// layer (spec §4.3's single screen-covering layer at tier index 0); every
// pixel of that layer belongs to the desktop, icon or bare wallpaper alike.
func (m *Manager) HitTestBackground(x, y int32) bool { return true }

func (m *Manager) hitIcon(x, y int32) int {
	for i, ic := range m.icons {
		if x >= ic.X && x < ic.X+CellWidth && y >= ic.Y && y < ic.Y+CellHeight {
			return i
		}
	}
	return -1
}

// DragInProgress reports whether an icon drag has been armed by a mouse
// down, matching input.Router's windowDrag gating: armed as soon as the
// button goes down, the icon only actually moves once the 5px threshold
// (spec §4.7) is crossed.
func (m *Manager) DragInProgress() bool { return m.drag != nil }

// HandleMove is called by input.Router while a drag is armed.
func (m *Manager) HandleMove(x, y int32) {
	d := m.drag
	if d == nil {
		return
	}
	if !d.moving {
		dx, dy := x-d.originX, y-d.originY
		if dx*dx+dy*dy < dragThreshold*dragThreshold {
			return
		}
		d.moving = true
	}
	m.icons[d.iconIdx].X = x - d.offsetX
	m.icons[d.iconIdx].Y = y - d.offsetY
}

// EndDrag finishes an in-progress drag, persisting positions if it
// actually moved the icon. Returns the damaged rect pair (old, new), or
// nil if nothing moved.
func (m *Manager) EndDrag() []geom.Rect {
	d := m.drag
	m.drag = nil
	if d == nil || !d.moving {
		return nil
	}
	old := m.cellRect(d.originX-d.offsetX, d.originY-d.offsetY)
	ic := m.icons[d.iconIdx]
	m.persist()
	return []geom.Rect{old, m.cellRect(ic.X, ic.Y)}
}

// HandleClick routes a left or right click against the context menu, an
// icon, or empty background. Always returns true: every background pixel
// belongs to the desktop layer.
func (m *Manager) HandleClick(x, y int32, btn input.Button) bool {
	if m.contextMenu != nil {
		m.handleContextClick(x, y, btn)
		return true
	}

	idx := m.hitIcon(x, y)
	switch btn {
	case input.ButtonRight:
		if idx >= 0 {
			m.openContextMenu(idx, x, y)
		}
	case input.ButtonLeft:
		if idx >= 0 {
			now := time.Now()
			if idx == m.lastClickIcon && now.Sub(m.lastClickTime) < dblClickInterval {
				m.lastAction = Action{Kind: ActionOpen, MountPath: m.icons[idx].MountPath}
				m.lastClickIcon = -1
			} else {
				m.lastClickIcon = idx
				m.lastClickTime = now
			}
			m.selected = idx
			ic := m.icons[idx]
			m.drag = &dragState{iconIdx: idx, offsetX: x - ic.X, offsetY: y - ic.Y, originX: x, originY: y}
		} else {
			m.selected = -1
			m.lastClickIcon = -1
		}
	}
	return true
}

func (m *Manager) handleContextClick(x, y int32, btn input.Button) {
	cm := m.contextMenu
	if x < cm.X || x >= cm.X+cm.Width || y < cm.Y || y >= cm.Y+cm.Height {
		m.contextMenu = nil
		return
	}
	if btn != input.ButtonLeft {
		return
	}
	localY := y - cm.Y
	for i, it := range cm.Items {
		h := int32(ctxItemHeight)
		if it.IsSeparator {
			h = ctxSeparatorHeight
		}
		if localY >= cm.ItemsY[i] && localY < cm.ItemsY[i]+h {
			if it.Enabled && !it.IsSeparator {
				m.lastAction = Action{Kind: actionKindFor(it.ID), MountPath: m.icons[cm.TargetIcon].MountPath}
			}
			m.contextMenu = nil
			return
		}
	}
}

func actionKindFor(id uint32) ActionKind {
	switch id {
	case CtxOpen:
		return ActionOpen
	case CtxEject:
		return ActionEject
	default:
		return ActionNone
	}
}

// TakeAction drains the last pending action (a context-menu choice or a
// double-click open), if any, for the session loop to carry out.
func (m *Manager) TakeAction() Action {
	a := m.lastAction
	m.lastAction = Action{}
	return a
}

func (m *Manager) openContextMenu(iconIdx int, x, y int32) {
	ejectable := m.icons[iconIdx].Ejectable

	var items []ContextMenuItem
	var itemsY []int32
	total := int32(ctxPadding)

	itemsY = append(itemsY, total)
	items = append(items, ContextMenuItem{ID: CtxOpen, Label: "Open", Enabled: true})
	total += ctxItemHeight

	itemsY = append(itemsY, total)
	items = append(items, ContextMenuItem{IsSeparator: true})
	total += ctxSeparatorHeight

	if ejectable {
		itemsY = append(itemsY, total)
		items = append(items, ContextMenuItem{ID: CtxEject, Label: "Eject", Enabled: true})
		total += ctxItemHeight

		itemsY = append(itemsY, total)
		items = append(items, ContextMenuItem{IsSeparator: true})
		total += ctxSeparatorHeight
	}

	itemsY = append(itemsY, total)
	items = append(items, ContextMenuItem{ID: CtxInfo, Label: "Get Info", Enabled: false})
	total += ctxItemHeight
	total += ctxPadding

	m.contextMenu = &ContextMenu{
		X: x, Y: y, Width: ctxWidth, Height: total,
		Items: items, ItemsY: itemsY, HoverIndex: -1, TargetIcon: iconIdx,
	}
}

// UpdateContextHover updates the hover index as the cursor moves over an
// open context menu. Reports whether it changed.
func (m *Manager) UpdateContextHover(x, y int32) bool {
	cm := m.contextMenu
	if cm == nil {
		return false
	}
	if x < cm.X || x >= cm.X+cm.Width || y < cm.Y || y >= cm.Y+cm.Height {
		if cm.HoverIndex != -1 {
			cm.HoverIndex = -1
			return true
		}
		return false
	}
	localY := y - cm.Y
	newHover := -1
	for i, it := range cm.Items {
		if it.IsSeparator || !it.Enabled {
			continue
		}
		if localY >= cm.ItemsY[i] && localY < cm.ItemsY[i]+ctxItemHeight {
			newHover = i
			break
		}
	}
	if newHover != cm.HoverIndex {
		cm.HoverIndex = newHover
		return true
	}
	return false
}

// ContextMenuOpen reports whether a context menu is currently showing.
func (m *Manager) ContextMenuOpen() bool { return m.contextMenu != nil }

func (m *Manager) persist() {
	if m.onPersist != nil {
		m.onPersist(m.icons)
	}
}

// ApplySavedPositions overlays the on-disk positions file for uid onto the
// current icon set, the same load-after-scan order original_source uses
// (scan_mounts followed by load_positions in init/poll_mounts).
func (m *Manager) ApplySavedPositions(uid uint32) error {
	return LoadPositions(PositionsPath, uid, m.icons)
}
