// Package menu implements the Menu-Bar Subsystem of spec §4.6.
package menu

import (
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/window"
)

// Bar is the compositor-wide menu bar: the active window's titles are laid
// out left to right, the status icon tray is laid out right to left, and
// at most one dropdown is open at a time. It implements input.MenuRouter.
//
// Grounded on original_source's MenuBar struct in menu.rs: one owning
// window per set of titles, a single Option<OpenDropdown>, and a
// right-justified status icon vector recomputed on add/remove.
type Bar struct {
	defs         map[window.ID]*Def
	layouts      map[window.ID][]titleLayout
	active       window.ID
	screenWidth  int32
	open         *OpenDropdown
	statusIcons  []StatusIcon
	events       []Event
}

// NewBar creates an empty menu bar for a screen of the given width.
func NewBar(screenWidth int32) *Bar {
	return &Bar{
		defs:        make(map[window.ID]*Def),
		layouts:     make(map[window.ID][]titleLayout),
		screenWidth: screenWidth,
	}
}

// SetMenu parses and installs a window's menu bar definition, replacing
// any previous one.
func (b *Bar) SetMenu(id window.ID, data []byte) error {
	def, err := Parse(data)
	if err != nil {
		return err
	}
	b.defs[id] = def
	b.layouts[id] = layoutTitles(def)
	if b.active == id {
		b.closeDropdown()
	}
	return nil
}

// RemoveMenu drops a destroyed window's menu bar definition.
func (b *Bar) RemoveMenu(id window.ID) {
	delete(b.defs, id)
	delete(b.layouts, id)
	if b.active == id {
		b.active = 0
		b.closeDropdown()
	}
	if b.open != nil && b.open.WindowID == id {
		b.closeDropdown()
	}
}

// OnFocusChange switches which window's menus the bar displays, closing
// any dropdown belonging to the window losing focus.
func (b *Bar) OnFocusChange(id window.ID) {
	if b.active == id {
		return
	}
	b.active = id
	b.closeDropdown()
}

// UpdateItemFlags live-updates one item's enabled/checked state, per spec
// §4.6's dynamic item flag updates. Reports whether the item was found.
func (b *Bar) UpdateItemFlags(id window.ID, itemID uint32, flags ItemFlag) bool {
	def, ok := b.defs[id]
	if !ok {
		return false
	}
	for mi := range def.Menus {
		items := def.Menus[mi].Items
		for ii := range items {
			if items[ii].ItemID == itemID {
				items[ii].Flags = flags
				return true
			}
		}
	}
	return false
}

// AddStatusIcon appends an icon to the right end of the tray and
// recomputes positions.
func (b *Bar) AddStatusIcon(icon StatusIcon) {
	b.statusIcons = append(b.statusIcons, icon)
	b.recomputeStatusPositions()
}

// RemoveStatusIcon drops the icon with the given id.
func (b *Bar) RemoveStatusIcon(id uint32) {
	for i, ic := range b.statusIcons {
		if ic.ID == id {
			b.statusIcons = append(b.statusIcons[:i], b.statusIcons[i+1:]...)
			break
		}
	}
	b.recomputeStatusPositions()
}

// RemoveStatusIconsByOwner drops every status icon owned by the given
// process id, for the session loop's PROCESS_EXITED cleanup sweep, and
// reports the removed icon ids so the caller can damage the tray once.
func (b *Bar) RemoveStatusIconsByOwner(owner uint32) []uint32 {
	var removed []uint32
	kept := b.statusIcons[:0]
	for _, ic := range b.statusIcons {
		if ic.Owner == owner {
			removed = append(removed, ic.ID)
			continue
		}
		kept = append(kept, ic)
	}
	b.statusIcons = kept
	if len(removed) > 0 {
		b.recomputeStatusPositions()
	}
	return removed
}

// SetScreenWidth updates the bar's width, re-justifying the status icon
// tray against the new right edge. Called on a resolution change; title
// layout is left-justified and needs no recomputation.
func (b *Bar) SetScreenWidth(screenWidth int32) {
	b.screenWidth = screenWidth
	b.recomputeStatusPositions()
}

func (b *Bar) recomputeStatusPositions() {
	x := b.screenWidth - statusIconGap
	for i := len(b.statusIcons) - 1; i >= 0; i-- {
		x -= statusIconSize
		b.statusIcons[i].X = x
		x -= statusIconGap
	}
}

// Events drains the queued menu actions for the session loop to dispatch,
// mirroring damage.Set's consume-on-read style.
func (b *Bar) Events() []Event {
	ev := b.events
	b.events = nil
	return ev
}

// DropdownOpen reports whether a dropdown is currently showing.
func (b *Bar) DropdownOpen() bool { return b.open != nil }

// HitTestBar reports whether (x,y) falls within the menu bar strip.
func (b *Bar) HitTestBar(x, y int32) bool {
	return y >= 0 && y < BarHeight && x >= 0 && x < b.screenWidth
}

// HandleMove updates dropdown hover state as the cursor moves, and is a
// no-op when no dropdown is open (titles do not highlight on hover alone
// in this design, matching original_source's menu.rs which only tracks
// hover inside an open dropdown).
func (b *Bar) HandleMove(x, y int32) {
	if b.open == nil {
		return
	}
	if !b.isInDropdown(x, y) {
		b.open.HoverItem = -1
		return
	}
	b.open.HoverItem = b.hitDropdownItem(x, y)
}

// HandleClick routes a click against the bar or an open dropdown. It
// returns true when the click was consumed and should not reach window or
// desktop routing.
func (b *Bar) HandleClick(x, y int32, btn input.Button) bool {
	if btn != input.ButtonLeft {
		return b.HitTestBar(x, y)
	}

	if b.open != nil {
		if b.isInDropdown(x, y) {
			b.clickDropdownItem(x, y)
			return true
		}
		b.closeDropdown()
		if mi := b.hitTitle(x, y); mi >= 0 {
			b.openMenu(mi, x)
			return true
		}
		if id, ok := b.hitStatusIcon(x, y); ok {
			b.emitStatusClick(id)
			return true
		}
		return false
	}

	if mi := b.hitTitle(x, y); mi >= 0 {
		b.openMenu(mi, x)
		return true
	}
	if id, ok := b.hitStatusIcon(x, y); ok {
		b.emitStatusClick(id)
		return true
	}
	return b.HitTestBar(x, y)
}

func (b *Bar) openMenu(menuIndex int, titleX int32) {
	b.open = &OpenDropdown{
		WindowID:  b.active,
		MenuIndex: menuIndex,
		X:         titleX,
		Y:         BarHeight,
		HoverItem: -1,
	}
}

func (b *Bar) closeDropdown() { b.open = nil }

func (b *Bar) hitTitle(x, y int32) int {
	if y < 0 || y >= BarHeight {
		return -1
	}
	for _, tl := range b.layouts[b.active] {
		if x >= tl.x0 && x < tl.x1 {
			return tl.menuIndex
		}
	}
	return -1
}

func (b *Bar) hitStatusIcon(x, y int32) (uint32, bool) {
	if y < 0 || y >= BarHeight {
		return 0, false
	}
	for _, ic := range b.statusIcons {
		if x >= ic.X && x < ic.X+statusIconSize {
			return ic.ID, true
		}
	}
	return 0, false
}

func (b *Bar) dropdownHeight() int32 {
	def := b.defs[b.open.WindowID]
	if def == nil || b.open.MenuIndex >= len(def.Menus) {
		return 0
	}
	items := def.Menus[b.open.MenuIndex].Items
	var h int32
	for _, it := range items {
		if it.IsSeparator() {
			h += separatorHeight
		} else {
			h += itemHeight
		}
	}
	return h
}

func (b *Bar) isInDropdown(x, y int32) bool {
	if b.open == nil {
		return false
	}
	return x >= b.open.X && x < b.open.X+dropdownWidth &&
		y >= b.open.Y && y < b.open.Y+b.dropdownHeight()
}

func (b *Bar) hitDropdownItem(x, y int32) int {
	def := b.defs[b.open.WindowID]
	if def == nil || b.open.MenuIndex >= len(def.Menus) {
		return -1
	}
	items := def.Menus[b.open.MenuIndex].Items
	cursor := b.open.Y
	for i, it := range items {
		h := int32(itemHeight)
		if it.IsSeparator() {
			h = separatorHeight
		}
		if y >= cursor && y < cursor+h {
			return i
		}
		cursor += h
	}
	return -1
}

func (b *Bar) clickDropdownItem(x, y int32) {
	idx := b.hitDropdownItem(x, y)
	windowID, menuIndex := b.open.WindowID, b.open.MenuIndex
	b.closeDropdown()
	if idx < 0 {
		return
	}
	def := b.defs[windowID]
	if def == nil || menuIndex >= len(def.Menus) {
		return
	}
	item := def.Menus[menuIndex].Items[idx]
	if item.IsSeparator() || item.IsDisabled() {
		return
	}
	b.events = append(b.events, Event{Kind: EventItemClicked, WindowID: windowID, ItemID: item.ItemID})
}

func (b *Bar) emitStatusClick(id uint32) {
	for _, ic := range b.statusIcons {
		if ic.ID == id {
			b.events = append(b.events, Event{Kind: EventStatusIconClicked, StatusIconID: id, Owner: ic.Owner})
			return
		}
	}
}

func layoutTitles(def *Def) []titleLayout {
	layouts := make([]titleLayout, 0, len(def.Menus))
	x := titlePadding
	for i, m := range def.Menus {
		w := titleTextWidth(m.Title) + 2*titlePadding
		layouts = append(layouts, titleLayout{menuIndex: i, x0: int32(x), x1: int32(x + w)})
		x += w
	}
	return layouts
}
