package menu

import (
	"encoding/binary"
	"testing"

	"github.com/brianmayclone/anyos-sub003/input"
)

// buildBlob assembles a MENU blob by hand, mirroring the wire format Parse
// expects, for use as test fixtures.
func buildBlob(menus [][2]interface{}) []byte {
	var buf []byte
	putU32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	putStr := func(s string) {
		putU32(uint32(len(s)))
		buf = append(buf, s...)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
	}

	putU32(magic)
	putU32(uint32(len(menus)))
	for _, m := range menus {
		title := m[0].(string)
		items := m[1].([]MenuItem)
		putStr(title)
		putU32(uint32(len(items)))
		for _, it := range items {
			putU32(it.ItemID)
			putU32(uint32(it.Flags))
			putStr(it.Label)
		}
	}
	return buf
}

func simpleBlob() []byte {
	return buildBlob([][2]interface{}{
		{"File", []MenuItem{
			{ItemID: 1, Label: "New"},
			{ItemID: 2, Label: "Open"},
			{ItemID: 0, Flags: Separator, Label: ""},
			{ItemID: 3, Flags: Disabled, Label: "Save"},
		}},
		{"Edit", []MenuItem{
			{ItemID: 10, Flags: Checked, Label: "Word Wrap"},
		}},
	})
}

func TestParseValidBlob(t *testing.T) {
	def, err := Parse(simpleBlob())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(def.Menus) != 2 {
		t.Fatalf("got %d menus, want 2", len(def.Menus))
	}
	if def.Menus[0].Title != "File" || len(def.Menus[0].Items) != 4 {
		t.Fatalf("menu 0 = %+v", def.Menus[0])
	}
	if !def.Menus[0].Items[2].IsSeparator() {
		t.Fatal("item 2 should be a separator")
	}
	if !def.Menus[0].Items[3].IsDisabled() {
		t.Fatal("item 3 should be disabled")
	}
	if !def.Menus[1].Items[0].IsChecked() {
		t.Fatal("Edit's item 0 should be checked")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	blob := simpleBlob()
	blob[0] ^= 0xff
	if _, err := Parse(blob); err != ErrMalformed {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsTruncatedBlob(t *testing.T) {
	blob := simpleBlob()
	if _, err := Parse(blob[:len(blob)-2]); err != ErrMalformed {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsTooManyMenus(t *testing.T) {
	var buf []byte
	put := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	put(magic)
	put(maxMenus + 1)
	if _, err := Parse(buf); err != ErrMalformed {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func newTestBar() *Bar {
	b := NewBar(800)
	b.SetMenu(1, simpleBlob())
	b.OnFocusChange(1)
	return b
}

func TestHitTestBarOnlyInsideStrip(t *testing.T) {
	b := newTestBar()
	if !b.HitTestBar(10, 5) {
		t.Fatal("(10,5) should be inside the bar")
	}
	if b.HitTestBar(10, BarHeight+1) {
		t.Fatal("below the bar should miss")
	}
}

func TestClickingTitleOpensDropdown(t *testing.T) {
	b := newTestBar()
	tl := b.layouts[1][0]
	consumed := b.HandleClick(tl.x0+1, 5, input.ButtonLeft)
	if !consumed {
		t.Fatal("clicking a title should be consumed")
	}
	if !b.DropdownOpen() {
		t.Fatal("dropdown should now be open")
	}
	if b.open.MenuIndex != 0 {
		t.Fatalf("open menu index = %d, want 0", b.open.MenuIndex)
	}
}

func TestClickOutsideOpenDropdownClosesAndFallsThrough(t *testing.T) {
	b := newTestBar()
	tl := b.layouts[1][0]
	b.HandleClick(tl.x0+1, 5, input.ButtonLeft)
	if !b.DropdownOpen() {
		t.Fatal("precondition: dropdown should be open")
	}

	consumed := b.HandleClick(400, 300, input.ButtonLeft)
	if consumed {
		t.Fatal("a click far outside bar and dropdown must not be consumed")
	}
	if b.DropdownOpen() {
		t.Fatal("the dropdown should have closed")
	}
}

func TestClickingDropdownItemEmitsEventAndCloses(t *testing.T) {
	b := newTestBar()
	tl := b.layouts[1][0]
	b.HandleClick(tl.x0+1, 5, input.ButtonLeft)

	// First item ("New") sits at open.Y .. open.Y+itemHeight.
	consumed := b.HandleClick(b.open.X+5, b.open.Y+5, input.ButtonLeft)
	if !consumed {
		t.Fatal("clicking an enabled item should be consumed")
	}
	if b.DropdownOpen() {
		t.Fatal("clicking an item should close the dropdown")
	}
	events := b.Events()
	if len(events) != 1 || events[0].Kind != EventItemClicked || events[0].ItemID != 1 {
		t.Fatalf("events = %+v, want one EventItemClicked for item 1", events)
	}
}

func TestClickingDisabledItemClosesWithoutEvent(t *testing.T) {
	b := newTestBar()
	tl := b.layouts[1][0]
	b.HandleClick(tl.x0+1, 5, input.ButtonLeft)

	// Items: New(0), Open(1), separator(2), Save-disabled(3).
	y := b.open.Y + 2*itemHeight + separatorHeight + 2
	b.HandleClick(b.open.X+5, y, input.ButtonLeft)
	if b.DropdownOpen() {
		t.Fatal("clicking disabled item should still close the dropdown")
	}
	if len(b.Events()) != 0 {
		t.Fatal("a disabled item must not emit an event")
	}
}

func TestUpdateItemFlagsMutatesInPlace(t *testing.T) {
	b := newTestBar()
	if !b.UpdateItemFlags(1, 2, Disabled) {
		t.Fatal("item 2 should exist and be updatable")
	}
	if !b.defs[1].Menus[0].Items[1].IsDisabled() {
		t.Fatal("item should now be disabled")
	}
	if b.UpdateItemFlags(1, 999, 0) {
		t.Fatal("unknown item id should report false")
	}
}

func TestStatusIconAddRemoveRepositions(t *testing.T) {
	b := NewBar(800)
	b.AddStatusIcon(StatusIcon{ID: 1, Owner: 7, Pixels: make([]byte, statusIconSize*statusIconSize*4)})
	b.AddStatusIcon(StatusIcon{ID: 2, Owner: 8, Pixels: make([]byte, statusIconSize*statusIconSize*4)})
	if b.statusIcons[0].X >= b.statusIcons[1].X {
		t.Fatal("the newest icon should occupy the rightmost slot, pushing earlier icons left")
	}
	b.RemoveStatusIcon(1)
	if len(b.statusIcons) != 1 || b.statusIcons[0].ID != 2 {
		t.Fatalf("status icons after removal = %+v", b.statusIcons)
	}
}

func TestStatusIconClickEmitsEvent(t *testing.T) {
	b := NewBar(800)
	b.AddStatusIcon(StatusIcon{ID: 5, Owner: 9, Pixels: make([]byte, statusIconSize*statusIconSize*4)})
	ic := b.statusIcons[0]
	if !b.HandleClick(ic.X+1, 5, input.ButtonLeft) {
		t.Fatal("clicking a status icon should be consumed")
	}
	events := b.Events()
	if len(events) != 1 || events[0].Kind != EventStatusIconClicked || events[0].StatusIconID != 5 {
		t.Fatalf("events = %+v", events)
	}
}

func TestRemoveMenuClosesItsDropdown(t *testing.T) {
	b := newTestBar()
	tl := b.layouts[1][0]
	b.HandleClick(tl.x0+1, 5, input.ButtonLeft)
	if !b.DropdownOpen() {
		t.Fatal("precondition: dropdown open")
	}
	b.RemoveMenu(1)
	if b.DropdownOpen() {
		t.Fatal("removing the owning window's menu should close its dropdown")
	}
}

func TestOnFocusChangeClosesDropdown(t *testing.T) {
	b := newTestBar()
	b.SetMenu(2, simpleBlob())
	tl := b.layouts[1][0]
	b.HandleClick(tl.x0+1, 5, input.ButtonLeft)
	if !b.DropdownOpen() {
		t.Fatal("precondition: dropdown open")
	}
	b.OnFocusChange(2)
	if b.DropdownOpen() {
		t.Fatal("changing the active window should close the previous dropdown")
	}
}
