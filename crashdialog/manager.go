package crashdialog

import (
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
)

// Manager owns every open crash dialog. Dialogs are plain layers, not
// window.Store windows — they have no owning client SHM — so the manager
// adds and removes them directly on the layer stack, the same way the
// background layer is managed.
type Manager struct {
	stack           *layer.Stack
	screenW, screenH int32
	dialogs         map[layer.ID]*Dialog
}

// NewManager creates a manager bound to the compositor's layer stack and
// screen size, used to center new dialogs.
func NewManager(stack *layer.Stack, screenW, screenH int32) *Manager {
	return &Manager{stack: stack, screenW: screenW, screenH: screenH, dialogs: make(map[layer.ID]*Dialog)}
}

// Show creates a centered, always-on-top dialog layer for report and
// returns its layer id plus the rect it damaged.
func (m *Manager) Show(report Report) (layer.ID, geom.Rect) {
	rect := geom.Rect{
		X:      (m.screenW - dialogWidth) / 2,
		Y:      (m.screenH - dialogHeight) / 2,
		Width:  dialogWidth,
		Height: dialogHeight,
	}
	id := m.stack.Add(rect, false, layer.TierAlwaysOnTop)
	d := &Dialog{LayerID: id, Report: report, width: dialogWidth, height: dialogHeight}
	m.dialogs[id] = d

	buf := renderDialog(d)
	m.stack.SetPixels(id, buf)
	return id, rect
}

// Owns reports whether id belongs to one of this manager's dialogs, for
// the session loop to distinguish a crash-dialog hit from a window hit
// when routing an Outcome whose target isn't in window.Store.
func (m *Manager) Owns(id layer.ID) bool {
	_, ok := m.dialogs[id]
	return ok
}

// HandleClick processes a click at dialog-local coordinates. It reports
// whether the dialog was dismissed and, if so, the rect to damage.
func (m *Manager) HandleClick(id layer.ID, localX, localY int32) (dismissed bool, damaged geom.Rect) {
	d, ok := m.dialogs[id]
	if !ok {
		return false, geom.Rect{}
	}
	bx, by, bw, bh := d.quitButtonRect()
	if localX < bx || localX >= bx+bw || localY < by || localY >= by+bh {
		return false, geom.Rect{}
	}
	return m.Dismiss(id)
}

// Dismiss destroys a dialog's layer and returns its rect as damage.
func (m *Manager) Dismiss(id layer.ID) (bool, geom.Rect) {
	d, ok := m.dialogs[id]
	if !ok {
		return false, geom.Rect{}
	}
	l, _ := m.stack.Get(id)
	rect := geom.Rect{}
	if l != nil {
		rect = l.Rect
	}
	m.stack.Remove(id)
	delete(m.dialogs, id)
	return true, rect
}

// Count returns how many crash dialogs are currently open.
func (m *Manager) Count() int { return len(m.dialogs) }

// ClearAll dismisses every open dialog, for logout per spec §4.12's
// teardown sweep.
func (m *Manager) ClearAll() []geom.Rect {
	var rects []geom.Rect
	for id := range m.dialogs {
		if _, r := m.Dismiss(id); !r.Empty() {
			rects = append(rects, r)
		}
	}
	return rects
}
