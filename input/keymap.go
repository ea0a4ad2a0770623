package input

// Modifier is a bitset of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Scancode identifies a physical key, kernel-numbered.
type Scancode int32

// Well-known modifier scancodes the router watches regardless of keymap
// contents, so Shift/Ctrl/Alt/Meta tracking works even with an empty or
// partial loaded keymap.
const (
	ScLeftShift Scancode = iota + 1000
	ScRightShift
	ScLeftCtrl
	ScRightCtrl
	ScLeftAlt
	ScRightAlt
	ScLeftMeta
	ScRightMeta
)

var modifierScancodes = map[Scancode]Modifier{
	ScLeftShift:  ModShift,
	ScRightShift: ModShift,
	ScLeftCtrl:   ModCtrl,
	ScRightCtrl:  ModCtrl,
	ScLeftAlt:    ModAlt,
	ScRightAlt:   ModAlt,
	ScLeftMeta:   ModMeta,
	ScRightMeta:  ModMeta,
}

// keymapKey indexes a loadable translation table by scancode and the
// modifier mask active when it was pressed.
type keymapKey struct {
	code Scancode
	mods Modifier
}

// Keymap translates (scancode, modifiers) pairs into output bytes, per
// spec §4.5. Unknown scancodes are dropped by the caller, never by the
// Keymap itself — Translate just reports the miss.
type Keymap struct {
	table map[keymapKey][]byte
}

// NewKeymap creates an empty keymap; entries are added with Load.
func NewKeymap() *Keymap {
	return &Keymap{table: make(map[keymapKey][]byte)}
}

// Load installs a translation for (code, mods). An existing entry for the
// same key is replaced.
func (k *Keymap) Load(code Scancode, mods Modifier, out []byte) {
	k.table[keymapKey{code, mods}] = out
}

// Translate looks up the bytes a scancode produces under the given
// modifier mask. It first tries an exact (code, mods) match, then falls
// back to the unmodified entry so a keymap need not enumerate every
// modifier combination for keys modifiers don't affect.
func (k *Keymap) Translate(code Scancode, mods Modifier) ([]byte, bool) {
	if out, ok := k.table[keymapKey{code, mods}]; ok {
		return out, true
	}
	if out, ok := k.table[keymapKey{code, 0}]; ok {
		return out, true
	}
	return nil, false
}

// ModifierTracker mutates a modifier bitset from key up/down events on the
// well-known modifier scancodes.
type ModifierTracker struct {
	mask Modifier
}

// Mask returns the currently held modifiers.
func (t *ModifierTracker) Mask() Modifier { return t.mask }

// HandleKey updates the mask if code is a modifier key and reports whether
// it was one.
func (t *ModifierTracker) HandleKey(code Scancode, down bool) bool {
	bit, ok := modifierScancodes[code]
	if !ok {
		return false
	}
	if down {
		t.mask |= bit
	} else {
		t.mask &^= bit
	}
	return true
}
