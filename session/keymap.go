package session

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/brianmayclone/anyos-sub003/input"
)

// ebitenScancode mirrors ebitenbackend's own scancodeFor: the compositor's
// scancode space is the ebiten key value offset by one, keeping the whole
// 1..N range clear of input.ScLeftShift's 1000+ modifier block. Building the
// default keymap from the named ebiten constants (rather than transcribing
// their numeric values) keeps this table correct however ebiten chooses to
// number them internally.
func ebitenScancode(key ebiten.Key) input.Scancode {
	return input.Scancode(key) + 1
}

// buildDefaultKeymap seeds a US-QWERTY keymap covering the keys a shell or
// text field needs: letters, digits, the usual punctuation row, and the
// control keys client programs read as raw bytes (enter, backspace, tab,
// escape, space, arrows). Grounded on original_source's stdlib/src/ui
// filedialog.rs and window.rs, which both assume plain ASCII delivery for
// text entry with no IME or dead-key layer.
func buildDefaultKeymap() *input.Keymap {
	km := input.NewKeymap()

	loadLetters(km)
	loadDigitsAndPunctuation(km)
	loadControlKeys(km)

	return km
}

func loadLetters(km *input.Keymap) {
	letterKeys := []ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE,
		ebiten.KeyF, ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ,
		ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN, ebiten.KeyO,
		ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT,
		ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY,
		ebiten.KeyZ,
	}
	for i, key := range letterKeys {
		lower := byte('a' + i)
		upper := byte('A' + i)
		sc := ebitenScancode(key)
		km.Load(sc, 0, []byte{lower})
		km.Load(sc, input.ModShift, []byte{upper})
	}
}

type digitEntry struct {
	key     ebiten.Key
	plain   byte
	shifted byte
}

func loadDigitsAndPunctuation(km *input.Keymap) {
	entries := []digitEntry{
		{ebiten.KeyDigit1, '1', '!'},
		{ebiten.KeyDigit2, '2', '@'},
		{ebiten.KeyDigit3, '3', '#'},
		{ebiten.KeyDigit4, '4', '$'},
		{ebiten.KeyDigit5, '5', '%'},
		{ebiten.KeyDigit6, '6', '^'},
		{ebiten.KeyDigit7, '7', '&'},
		{ebiten.KeyDigit8, '8', '*'},
		{ebiten.KeyDigit9, '9', '('},
		{ebiten.KeyDigit0, '0', ')'},
		{ebiten.KeyMinus, '-', '_'},
		{ebiten.KeyEqual, '=', '+'},
		{ebiten.KeyBracketLeft, '[', '{'},
		{ebiten.KeyBracketRight, ']', '}'},
		{ebiten.KeyBackslash, '\\', '|'},
		{ebiten.KeySemicolon, ';', ':'},
		{ebiten.KeyQuote, '\'', '"'},
		{ebiten.KeyComma, ',', '<'},
		{ebiten.KeyPeriod, '.', '>'},
		{ebiten.KeySlash, '/', '?'},
		{ebiten.KeyBackquote, '`', '~'},
	}
	for _, e := range entries {
		sc := ebitenScancode(e.key)
		km.Load(sc, 0, []byte{e.plain})
		km.Load(sc, input.ModShift, []byte{e.shifted})
	}
}

func loadControlKeys(km *input.Keymap) {
	km.Load(ebitenScancode(ebiten.KeySpace), 0, []byte{' '})
	km.Load(ebitenScancode(ebiten.KeyEnter), 0, []byte{'\r'})
	km.Load(ebitenScancode(ebiten.KeyBackspace), 0, []byte{0x08})
	km.Load(ebitenScancode(ebiten.KeyTab), 0, []byte{'\t'})
	km.Load(ebitenScancode(ebiten.KeyEscape), 0, []byte{0x1b})
	km.Load(ebitenScancode(ebiten.KeyDelete), 0, []byte{0x7f})
	km.Load(ebitenScancode(ebiten.KeyArrowLeft), 0, []byte{0x1b, '[', 'D'})
	km.Load(ebitenScancode(ebiten.KeyArrowRight), 0, []byte{0x1b, '[', 'C'})
	km.Load(ebitenScancode(ebiten.KeyArrowUp), 0, []byte{0x1b, '[', 'A'})
	km.Load(ebitenScancode(ebiten.KeyArrowDown), 0, []byte{0x1b, '[', 'B'})
}
