// Package state implements the compositor's one block of values shared
// between the management thread and the render thread, and between one
// session and the next: display theme, font-smoothing mode, and current
// resolution. Spec §9 flags the original's approach — a fixed
// virtual-address shared page a client library reads directly — as an
// address-space-layout coupling a reimplementation should break; Shared is
// the "broadcast-then-cached value" alternative the spec recommends,
// authoritative in the compositor and mirrored into each client.Handle on
// the THEME_CHANGED/FONT_SMOOTHING_CHANGED broadcast.
package state

import "sync"

// Theme names, matching compositor.conf's theme value and SET_THEME's 0/1
// argument.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Shared is the compositor's big-lock-adjacent settings block. It has its
// own mutex distinct from the render/management big lock, since reading
// the current theme or resolution never needs to block a frame.
type Shared struct {
	mu sync.RWMutex

	theme         string
	fontSmoothing int
	screenW       int
	screenH       int
}

// New creates a Shared block seeded with initial values, typically loaded
// from config.Settings at startup.
func New(theme string, fontSmoothing, screenW, screenH int) *Shared {
	if theme == "" {
		theme = ThemeDark
	}
	return &Shared{theme: theme, fontSmoothing: fontSmoothing, screenW: screenW, screenH: screenH}
}

func (s *Shared) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *Shared) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

func (s *Shared) FontSmoothing() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fontSmoothing
}

func (s *Shared) SetFontSmoothing(mode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSmoothing = mode
}

func (s *Shared) Resolution() (w, h int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screenW, s.screenH
}

func (s *Shared) SetResolution(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenW, s.screenH = w, h
}
