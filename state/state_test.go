package state

import "testing"

func TestNewDefaultsEmptyThemeToDark(t *testing.T) {
	s := New("", 0, 1024, 768)
	if s.Theme() != ThemeDark {
		t.Fatalf("Theme() = %q, want %q", s.Theme(), ThemeDark)
	}
}

func TestSetThemeAndResolutionRoundTrip(t *testing.T) {
	s := New(ThemeDark, 1, 640, 480)
	s.SetTheme(ThemeLight)
	s.SetFontSmoothing(2)
	s.SetResolution(1920, 1080)

	if s.Theme() != ThemeLight {
		t.Fatalf("Theme() = %q", s.Theme())
	}
	if s.FontSmoothing() != 2 {
		t.Fatalf("FontSmoothing() = %d", s.FontSmoothing())
	}
	w, h := s.Resolution()
	if w != 1920 || h != 1080 {
		t.Fatalf("Resolution() = %d,%d", w, h)
	}
}
