package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroSettings(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.HasResolution() || s.Theme != "" || s.HasFontSmoothing() {
		t.Fatalf("expected zero Settings, got %+v", s)
	}
}

func TestLoadParsesAllThreeKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.conf")
	body := "resolution=1024x768\ntheme=dark\nfont_smoothing=2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Width != 1024 || s.Height != 768 || s.Theme != "dark" || !s.HasFontSmoothing() || s.FontSmoothing != 2 {
		t.Fatalf("unexpected Settings: %+v", s)
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.conf")
	body := "# comment\n\ntheme=light\n"
	os.WriteFile(path, []byte(body), 0o644)
	s, err := Load(path)
	if err != nil || s.Theme != "light" {
		t.Fatalf("Load = %+v, %v", s, err)
	}
}

func TestSaveResolutionPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.conf")
	os.WriteFile(path, []byte("theme=dark\nfont_smoothing=1\n"), 0o644)

	if err := SaveResolution(path, 1280, 720); err != nil {
		t.Fatalf("SaveResolution: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Width != 1280 || s.Height != 720 || s.Theme != "dark" || s.FontSmoothing != 1 {
		t.Fatalf("unexpected Settings after SaveResolution: %+v", s)
	}
}

func TestSaveThemeOverwritesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.conf")
	os.WriteFile(path, []byte("theme=dark\n"), 0o644)

	if err := SaveTheme(path, "light"); err != nil {
		t.Fatalf("SaveTheme: %v", err)
	}
	s, _ := Load(path)
	if s.Theme != "light" {
		t.Fatalf("expected theme=light, got %q", s.Theme)
	}
}

func TestSaveFontSmoothingCreatesFileWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.conf")
	if err := SaveFontSmoothing(path, 1); err != nil {
		t.Fatalf("SaveFontSmoothing: %v", err)
	}
	s, err := Load(path)
	if err != nil || !s.HasFontSmoothing() || s.FontSmoothing != 1 {
		t.Fatalf("unexpected Settings: %+v, %v", s, err)
	}
}

func TestListAutostartReturnsOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "dock"), []byte{}, 0o755)
	os.WriteFile(filepath.Join(dir, "panel"), []byte{}, 0o755)
	os.Mkdir(filepath.Join(dir, "subdir"), 0o755)

	paths, err := ListAutostart(dir)
	if err != nil {
		t.Fatalf("ListAutostart: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 entries, got %v", paths)
	}
}

func TestListAutostartMissingDirReturnsEmpty(t *testing.T) {
	paths, err := ListAutostart(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("ListAutostart: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no entries, got %v", paths)
	}
}

type fakeSpawner struct {
	spawned []string
	nextPID uint32
	failOn  string
}

func (f *fakeSpawner) Spawn(path string, args []string) (uint32, error) {
	if path == f.failOn {
		return 0, os.ErrInvalid
	}
	f.nextPID++
	f.spawned = append(f.spawned, path)
	return f.nextPID, nil
}

func TestLaunchAutostartSpawnsEveryEntry(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "dock"), []byte{}, 0o755)
	os.WriteFile(filepath.Join(dir, "panel"), []byte{}, 0o755)

	s := &fakeSpawner{}
	pids, err := LaunchAutostart(s, dir)
	if err != nil {
		t.Fatalf("LaunchAutostart: %v", err)
	}
	if len(pids) != 2 || len(s.spawned) != 2 {
		t.Fatalf("expected 2 spawned programs, got pids=%v spawned=%v", pids, s.spawned)
	}
}

func TestLaunchAutostartSkipsFailedSpawnsButContinues(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad"), []byte{}, 0o755)
	os.WriteFile(filepath.Join(dir, "good"), []byte{}, 0o755)

	s := &fakeSpawner{failOn: filepath.Join(dir, "bad")}
	pids, err := LaunchAutostart(s, dir)
	if err != nil {
		t.Fatalf("LaunchAutostart: %v", err)
	}
	if len(pids) != 1 {
		t.Fatalf("expected 1 successful spawn, got %v", pids)
	}
}
