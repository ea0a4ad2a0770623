package desktopicons

import (
	"path/filepath"
	"testing"
)

func TestSaveThenLoadPositionsRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop_icons")
	icons := []Icon{
		{MountPath: "/", X: 10, Y: 20},
		{MountPath: "/mnt/usb0", X: 30, Y: 40},
	}
	if err := SavePositions(path, 7, icons); err != nil {
		t.Fatalf("SavePositions: %v", err)
	}

	loaded := []Icon{
		{MountPath: "/", X: 0, Y: 0},
		{MountPath: "/mnt/usb0", X: 0, Y: 0},
	}
	if err := LoadPositions(path, 7, loaded); err != nil {
		t.Fatalf("LoadPositions: %v", err)
	}
	if loaded[0].X != 10 || loaded[0].Y != 20 || loaded[1].X != 30 || loaded[1].Y != 40 {
		t.Fatalf("positions did not round-trip: %+v", loaded)
	}
}

func TestLoadPositionsIgnoresOtherUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop_icons")
	if err := SavePositions(path, 7, []Icon{{MountPath: "/", X: 10, Y: 20}}); err != nil {
		t.Fatalf("SavePositions: %v", err)
	}

	loaded := []Icon{{MountPath: "/", X: 99, Y: 99}}
	if err := LoadPositions(path, 8, loaded); err != nil {
		t.Fatalf("LoadPositions: %v", err)
	}
	if loaded[0].X != 99 || loaded[0].Y != 99 {
		t.Fatal("a different uid's saved positions should not apply")
	}
}

func TestLoadPositionsMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")
	icons := []Icon{{MountPath: "/", X: 1, Y: 1}}
	if err := LoadPositions(path, 1, icons); err != nil {
		t.Fatalf("missing positions file should not error: %v", err)
	}
	if icons[0].X != 1 || icons[0].Y != 1 {
		t.Fatal("icons should be unchanged when no positions file exists")
	}
}

func TestLoadPositionsLeavesUnmatchedIconsAtDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop_icons")
	if err := SavePositions(path, 1, []Icon{{MountPath: "/mnt/old", X: 10, Y: 20}}); err != nil {
		t.Fatalf("SavePositions: %v", err)
	}
	loaded := []Icon{{MountPath: "/mnt/new", X: 5, Y: 5}}
	if err := LoadPositions(path, 1, loaded); err != nil {
		t.Fatalf("LoadPositions: %v", err)
	}
	if loaded[0].X != 5 || loaded[0].Y != 5 {
		t.Fatal("an icon with no saved entry should keep its current position")
	}
}
