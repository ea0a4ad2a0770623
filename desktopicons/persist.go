package desktopicons

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PositionsPath is the per-user icon-position file, matching
// original_source's "/System/users/desktop_icons" path and its
// "uid:mount_path:x:y" line format exactly (see save_positions/
// load_positions in desktop_icons.rs).
const PositionsPath = "/System/users/desktop_icons"

// SavePositions overwrites PositionsPath with uid's current icon
// positions, one "uid:mount_path:x:y" line per icon.
func SavePositions(path string, uid uint32, icons []Icon) error {
	var b strings.Builder
	for _, ic := range icons {
		fmt.Fprintf(&b, "%d:%s:%d:%d\n", uid, ic.MountPath, ic.X, ic.Y)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// LoadPositions reads PositionsPath and applies any saved position for
// uid onto matching icons in place, leaving icons whose mount path is not
// found at their current (default) position.
func LoadPositions(path string, uid uint32, icons []Icon) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	byMount := make(map[string]int, len(icons))
	for i, ic := range icons {
		byMount[ic.MountPath] = i
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) < 4 {
			continue
		}
		lineUID, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil || uint32(lineUID) != uid {
			continue
		}
		idx, ok := byMount[parts[1]]
		if !ok {
			continue
		}
		x, errX := strconv.ParseInt(parts[2], 10, 32)
		y, errY := strconv.ParseInt(parts[3], 10, 32)
		if errX != nil || errY != nil {
			continue
		}
		icons[idx].X, icons[idx].Y = int32(x), int32(y)
	}
	return scanner.Err()
}
