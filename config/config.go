// Package config implements the compositor's on-disk settings of spec §6:
// `compositor.conf`'s `key=value` lines for resolution, theme, and font
// smoothing, plus the `/System/compositor/autostart/*` directory of
// post-login executables.
//
// Grounded on original_source main.rs's config::read_resolution/
// read_theme/read_font_smoothing/save_resolution/save_theme/
// save_font_smoothing/launch_autostart call shape — the config.rs module
// itself did not survive the source filter, so the read/write contract is
// reconstructed from how main.rs calls it (an Option-returning reader per
// key, a whole-value writer per key, an autostart launcher returning
// spawned thread ids), not copied from its implementation. Line parsing
// follows desktopicons/persist.go's bufio.Scanner style for consistency
// with the rest of the compositor's hand-rolled config decoders.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfPath is the compositor's settings file, matching spec.md §6 exactly.
const ConfPath = "/System/compositor/compositor.conf"

// AutostartDir holds executables launched once, after a successful login,
// matching spec.md §6 exactly.
const AutostartDir = "/System/compositor/autostart"

// Settings is the decoded contents of compositor.conf. A zero-valued field
// means the key was absent; callers fall back to a built-in default the
// same way main.rs only overrides a setting when read_* returns Some.
type Settings struct {
	Width, Height int
	Theme         string
	FontSmoothing int
	fontSmoothingSet bool
}

// HasResolution reports whether both width and height were present.
func (s Settings) HasResolution() bool { return s.Width > 0 && s.Height > 0 }

// HasFontSmoothing reports whether font_smoothing was present.
func (s Settings) HasFontSmoothing() bool { return s.fontSmoothingSet }

// Load reads and parses path. A missing file is not an error — it returns
// a zero Settings, the same as a freshly installed system with no saved
// preferences yet.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case "resolution":
			w, h, ok := parseResolution(value)
			if ok {
				s.Width, s.Height = w, h
			}
		case "theme":
			s.Theme = value
		case "font_smoothing":
			if mode, err := strconv.Atoi(value); err == nil {
				s.FontSmoothing = mode
				s.fontSmoothingSet = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func parseResolution(value string) (w, h int, ok bool) {
	i := strings.IndexByte(value, 'x')
	if i < 0 {
		return 0, 0, false
	}
	wv, errW := strconv.Atoi(value[:i])
	hv, errH := strconv.Atoi(value[i+1:])
	if errW != nil || errH != nil || wv <= 0 || hv <= 0 {
		return 0, 0, false
	}
	return wv, hv, true
}

// SaveResolution rewrites the resolution key in path, preserving every
// other key, matching main.rs's save_resolution(w, h) call on
// EVT_RESOLUTION_CHANGED.
func SaveResolution(path string, w, h int) error {
	return rewriteKey(path, "resolution", fmt.Sprintf("%dx%d", w, h))
}

// SaveTheme rewrites the theme key, matching main.rs's
// save_theme(name, extra) call on a theme toggle. The original takes a
// second "extra" argument whose purpose does not survive in main.rs's call
// sites (always passed empty); this rewrite drops it rather than carry a
// parameter nothing uses.
func SaveTheme(path, name string) error {
	return rewriteKey(path, "theme", name)
}

// SaveFontSmoothing rewrites the font_smoothing key, matching main.rs's
// save_font_smoothing(mode) call on SET_FONT_SMOOTHING.
func SaveFontSmoothing(path string, mode int) error {
	return rewriteKey(path, "font_smoothing", strconv.Itoa(mode))
}

// rewriteKey reads path's existing lines, replaces or appends the given
// key, and writes the result back. A missing file starts from an empty
// document rather than failing, so the first SaveX call after a fresh
// install creates compositor.conf.
func rewriteKey(path, key, value string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	found := false
	for i, line := range lines {
		k, _, ok := parseLine(line)
		if ok && k == key {
			lines[i] = key + "=" + value
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, key+"="+value)
	}

	out := strings.Join(trimEmpty(lines), "\n")
	if out != "" {
		out += "\n"
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

func trimEmpty(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// ListAutostart returns the executable paths under dir, sorted by file
// name, for the session loop to spawn after a successful
// login. A missing directory yields an empty list, not an error.
func ListAutostart(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, dir+"/"+e.Name())
	}
	return paths, nil
}
