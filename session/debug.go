package session

import (
	"fmt"

	"github.com/brianmayclone/anyos-sub003/kernel"
)

// DebugWindows returns a human-readable line per live window, for
// cmd/compositor's --debug-console "windows" command to dump. It reuses
// allWindowIDs rather than re-walking the layer stack itself.
func (s *Session) DebugWindows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.allWindowIDs()
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		w, ok := s.windows.Get(id)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("id=%d owner=%d title=%q rect=%v visible=%v minimized=%v",
			id, w.OwnerProcess, w.Title, w.OuterRect, w.Visible, w.Minimized))
	}
	return lines
}

// DebugForceResolution drives the same code path a real ResolutionChanged
// kernel event would, without needing a backend that actually supports
// live mode switching — cmd/compositor's --debug-console "resolution"
// command's hook.
func (s *Session) DebugForceResolution(w, h int) error {
	if err := s.kernel.SetResolution(w, h); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleResolutionChangedLocked(kernel.SysEvent{Kind: kernel.ResolutionChanged, Width: w, Height: h})
	return nil
}

// DebugSyntheticCrash shows the crash dialog for pid without an actual
// process exit, for cmd/compositor's --debug-console "crash" command to
// exercise spec §8's client-crash scenario on demand.
func (s *Session) DebugSyntheticCrash(pid uint32, exitCode int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showCrashDialog(pid, exitCode)
}
