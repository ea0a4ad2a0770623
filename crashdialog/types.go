// Package crashdialog implements the reparented modal overlay of spec §4.9:
// on a fatal child exit, the compositor queries the kernel for a crash
// report and shows a centered, always-on-top dialog (icon, title, message,
// Quit button) until the user dismisses it.
//
// Grounded on original_source main.rs's EVT_PROCESS_EXITED handling (the
// exit-code range 129..=255 that marks a fatal signal, and the
// show_crash_dialog(pid, exit_code, blob) call shape) and the teacher's
// VideoError for diagnostic-message formatting conventions. The crash
// report's own wire format has no surviving original_source file to copy,
// so report.go's decoder follows menu/parse.go's length-prefixed-string
// reader style instead.
package crashdialog

import "github.com/brianmayclone/anyos-sub003/layer"

const (
	dialogWidth  = 360
	dialogHeight = 160

	buttonWidth  = 90
	buttonHeight = 28
	buttonMargin = 20

	iconSize = 40
	padding  = 20
)

// MinFatalExitCode and MaxFatalExitCode bound the signal-exit-code range
// original_source's main.rs checks (exit_code > 128 && exit_code < 256).
const (
	MinFatalExitCode = 129
	MaxFatalExitCode = 255
)

// IsFatal reports whether exitCode signals a fatal signal per that range.
func IsFatal(exitCode int32) bool {
	return exitCode >= MinFatalExitCode && exitCode <= MaxFatalExitCode
}

// Report is the decoded crash report the kernel hands back for a given
// thread id.
type Report struct {
	ProcessID uint32
	ExitCode  int32
	Title     string
	Message   string
}

// Dialog is one open crash overlay.
type Dialog struct {
	LayerID layer.ID
	Report  Report
	width   int32
	height  int32
}

// quitButtonRect returns the Quit button's bounds in the dialog's own
// local (layer-relative) coordinate space.
func (d *Dialog) quitButtonRect() (x, y, w, h int32) {
	w, h = buttonWidth, buttonHeight
	x = d.width - buttonWidth - buttonMargin
	y = d.height - buttonHeight - buttonMargin
	return
}
