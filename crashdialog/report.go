package crashdialog

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed is returned when a crash report blob is too short or has an
// inconsistent length-prefixed string, mirroring menu.ErrMalformed's role
// for the menu-bar blob decoder.
var ErrMalformed = errors.New("crashdialog: malformed crash report")

const maxFieldLen = 256

// DecodeReport parses the kernel's crash report blob: two length-prefixed
// UTF-8 strings (title, message), little-endian lengths. The process id and
// exit code are not in the blob; they come from the caller's arguments.
// There is no surviving reference for this wire format, so
// the layout follows menu/parse.go's reader conventions for consistency
// with the rest of the compositor's blob decoders.
func DecodeReport(data []byte, processID uint32, exitCode int32) (Report, error) {
	r := Report{ProcessID: processID, ExitCode: exitCode}
	if len(data) < 8 {
		return Report{}, ErrMalformed
	}
	off := 0
	title, n, err := readString(data[off:])
	if err != nil {
		return Report{}, err
	}
	off += n
	message, _, err := readString(data[off:])
	if err != nil {
		return Report{}, err
	}
	r.Title = title
	r.Message = message
	return r, nil
}

func readString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, ErrMalformed
	}
	l := int(binary.LittleEndian.Uint32(data[:4]))
	if l < 0 || l > maxFieldLen || 4+l > len(data) {
		return "", 0, ErrMalformed
	}
	return string(data[4 : 4+l]), 4 + l, nil
}

// FallbackReport builds a generic report when the kernel has no crash
// blob available (e.g. the process vanished before it could be queried).
func FallbackReport(processID uint32, exitCode int32) Report {
	return Report{
		ProcessID: processID,
		ExitCode:  exitCode,
		Title:     "Application Quit Unexpectedly",
		Message:   "The application stopped responding and was closed.",
	}
}
