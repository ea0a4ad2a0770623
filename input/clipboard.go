package input

import (
	"sync"

	"golang.design/x/clipboard"
)

// Clipboard is the single owned (mime, bytes) buffer of spec §4.5.
// CLIPBOARD_SET overwrites it; CLIPBOARD_GET reads the current payload.
// Grounded on video_backend_ebiten.go's handleClipboardPaste, generalized
// from "always read the OS clipboard into a PTY" to an explicit
// set/get pair so either side — the OS clipboard or a client's
// CLIPBOARD_SET — can be the source of truth.
type Clipboard struct {
	mu        sync.Mutex
	mime      string
	payload   []byte
	osReady   bool
	initOnce  sync.Once
	initErr   error
}

// MimeText is the mime type used for plain-text clipboard payloads.
const MimeText = "text/plain"

// NewClipboard creates an empty clipboard bridge. The OS clipboard is
// initialized lazily on first use, matching the teacher's clipboardOnce
// pattern.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) ensureOS() error {
	c.initOnce.Do(func() {
		c.initErr = clipboard.Init()
		c.osReady = c.initErr == nil
	})
	return c.initErr
}

// Set overwrites the clipboard payload (a CLIPBOARD_SET command).
func (c *Clipboard) Set(mime string, data []byte) {
	c.mu.Lock()
	c.mime = mime
	c.payload = append([]byte(nil), data...)
	c.mu.Unlock()

	if mime == MimeText && c.ensureOS() == nil {
		clipboard.Write(clipboard.FmtText, data)
	}
}

// Get returns the current clipboard payload (a CLIPBOARD_GET command). If
// the internal buffer is empty and the OS clipboard is available, it falls
// back to reading the OS clipboard so paste works even when no client has
// called Set in this session.
func (c *Clipboard) Get() (mime string, data []byte) {
	c.mu.Lock()
	mime, data = c.mime, c.payload
	c.mu.Unlock()
	if len(data) > 0 {
		return mime, data
	}
	if c.ensureOS() != nil {
		return "", nil
	}
	if osData := clipboard.Read(clipboard.FmtText); len(osData) > 0 {
		return MimeText, osData
	}
	return "", nil
}
