package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/brianmayclone/anyos-sub003/session"
)

// debugConsole is a raw-stdin REPL exposing session.Session's Debug*
// methods: "windows" dumps the window store, "resolution W H" forces a
// mode switch, "crash PID [code]" raises a synthetic crash dialog.
//
// Grounded directly on the teacher's terminal_host.go: the same
// term.MakeRaw/term.Restore pair, the same stopCh/done goroutine-lifecycle
// shape, and the same EAGAIN-sleep nonblocking read loop, adapted from
// routing bytes into an emulated MMIO device to assembling and dispatching
// line-oriented debug commands instead.
type debugConsole struct {
	sess *session.Session

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	fd           int
	oldTermState *term.State

	line []byte
}

func newDebugConsole(sess *session.Session, stop <-chan struct{}) *debugConsole {
	c := &debugConsole{
		sess:   sess,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		<-stop
		c.Stop()
	}()
	return c
}

// Start puts stdin into raw, nonblocking mode and begins reading commands
// in a background goroutine.
func (c *debugConsole) Start() error {
	c.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		return err
	}
	c.oldTermState = oldState
	if err := syscall.SetNonblock(c.fd, true); err != nil {
		term.Restore(c.fd, c.oldTermState)
		return err
	}

	fmt.Fprint(os.Stdout, "debug console ready (windows | resolution W H | crash PID [code])\r\n")
	go c.readLoop()
	return nil
}

// Stop restores the terminal and waits for the read goroutine to exit.
func (c *debugConsole) Stop() {
	c.stopped.Do(func() { close(c.stopCh) })
	<-c.done
	syscall.SetNonblock(c.fd, false)
	term.Restore(c.fd, c.oldTermState)
}

func (c *debugConsole) readLoop() {
	defer close(c.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		n, err := syscall.Read(c.fd, buf)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return
		}
		if n == 0 {
			continue
		}

		b := buf[0]
		switch {
		case b == '\r' || b == '\n':
			fmt.Fprint(os.Stdout, "\r\n")
			c.dispatch(string(c.line))
			c.line = c.line[:0]
		case b == 0x7F || b == 0x08:
			if len(c.line) > 0 {
				c.line = c.line[:len(c.line)-1]
				fmt.Fprint(os.Stdout, "\b \b")
			}
		default:
			c.line = append(c.line, b)
			os.Stdout.Write([]byte{b})
		}
	}
}

func (c *debugConsole) dispatch(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "windows":
		for _, l := range c.sess.DebugWindows() {
			fmt.Fprintf(os.Stdout, "%s\r\n", l)
		}
	case "resolution":
		if len(fields) != 3 {
			fmt.Fprint(os.Stdout, "usage: resolution W H\r\n")
			return
		}
		w, errW := strconv.Atoi(fields[1])
		h, errH := strconv.Atoi(fields[2])
		if errW != nil || errH != nil {
			fmt.Fprint(os.Stdout, "usage: resolution W H\r\n")
			return
		}
		if err := c.sess.DebugForceResolution(w, h); err != nil {
			fmt.Fprintf(os.Stdout, "resolution change failed: %v\r\n", err)
		}
	case "crash":
		if len(fields) < 2 {
			fmt.Fprint(os.Stdout, "usage: crash PID [exit_code]\r\n")
			return
		}
		pid, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			fmt.Fprint(os.Stdout, "usage: crash PID [exit_code]\r\n")
			return
		}
		code := int32(-1)
		if len(fields) >= 3 {
			if v, err := strconv.Atoi(fields[2]); err == nil {
				code = int32(v)
			}
		}
		c.sess.DebugSyntheticCrash(uint32(pid), code)
	default:
		fmt.Fprintf(os.Stdout, "unknown command %q\r\n", fields[0])
	}
}
