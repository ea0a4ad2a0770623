// Command democlient is a self-contained example client program: spec.md's
// MODULE MAP calls for one, and since ipcchan.Channel (see channel.go) has
// no real cross-process transport — it is a plain in-process Go object —
// this demo boots its own compositor session and its own client.Handle as
// two goroutines sharing that one channel, rather than pretending at a
// real separate-process IPC this port doesn't have. It doubles as a
// runnable walkthrough of spec §8's window create/paint/destroy scenario.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianmayclone/anyos-sub003/client"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/kernel/headless"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/session"
	"github.com/brianmayclone/anyos-sub003/window"
)

const (
	screenW, screenH = 800, 600
	winW, winH       = 320, 240
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	backend := headless.New(screenW, screenH)
	sess := session.New(session.Config{
		Kernel:       backend,
		ScreenWidth:  screenW,
		ScreenHeight: screenH,
	})

	stop := make(chan struct{})
	sessionDone := make(chan error, 1)
	go func() { sessionDone <- sess.Run(stop) }()
	// Give the management loop a moment to register the compositor before
	// this "process" connects, the same ordering a real client relies on
	// the kernel to enforce.
	time.Sleep(20 * time.Millisecond)

	pid, err := backend.Spawn("/System/bin/democlient", nil)
	if err != nil {
		log.Fatal().Err(err).Msg("democlient: spawn failed")
	}
	sub := sess.Connect(pid)
	defer sess.Disconnect(sub)

	h := client.New(sess.Channel(), backend, sub, pid)

	win, err := h.CreateWindow("Demo Client", 40, 40, winW, winH, window.Borderless)
	if err != nil {
		log.Fatal().Err(err).Msg("democlient: CreateWindow failed")
	}
	fmt.Printf("created window id=%d\n", win.ID())

	pixel.Fill(win.Surface, pixel.NewARGB(0xff, 0x20, 0x60, 0xa0))
	pixel.FillRect(win.Surface, 20, 20, winW-40, winH-40, pixel.NewARGB(0xff, 0xe0, 0xe0, 0xe0))
	if err := win.Present(); err != nil {
		log.Fatal().Err(err).Msg("democlient: Present failed")
	}
	fmt.Println("presented first frame")

	// Simulate a user clicking inside the window: push the raw kernel
	// input events a real mouse driver would, then poll the translated
	// client events back out, matching spec §4.5's raw-event-to-client-
	// event path.
	backend.PushInput(input.Event{Type: input.MouseMove, A: 100, B: 100})
	backend.PushInput(input.Event{Type: input.MouseDown, A: int32(input.ButtonLeft), B: 100, C: 100})
	backend.PushInput(input.Event{Type: input.MouseUp, A: int32(input.ButtonLeft), B: 100, C: 100})
	time.Sleep(50 * time.Millisecond)

	for {
		ev, ok := h.PollEvent()
		if !ok {
			break
		}
		fmt.Printf("event kind=%d window=%d x=%d y=%d\n", ev.Kind, ev.WindowID, ev.X, ev.Y)
	}

	if err := win.Destroy(); err != nil {
		log.Warn().Err(err).Msg("democlient: Destroy failed")
	}
	fmt.Println("destroyed window")

	close(stop)
	<-sessionDone
}
