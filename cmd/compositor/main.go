// Command compositor is anyOS's window compositor: spec.md's single
// process owning the framebuffer, the cursor, every window, the menu bar,
// and the desktop icons.
//
// Grounded on helixml-helix's cmd/hydra/main.go: one cobra.Command with its
// flags bound directly to package vars, zerolog configured from a
// --log-level flag in Run, and a signal.Notify goroutine that cancels a
// context (here, closes a stop channel) on SIGINT/SIGTERM instead of
// exiting the process out from under the render loop.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brianmayclone/anyos-sub003/config"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/kernel/ebitenbackend"
	"github.com/brianmayclone/anyos-sub003/kernel/headless"
	"github.com/brianmayclone/anyos-sub003/session"
)

var (
	backendName  string
	width        int
	height       int
	logLevel     string
	confPath     string
	autostartDir string
	iconDir      string
	wallpaperDir string
	dockPath     string
	loginPath    string
	debugConsole bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "compositor",
		Short: "anyOS window compositor",
		Long: `compositor owns anyOS's entire display: one framebuffer, one cursor,
every client window, the menu bar, and the desktop icons. Client programs
reach it over the channel a process's subscription id identifies; see
package client for the library they link against.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&backendName, "backend", "ebiten", "display backend: ebiten or headless")
	rootCmd.Flags().IntVar(&width, "width", 1024, "initial framebuffer width")
	rootCmd.Flags().IntVar(&height, "height", 768, "initial framebuffer height")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&confPath, "conf-path", config.ConfPath, "path to compositor.conf")
	rootCmd.Flags().StringVar(&autostartDir, "autostart-dir", config.AutostartDir, "directory of post-login autostart executables")
	rootCmd.Flags().StringVar(&iconDir, "icon-dir", "", "desktop icon directory override")
	rootCmd.Flags().StringVar(&wallpaperDir, "wallpaper-dir", "", "base directory for relative wallpaper paths")
	rootCmd.Flags().StringVar(&dockPath, "dock-path", "", "executable spawned first on reveal")
	rootCmd.Flags().StringVar(&loginPath, "login-path", "", "login executable spawned at startup and after every logout")
	rootCmd.Flags().BoolVar(&debugConsole, "debug-console", false, "enable the raw-stdin debug console (windows/resolution/crash)")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("compositor: failed to execute")
	}
}

func run(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var backend kernel.Interface
	switch backendName {
	case "ebiten":
		backend = ebitenbackend.New(width, height)
	case "headless":
		backend = headless.New(width, height)
	default:
		log.Fatal().Str("backend", backendName).Msg("compositor: unknown --backend, want ebiten or headless")
	}
	defer backend.Close()

	sess := session.New(session.Config{
		Kernel:       backend,
		ScreenWidth:  int32(width),
		ScreenHeight: int32(height),
		ConfPath:     confPath,
		AutostartDir: autostartDir,
		IconDir:      iconDir,
		WallpaperDir: wallpaperDir,
		DockPath:     dockPath,
		LoginPath:    loginPath,
	})

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("compositor: received shutdown signal")
		close(stop)
	}()

	if debugConsole {
		console := newDebugConsole(sess, stop)
		if err := console.Start(); err != nil {
			log.Warn().Err(err).Msg("compositor: debug console unavailable")
		} else {
			defer console.Stop()
		}
	}

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- sess.Run(stop)
	}()

	log.Info().Str("backend", backendName).Int("width", width).Int("height", height).Msg("compositor: starting")

	runErr := backend.Run(stop)
	select {
	case <-stop:
	default:
		close(stop)
	}
	if sessErr := <-sessionDone; sessErr != nil && runErr == nil {
		runErr = sessErr
	}
	return runErr
}
