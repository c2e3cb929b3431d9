package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pmulholland42/global-entry-appt-checker/internal/config"
	"github.com/pmulholland42/global-entry-appt-checker/internal/keyboard"
	"github.com/pmulholland42/global-entry-appt-checker/internal/logging"
	"github.com/pmulholland42/global-entry-appt-checker/internal/notify"
	"github.com/pmulholland42/global-entry-appt-checker/internal/schedule"
	"github.com/pmulholland42/global-entry-appt-checker/internal/screen"
	"github.com/pmulholland42/global-entry-appt-checker/internal/ttp"
	"github.com/pmulholland42/global-entry-appt-checker/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "optional path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	// Keys are only read when both ends are a terminal.
	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	color := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""

	logger, err := logging.SetupLogger(cfg.LogFile, cfg.Log.Level, isatty.IsTerminal(os.Stdout.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var keys <-chan keyboard.Key
	var listener *keyboard.Listener
	if interactive {
		listener, err = keyboard.Start(os.Stdin, logger)
		if err != nil {
			logger.Warn("keyboard disabled", "err", err)
		} else {
			keys = listener.Keys(ctx)
		}
	}

	scr := screen.New(os.Stdout,
		screen.WithColor(color),
		screen.WithRawMode(listener != nil),
		screen.WithWidth(func() int { return keyboard.Width(os.Stdout) }),
	)

	var player notify.Player = notify.NewCommandPlayer(notify.ResolveSoundFile(cfg.Sound.File), cfg.Sound.Command, logger)
	if cfg.Sound.Backend == config.SoundBackendBeep {
		player = notify.BeepPlayer{}
	}
	var desktop notify.Desktop = notify.NoDesktop{}
	if cfg.NotifyDesktop() {
		desktop = notify.BeeepDesktop{}
	}

	sched := schedule.New(logger)
	sched.Start()

	client := ttp.NewClient(cfg.SlotsURL(), time.Local, logger)
	w := watcher.New(cfg, client, sched, scr, watcher.Effects{
		Player:  player,
		Desktop: desktop,
		Opener:  notify.BrowserOpener{},
	}, logger)

	logger.Info("appt-checker starting", "url", cfg.SlotsURL(), "interactive", listener != nil)
	runErr := w.Run(ctx, keys)

	stop()
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error("restore terminal", "err", err)
		}
	}
	sched.Stop()

	if runErr != nil {
		logger.Error("watcher error", "err", runErr)
		logging.CloseFile()
		os.Exit(1)
	}
}
