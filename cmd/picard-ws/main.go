package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SCuellar21/picard/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override picard config path (optional)")
	prefsPath := flag.String("prefs", "", "override monitor preferences path (optional)")
	monitor := flag.Bool("monitor", false, "show the request monitor while the command runs")
	pollSeconds := flag.Int("poll", 0, "monitor refresh interval in seconds (optional, defaults to 1s)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%s\n\nflags:\n", app.Usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Monitor:    *monitor,
		Args:       flag.Args(),
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		if errors.Is(err, app.ErrUsage) {
			flag.Usage()
			if err != app.ErrUsage {
				fmt.Fprintf(os.Stderr, "\npicard-ws: %v\n", err)
			}
			return 2
		}
		fmt.Fprintf(os.Stderr, "picard-ws: %v\n", err)
		return 1
	}
	return 0
}
