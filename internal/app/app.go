package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SCuellar21/picard/internal/acoustid"
	"github.com/SCuellar21/picard/internal/config"
	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/musicbrainz"
	"github.com/SCuellar21/picard/internal/prefs"
	"github.com/SCuellar21/picard/internal/state"
	"github.com/SCuellar21/picard/internal/ui"
	"github.com/SCuellar21/picard/internal/version"
	"github.com/SCuellar21/picard/internal/webservice"
)

// Options configure one picard-ws invocation.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/picard/monitor.toml
	Monitor    bool
	PollEvery  int // seconds; zero uses default
	Args       []string
	Stdout     io.Writer
	Stderr     io.Writer
	// Transport overrides the HTTP transport options; used by tests.
	Transport *webservice.Options
}

// Run loads configuration, dispatches the command in opts.Args and waits for
// every reply. With Monitor set it shows the request monitor until the user
// quits.
func Run(ctx context.Context, opts Options) error {
	if len(opts.Args) == 0 {
		return ErrUsage
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: opts.Stderr}
	if opts.Monitor {
		logFile, err := openLogFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logCfg.Output = logFile
		logCfg.Format = "json"
	}
	logging.Init(logCfg)

	tOpts := webservice.Options{}
	if opts.Transport != nil {
		tOpts = *opts.Transport
	}
	if tOpts.UserAgent == "" {
		tOpts.UserAgent = version.UserAgent()
	}
	if tOpts.Credentials == nil {
		tOpts.Credentials = cfg
	}
	transport := webservice.NewTransport(tOpts)

	mb, err := musicbrainz.New(transport, cfg, version.ClientString())
	if err != nil {
		return fmt.Errorf("init musicbrainz client: %w", err)
	}
	ac, err := acoustid.New(transport, cfg, version.Version)
	if err != nil {
		return fmt.Errorf("init acoustid client: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bg sync.WaitGroup
	bg.Add(1)
	go func() {
		defer bg.Done()
		if err := transport.Run(runCtx); err != nil {
			logging.Error().Err(err).Msg("transport stopped")
		}
	}()
	if cfg.MetricsAddr != "" {
		bg.Add(1)
		go func() {
			defer bg.Done()
			if err := serveMetrics(runCtx, cfg.MetricsAddr); err != nil {
				logging.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server")
			}
		}()
	}
	defer func() {
		cancel()
		bg.Wait()
	}()

	store := &state.Store{}
	replyOut := opts.Stdout
	if opts.Monitor {
		// The monitor owns the terminal; failures still reach the store.
		replyOut = io.Discard
	}
	out := newPrinter(replyOut, store)
	d := &dispatcher{mb: mb, ac: ac, out: out}

	issued, err := d.dispatch(opts.Args)
	if err != nil {
		return err
	}
	logging.Debug().Int("requests", issued).Str("command", opts.Args[0]).Msg("command dispatched")

	if opts.Monitor {
		return runMonitor(runCtx, opts, cfg.LogFile, store, transport)
	}

	<-out.done(ctx, issued)
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed := out.failures(); failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, issued)
	}
	return nil
}

func runMonitor(ctx context.Context, opts Options, logPath string, store *state.Store, transport *webservice.Transport) error {
	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	StartPoller(ctx, store, transport, interval)
	refresh(store, transport)

	userPrefs := prefs.Load(opts.PrefsPath)
	err := ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Canceler:  transport,
		PollTick:  interval,
		Title:     "picard-ws " + version.Version,
		ThemeName: userPrefs.Theme,
		Filter:    userPrefs.Filter,
		PrefsPath: opts.PrefsPath,
		LogPath:   logPath,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

// openLogFile opens path for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
