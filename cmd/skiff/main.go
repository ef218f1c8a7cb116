package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thobiasn/skiff/internal/bus"
	"github.com/thobiasn/skiff/internal/config"
	"github.com/thobiasn/skiff/internal/engine"
	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/input"
	"github.com/thobiasn/skiff/internal/runtime"
	"github.com/thobiasn/skiff/internal/state"
	"github.com/thobiasn/skiff/internal/ui"
)

// version is set via -ldflags at build time.
var version = "dev"

const pingTimeout = 5 * time.Second

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "--version" {
		fmt.Println("skiff " + version)
		return
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	path, explicit := opts.configPath, opts.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		fatalConfig(err)
	}
	opts.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		fatalConfig(err)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("skiff stopped with error", "error", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// options holds the command line flags. Flags that were not given leave the
// config file values untouched.
type options struct {
	configPath   string
	interval     *uint
	color        bool
	raw          bool
	noTimestamps bool
	host         string
	headless     bool
}

func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("skiff", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  skiff [flags]\n  skiff --version\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to config file")
	interval := fs.Uint("d", 0, "docker poll interval in milliseconds")
	fs.BoolVar(&opts.color, "c", false, "keep log colors and colorize plain lines")
	fs.BoolVar(&opts.raw, "r", false, "show logs unprocessed")
	fs.BoolVar(&opts.noTimestamps, "t", false, "hide log timestamps")
	fs.StringVar(&opts.host, "host", "", "docker host, e.g. tcp://10.0.0.2:2375")
	fs.BoolVar(&opts.headless, "headless", false, "run without the terminal UI")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "d" {
			opts.interval = interval
		}
	})
	return &opts, nil
}

func (o *options) apply(cfg *config.Config) {
	if o.interval != nil {
		cfg.PollInterval.Duration = time.Duration(*o.interval) * time.Millisecond
	}
	if o.color {
		cfg.Color = true
	}
	if o.raw {
		cfg.Raw = true
	}
	if o.noTimestamps {
		off := false
		cfg.Timestamps = &off
	}
	if o.host != "" {
		cfg.Docker.Host = o.host
	}
	if o.headless {
		cfg.Headless = true
	}
}

// setupLogging routes slog to the log file, since the terminal belongs to
// the UI. Headless mode logs to stderr.
func fatalConfig(err error) {
	if errors.Is(err, config.ErrInterval) {
		err = state.AppError{Kind: state.ErrDockerInterval}
	}
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}

func setupLogging(cfg *config.Config) (func(), error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Headless {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)))
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, handlerOpts)))
	var once sync.Once
	return func() { once.Do(func() { f.Close() }) }, nil
}

// connect creates the docker client and checks the daemon answers.
func connect(ctx context.Context, host string) (*runtime.Docker, error) {
	d, err := runtime.NewDocker(host)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	app := state.NewAppState(cfg.LogDisplay())
	app.Update(func(r *state.Registry) {
		r.SetSelfMatcher(runtime.SelfMatcher(runtime.Containerised()))
	})
	g := gui.NewState()

	var running atomic.Bool
	running.Store(true)
	engineQ := bus.New[engine.Message](bus.DefaultSize)
	inputQ := bus.New[tea.Msg](bus.DefaultSize)

	docker, err := connect(ctx, cfg.Docker.Host)
	if err != nil {
		slog.Error("docker connection failed", "host", cfg.Docker.Host, "error", err)
		if cfg.Headless {
			return fmt.Errorf("%s: %w", state.AppError{Kind: state.ErrDockerConnect}, err)
		}
		app.SetError(state.AppError{Kind: state.ErrDockerConnect})
		g.StatusPush(gui.StatusDockerConnect)
	} else {
		defer docker.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if docker != nil {
		orch := engine.New(docker, app, g, engineQ, &running)
		wg.Add(1)
		go func() {
			defer wg.Done()
			orch.Run(ctx)
		}()
	}

	if cfg.Headless {
		poll(ctx, engineQ, &running, cfg.PollInterval.Duration)
		cancel()
		wg.Wait()
		return nil
	}

	term := &ui.Terminal{}
	disp := input.New(app, g, inputQ, engineQ, &running, term)
	wg.Add(1)
	go func() {
		defer wg.Done()
		disp.Run(ctx)
	}()

	var shell func(state.ContainerID) *exec.Cmd
	if docker != nil {
		shell = docker.ShellCommand
	}
	model := ui.New(app, g, inputQ, engineQ, &running, ui.Options{
		Interval: cfg.PollInterval.Duration,
		Theme:    ui.BuildTheme(cfg.Theme),
		Shell:    shell,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	term.Attach(p)

	_, err = p.Run()
	running.Store(false)
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("%s: %w", state.AppError{Kind: state.ErrTerminal}, err)
	}
	return nil
}

// poll drives headless mode: an update every interval until ctx is done or
// the run flag is cleared.
func poll(ctx context.Context, q *bus.Queue[engine.Message], running *atomic.Bool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.Send(engine.Message{Kind: engine.Update})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !running.Load() {
				return
			}
			if !q.Send(engine.Message{Kind: engine.Update}) {
				slog.Debug("orchestrator queue full, skipping update")
			}
		}
	}
}
