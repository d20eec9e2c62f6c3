package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/reboot"
	"infokiosk/internal/render"
	"infokiosk/internal/sources"
	"infokiosk/internal/storage"
	"infokiosk/internal/sysaction"
	"infokiosk/internal/sysstats"
	kit "infokiosk/internal/transport"
	"infokiosk/internal/transport/telegram"
	logx "infokiosk/pkg/logx"
)

// Options tweak NewApp from the command line.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
}

// NewApp loads the config at cfgPath and wires the production
// collaborators: HTTP fetchers, host stats, systemd actions, the terminal
// renderer, the journal store and the logging sinks.
func NewApp(cfgPath string, opt Options) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	snap, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	cfg := snap.Config
	if opt.LogLevel != "" {
		cfg.Logging.Level = opt.LogLevel
	}

	// The alert sink needs its own bootstrap logger: the real one does
	// not exist yet.
	var sender kit.Sender
	if tg := cfg.Logging.Telegram; tg.Enabled {
		s, err := telegram.New(telegram.Config{Token: tg.Token, URL: tg.APIURL},
			logx.NewConsole("INFO").With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, fmt.Errorf("logging.telegram: %w", err)
		}
		sender = s
	}
	logs, log := logx.New(logConfig(cfg), sender)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	var store storage.Store
	fail := func(err error) (*App, error) {
		if store != nil {
			_ = store.Close()
		}
		_ = logs.Close()
		return nil, err
	}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return fail(err)
	}
	if enabled {
		store, err = storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return fail(err)
		}
		log.Info("journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	out, closeOut, err := openOutput(cfg.Display.Output)
	if err != nil {
		return fail(err)
	}
	renderer, err := render.New(cfg.Display.Renderer, out, snap.Settings.Width)
	if err != nil {
		closeOut()
		return fail(err)
	}

	host := sysstats.NewHost(cfg.Sources.System.Interface,
		sysstats.NewLatencyProbe(snap.Settings.LatencyEvery, 3))
	client := sources.NewClient(cfg.Sources.UserAgent)
	actions := sysaction.New(actionsConfig(cfg), log.With(logx.String("comp", "sysaction")))

	a := New(snap, Deps{
		Sources: func(c *config.Config) sources.Registry {
			return sources.Build(c, client, host)
		},
		Renderer: renderer,
		Actions:  actions,
		Uptime:   reboot.ProcUptime{},
		Store:    store,
		Notifier: sysaction.Notifier{},
		Log:      log,
		Logs:     logs,
		Closers:  []func(){actions.Close, closeOut},
	}, time.Now())
	a.cfgPath = cfgPath
	a.cfgm = cfgm
	return a, nil
}

// CheckConfig loads and validates the config at path without starting
// anything.
func CheckConfig(path string) (*config.Settings, error) {
	cfg, err := config.NewConfigManager(path).Parse()
	if err != nil {
		return nil, err
	}
	st, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	}
	return st, nil
}

func logConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	// validated by config.Resolve
	repeat, _ := config.ParseDurationOrDefault("logging.telegram.repeat", l.Telegram.Repeat, 0)
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		JSON:    l.JSON,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			ChatID:     l.Telegram.ChatID,
			ThreadID:   l.Telegram.ThreadID,
			Label:      cfg.Location.Name,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
			Repeat:     repeat,
		},
	}
}

func actionsConfig(cfg *config.Config) sysaction.Config {
	ac := cfg.Actions
	out := sysaction.Config{
		DryRun:           ac.DryRun,
		ReconnectUnit:    strings.TrimSpace(ac.ReconnectUnit),
		ReconnectCommand: ac.ReconnectCommand,
		RebootCommand:    ac.RebootCommand,
	}
	if out.ReconnectUnit == "" {
		out.ReconnectUnit = config.DefaultReconnectUnit
	}
	if len(out.ReconnectCommand) == 0 {
		out.ReconnectCommand = config.DefaultReconnectCommand
	}
	if len(out.RebootCommand) == 0 {
		out.RebootCommand = config.DefaultRebootCommand
	}
	return out
}

// openOutput resolves display.output: "" or "stdout" is standard output,
// anything else a file or tty opened for writing.
func openOutput(path string) (io.Writer, func(), error) {
	switch p := strings.TrimSpace(path); p {
	case "", "stdout", "-":
		return os.Stdout, func() {}, nil
	default:
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("display.output: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
}

var (
	_ Notifier          = sysaction.Notifier{}
	_ reboot.Rebooter   = (*sysaction.Runner)(nil)
	_ sysstats.Provider = (*sysstats.Host)(nil)
)
