// Package sysaction carries out the remedial actions the kiosk may need:
// reconnecting the network and rebooting the host. systemd is asked over
// D-Bus first; configured commands are the fallback.
package sysaction

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	logx "infokiosk/pkg/logx"
)

// ErrUnsupported is returned where systemd over D-Bus is not available.
var ErrUnsupported = errors.New("sysaction: systemd unsupported on this OS")

const rebootTarget = "reboot.target"

// UnitManager is the slice of the systemd manager API used here.
type UnitManager interface {
	RestartUnit(ctx context.Context, unit string) error
	// StartUnit starts unit with the given job mode ("replace", "replace-irreversibly").
	StartUnit(ctx context.Context, unit, mode string) error
	Close()
}

// CommandFunc runs argv and waits for it.
type CommandFunc func(ctx context.Context, argv []string) error

type Config struct {
	DryRun           bool
	ReconnectUnit    string
	ReconnectCommand []string
	RebootCommand    []string
}

// Runner implements the watchdog and reboot timer action interfaces.
type Runner struct {
	cfg  Config
	log  logx.Logger
	dial func(ctx context.Context) (UnitManager, error)
	run  CommandFunc

	mu    sync.Mutex
	units UnitManager
}

type Option func(*Runner)

// WithUnitManager skips dialing D-Bus and uses m.
func WithUnitManager(m UnitManager) Option {
	return func(r *Runner) {
		r.dial = func(context.Context) (UnitManager, error) { return m, nil }
	}
}

// WithCommand replaces exec for the fallback commands.
func WithCommand(fn CommandFunc) Option { return func(r *Runner) { r.run = fn } }

func New(cfg Config, log logx.Logger, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, log: log, dial: DialSystemd, run: runCommand}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reconnect restarts the wireless unit, or runs the reconnect command when
// systemd cannot be reached or the restart fails.
func (r *Runner) Reconnect(ctx context.Context) error {
	if r.cfg.DryRun {
		r.log.Warn("dry run: network reconnect", logx.String("unit", r.cfg.ReconnectUnit))
		return nil
	}
	var unitErr error
	if r.cfg.ReconnectUnit != "" {
		m, err := r.manager(ctx)
		if err == nil {
			err = m.RestartUnit(ctx, r.cfg.ReconnectUnit)
		}
		if err == nil {
			r.log.Info("network unit restarted", logx.String("unit", r.cfg.ReconnectUnit))
			return nil
		}
		unitErr = err
		r.log.Warn("unit restart failed; trying command", logx.String("unit", r.cfg.ReconnectUnit), logx.Err(err))
	}
	return r.command(ctx, "reconnect", r.cfg.ReconnectCommand, unitErr)
}

// Reboot starts reboot.target irreversibly, or runs the reboot command.
func (r *Runner) Reboot(ctx context.Context) error {
	if r.cfg.DryRun {
		r.log.Warn("dry run: system reboot")
		return nil
	}
	m, err := r.manager(ctx)
	if err == nil {
		err = m.StartUnit(ctx, rebootTarget, "replace-irreversibly")
	}
	if err == nil {
		r.log.Warn("reboot requested", logx.String("unit", rebootTarget))
		return nil
	}
	r.log.Warn("reboot over systemd failed; trying command", logx.Err(err))
	return r.command(ctx, "reboot", r.cfg.RebootCommand, err)
}

func (r *Runner) command(ctx context.Context, what string, argv []string, prev error) error {
	if len(argv) == 0 {
		if prev != nil {
			return fmt.Errorf("%s: %w", what, prev)
		}
		return fmt.Errorf("%s: no unit or command configured", what)
	}
	if err := r.run(ctx, argv); err != nil {
		return fmt.Errorf("%s: %w", what, errors.Join(prev, err))
	}
	r.log.Info("command issued", logx.String("action", what), logx.String("cmd", strings.Join(argv, " ")))
	return nil
}

// manager dials lazily and keeps the connection for later actions.
func (r *Runner) manager(ctx context.Context) (UnitManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.units != nil {
		return r.units, nil
	}
	m, err := r.dial(ctx)
	if err != nil {
		return nil, err
	}
	r.units = m
	return m, nil
}

// Close releases the D-Bus connection, if any.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.units != nil {
		r.units.Close()
		r.units = nil
	}
}

func runCommand(ctx context.Context, argv []string) error {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
