// Package watchdog probes internet connectivity on a fixed cadence and
// escalates persistent failures: first a network reconnect, then a reboot.
package watchdog

import (
	"context"
	"fmt"
	"time"

	logx "infokiosk/pkg/logx"
)

// Prober checks reachability once. It must honour ctx's deadline.
type Prober interface {
	Probe(ctx context.Context) error
}

// Actions are the remedial actions the watchdog may issue. They are fire
// and forget: the watchdog only waits for the call to return.
type Actions interface {
	Reconnect(ctx context.Context) error
	Reboot(ctx context.Context) error
}

type Config struct {
	Grace          time.Duration
	Interval       time.Duration
	ProbeTimeout   time.Duration
	ReconnectAfter int
	RebootAfter    int
	Settle         time.Duration
	ActionTimeout  time.Duration
}

// Action is the escalation a check resulted in.
type Action int

const (
	ActionNone Action = iota
	ActionReconnect
	ActionReboot
)

func (a Action) String() string {
	switch a {
	case ActionReconnect:
		return "reconnect"
	case ActionReboot:
		return "reboot"
	default:
		return "none"
	}
}

// Result describes one Check call.
type Result struct {
	Checked  bool
	OK       bool
	Failures int
	Action   Action
	Err      error // probe error, or the action's error
}

// Watchdog holds the escalation state. It is not safe for concurrent use.
type Watchdog struct {
	cfg     Config
	prober  Prober
	actions Actions
	log     logx.Logger
	sleep   func(ctx context.Context, d time.Duration)

	bootTime    time.Time
	lastCheckAt time.Time
	failures    int
	stopped     bool
}

type Option func(*Watchdog)

// WithSleep replaces the settle pause (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(w *Watchdog) { w.sleep = fn }
}

func WithLogger(log logx.Logger) Option { return func(w *Watchdog) { w.log = log } }

// New returns a watchdog whose grace period starts at bootTime.
func New(cfg Config, prober Prober, actions Actions, bootTime time.Time, opts ...Option) *Watchdog {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 15 * time.Second
	}
	w := &Watchdog{
		cfg:      cfg,
		prober:   prober,
		actions:  actions,
		bootTime: bootTime,
		sleep:    sleepCtx,
		log:      logx.Nop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Failures returns the consecutive failure count.
func (w *Watchdog) Failures() int { return w.failures }

// LastCheckAt returns when the last probe ran (zero before the first).
func (w *Watchdog) LastCheckAt() time.Time { return w.lastCheckAt }

// Stopped reports whether a reboot was issued. A stopped watchdog never
// probes again.
func (w *Watchdog) Stopped() bool { return w.stopped }

// SetConfig swaps the thresholds (config reload). Counters are kept.
func (w *Watchdog) SetConfig(cfg Config) {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = w.cfg.ActionTimeout
	}
	w.cfg = cfg
}

// Due reports whether a probe would run at now.
func (w *Watchdog) Due(now time.Time) bool {
	if w.stopped || now.Sub(w.bootTime) < w.cfg.Grace {
		return false
	}
	return w.lastCheckAt.IsZero() || now.Sub(w.lastCheckAt) >= w.cfg.Interval
}

// Check runs one probe if one is due at now and escalates on failure.
// A failing probe never returns an error to the caller; it only moves
// the counter.
func (w *Watchdog) Check(ctx context.Context, now time.Time) Result {
	if !w.Due(now) {
		return Result{Failures: w.failures}
	}
	w.lastCheckAt = now

	pctx, cancel := context.WithTimeout(ctx, w.cfg.ProbeTimeout)
	err := w.probe(pctx)
	cancel()

	if err == nil {
		if w.failures > 0 {
			w.log.Info("network restored", logx.Int("after_failures", w.failures))
		}
		w.failures = 0
		return Result{Checked: true, OK: true}
	}

	w.failures++
	res := Result{Checked: true, Failures: w.failures, Err: err}
	w.log.Warn("network check failed",
		logx.Int("failures", w.failures),
		logx.Int("reboot_after", w.cfg.RebootAfter),
		logx.Err(err),
	)

	switch {
	case w.failures >= w.cfg.RebootAfter:
		res.Action = ActionReboot
		w.stopped = true
		w.log.Error("persistent network failure; rebooting", logx.Int("failures", w.failures))
		if aerr := w.act(ctx, w.actions.Reboot); aerr != nil {
			res.Err = aerr
			w.log.Error("reboot action failed", logx.Err(aerr))
		}
	case w.failures == w.cfg.ReconnectAfter:
		res.Action = ActionReconnect
		w.log.Warn("attempting network reconnect", logx.Int("failures", w.failures))
		if aerr := w.act(ctx, w.actions.Reconnect); aerr != nil {
			res.Err = aerr
			w.log.Warn("reconnect action failed", logx.Err(aerr))
		}
		if w.cfg.Settle > 0 {
			w.sleep(ctx, w.cfg.Settle)
		}
	}
	return res
}

func (w *Watchdog) probe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return w.prober.Probe(ctx)
}

func (w *Watchdog) act(ctx context.Context, fn func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, w.cfg.ActionTimeout)
	defer cancel()
	return fn(actx)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
