// Package reboot implements the uptime based reboot policy.
package reboot

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	logx "infokiosk/pkg/logx"
)

// ErrUptimeUnavailable is returned by readers that cannot determine uptime.
var ErrUptimeUnavailable = errors.New("uptime unavailable")

// UptimeReader reports how long the machine has been up.
type UptimeReader interface {
	Uptime() (time.Duration, error)
}

// Rebooter issues the reboot. The process is expected to die shortly after.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Decision is the outcome of one Check.
type Decision struct {
	Triggered bool
	Uptime    time.Duration
	// WaitingUntil is set while the threshold is exceeded but the
	// maintenance window has not opened yet.
	WaitingUntil time.Time
	Err          error
}

// Timer triggers a reboot once uptime exceeds the configured hours.
// It is not safe for concurrent use.
type Timer struct {
	hours  float64
	window cron.Schedule
	reader UptimeReader
	reboot Rebooter
	log    logx.Logger

	windowAt  time.Time
	triggered bool
}

func New(reader UptimeReader, reboot Rebooter, log logx.Logger) *Timer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Timer{reader: reader, reboot: reboot, log: log}
}

// SetPolicy applies the live threshold. hours <= 0 disables the timer.
// window may be nil.
func (t *Timer) SetPolicy(hours float64, window cron.Schedule) {
	if window != t.window {
		t.windowAt = time.Time{}
	}
	t.hours = hours
	t.window = window
}

// Triggered reports whether a reboot has been issued.
func (t *Timer) Triggered() bool { return t.triggered }

// Check evaluates the policy at now. An unreadable uptime disables the
// check for this call rather than rebooting.
func (t *Timer) Check(ctx context.Context, now time.Time) Decision {
	if t.triggered || t.hours <= 0 {
		return Decision{}
	}
	up, err := t.reader.Uptime()
	if err != nil {
		return Decision{Err: err}
	}
	limit := time.Duration(t.hours * float64(time.Hour))
	if up <= limit {
		return Decision{Uptime: up}
	}

	if t.window != nil {
		if t.windowAt.IsZero() {
			t.windowAt = t.window.Next(now)
			t.log.Info("uptime limit reached; waiting for maintenance window",
				logx.Duration("uptime", up), logx.Time("window", t.windowAt))
		}
		if now.Before(t.windowAt) {
			return Decision{Uptime: up, WaitingUntil: t.windowAt}
		}
	}

	t.triggered = true
	t.log.Warn("auto reboot triggered", logx.Duration("uptime", up), logx.Float64("hours", t.hours))
	return Decision{Triggered: true, Uptime: up, Err: t.reboot.Reboot(ctx)}
}
