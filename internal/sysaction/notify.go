package sysaction

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports service state to systemd. Outside a Type=notify unit
// every call is a no-op.
type Notifier struct{}

func (Notifier) Ready() { _, _ = daemon.SdNotify(false, daemon.SdNotifyReady) }

func (Notifier) Stopping() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }

func (Notifier) Watchdog() { _, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog) }

// WatchdogInterval is how often Watchdog should be called; zero when the
// unit has no WatchdogSec.
func (Notifier) WatchdogInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return 0
	}
	return d / 2
}
