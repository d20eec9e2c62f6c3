// Package status serves a read-only JSON view of the kiosk. The tick loop
// publishes a Snapshot after every tick; handlers only ever read the latest
// published pointer.
package status

import (
	"sync/atomic"
	"time"
)

// SourceStatus is the refresh state of one source.
type SourceStatus struct {
	Name          string    `json:"name"`
	HasValue      bool      `json:"has_value"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitzero"`
	LastSuccessAt time.Time `json:"last_success_at,omitzero"`
	Attempts      int       `json:"attempts"`
	Failures      int       `json:"failures"`
	LastError     string    `json:"last_error,omitempty"`
}

type WatchdogStatus struct {
	Enabled     bool      `json:"enabled"`
	Failures    int       `json:"failures"`
	LastCheckAt time.Time `json:"last_check_at,omitzero"`
	Stopped     bool      `json:"stopped"`
}

// Snapshot is one published view. It must not be mutated after Publish.
type Snapshot struct {
	At        time.Time      `json:"at"`
	StartedAt time.Time      `json:"started_at"`
	Ticks     uint64         `json:"ticks"`
	Slide     string         `json:"slide"`
	Page      int            `json:"page"`
	Pages     int            `json:"pages"`
	Order     []string       `json:"order"`
	Sources   []SourceStatus `json:"sources"`
	Watchdog  WatchdogStatus `json:"watchdog"`
	// RebootPending is set once the uptime reboot has been issued.
	RebootPending bool   `json:"reboot_pending"`
	RenderErrors  uint64 `json:"render_errors"`
	ConfigPath    string `json:"config_path,omitempty"`
}

// Board holds the latest snapshot.
type Board struct {
	cur atomic.Pointer[Snapshot]
}

func (b *Board) Publish(s *Snapshot) { b.cur.Store(s) }

// Load returns the latest snapshot or nil before the first tick.
func (b *Board) Load() *Snapshot { return b.cur.Load() }
