package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage. An empty Driver or "none" disables it.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// Retention drops entries older than this on Prune; 0 keeps everything.
	Retention time.Duration
}

// Entry kinds.
const (
	KindFetch    = "fetch"
	KindDeck     = "deck"
	KindWatchdog = "watchdog"
	KindReboot   = "reboot"
	KindRender   = "render"
	KindConfig   = "config"
)

// Entry is one journal record. Keep it compact and schema-stable.
type Entry struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Source string    `json:"source,omitempty"`
	OK     bool      `json:"ok"`
	Detail string    `json:"detail,omitempty"`
}
