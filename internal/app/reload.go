package app

import (
	"slices"
	"strings"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/storage"
	"infokiosk/internal/watchdog"
	logx "infokiosk/pkg/logx"
)

// apply swaps in a reloaded snapshot. It only runs between ticks, so the
// tick that follows sees the new settings throughout.
//
// Playback survives: the deck keeps the playing slide when it is still in
// the order, caches of surviving sources are kept, and watchdog counters
// carry over.
func (a *App) apply(snap config.Snapshot, now time.Time) {
	if snap.Config == nil || snap.Settings == nil {
		return
	}
	prev := a.snap
	sections, attrs := config.SummarizeConfigChange(prev.Config, snap.Config)
	a.snap = snap
	st := snap.Settings

	if !slices.Equal(prev.Settings.Order, st.Order) {
		a.deck.Reorder(kinds(st.Order))
	}
	a.deck.SetDuration(slideDurations(st))
	a.deck.SetLimit(st.NewsLimit)

	a.setSources(snap)

	a.dog.SetConfig(watchdogConfig(st))
	if p, ok := a.prober.(*watchdog.DialProber); ok && p.Target != st.Watchdog.Target {
		p.Target = st.Watchdog.Target
	}

	// A new window schedule resets the pending maintenance slot, so the
	// policy is only touched when it really changed.
	if prev.Settings.RebootHours != st.RebootHours || prev.Settings.RebootWindow != st.RebootWindow {
		a.timer.SetPolicy(st.RebootHours, rebootWindow(st.RebootWindow, a.log))
	}

	a.cal = calendar(snap.Config, st)
	if a.logs != nil {
		a.logs.Apply(logConfig(snap.Config))
	}

	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, sec := range sections {
		switch sec {
		case "storage", "status", "actions":
			a.log.Warn("config section changed; restart required for it to take effect", logx.String("section", sec))
		}
	}
	changed := strings.Join(sections, ",")
	fields := append([]logx.Field{logx.String("changed", changed)}, attrs...)
	a.log.Info("config reloaded", fields...)
	a.emit(storage.Entry{At: now, Kind: storage.KindConfig, OK: true, Detail: changed})
}

// latest drains ch and returns the newest pending snapshot.
func latest(ch <-chan config.Snapshot) (config.Snapshot, bool) {
	var (
		snap config.Snapshot
		got  bool
	)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return snap, got
			}
			snap, got = s, true
		default:
			return snap, got
		}
	}
}
