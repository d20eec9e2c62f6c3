package app

import (
	"time"

	"infokiosk/internal/status"
)

// Snapshot captures the orchestrator state for the status API and the
// fatal dump.
func (a *App) Snapshot(now time.Time) *status.Snapshot {
	s := &status.Snapshot{
		At:            now,
		StartedAt:     a.startedAt,
		Ticks:         a.ticks,
		Slide:         string(a.deck.Current()),
		Page:          a.deck.Page(),
		Pages:         a.deck.PageCount(),
		RebootPending: a.timer.Triggered() || a.dog.Stopped(),
		RenderErrors:  a.renderErrors,
		ConfigPath:    a.cfgPath,
		Watchdog: status.WatchdogStatus{
			Enabled:     a.snap.Settings.Watchdog.Enabled,
			Failures:    a.dog.Failures(),
			LastCheckAt: a.dog.LastCheckAt(),
			Stopped:     a.dog.Stopped(),
		},
	}
	for _, k := range a.deck.Kinds() {
		s.Order = append(s.Order, string(k))
	}
	for _, name := range a.sched.Sources() {
		st, _ := a.sched.State(name)
		_, has := st.Value()
		ss := status.SourceStatus{
			Name:          name,
			HasValue:      has,
			LastAttemptAt: st.LastAttemptAt,
			LastSuccessAt: st.LastSuccessAt,
			Attempts:      st.Attempts,
			Failures:      st.Failures,
		}
		if st.LastError != nil {
			ss.LastError = st.LastError.Error()
		}
		s.Sources = append(s.Sources, ss)
	}
	return s
}

func (a *App) publishStatus(now time.Time) { a.board.Publish(a.Snapshot(now)) }
