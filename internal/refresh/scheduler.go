// Package refresh decides when each data source is due for a fetch and
// keeps the last good value of every source.
package refresh

import (
	"sort"
	"time"
)

// Policy is a source's refresh schedule.
//
// Retry is used instead of Interval while nothing is cached yet; zero means
// "same as Interval".
type Policy struct {
	Interval time.Duration
	Retry    time.Duration
}

func (p Policy) effective(cached bool) time.Duration {
	if !cached && p.Retry > 0 {
		return p.Retry
	}
	return p.Interval
}

// State is one source's refresh bookkeeping.
type State struct {
	Policy        Policy
	LastAttemptAt time.Time // zero until the first attempt
	LastSuccessAt time.Time
	LastError     error
	Attempts      int
	Failures      int

	value  any
	cached bool
}

// Value returns the cached payload, if any.
func (s *State) Value() (any, bool) { return s.value, s.cached }

// Scheduler owns the refresh state of every source. It is not safe for
// concurrent use; the tick loop is its only caller.
type Scheduler struct {
	states map[string]*State
}

func NewScheduler() *Scheduler {
	return &Scheduler{states: make(map[string]*State)}
}

// Register adds a source or replaces its policy. The cache and attempt
// history of an existing source are kept.
func (s *Scheduler) Register(source string, p Policy) {
	if st, ok := s.states[source]; ok {
		st.Policy = p
		return
	}
	s.states[source] = &State{Policy: p}
}

// Remove forgets a source and its cache.
func (s *Scheduler) Remove(source string) { delete(s.states, source) }

// IsDue reports whether source should be fetched at now. A source that was
// never attempted is always due; unknown sources never are.
func (s *Scheduler) IsDue(source string, now time.Time) bool {
	st, ok := s.states[source]
	if !ok {
		return false
	}
	if st.LastAttemptAt.IsZero() {
		return true
	}
	return now.Sub(st.LastAttemptAt) >= st.Policy.effective(st.cached)
}

// RecordAttempt stores the outcome of a fetch made at now. The attempt time
// always advances so a failing source is retried on schedule, not every tick.
// On failure the previous value stays cached.
func (s *Scheduler) RecordAttempt(source string, now time.Time, value any, err error) {
	st, ok := s.states[source]
	if !ok {
		return
	}
	if now.After(st.LastAttemptAt) || st.LastAttemptAt.IsZero() {
		st.LastAttemptAt = now
	}
	st.Attempts++
	st.LastError = err
	if err != nil {
		st.Failures++
		return
	}
	st.value = value
	st.cached = true
	st.LastSuccessAt = now
}

// Clear drops the cached value of source, as if it never succeeded. It is
// used when a successful fetch reports that the data is gone (an alert
// that ended).
func (s *Scheduler) Clear(source string) {
	if st, ok := s.states[source]; ok {
		st.value = nil
		st.cached = false
	}
}

// Value returns the cached payload of source.
func (s *Scheduler) Value(source string) (any, bool) {
	st, ok := s.states[source]
	if !ok {
		return nil, false
	}
	return st.Value()
}

// State returns a copy of the bookkeeping for source.
func (s *Scheduler) State(source string) (State, bool) {
	st, ok := s.states[source]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Sources lists registered sources in name order.
func (s *Scheduler) Sources() []string {
	out := make([]string, 0, len(s.states))
	for k := range s.states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
