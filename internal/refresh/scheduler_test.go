package refresh

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)

func TestFirstAttemptAlwaysDue(t *testing.T) {
	t.Parallel()
	s := NewScheduler()
	s.Register("weather", Policy{Interval: 180 * time.Second})
	if !s.IsDue("weather", t0) {
		t.Fatal("never-attempted source should be due")
	}
	if s.IsDue("unknown", t0) {
		t.Fatal("unknown source should never be due")
	}
}

func TestRetryIntervalWhileEmpty(t *testing.T) {
	t.Parallel()
	s := NewScheduler()
	s.Register("system", Policy{Interval: 10 * time.Second, Retry: 5 * time.Second})

	s.RecordAttempt("system", t0, nil, errors.New("boom"))
	if s.IsDue("system", t0.Add(4*time.Second)) {
		t.Fatal("due before retry interval")
	}
	if !s.IsDue("system", t0.Add(5*time.Second)) {
		t.Fatal("should be due at retry interval while cache is empty")
	}

	t1 := t0.Add(5 * time.Second)
	s.RecordAttempt("system", t1, "ok", nil)
	if s.IsDue("system", t1.Add(5*time.Second)) {
		t.Fatal("populated cache should use the normal interval")
	}
	if !s.IsDue("system", t1.Add(10*time.Second)) {
		t.Fatal("should be due at normal interval once populated")
	}
}

func TestFailureKeepsStaleValue(t *testing.T) {
	t.Parallel()
	s := NewScheduler()
	s.Register("news", Policy{Interval: time.Minute})

	s.RecordAttempt("news", t0, []string{"a"}, nil)
	t1 := t0.Add(time.Minute)
	s.RecordAttempt("news", t1, nil, errors.New("timeout"))

	v, ok := s.Value("news")
	if !ok {
		t.Fatal("failure blanked the cache")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "a" {
		t.Fatalf("cached value = %v", got)
	}
	st, _ := s.State("news")
	if !st.LastAttemptAt.Equal(t1) {
		t.Fatalf("lastAttemptAt = %v, want %v", st.LastAttemptAt, t1)
	}
	if st.Failures != 1 || st.Attempts != 2 || st.LastError == nil {
		t.Fatalf("counters = %+v", st)
	}
	if s.IsDue("news", t1.Add(59*time.Second)) {
		t.Fatal("failed attempt must still push the next attempt out")
	}
}

func TestLastAttemptMonotonic(t *testing.T) {
	t.Parallel()
	s := NewScheduler()
	s.Register("quote", Policy{Interval: time.Minute})
	s.RecordAttempt("quote", t0.Add(time.Minute), "x", nil)
	s.RecordAttempt("quote", t0, "y", nil)
	st, _ := s.State("quote")
	if !st.LastAttemptAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("lastAttemptAt went backwards: %v", st.LastAttemptAt)
	}
}

func TestRegisterKeepsCacheAndClear(t *testing.T) {
	t.Parallel()
	s := NewScheduler()
	s.Register("bmkg_warning", Policy{Interval: time.Minute})
	s.RecordAttempt("bmkg_warning", t0, "alert", nil)
	s.Register("bmkg_warning", Policy{Interval: 2 * time.Minute})

	if _, ok := s.Value("bmkg_warning"); !ok {
		t.Fatal("re-register dropped the cache")
	}
	if s.IsDue("bmkg_warning", t0.Add(time.Minute)) {
		t.Fatal("new policy not applied")
	}
	s.Clear("bmkg_warning")
	if _, ok := s.Value("bmkg_warning"); ok {
		t.Fatal("Clear left a value")
	}
	if got := s.Sources(); len(got) != 1 || got[0] != "bmkg_warning" {
		t.Fatalf("Sources = %v", got)
	}
	s.Remove("bmkg_warning")
	if len(s.Sources()) != 0 {
		t.Fatal("Remove did not forget the source")
	}
}
