package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func stop(t *testing.T, s *Supervisor) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.Stop(ctx)
}

func TestGoRecordsErrorAndPanic(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	done := make(chan struct{}, 2)
	s.Go("fails", func(context.Context) error { defer func() { done <- struct{}{} }(); return errors.New("boom") })
	s.Go("panics", func(context.Context) error { defer func() { done <- struct{}{} }(); panic("oops") })
	<-done
	<-done

	err := stop(t, s)
	if err == nil {
		t.Fatal("expected first error")
	}
	ws := s.Workers()
	if len(ws) != 2 || ws[0].Name != "fails" || ws[1].Panics != 1 {
		t.Fatalf("workers = %+v", ws)
	}
}

func TestGoRestartRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	var runs atomic.Int32
	finished := make(chan struct{})
	s.GoRestart("flaky", func(context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		close(finished)
		return nil
	}, WithBackoff(time.Millisecond, 2*time.Millisecond))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never succeeded")
	}
	if err := stop(t, s); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ws := s.Workers(); ws[0].Restarts != 2 {
		t.Fatalf("restarts = %d, want 2", ws[0].Restarts)
	}
}

func TestGoRestartGivesUp(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("broken", func(context.Context) error {
		runs.Add(1)
		return errors.New("always")
	}, WithBackoff(time.Millisecond, time.Millisecond), WithMaxRestarts(2))

	deadline := time.Now().Add(2 * time.Second)
	for s.Err() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.Err() == nil {
		t.Fatal("expected give-up error")
	}
	if n := runs.Load(); n != 3 {
		t.Fatalf("runs = %d, want 3", n)
	}
	_ = stop(t, s)
}

func TestStopCancelsWorkers(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	s.GoRestart("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := stop(t, s); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ws := s.Workers(); ws[0].Running || ws[0].LastErr != "" {
		t.Fatalf("worker = %+v", ws[0])
	}
}
