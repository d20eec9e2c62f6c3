package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/runtime/supervisor"
	"infokiosk/internal/status"
	logx "infokiosk/pkg/logx"
)

// Run starts the background workers and drives the tick loop until ctx is
// cancelled. A panic escaping a tick is recovered here: the diagnostic
// dump is written and a *FatalError returned.
func (a *App) Run(ctx context.Context) (err error) {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	reloads := a.startWorkers()

	reason := StopUnknown
	defer func() { a.shutdown(reason) }()
	defer func() {
		if r := recover(); r != nil {
			reason = StopFatalError
			err = a.fatal(r, debug.Stack())
		}
	}()

	var pingEvery time.Duration
	if wi, ok := a.notifier.(interface{ WatchdogInterval() time.Duration }); ok {
		pingEvery = wi.WatchdogInterval()
	}
	var lastPing time.Time

	a.notifier.Ready()
	a.log.Info("kiosk started",
		logx.String("order", strings.Join(a.snap.Settings.Order, ",")),
		logx.Int("sources", len(a.registry)),
		logx.Duration("tick", a.snap.Settings.Tick),
	)

	for {
		if ctx.Err() != nil {
			reason = reasonOf(ctx)
			return nil
		}
		if snap, ok := latest(reloads); ok {
			a.apply(snap, a.now())
		}

		now := a.now()
		a.Tick(ctx, now)

		if pingEvery > 0 && now.Sub(lastPing) >= pingEvery {
			a.notifier.Watchdog()
			lastPing = now
		}

		t := time.NewTimer(a.snap.Settings.Tick)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
}

// startWorkers launches the journal writer, the status server and the
// config watcher as configured. It returns the reload channel (nil when
// hot reload is off).
func (a *App) startWorkers() <-chan config.Snapshot {
	cfg := a.snap.Config

	if a.store != nil {
		sc, _, err := mapStorageConfig(cfg)
		if err != nil {
			a.log.Warn("journal retention ignored", logx.Err(err))
		}
		events, unsub := a.bus.Subscribe(journalBuffer)
		w := &journalWriter{
			store:     a.store,
			events:    events,
			retention: sc.Retention,
			log:       a.log.With(logx.String("comp", "journal")),
			now:       a.now,
		}
		a.sup.Go("journal", func(ctx context.Context) error {
			defer unsub()
			return w.run(ctx)
		})
	}

	if cfg.Status.Enabled {
		addr := strings.TrimSpace(cfg.Status.Addr)
		if addr == "" {
			addr = config.DefaultStatusAddr
		}
		srv := status.NewServer(addr, a.board, a.log.With(logx.String("comp", "status")))
		a.sup.GoRestart("status.http", srv.Run, supervisor.WithBackoff(time.Second, time.Minute))
	}

	if a.cfgm != nil && cfg.Watch {
		a.reloads = a.cfgm.Subscribe(1)
		a.sup.GoRestart("config.watch", a.cfgm.Watch, supervisor.WithBackoff(time.Second, 30*time.Second))
		return a.reloads
	}
	return nil
}

func (a *App) fatal(r any, stack []byte) error {
	// The injected clock may be what failed.
	now := time.Now()
	a.log.Error("tick loop panicked", logx.String("panic", fmt.Sprint(r)), logx.Stack(string(stack)))

	path := strings.TrimSpace(a.snap.Config.FatalDump)
	if path == "" {
		path = config.DefaultFatalDump
	}
	fe := &FatalError{Cause: r}
	if err := writeFatalDump(path, now, r, stack, a.safeSnapshot(now)); err != nil {
		a.log.Error("fatal dump failed", logx.String("path", path), logx.Err(err))
		return fe
	}
	fe.Dump = path
	return fe
}

// safeSnapshot is Snapshot for state that may be half updated.
func (a *App) safeSnapshot(now time.Time) (s *status.Snapshot) {
	defer func() {
		if recover() != nil {
			s = nil
		}
	}()
	return a.Snapshot(now)
}

func (a *App) shutdown(reason StopReason) {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notifier.Stopping()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.step(ctx, "workers", 3*time.Second, func(c context.Context) error { return a.sup.Stop(c) })
	if a.reloads != nil {
		a.cfgm.Unsubscribe(a.reloads)
		a.reloads = nil
	}
	a.step(ctx, "storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	for _, fn := range a.closers {
		fn()
	}

	a.log.Info("stopped", logx.Uint64("ticks", a.ticks))
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

// step runs one shutdown step with an upper bound so one component can't
// stall the whole stop. A step that overruns is left running and logged
// when it eventually finishes.
func (a *App) step(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		// never extend the caller's deadline
		limit = min(limit, time.Until(dl))
	}
	if limit <= 0 {
		a.log.Warn("stop step skipped (deadline reached)", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
		go func() {
			err := <-done
			a.log.Info("stop step finished after deadline",
				logx.String("name", name), logx.Duration("took", time.Since(start)), logx.Err(err))
		}()
	}
}
