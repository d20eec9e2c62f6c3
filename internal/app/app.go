// Package app is the kiosk orchestrator. One App owns every piece of
// mutable state (refresh caches, the slide deck, watchdog and reboot
// counters) and mutates it only from the tick loop.
package app

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/robfig/cron/v3"

	"infokiosk/internal/clock"
	"infokiosk/internal/config"
	"infokiosk/internal/deck"
	"infokiosk/internal/eventbus"
	"infokiosk/internal/reboot"
	"infokiosk/internal/refresh"
	"infokiosk/internal/render"
	"infokiosk/internal/runtime/supervisor"
	"infokiosk/internal/schedule"
	"infokiosk/internal/sources"
	"infokiosk/internal/status"
	"infokiosk/internal/storage"
	"infokiosk/internal/watchdog"
	logx "infokiosk/pkg/logx"
)

// Notifier reports service state to the init system.
type Notifier interface {
	Ready()
	Stopping()
	Watchdog()
}

// Deps are the collaborators of an App. Nil fields get harmless defaults,
// so tests only set what they exercise.
type Deps struct {
	// Sources builds the fetchers for a config. It is called again on
	// every applied reload.
	Sources  func(cfg *config.Config) sources.Registry
	Renderer render.Renderer
	Prober   watchdog.Prober
	// Actions serve both the watchdog and the uptime reboot.
	Actions  watchdog.Actions
	Uptime   reboot.UptimeReader
	Store    storage.Store
	Notifier Notifier
	Log      logx.Logger
	Logs     *logx.Service
	Rand     *rand.Rand
	// Settle replaces the watchdog's post-reconnect pause (tests).
	Settle func(ctx context.Context, d time.Duration)
	// Now replaces the wall clock used by Run.
	Now func() time.Time
	// Closers run last during shutdown (D-Bus connection and the like).
	Closers []func()
}

// App is the orchestrator state. Only Tick, apply and Run touch it.
type App struct {
	cfgPath string
	cfgm    *config.ConfigManager
	snap    config.Snapshot
	reloads chan config.Snapshot

	log  logx.Logger
	logs *logx.Service

	sched    *refresh.Scheduler
	deck     *deck.Deck
	dog      *watchdog.Watchdog
	prober   watchdog.Prober
	timer    *reboot.Timer
	registry sources.Registry
	build    func(cfg *config.Config) sources.Registry
	renderer render.Renderer
	cal      clock.Calendar

	bus      *eventbus.Bus[storage.Entry]
	store    storage.Store
	board    *status.Board
	notifier Notifier
	sup      *supervisor.Supervisor
	closers  []func()
	now      func() time.Time

	startedAt     time.Time
	ticks         uint64
	renderErrors  uint64
	lastRenderErr string
	uptimeErr     bool
}

// New builds the cold-start state from snap. startedAt anchors the deck
// clock and the watchdog grace period.
func New(snap config.Snapshot, deps Deps, startedAt time.Time) *App {
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &App{
		snap:      snap,
		log:       log.With(logx.String("comp", "app")),
		logs:      deps.Logs,
		sched:     refresh.NewScheduler(),
		build:     deps.Sources,
		renderer:  deps.Renderer,
		prober:    deps.Prober,
		bus:       eventbus.New[storage.Entry](),
		store:     deps.Store,
		board:     &status.Board{},
		notifier:  deps.Notifier,
		closers:   deps.Closers,
		now:       deps.Now,
		startedAt: startedAt,
	}
	if a.renderer == nil {
		a.renderer = render.None{}
	}
	if a.notifier == nil {
		a.notifier = nopNotifier{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.prober == nil {
		a.prober = watchdog.NewDialProber(snap.Settings.Watchdog.Target)
	}
	actions := deps.Actions
	if actions == nil {
		actions = nopActions{}
	}
	uptime := deps.Uptime
	if uptime == nil {
		uptime = reboot.ProcUptime{}
	}

	st := snap.Settings
	opts := []deck.Option{deck.WithLimit(st.NewsLimit), deck.WithPaged(config.SlideNews)}
	if deps.Rand != nil {
		opts = append(opts, deck.WithRand(deps.Rand))
	}
	a.deck = deck.New(kinds(st.Order), slideDurations(st), startedAt, opts...)

	wopts := []watchdog.Option{watchdog.WithLogger(log.With(logx.String("comp", "watchdog")))}
	if deps.Settle != nil {
		wopts = append(wopts, watchdog.WithSleep(deps.Settle))
	}
	a.dog = watchdog.New(watchdogConfig(st), a.prober, actions, startedAt, wopts...)

	a.timer = reboot.New(uptime, actions, log.With(logx.String("comp", "reboot")))
	a.timer.SetPolicy(st.RebootHours, rebootWindow(st.RebootWindow, a.log))

	a.cal = calendar(snap.Config, st)
	a.setSources(snap)
	return a
}

// Board returns the status board the tick loop publishes to.
func (a *App) Board() *status.Board { return a.board }

// Deck exposes the slide deck (read-only use).
func (a *App) Deck() *deck.Deck { return a.deck }

// Scheduler exposes the refresh state (read-only use).
func (a *App) Scheduler() *refresh.Scheduler { return a.sched }

// Bus carries journal entries from the tick loop to the writer.
func (a *App) Bus() *eventbus.Bus[storage.Entry] { return a.bus }

// setSources rebuilds the fetchers and re-registers refresh policies.
// Sources that went away lose their cache.
func (a *App) setSources(snap config.Snapshot) {
	if a.build != nil {
		a.registry = a.build(snap.Config)
	}
	for _, name := range a.sched.Sources() {
		if _, ok := a.registry[name]; !ok {
			a.sched.Remove(name)
		}
	}
	for name := range a.registry {
		r := snap.Settings.Refresh[name]
		a.sched.Register(name, refresh.Policy{Interval: r.Every, Retry: r.Retry})
	}
}

func kinds(order []string) []deck.Kind {
	out := make([]deck.Kind, len(order))
	for i, k := range order {
		out[i] = deck.Kind(k)
	}
	return out
}

func slideDurations(st *config.Settings) deck.DurationFunc {
	return func(k deck.Kind) time.Duration { return st.SlideDuration(string(k)) }
}

func watchdogConfig(st *config.Settings) watchdog.Config {
	w := st.Watchdog
	return watchdog.Config{
		Grace:          w.Grace,
		Interval:       w.Interval,
		ProbeTimeout:   w.ProbeTimeout,
		ReconnectAfter: w.ReconnectAfter,
		RebootAfter:    w.RebootAfter,
		Settle:         w.Settle,
		ActionTimeout:  st.ActionTimeout,
	}
}

// rebootWindow parses an already validated window; "" means none.
func rebootWindow(raw string, log logx.Logger) cron.Schedule {
	if raw == "" {
		return nil
	}
	s, err := schedule.Window(raw)
	if err != nil {
		log.Warn("reboot window ignored", logx.String("window", raw), logx.Err(err))
		return nil
	}
	return s
}

func calendar(cfg *config.Config, st *config.Settings) clock.Calendar {
	return clock.Calendar{
		Offset:    st.UTCOffset,
		JavaDays:  cfg.Location.JavaDayOffset,
		HijriDays: cfg.Location.HijriDayOffset,
	}
}

type nopNotifier struct{}

func (nopNotifier) Ready()    {}
func (nopNotifier) Stopping() {}
func (nopNotifier) Watchdog() {}

type nopActions struct{}

func (nopActions) Reconnect(context.Context) error { return nil }
func (nopActions) Reboot(context.Context) error    { return nil }
