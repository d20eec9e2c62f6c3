package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/deck"
	"infokiosk/internal/render"
	"infokiosk/internal/sanitize"
	"infokiosk/internal/sources"
	"infokiosk/internal/storage"
	"infokiosk/internal/watchdog"
	logx "infokiosk/pkg/logx"
)

// Tick runs one loop iteration at now. The order is fixed so every step
// sees the state the earlier steps of the same tick left behind.
func (a *App) Tick(ctx context.Context, now time.Time) {
	a.ticks++
	params := sources.ParamsFrom(a.snap.Config.Location, a.cal.At(now).Local)

	a.refresh(ctx, config.SourceWeather, now, params)
	a.refresh(ctx, config.SourceBMKGForecast, now, params)
	a.refresh(ctx, config.SourceFinance, now, params)
	a.checkNetwork(ctx, now)
	a.refresh(ctx, config.SourceSystem, now, params)
	a.refresh(ctx, config.SourceQuote, now, params)
	if v, ok := a.refresh(ctx, config.SourceNews, now, params); ok {
		a.setNewsPool(v)
	}
	a.refresh(ctx, config.SourceSholat, now, params)
	a.refresh(ctx, config.SourceJavaDate, now, params)
	a.syncWarning(ctx, now, params)

	if step := a.deck.Advance(now); step == deck.StepSlide {
		a.log.Debug("slide", logx.String("kind", string(a.deck.Current())), logx.Int("pages", a.deck.PageCount()))
	}
	a.checkReboot(ctx, now)
	a.render(now)
	a.publishStatus(now)
}

// refresh fetches source when it is due. It reports the fresh value and
// whether the fetch succeeded; a failed fetch leaves the cache alone.
func (a *App) refresh(ctx context.Context, source string, now time.Time, p sources.Params) (any, bool) {
	f, ok := a.registry[source]
	if !ok || !a.sched.IsDue(source, now) {
		return nil, false
	}

	timeout := a.snap.Settings.Refresh[source].Timeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	start := time.Now()
	v, err := fetch(fctx, f, p)
	cancel()
	took := time.Since(start)

	if err == nil {
		v = sanitize.Value(v)
	}
	a.sched.RecordAttempt(source, now, v, err)

	if err != nil {
		_, cached := a.sched.Value(source)
		a.log.Warn("fetch failed",
			logx.String("source", source),
			logx.Bool("stale_cache", cached),
			logx.Duration("took", took),
			logx.Err(err),
		)
		a.emit(storage.Entry{At: now, Kind: storage.KindFetch, Source: source, Detail: err.Error()})
		return nil, false
	}
	a.log.Debug("fetch ok", logx.String("source", source), logx.Duration("took", took))
	a.emit(storage.Entry{At: now, Kind: storage.KindFetch, Source: source, OK: true})
	return v, true
}

// fetch calls f and turns a panic into an error, so a broken source costs
// one attempt and never the loop.
func fetch(ctx context.Context, f sources.Fetcher, p sources.Params) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%s: fetch panic: %v", f.Name(), r)
		}
	}()
	return f.Fetch(ctx, p)
}

func (a *App) setNewsPool(v any) {
	items, ok := v.([]sources.NewsItem)
	if !ok {
		a.log.Warn("unexpected news payload", logx.String("type", fmt.Sprintf("%T", v)))
		return
	}
	pool := make([]any, len(items))
	for i, it := range items {
		pool[i] = it
	}
	a.deck.SetPool(pool)
}

// syncWarning refreshes the warning source and mirrors its cache onto the
// alert slide. A successful fetch without a matching warning clears the
// cache; a failed one keeps whatever was shown.
func (a *App) syncWarning(ctx context.Context, now time.Time, p sources.Params) {
	if v, ok := a.refresh(ctx, config.SourceBMKGWarning, now, p); ok {
		if w, isWarning := v.(*sources.Warning); !isWarning || w == nil {
			a.sched.Clear(config.SourceBMKGWarning)
		}
	}
	_, present := a.sched.Value(config.SourceBMKGWarning)
	switch m := a.deck.Sync(config.SlideAlert, present); m {
	case deck.Inserted, deck.Removed:
		a.log.Info("alert slide "+m.String(), logx.Int("slides", a.deck.Len()))
		a.emit(storage.Entry{At: now, Kind: storage.KindDeck, Source: config.SlideAlert, OK: true, Detail: m.String()})
	}
}

func (a *App) checkNetwork(ctx context.Context, now time.Time) {
	if !a.snap.Settings.Watchdog.Enabled {
		return
	}
	res := a.dog.Check(ctx, now)
	if !res.Checked {
		return
	}
	if !res.OK {
		a.emit(storage.Entry{At: now, Kind: storage.KindWatchdog, OK: false,
			Detail: fmt.Sprintf("failures=%d", res.Failures)})
	}
	if res.Action != watchdog.ActionNone {
		detail := res.Action.String()
		if res.Err != nil {
			detail += ": " + res.Err.Error()
		}
		a.emit(storage.Entry{At: now, Kind: storage.KindWatchdog, Source: res.Action.String(), OK: true, Detail: detail})
	}
}

func (a *App) checkReboot(ctx context.Context, now time.Time) {
	d := a.timer.Check(ctx, now)
	switch {
	case d.Triggered:
		detail := "uptime=" + d.Uptime.Truncate(time.Second).String()
		if d.Err != nil {
			a.log.Error("auto reboot failed", logx.Err(d.Err))
			detail += ": " + d.Err.Error()
		}
		a.emit(storage.Entry{At: now, Kind: storage.KindReboot, OK: d.Err == nil, Detail: detail})
	case d.Err != nil:
		// Unreadable uptime only disables this check; say so once.
		if !a.uptimeErr {
			a.uptimeErr = true
			a.log.Warn("uptime unavailable; auto reboot skipped", logx.Err(d.Err))
		}
	default:
		a.uptimeErr = false
	}
}

// Frame builds the render request for the playing slide at now.
func (a *App) Frame(now time.Time) render.Frame {
	kind := string(a.deck.Current())
	f := render.Frame{
		Kind:  kind,
		Page:  a.deck.Page(),
		Pages: a.deck.PageCount(),
		Clock: a.cal.At(now),
		Context: render.Context{
			Location: a.snap.Config.Location.Name,
			Province: a.snap.Config.Location.Province,
		},
	}
	if jd, ok := a.cached(config.SourceJavaDate).(*sources.JavaDate); ok && jd != nil {
		f.Context.Javanese = jd.Text
	}
	if sh, ok := a.cached(config.SourceSholat).(*sources.Sholat); ok && sh != nil {
		f.Context.Hijri = sh.Hijri
	}

	switch kind {
	case config.SlideNews:
		if item, ok := a.deck.PageItem(); ok {
			f.Data = item
		}
	case config.SlideAlert:
		f.Data = a.cached(config.SourceBMKGWarning)
	default:
		f.Data = a.cached(kind)
	}
	return f
}

func (a *App) cached(source string) any {
	v, _ := a.sched.Value(source)
	return v
}

// render draws the playing slide. Errors and panics are counted and
// logged; the previous frame stays on screen and no state changes.
func (a *App) render(now time.Time) {
	f := a.Frame(now)
	err := a.draw(f)
	if err == nil {
		a.lastRenderErr = ""
		return
	}
	a.renderErrors++
	// The same failure repeats every tick until the slide changes.
	key := f.Kind + ": " + err.Error()
	if key == a.lastRenderErr {
		return
	}
	a.lastRenderErr = key
	a.log.Warn("render failed", logx.String("slide", f.Kind), logx.Int("page", f.Page), logx.Err(err))
	a.emit(storage.Entry{At: now, Kind: storage.KindRender, Source: f.Kind, Detail: err.Error()})
}

func (a *App) draw(f render.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Debug("render panic", logx.Stack(string(debug.Stack())))
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return a.renderer.Render(f)
}

// emit hands a journal entry to the writer without blocking the tick.
func (a *App) emit(e storage.Entry) { a.bus.Publish(e) }
