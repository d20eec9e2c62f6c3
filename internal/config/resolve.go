package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"slices"
	"strings"
	"time"

	"infokiosk/internal/schedule"
)

// Refresh is one source's resolved refresh policy.
type Refresh struct {
	Every    time.Duration
	Retry    time.Duration
	Timeout  time.Duration
	Disabled bool
}

// Watchdog is the resolved connectivity watchdog policy.
type Watchdog struct {
	Enabled        bool
	Target         string
	Grace          time.Duration
	Interval       time.Duration
	ProbeTimeout   time.Duration
	ReconnectAfter int
	RebootAfter    int
	Settle         time.Duration
}

// Settings is the typed, defaulted view of a Config. The tick loop only
// ever reads Settings; raw strings stay in Config.
type Settings struct {
	Tick           time.Duration
	Order          []string
	SlideDurations map[string]time.Duration
	NewsLimit      int
	Width          int

	Refresh  map[string]Refresh
	Watchdog Watchdog

	RebootHours  float64
	RebootWindow string

	UTCOffset     int
	ActionTimeout time.Duration
	LatencyEvery  time.Duration
}

// SlideDuration returns the display time for kind, falling back to 10s for
// kinds without a configured or default duration.
func (s *Settings) SlideDuration(kind string) time.Duration {
	if d, ok := s.SlideDurations[kind]; ok && d > 0 {
		return d
	}
	return 10 * time.Second
}

// Resolve validates cfg and returns its typed view. Every problem found is
// reported, joined into one error.
func Resolve(cfg *Config) (*Settings, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	dur := func(path, raw string, def time.Duration) time.Duration {
		d, err := ParseDurationOrDefault(path, raw, def)
		add(err)
		if err != nil {
			return def
		}
		return d
	}

	s := &Settings{
		SlideDurations: make(map[string]time.Duration, len(defaultSlideDurations)),
		Refresh:        make(map[string]Refresh, len(defaultRefreshes)),
	}

	// display
	s.Tick = dur("display.tick", cfg.Display.Tick, DefaultTick)
	s.Order = slices.Clone(DefaultOrder)
	if len(cfg.Display.Order) > 0 {
		s.Order = make([]string, 0, len(cfg.Display.Order))
		seen := map[string]bool{}
		for i, k := range cfg.Display.Order {
			k = strings.TrimSpace(k)
			switch {
			case k == SlideAlert:
				add(fmt.Errorf("display.order[%d]: %q is inserted automatically while a warning is active", i, k))
			case !slices.Contains(DefaultOrder, k):
				add(fmt.Errorf("display.order[%d]: unknown slide %q", i, k))
			case seen[k]:
				add(fmt.Errorf("display.order[%d]: duplicate slide %q", i, k))
			default:
				seen[k] = true
				s.Order = append(s.Order, k)
			}
		}
	}
	for k, d := range defaultSlideDurations {
		s.SlideDurations[k] = d
	}
	for k, raw := range cfg.Display.Durations {
		if _, ok := defaultSlideDurations[k]; !ok {
			add(fmt.Errorf("display.durations: unknown slide %q", k))
			continue
		}
		d := dur("display.durations."+k, raw, defaultSlideDurations[k])
		s.SlideDurations[k] = d
	}
	s.NewsLimit = DefaultNewsLimit
	if cfg.Display.NewsLimit < 0 {
		add(errors.New("display.news_limit must be >= 0"))
	} else if cfg.Display.NewsLimit > 0 {
		s.NewsLimit = cfg.Display.NewsLimit
	}
	s.Width = DefaultWidth
	if cfg.Display.Width > 0 {
		s.Width = cfg.Display.Width
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Display.Renderer)) {
	case "", "terminal", "none":
	default:
		add(fmt.Errorf("display.renderer: unknown renderer %q", cfg.Display.Renderer))
	}

	// sources
	fetchTimeout := dur("sources.timeout", cfg.Sources.Timeout, DefaultFetchTimeout)
	for name := range cfg.Sources.Refresh {
		if _, ok := defaultRefreshes[name]; !ok {
			add(fmt.Errorf("sources.refresh: unknown source %q", name))
		}
	}
	for name, def := range defaultRefreshes {
		rc := cfg.Sources.Refresh[name]
		r := Refresh{Every: def.every, Retry: def.retry, Timeout: fetchTimeout, Disabled: rc.Disabled}
		if strings.TrimSpace(rc.Every) != "" {
			d, err := schedule.Interval(rc.Every)
			if err != nil {
				add(fmt.Errorf("sources.refresh.%s.every: %w", name, err))
			} else {
				r.Every = d
			}
		}
		if strings.TrimSpace(rc.Retry) != "" {
			d, err := schedule.Interval(rc.Retry)
			if err != nil {
				add(fmt.Errorf("sources.refresh.%s.retry: %w", name, err))
			} else {
				r.Retry = d
			}
		}
		r.Timeout = dur("sources.refresh."+name+".timeout", rc.Timeout, fetchTimeout)
		if r.Retry <= 0 || r.Retry > r.Every {
			r.Retry = r.Every
		}
		s.Refresh[name] = r
	}
	if id := strings.TrimSpace(cfg.Location.ADM4); id != "" && !validADM4(id) {
		add(fmt.Errorf("location.adm4: %q is not a 10 digit village code", id))
	}
	if cfg.Location.Lat < -90 || cfg.Location.Lat > 90 || cfg.Location.Lon < -180 || cfg.Location.Lon > 180 {
		add(errors.New("location: lat/lon out of range"))
	}
	if !s.Refresh[SourceWeather].Disabled && strings.TrimSpace(cfg.Sources.Weather.APIKey) == "" {
		add(errors.New("sources.weather.api_key is required unless sources.refresh.weather.disabled is set"))
	}
	s.LatencyEvery = dur("sources.system.latency_every", cfg.Sources.System.LatencyEvery, 0)

	// watchdog
	w := Watchdog{
		Enabled:        !cfg.Watchdog.Disabled,
		Target:         DefaultWatchdogTarget,
		Grace:          dur("watchdog.grace", cfg.Watchdog.Grace, DefaultWatchdogGrace),
		Interval:       dur("watchdog.interval", cfg.Watchdog.Interval, DefaultWatchdogInterval),
		ProbeTimeout:   dur("watchdog.probe_timeout", cfg.Watchdog.ProbeTimeout, DefaultProbeTimeout),
		ReconnectAfter: DefaultReconnectAfter,
		RebootAfter:    DefaultRebootAfter,
		Settle:         dur("watchdog.settle", cfg.Watchdog.Settle, DefaultSettle),
	}
	if t := strings.TrimSpace(cfg.Watchdog.Target); t != "" {
		if _, _, err := net.SplitHostPort(t); err != nil {
			add(fmt.Errorf("watchdog.target: %w", err))
		} else {
			w.Target = t
		}
	}
	if w.ProbeTimeout > 3*time.Second {
		add(fmt.Errorf("watchdog.probe_timeout: %s exceeds 3s", w.ProbeTimeout))
	}
	if cfg.Watchdog.ReconnectAfter > 0 {
		w.ReconnectAfter = cfg.Watchdog.ReconnectAfter
	}
	if cfg.Watchdog.RebootAfter > 0 {
		w.RebootAfter = cfg.Watchdog.RebootAfter
	}
	if w.ReconnectAfter >= w.RebootAfter {
		add(fmt.Errorf("watchdog: reconnect_after (%d) must be below reboot_after (%d)", w.ReconnectAfter, w.RebootAfter))
	}
	s.Watchdog = w

	// reboot
	s.RebootHours = DefaultRebootHours
	if cfg.Reboot.Hours != nil {
		h := *cfg.Reboot.Hours
		if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			add(errors.New("reboot.hours must be >= 0"))
		} else {
			s.RebootHours = h
		}
	}
	if win := strings.TrimSpace(cfg.Reboot.Window); win != "" {
		if _, err := schedule.Window(win); err != nil {
			add(fmt.Errorf("reboot.window: %w", err))
		} else {
			s.RebootWindow = win
		}
	}

	s.UTCOffset = DefaultUTCOffset
	if cfg.Location.UTCOffset != nil {
		off := *cfg.Location.UTCOffset
		if off < -12*3600 || off > 14*3600 {
			add(fmt.Errorf("location.utc_offset: %d out of range", off))
		} else {
			s.UTCOffset = off
		}
	}
	s.ActionTimeout = dur("actions.timeout", cfg.Actions.Timeout, DefaultActionTimeout)
	dur("logging.telegram.repeat", cfg.Logging.Telegram.Repeat, 0)

	if cfg.Storage != nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			add(fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
		}
		dur("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
		dur("storage.retention", cfg.Storage.Retention, 0)
	}
	if cfg.Status.Enabled {
		if addr := strings.TrimSpace(cfg.Status.Addr); addr != "" {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				add(fmt.Errorf("status.addr: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func validADM4(id string) bool {
	digits := strings.ReplaceAll(id, ".", "")
	if len(digits) != 10 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
