package config

import (
	"strings"
	"testing"
	"time"
)

func minimal() *Config {
	return &Config{Sources: SourcesConfig{Weather: WeatherSource{APIKey: "k"}}}
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	s, err := Resolve(minimal())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Tick != 100*time.Millisecond {
		t.Fatalf("tick = %v", s.Tick)
	}
	if strings.Join(s.Order, ",") != "weather,bmkg_forecast,news,finance,sholat,quote,system" {
		t.Fatalf("order = %v", s.Order)
	}
	if s.SlideDuration(SlideWeather) != 15*time.Second || s.SlideDuration(SlideAlert) != 6*time.Second {
		t.Fatalf("slide durations = %v", s.SlideDurations)
	}
	if s.RebootHours != 3 || s.UTCOffset != 25200 || s.NewsLimit != 5 {
		t.Fatalf("reboot=%v offset=%d news=%d", s.RebootHours, s.UTCOffset, s.NewsLimit)
	}

	sys := s.Refresh[SourceSystem]
	if sys.Every != 10*time.Second || sys.Retry != 5*time.Second {
		t.Fatalf("system refresh = %+v", sys)
	}
	// Sources without a retry period fall back to their interval.
	if w := s.Refresh[SourceWeather]; w.Retry != w.Every || w.Every != 180*time.Second {
		t.Fatalf("weather refresh = %+v", w)
	}
	if w := s.Watchdog; !w.Enabled || w.Grace != 2*time.Minute || w.Interval != 5*time.Minute ||
		w.ReconnectAfter != 5 || w.RebootAfter != 10 || w.Target != "8.8.8.8:53" {
		t.Fatalf("watchdog = %+v", w)
	}
}

func TestResolveOverrides(t *testing.T) {
	t.Parallel()

	cfg := minimal()
	hours := 6.0
	off := 28800
	cfg.Reboot = RebootConfig{Hours: &hours, Window: "0 3 * * *"}
	cfg.Location.UTCOffset = &off
	cfg.Display = DisplayConfig{
		Order:     []string{"news", "weather"},
		Durations: map[string]string{"news": "12", "bmkg": "4s"},
	}
	cfg.Sources.Refresh = map[string]RefreshConfig{
		"finance": {Every: "@every 20m", Retry: "1m"},
		"news":    {Every: "06:00"},
	}

	s, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.RebootHours != 6 || s.RebootWindow != "0 3 * * *" || s.UTCOffset != 28800 {
		t.Fatalf("reboot/offset not applied: %+v", s)
	}
	if s.SlideDuration(SlideNews) != 12*time.Second || s.SlideDuration(SlideAlert) != 4*time.Second {
		t.Fatalf("durations = %v", s.SlideDurations)
	}
	if f := s.Refresh[SourceFinance]; f.Every != 20*time.Minute || f.Retry != time.Minute {
		t.Fatalf("finance = %+v", f)
	}
	if n := s.Refresh[SourceNews]; n.Every != 6*time.Hour {
		t.Fatalf("news = %+v", n)
	}
	if strings.Join(s.Order, ",") != "news,weather" {
		t.Fatalf("order = %v", s.Order)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"alert in order", func(c *Config) { c.Display.Order = []string{"bmkg"} }, "inserted automatically"},
		{"unknown slide", func(c *Config) { c.Display.Order = []string{"radar"} }, "unknown slide"},
		{"unknown source", func(c *Config) { c.Sources.Refresh = map[string]RefreshConfig{"radar": {}} }, "unknown source"},
		{"bad interval", func(c *Config) {
			c.Sources.Refresh = map[string]RefreshConfig{"news": {Every: "0 3 * * *"}}
		}, "not a fixed interval"},
		{"adm4", func(c *Config) { c.Location.ADM4 = "33291" }, "10 digit"},
		{"api key", func(c *Config) { c.Sources.Weather.APIKey = "" }, "api_key"},
		{"probe timeout", func(c *Config) { c.Watchdog.ProbeTimeout = "5s" }, "exceeds 3s"},
		{"thresholds", func(c *Config) { c.Watchdog.ReconnectAfter = 10 }, "must be below"},
		{"window", func(c *Config) { c.Reboot.Window = "15m" }, "reboot.window"},
		{"duration", func(c *Config) { c.Display.Tick = "fast" }, "display.tick"},
		{"storage driver", func(c *Config) { c.Storage = &StorageConfig{Driver: "duck"} }, "storage.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := minimal()
			tt.mut(cfg)
			_, err := Resolve(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Resolve error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestResolveDisabledWeatherNeedsNoKey(t *testing.T) {
	t.Parallel()
	cfg := &Config{Sources: SourcesConfig{Refresh: map[string]RefreshConfig{"weather": {Disabled: true}}}}
	if _, err := Resolve(cfg); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	cases := map[string]time.Duration{"": 0, "15": 15 * time.Second, "1.5": 1500 * time.Millisecond, "2m": 2 * time.Minute}
	for in, want := range cases {
		got, err := ParseDurationField("x", in)
		if err != nil || got != want {
			t.Fatalf("ParseDurationField(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"-1", "-2s", "soon"} {
		if _, err := ParseDurationField("x", in); err == nil {
			t.Fatalf("ParseDurationField(%q): expected error", in)
		}
	}
}
