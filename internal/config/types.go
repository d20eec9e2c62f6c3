package config

// Config is the kiosk's on-disk configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "4h").
// Omitted fields fall back to the defaults in defaults.go.
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Location LocationConfig `json:"location"`
	Display  DisplayConfig  `json:"display"`
	Sources  SourcesConfig  `json:"sources"`
	Watchdog WatchdogConfig `json:"watchdog"`
	Reboot   RebootConfig   `json:"reboot"`
	Actions  ActionsConfig  `json:"actions"`
	Status   StatusConfig   `json:"status"`
	Storage  *StorageConfig `json:"storage,omitempty"`

	// Watch enables hot reload. A changed file is picked up between ticks.
	Watch bool `json:"watch,omitempty"`
	// FatalDump is where the diagnostic dump is written when the tick loop dies.
	FatalDump string `json:"fatal_dump,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	JSON     bool            `json:"json,omitempty"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards warnings to an operator chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"` // never logged
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	APIURL     string `json:"api_url,omitempty"`
	// Repeat suppresses identical alerts for this long (default "10m").
	Repeat string `json:"repeat,omitempty"`
}

// LocationConfig identifies where the kiosk stands.
//
// Lat/Lon are preferred by the weather and prayer-time sources; City is the
// fallback lookup. ADM4 is the 10 digit BMKG village code ("3329122001").
type LocationConfig struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	City     string  `json:"city,omitempty"`
	Province string  `json:"province,omitempty"`
	ADM4     string  `json:"adm4,omitempty"`

	// UTCOffset is in seconds (25200 for WIB).
	UTCOffset *int `json:"utc_offset,omitempty"`
	// Day adjustments for the Javanese and Hijri calendars.
	JavaDayOffset  int `json:"java_day_offset,omitempty"`
	HijriDayOffset int `json:"hijri_day_offset,omitempty"`
}

// DisplayConfig controls the slide deck.
type DisplayConfig struct {
	// Tick is the pause between loop iterations (default "100ms").
	Tick string `json:"tick,omitempty"`
	// Order is the initial rotation. The alert slide is never listed here.
	Order []string `json:"order,omitempty"`
	// Durations maps a slide kind to its display time.
	Durations map[string]string `json:"durations,omitempty"`
	NewsLimit int               `json:"news_limit,omitempty"`
	Width     int               `json:"width,omitempty"`
	// Output is "stdout" (default) or a file/tty path such as "/dev/tty1".
	Output string `json:"output,omitempty"`
	// Renderer is "terminal" (default) or "none".
	Renderer string `json:"renderer,omitempty"`
}

// SourcesConfig holds the refresh policy for every data source plus the
// endpoints each fetcher talks to.
type SourcesConfig struct {
	// Refresh maps a source name to its schedule. Missing entries use defaults.
	Refresh map[string]RefreshConfig `json:"refresh,omitempty"`
	// Timeout bounds one fetch unless a source overrides it (default "10s").
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	Weather  WeatherSource  `json:"weather"`
	News     NewsSource     `json:"news"`
	Sholat   SholatSource   `json:"sholat"`
	JavaDate JavaDateSource `json:"javadate"`
	BMKG     BMKGSource     `json:"bmkg"`
	Finance  FinanceSource  `json:"finance"`
	Quote    QuoteSource    `json:"quote"`
	System   SystemSource   `json:"system"`
}

// RefreshConfig is one source's schedule.
//
// Every accepts a duration ("180s") or an interval schedule ("@every 3m",
// "every:3m"). Retry is the shorter period used while nothing is cached yet.
type RefreshConfig struct {
	Every   string `json:"every,omitempty"`
	Retry   string `json:"retry,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	// Disabled drops the source (and its slide data stays empty).
	Disabled bool `json:"disabled,omitempty"`
}

type WeatherSource struct {
	APIKey       string `json:"api_key,omitempty"` // never logged
	Units        string `json:"units,omitempty"`
	Lang         string `json:"lang,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	FallbackCity string `json:"fallback_city,omitempty"`
}

type NewsSource struct {
	URL string `json:"url,omitempty"`
}

type SholatSource struct {
	BaseURL      string `json:"base_url,omitempty"`
	Method       int    `json:"method,omitempty"`
	FallbackCity string `json:"fallback_city,omitempty"`
}

type JavaDateSource struct {
	BaseURL string `json:"base_url,omitempty"`
}

type BMKGSource struct {
	WarningURL  string `json:"warning_url,omitempty"`
	ForecastURL string `json:"forecast_url,omitempty"`
}

type FinanceSource struct {
	ForexURL    string  `json:"forex_url,omitempty"`
	CryptoURL   string  `json:"crypto_url,omitempty"`
	USDFallback float64 `json:"usd_fallback,omitempty"`
}

type QuoteSource struct {
	Path string `json:"path,omitempty"`
}

type SystemSource struct {
	// LatencyEvery enables a speedtest ping probe at this period ("1h"). Empty disables.
	LatencyEvery string `json:"latency_every,omitempty"`
	Interface    string `json:"interface,omitempty"`
}

// WatchdogConfig controls the connectivity watchdog.
type WatchdogConfig struct {
	Disabled       bool   `json:"disabled,omitempty"`
	Target         string `json:"target,omitempty"` // host:port, default "8.8.8.8:53"
	Grace          string `json:"grace,omitempty"`
	Interval       string `json:"interval,omitempty"`
	ProbeTimeout   string `json:"probe_timeout,omitempty"`
	ReconnectAfter int    `json:"reconnect_after,omitempty"`
	RebootAfter    int    `json:"reboot_after,omitempty"`
	Settle         string `json:"settle,omitempty"`
}

// RebootConfig controls the uptime based reboot.
type RebootConfig struct {
	// Hours of uptime before a reboot. Pointer so an explicit 0 disables it.
	Hours *float64 `json:"hours,omitempty"`
	// Window is an optional cron expression; the reboot waits for it.
	Window string `json:"window,omitempty"`
}

// ActionsConfig controls how remedial actions are carried out.
type ActionsConfig struct {
	DryRun bool `json:"dry_run,omitempty"`
	// ReconnectUnit is restarted over D-Bus (default "wpa_supplicant.service").
	ReconnectUnit string `json:"reconnect_unit,omitempty"`
	// ReconnectCommand is used when D-Bus is unavailable.
	ReconnectCommand []string `json:"reconnect_command,omitempty"`
	// RebootCommand is used when D-Bus is unavailable.
	RebootCommand []string `json:"reboot_command,omitempty"`
	Timeout       string   `json:"timeout,omitempty"`
}

// StatusConfig controls the optional read-only status API.
//
// Prefer binding to localhost (e.g. "127.0.0.1:8089").
type StatusConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// StorageConfig controls the fetch/deck journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./kiosk_journal", "retention": "72h" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	Retention   string `json:"retention,omitempty"`
}
