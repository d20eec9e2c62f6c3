package config

import "time"

// Source names, in the order the tick loop refreshes them.
const (
	SourceWeather      = "weather"
	SourceBMKGForecast = "bmkg_forecast"
	SourceFinance      = "finance"
	SourceSystem       = "system"
	SourceQuote        = "quote"
	SourceNews         = "news"
	SourceSholat       = "sholat"
	SourceJavaDate     = "javadate"
	SourceBMKGWarning  = "bmkg_warning"
)

// Slide kinds. SlideAlert is conditional and never part of Display.Order.
const (
	SlideWeather      = "weather"
	SlideBMKGForecast = "bmkg_forecast"
	SlideNews         = "news"
	SlideFinance      = "finance"
	SlideSholat       = "sholat"
	SlideQuote        = "quote"
	SlideSystem       = "system"
	SlideAlert        = "bmkg"
)

// SourceOrder is the fixed refresh order inside one tick (the watchdog runs
// between finance and system).
var SourceOrder = []string{
	SourceWeather,
	SourceBMKGForecast,
	SourceFinance,
	SourceSystem,
	SourceQuote,
	SourceNews,
	SourceSholat,
	SourceJavaDate,
	SourceBMKGWarning,
}

var DefaultOrder = []string{
	SlideWeather,
	SlideBMKGForecast,
	SlideNews,
	SlideFinance,
	SlideSholat,
	SlideQuote,
	SlideSystem,
}

var defaultSlideDurations = map[string]time.Duration{
	SlideWeather:      15 * time.Second,
	SlideNews:         10 * time.Second,
	SlideSholat:       10 * time.Second,
	SlideAlert:        6 * time.Second,
	SlideBMKGForecast: 6 * time.Second,
	SlideFinance:      10 * time.Second,
	SlideQuote:        10 * time.Second,
	SlideSystem:       8 * time.Second,
}

type defaultRefresh struct{ every, retry time.Duration }

var defaultRefreshes = map[string]defaultRefresh{
	SourceWeather:      {every: 180 * time.Second},
	SourceBMKGForecast: {every: 1800 * time.Second},
	SourceFinance:      {every: 900 * time.Second},
	SourceSystem:       {every: 10 * time.Second, retry: 5 * time.Second},
	SourceQuote:        {every: 45 * time.Second, retry: 30 * time.Second},
	SourceNews:         {every: 600 * time.Second},
	SourceSholat:       {every: 4 * time.Hour},
	SourceJavaDate:     {every: 6 * time.Hour},
	SourceBMKGWarning:  {every: 600 * time.Second},
}

const (
	DefaultTick         = 100 * time.Millisecond
	DefaultFetchTimeout = 10 * time.Second
	DefaultNewsLimit    = 5
	DefaultRebootHours  = 3
	DefaultUTCOffset    = 25200
	DefaultWidth        = 60

	DefaultWatchdogTarget   = "8.8.8.8:53"
	DefaultWatchdogGrace    = 2 * time.Minute
	DefaultWatchdogInterval = 5 * time.Minute
	DefaultProbeTimeout     = 3 * time.Second
	DefaultReconnectAfter   = 5
	DefaultRebootAfter      = 10
	DefaultSettle           = 10 * time.Second

	DefaultReconnectUnit = "wpa_supplicant.service"
	DefaultActionTimeout = 15 * time.Second
	DefaultStatusAddr    = "127.0.0.1:8089"
	DefaultFatalDump     = "./kiosk_fatal.txt"
	DefaultFallbackCity  = "Jakarta,ID"
	DefaultSholatCity    = "Jakarta"
	DefaultSholatMethod  = 20
	DefaultUSDFallback   = 16000
)

var (
	DefaultReconnectCommand = []string{"sudo", "wpa_cli", "-i", "wlan0", "reconfigure"}
	DefaultRebootCommand    = []string{"sudo", "reboot"}
)
