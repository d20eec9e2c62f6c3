// Package sources contains the fetchers for every data source shown on
// the kiosk. Each fetcher returns a typed payload or an error; sanitizing
// and caching are up to the caller.
package sources

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoData means the upstream answered but had nothing usable.
	ErrNoData = errors.New("no data")
	// ErrStatus wraps non-2xx HTTP answers.
	ErrStatus = errors.New("unexpected status")
)

// Params is the read-only view of the config a fetch may depend on.
type Params struct {
	Lat      float64
	Lon      float64
	City     string
	Province string
	ADM4     string
	// Now is the tick's clock reading in the kiosk's local zone.
	Now time.Time
}

// HasCoords reports whether a usable coordinate pair is set.
func (p Params) HasCoords() bool { return p.Lat != 0 || p.Lon != 0 }

// Fetcher is one source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, p Params) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc struct {
	ID string
	Fn func(ctx context.Context, p Params) (any, error)
}

func (f FetcherFunc) Name() string { return f.ID }

func (f FetcherFunc) Fetch(ctx context.Context, p Params) (any, error) { return f.Fn(ctx, p) }

// Weather is the current conditions at the kiosk.
type Weather struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// NewsItem is one headline.
type NewsItem struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// Sholat holds today's prayer times as "HH:MM" strings.
type Sholat struct {
	Imsak   string `json:"imsak"`
	Subuh   string `json:"subuh"`
	Dzuhur  string `json:"dzuhur"`
	Ashar   string `json:"ashar"`
	Maghrib string `json:"maghrib"`
	Isya    string `json:"isya"`
	Hijri   string `json:"hijri"`
}

// JavaDate is the Javanese weekday and pasaran, e.g. "Senin Wage".
type JavaDate struct {
	Text string `json:"text"`
}

// Warning is an active BMKG weather warning for the configured province.
type Warning struct {
	Headline string `json:"headline"`
	Desc     string `json:"desc"`
}

// ForecastEntry is one 3-hourly BMKG forecast step.
type ForecastEntry struct {
	LocalTime   string  `json:"local_datetime"` // "2006-01-02 15:04:05"
	Temp        float64 `json:"t"`
	Humidity    float64 `json:"hu"`
	Weather     int     `json:"weather"`
	WeatherDesc string  `json:"weather_desc"`
}

// Forecast is the flattened BMKG forecast list.
type Forecast []ForecastEntry

// Quote is a price in IDR with its 24h change in percent.
type Quote struct {
	Value  int64   `json:"val"`
	Change float64 `json:"change"`
}

// Finance is the market overview.
type Finance struct {
	USD  Quote `json:"usd"`
	BTC  Quote `json:"btc"`
	ETH  Quote `json:"eth"`
	Gold Quote `json:"gold"` // per gram
	// USDFallback is set when the forex source failed and USD is the
	// configured fallback rate.
	USDFallback bool `json:"usd_fallback,omitempty"`
}

// Saying is a quote of the day.
type Saying struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}
