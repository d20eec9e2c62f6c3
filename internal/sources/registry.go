package sources

import (
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/sysstats"
)

// Registry maps source names to their fetchers.
type Registry map[string]Fetcher

// Build wires one fetcher per configured source. Disabled sources are left
// out; the caller treats a missing fetcher as "never due".
func Build(cfg *config.Config, client *Client, stats sysstats.Provider) Registry {
	s := cfg.Sources
	all := []Fetcher{
		&WeatherFetcher{
			Client:       client,
			BaseURL:      s.Weather.BaseURL,
			APIKey:       s.Weather.APIKey,
			Units:        s.Weather.Units,
			Lang:         s.Weather.Lang,
			FallbackCity: s.Weather.FallbackCity,
		},
		&ForecastFetcher{Client: client, URL: s.BMKG.ForecastURL},
		&FinanceFetcher{
			Client:      client,
			ForexURL:    s.Finance.ForexURL,
			CryptoURL:   s.Finance.CryptoURL,
			USDFallback: s.Finance.USDFallback,
		},
		&SystemFetcher{Provider: stats},
		&QuoteFetcher{Path: s.Quote.Path},
		&NewsFetcher{Client: client, URL: s.News.URL},
		&SholatFetcher{
			Client:       client,
			BaseURL:      s.Sholat.BaseURL,
			Method:       s.Sholat.Method,
			FallbackCity: s.Sholat.FallbackCity,
		},
		&JavaDateFetcher{Client: client, BaseURL: s.JavaDate.BaseURL},
		&WarningFetcher{Client: client, URL: s.BMKG.WarningURL},
	}

	out := make(Registry, len(all))
	for _, f := range all {
		if rc, ok := s.Refresh[f.Name()]; ok && rc.Disabled {
			continue
		}
		out[f.Name()] = f
	}
	return out
}

// ParamsFrom builds the fetch parameters for one tick.
func ParamsFrom(loc config.LocationConfig, now time.Time) Params {
	return Params{
		Lat:      loc.Lat,
		Lon:      loc.Lon,
		City:     loc.City,
		Province: loc.Province,
		ADM4:     loc.ADM4,
		Now:      now,
	}
}
