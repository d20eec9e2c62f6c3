package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WeatherFetcher reads current conditions from OpenWeatherMap, by
// coordinates when set and by city otherwise, with one retry against the
// fallback city.
type WeatherFetcher struct {
	Client       *Client
	BaseURL      string // default "http://api.openweathermap.org/data/2.5/weather"
	APIKey       string
	Units        string // default "metric"
	Lang         string // default "id"
	FallbackCity string // default "Jakarta,ID"
}

func (f *WeatherFetcher) Name() string { return "weather" }

func (f *WeatherFetcher) Fetch(ctx context.Context, p Params) (any, error) {
	fallback := f.FallbackCity
	if fallback == "" {
		fallback = "Jakarta,ID"
	}

	var primary, second Attempt
	city := strings.TrimSpace(p.City)
	if city == "" {
		city = fallback
	}
	if p.HasCoords() {
		q := url.Values{}
		q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))
		primary = f.query(q)
	} else {
		primary = f.byCity(city)
	}
	if p.HasCoords() || !strings.EqualFold(city, fallback) {
		second = f.byCity(fallback)
	}
	return FirstOf(ctx, primary, second)
}

func (f *WeatherFetcher) byCity(city string) Attempt {
	q := url.Values{}
	q.Set("q", city)
	return f.query(q)
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (f *WeatherFetcher) query(q url.Values) Attempt {
	return func(ctx context.Context) (any, error) {
		base := f.BaseURL
		if base == "" {
			base = "http://api.openweathermap.org/data/2.5/weather"
		}
		units, lang := f.Units, f.Lang
		if units == "" {
			units = "metric"
		}
		if lang == "" {
			lang = "id"
		}
		q.Set("appid", f.APIKey)
		q.Set("units", units)
		q.Set("lang", lang)

		var r owmResponse
		if err := f.Client.GetJSON(ctx, base+"?"+q.Encode(), &r); err != nil {
			return nil, fmt.Errorf("weather: %w", err)
		}
		if len(r.Weather) == 0 {
			return nil, fmt.Errorf("weather: %w: empty conditions", ErrNoData)
		}
		return &Weather{
			City:        r.Name,
			Temp:        r.Main.Temp,
			Humidity:    r.Main.Humidity,
			Pressure:    r.Main.Pressure,
			WindSpeed:   r.Wind.Speed,
			Description: cases.Title(language.Indonesian).String(r.Weather[0].Description),
			Icon:        r.Weather[0].Icon,
		}, nil
	}
}
