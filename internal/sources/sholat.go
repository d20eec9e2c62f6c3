package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SholatFetcher reads prayer times from the Aladhan API, by coordinates
// when set and by city otherwise, with one retry against the fallback city.
type SholatFetcher struct {
	Client       *Client
	BaseURL      string // default "http://api.aladhan.com/v1"
	Method       int    // calculation method, default 20 (Kemenag RI)
	FallbackCity string // default "Jakarta"
}

func (f *SholatFetcher) Name() string { return "sholat" }

func (f *SholatFetcher) Fetch(ctx context.Context, p Params) (any, error) {
	fallback := f.FallbackCity
	if fallback == "" {
		fallback = "Jakarta"
	}
	city := strings.TrimSpace(p.City)
	// OpenWeather style "City,CC" names are reduced to the city.
	if i := strings.IndexByte(city, ','); i > 0 {
		city = strings.TrimSpace(city[:i])
	}
	if city == "" {
		city = fallback
	}

	var primary, second Attempt
	if p.HasCoords() {
		q := url.Values{}
		q.Set("latitude", strconv.FormatFloat(p.Lat, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(p.Lon, 'f', -1, 64))
		primary = f.call("timings", q)
	} else {
		primary = f.byCity(city)
	}
	if p.HasCoords() || !strings.EqualFold(city, fallback) {
		second = f.byCity(fallback)
	}
	return FirstOf(ctx, primary, second)
}

func (f *SholatFetcher) byCity(city string) Attempt {
	q := url.Values{}
	q.Set("address", city+", Indonesia")
	return f.call("timingsByAddress", q)
}

type aladhanResponse struct {
	Data struct {
		Timings map[string]string `json:"timings"`
		Date    struct {
			Hijri struct {
				Day   string `json:"day"`
				Year  string `json:"year"`
				Month struct {
					En string `json:"en"`
				} `json:"month"`
			} `json:"hijri"`
		} `json:"date"`
	} `json:"data"`
}

func (f *SholatFetcher) call(endpoint string, q url.Values) Attempt {
	return func(ctx context.Context) (any, error) {
		base := strings.TrimRight(f.BaseURL, "/")
		if base == "" {
			base = "http://api.aladhan.com/v1"
		}
		method := f.Method
		if method <= 0 {
			method = 20
		}
		q.Set("method", strconv.Itoa(method))

		var r aladhanResponse
		if err := f.Client.GetJSON(ctx, base+"/"+endpoint+"?"+q.Encode(), &r); err != nil {
			return nil, fmt.Errorf("sholat: %w", err)
		}
		t := r.Data.Timings
		out := &Sholat{
			Imsak:   t["Imsak"],
			Subuh:   t["Fajr"],
			Dzuhur:  t["Dhuhr"],
			Ashar:   t["Asr"],
			Maghrib: t["Maghrib"],
			Isya:    t["Isha"],
		}
		if out.Subuh == "" || out.Maghrib == "" {
			return nil, fmt.Errorf("sholat: %w: timings missing", ErrNoData)
		}
		h := r.Data.Date.Hijri
		if h.Day != "" {
			out.Hijri = fmt.Sprintf("%s %s %sH", h.Day, h.Month.En, h.Year)
		}
		return out, nil
	}
}
