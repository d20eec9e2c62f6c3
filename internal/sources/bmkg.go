package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"infokiosk/internal/sanitize"
)

// WarningFetcher scans the BMKG CAP feed for a warning that mentions the
// configured province. A feed without a match is a successful fetch with a
// nil *Warning: the alert has ended.
type WarningFetcher struct {
	Client *Client
	URL    string // default BMKG Indonesian CAP RSS
}

func (f *WarningFetcher) Name() string { return "bmkg_warning" }

var provincePrefixes = []string{"DKI ", "DAERAH ISTIMEWA ", "PROVINSI "}

// normalizeProvince upper-cases p and drops administrative prefixes, so
// "DKI Jakarta" matches feed items that only say "Jakarta".
func normalizeProvince(p string) string {
	s := strings.ToUpper(strings.TrimSpace(p))
	for _, pre := range provincePrefixes {
		s = strings.TrimSpace(strings.TrimPrefix(s, pre))
	}
	return s
}

func (f *WarningFetcher) Fetch(ctx context.Context, p Params) (any, error) {
	u := f.URL
	if u == "" {
		u = "https://cuaca.bmkg.go.id/data/public/cap/feed/id/rss.xml"
	}
	province := p.Province
	if strings.TrimSpace(province) == "" {
		province = "Jawa Tengah"
	}
	body, err := f.Client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("bmkg warning: %w", err)
	}
	items, err := parseRSS(body)
	if err != nil {
		return nil, fmt.Errorf("bmkg warning: %w", err)
	}

	needle := strings.ToLower(normalizeProvince(province))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), needle) ||
			strings.Contains(strings.ToLower(it.Description), needle) {
			return &Warning{Headline: sanitize.Text(it.Title), Desc: sanitize.Text(it.Description)}, nil
		}
	}
	return (*Warning)(nil), nil
}

// ForecastFetcher reads the 3-hourly BMKG forecast of one village (adm4).
type ForecastFetcher struct {
	Client *Client
	URL    string // default "https://api.bmkg.go.id/publik/prakiraan-cuaca"
}

func (f *ForecastFetcher) Name() string { return "bmkg_forecast" }

// FormatADM4 turns "3329122001" into "33.29.12.2001". Already dotted codes
// are returned unchanged.
func FormatADM4(id string) (string, error) {
	id = strings.TrimSpace(id)
	if strings.Contains(id, ".") {
		return id, nil
	}
	if len(id) < 10 {
		return "", fmt.Errorf("adm4 %q: want 10 digits", id)
	}
	return id[:2] + "." + id[2:4] + "." + id[4:6] + "." + id[6:], nil
}

func (f *ForecastFetcher) Fetch(ctx context.Context, p Params) (any, error) {
	adm4, err := FormatADM4(p.ADM4)
	if err != nil {
		return nil, fmt.Errorf("bmkg forecast: %w", err)
	}
	base := f.URL
	if base == "" {
		base = "https://api.bmkg.go.id/publik/prakiraan-cuaca"
	}

	var r struct {
		Data []struct {
			Cuaca []json.RawMessage `json:"cuaca"`
		} `json:"data"`
	}
	if err := f.Client.GetJSON(ctx, base+"?adm4="+url.QueryEscape(adm4), &r); err != nil {
		return nil, fmt.Errorf("bmkg forecast: %w", err)
	}
	if len(r.Data) == 0 {
		return nil, fmt.Errorf("bmkg forecast: %w", ErrNoData)
	}
	out, err := flattenCuaca(r.Data[0].Cuaca)
	if err != nil {
		return nil, fmt.Errorf("bmkg forecast: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bmkg forecast: %w", ErrNoData)
	}
	return out, nil
}

// flattenCuaca accepts both a list of entries and a list of per-day lists.
func flattenCuaca(raw []json.RawMessage) (Forecast, error) {
	var out Forecast
	for _, r := range raw {
		trimmed := strings.TrimSpace(string(r))
		if strings.HasPrefix(trimmed, "[") {
			var day []ForecastEntry
			if err := json.Unmarshal(r, &day); err != nil {
				return nil, fmt.Errorf("decode cuaca: %w", err)
			}
			out = append(out, day...)
			continue
		}
		var e ForecastEntry
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, fmt.Errorf("decode cuaca: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
