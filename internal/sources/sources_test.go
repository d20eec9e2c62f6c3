package sources

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/sysstats"
)

// recorder is an httptest handler that remembers request URIs.
type recorder struct {
	mu   sync.Mutex
	uris []string
}

func (r *recorder) add(u string) {
	r.mu.Lock()
	r.uris = append(r.uris, u)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uris...)
}

func newServer(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.RequestURI())
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testClient(srv *httptest.Server) *Client { return NewClientWith(srv.Client(), "kiosk-test") }

func TestFirstOf(t *testing.T) {
	t.Parallel()

	ok := func(v string) Attempt { return func(context.Context) (any, error) { return v, nil } }
	bad := func(msg string) Attempt { return func(context.Context) (any, error) { return nil, errors.New(msg) } }

	t.Run("primary wins", func(t *testing.T) {
		fallbackCalled := false
		v, err := FirstOf(context.Background(), ok("a"), func(context.Context) (any, error) {
			fallbackCalled = true
			return "b", nil
		})
		if err != nil || v != "a" || fallbackCalled {
			t.Fatalf("v=%v err=%v fallbackCalled=%v", v, err, fallbackCalled)
		}
	})
	t.Run("fallback used", func(t *testing.T) {
		v, err := FirstOf(context.Background(), bad("x"), ok("b"))
		if err != nil || v != "b" {
			t.Fatalf("v=%v err=%v", v, err)
		}
	})
	t.Run("both fail", func(t *testing.T) {
		_, err := FirstOf(context.Background(), bad("first"), bad("second"))
		if err == nil || !strings.Contains(err.Error(), "first") || !strings.Contains(err.Error(), "second") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("nil fallback", func(t *testing.T) {
		if _, err := FirstOf(context.Background(), bad("only"), nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestWeatherFallsBackToCity(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") != "" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Jakarta","main":{"temp":31.5,"humidity":70,"pressure":1008},
			"wind":{"speed":3.1},"weather":[{"description":"hujan ringan","icon":"10d"}]}`))
	})

	f := &WeatherFetcher{Client: testClient(srv), BaseURL: srv.URL, APIKey: "k"}
	v, err := f.Fetch(context.Background(), Params{Lat: -7.8, Lon: 110.9})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	w := v.(*Weather)
	if w.City != "Jakarta" || w.Temp != 31.5 || w.Humidity != 70 || w.Description != "Hujan Ringan" || w.Icon != "10d" {
		t.Fatalf("weather = %+v", w)
	}
	uris := rec.list()
	if len(uris) != 2 || !strings.Contains(uris[1], "q=Jakarta%2CID") {
		t.Fatalf("requests = %v", uris)
	}
	if !strings.Contains(uris[0], "units=metric") || !strings.Contains(uris[0], "lang=id") {
		t.Fatalf("primary query missing defaults: %s", uris[0])
	}
}

func TestWeatherCityEqualToFallbackTriesOnce(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	f := &WeatherFetcher{Client: testClient(srv), BaseURL: srv.URL}
	if _, err := f.Fetch(context.Background(), Params{}); !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
	if n := len(rec.list()); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
}

const newsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Top stories</title>
<item><title>Banjir di Jakarta - Kompas</title>
<description>&lt;p&gt;Banjir di Jakarta merendam 20 RT.&lt;/p&gt;</description></item>
<item><title>Harga beras naik - Detik</title><description>&lt;a href="x"&gt;Harga beras naik&lt;/a&gt;</description></item>
<item><title>   </title><description>kosong</description></item>
</channel></rss>`

func TestNewsCleansItems(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(newsFeed))
	})
	f := &NewsFetcher{Client: testClient(srv), URL: srv.URL}
	v, err := f.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	items := v.([]NewsItem)
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Title != "Banjir di Jakarta" || items[0].Desc != "merendam 20 RT." {
		t.Fatalf("item0 = %+v", items[0])
	}
	if items[1].Desc != newsDescFallback {
		t.Fatalf("item1 desc = %q", items[1].Desc)
	}
}

func TestNewsEmptyFeed(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<rss><channel></channel></rss>`))
	})
	f := &NewsFetcher{Client: testClient(srv), URL: srv.URL}
	if _, err := f.Fetch(context.Background(), Params{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestSholatMapsTimings(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"timings":{"Imsak":"04:10","Fajr":"04:20","Dhuhr":"11:50",
			"Asr":"15:15","Maghrib":"18:00","Isha":"19:10"},
			"date":{"hijri":{"day":"23","year":"1447","month":{"en":"Rajab"}}}}}`))
	})
	f := &SholatFetcher{Client: testClient(srv), BaseURL: srv.URL}
	v, err := f.Fetch(context.Background(), Params{Lat: -7.8, Lon: 110.9})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	s := v.(*Sholat)
	want := Sholat{Imsak: "04:10", Subuh: "04:20", Dzuhur: "11:50", Ashar: "15:15", Maghrib: "18:00", Isya: "19:10", Hijri: "23 Rajab 1447H"}
	if *s != want {
		t.Fatalf("sholat = %+v, want %+v", *s, want)
	}
	uris := rec.list()
	if len(uris) != 1 || !strings.HasPrefix(uris[0], "/timings?") || !strings.Contains(uris[0], "method=20") {
		t.Fatalf("requests = %v", uris)
	}
}

func TestSholatFallbackAddress(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/timingsByAddress") && r.URL.Query().Get("address") == "Jakarta, Indonesia" {
			_, _ = w.Write([]byte(`{"data":{"timings":{"Fajr":"04:30","Maghrib":"18:05"}}}`))
			return
		}
		http.Error(w, "no", http.StatusNotFound)
	})
	f := &SholatFetcher{Client: testClient(srv), BaseURL: srv.URL}
	v, err := f.Fetch(context.Background(), Params{City: "Wonogiri,ID"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s := v.(*Sholat); s.Subuh != "04:30" || s.Hijri != "" {
		t.Fatalf("sholat = %+v", s)
	}
	if n := len(rec.list()); n != 2 {
		t.Fatalf("requests = %d, want 2", n)
	}
}

func TestJavaDate(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"weekday":"Senin","pasaran":"Wage"}`))
	})
	f := &JavaDateFetcher{Client: testClient(srv), BaseURL: srv.URL}
	now := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	v, err := f.Fetch(context.Background(), Params{Now: now})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := v.(*JavaDate).Text; got != "Senin Wage" {
		t.Fatalf("text = %q", got)
	}
	if u := rec.list()[0]; !strings.Contains(u, "year=2026") || !strings.Contains(u, "month=1") || !strings.Contains(u, "day=12") {
		t.Fatalf("uri = %s", u)
	}
}

const capFeed = `<?xml version="1.0"?><rss><channel>
<item><title>Hujan Lebat di Jawa Timur</title><description>Waspada di Surabaya</description></item>
<item><title>Peringatan Dini Cuaca</title><description>Hujan lebat disertai petir di JAKARTA Selatan</description></item>
</channel></rss>`

func TestWarningMatchesProvince(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(capFeed)) })
	f := &WarningFetcher{Client: testClient(srv), URL: srv.URL}

	v, err := f.Fetch(context.Background(), Params{Province: "DKI Jakarta"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	w := v.(*Warning)
	if w == nil || w.Headline != "Peringatan Dini Cuaca" {
		t.Fatalf("warning = %+v", w)
	}

	v, err = f.Fetch(context.Background(), Params{Province: "Provinsi Bali"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if w := v.(*Warning); w != nil {
		t.Fatalf("expected no warning, got %+v", w)
	}
}

func TestNormalizeProvince(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"DKI Jakarta":                "JAKARTA",
		"Daerah Istimewa Yogyakarta": "YOGYAKARTA",
		"Provinsi Jawa Tengah":       "JAWA TENGAH",
		" jawa barat ":               "JAWA BARAT",
	}
	for in, want := range cases {
		if got := normalizeProvince(in); got != want {
			t.Fatalf("normalizeProvince(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestForecastFlattensNestedLists(t *testing.T) {
	t.Parallel()

	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"cuaca":[
			[{"local_datetime":"2026-01-12 09:00:00","t":27,"hu":80,"weather":3,"weather_desc":"Berawan"},
			 {"local_datetime":"2026-01-12 12:00:00","t":30,"hu":70,"weather":1,"weather_desc":"Cerah"}],
			[{"local_datetime":"2026-01-13 00:00:00","t":24,"hu":90,"weather":61,"weather_desc":"Hujan Ringan"}]
		]}]}`))
	})
	f := &ForecastFetcher{Client: testClient(srv), URL: srv.URL}
	v, err := f.Fetch(context.Background(), Params{ADM4: "3329122001"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	fc := v.(Forecast)
	if len(fc) != 3 || fc[1].Temp != 30 || fc[2].WeatherDesc != "Hujan Ringan" {
		t.Fatalf("forecast = %+v", fc)
	}
	if u := rec.list()[0]; !strings.Contains(u, "adm4=33.29.12.2001") {
		t.Fatalf("uri = %s", u)
	}
}

func TestForecastInvalidADM4(t *testing.T) {
	t.Parallel()

	f := &ForecastFetcher{Client: NewClient("")}
	if _, err := f.Fetch(context.Background(), Params{ADM4: "123"}); err == nil {
		t.Fatal("expected error for short adm4")
	}
	if got, err := FormatADM4("33.29.12.2001"); err != nil || got != "33.29.12.2001" {
		t.Fatalf("dotted = %q %v", got, err)
	}
}

const cryptoBody = `{"bitcoin":{"idr":1500000000,"idr_24h_change":1.234},
"ethereum":{"idr":50000000,"idr_24h_change":-2.5},
"pax-gold":{"idr":62207000,"idr_24h_change":0.5}}`

func TestFinanceForexFallback(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forex" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(cryptoBody))
	})
	f := &FinanceFetcher{Client: testClient(srv), ForexURL: srv.URL + "/forex", CryptoURL: srv.URL + "/crypto"}
	v, err := f.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	fin := v.(*Finance)
	if !fin.USDFallback || fin.USD.Value != DefaultUSDFallback {
		t.Fatalf("usd = %+v fallback=%v", fin.USD, fin.USDFallback)
	}
	if fin.BTC.Value != 1500000000 || fin.BTC.Change != 1.23 || fin.ETH.Change != -2.5 {
		t.Fatalf("crypto = %+v %+v", fin.BTC, fin.ETH)
	}
	if fin.Gold.Value != 2000000 || fin.Gold.Change != 0.5 {
		t.Fatalf("gold = %+v", fin.Gold)
	}
}

func TestFinanceFailsWithoutCrypto(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forex" {
			_, _ = w.Write([]byte(`{"rates":{"IDR":16250.4}}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	f := &FinanceFetcher{Client: testClient(srv), ForexURL: srv.URL + "/forex", CryptoURL: srv.URL + "/crypto"}
	if _, err := f.Fetch(context.Background(), Params{}); !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
}

func TestQuoteFileAndFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "quotes.json")
	if err := os.WriteFile(path, []byte(`[{"quote":"Alon-alon asal kelakon.","author":""},{"quote":"  "}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := &QuoteFetcher{Path: path, Rand: rand.New(rand.NewPCG(1, 2))}
	v, err := f.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s := v.(*Saying); s.Text != "Alon-alon asal kelakon." || s.Author != "Anonim" {
		t.Fatalf("saying = %+v", s)
	}

	missing := &QuoteFetcher{Path: filepath.Join(dir, "missing.json")}
	v, err = missing.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s := v.(*Saying); *s != FallbackSaying {
		t.Fatalf("saying = %+v, want fallback", s)
	}
}

type fakeStats struct {
	s   *sysstats.Stats
	err error
}

func (f fakeStats) Stats(context.Context) (*sysstats.Stats, error) { return f.s, f.err }

func TestSystemFetcher(t *testing.T) {
	t.Parallel()

	f := &SystemFetcher{Provider: fakeStats{s: &sysstats.Stats{TempC: 51, HasTemp: true}}}
	v, err := f.Fetch(context.Background(), Params{})
	if err != nil || v.(*sysstats.Stats).TempC != 51 {
		t.Fatalf("v=%v err=%v", v, err)
	}
	f = &SystemFetcher{Provider: fakeStats{err: errors.New("procfs gone")}}
	if _, err := f.Fetch(context.Background(), Params{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildSkipsDisabled(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Sources.Refresh = map[string]config.RefreshConfig{
		config.SourceWeather: {Disabled: true},
	}
	reg := Build(cfg, NewClient(""), fakeStats{})
	if _, ok := reg[config.SourceWeather]; ok {
		t.Fatal("disabled weather should not be registered")
	}
	for _, name := range config.SourceOrder {
		if name == config.SourceWeather {
			continue
		}
		if _, ok := reg[name]; !ok {
			t.Fatalf("missing fetcher %q", name)
		}
	}
}
