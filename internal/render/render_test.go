package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"infokiosk/internal/clock"
	"infokiosk/internal/sources"
	"infokiosk/internal/sysstats"
)

func frame(kind string, data any) Frame {
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	return Frame{
		Kind:    kind,
		Pages:   1,
		Data:    data,
		Clock:   clock.Calendar{Offset: 25200}.At(now),
		Context: Context{Location: "Wonogiri,ID"},
	}
}

func renderString(t *testing.T, f Frame) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewTerminal(&buf, 60).Render(f); err != nil {
		t.Fatalf("Render(%s): %v", f.Kind, err)
	}
	return buf.String()
}

func TestLoadingFallbacks(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"finance":       loadingFinance,
		"bmkg_forecast": loadingForecast,
		"news":          loadingNews,
		"sholat":        loadingSholat,
		"quote":         loadingQuote,
		"system":        loadingSystem,
		"weather":       loadingWeather,
	}
	for kind, want := range cases {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			if out := renderString(t, frame(kind, nil)); !strings.Contains(out, want) {
				t.Fatalf("output missing %q:\n%s", want, out)
			}
		})
	}
}

func TestTypedNilIsLoading(t *testing.T) {
	t.Parallel()

	out := renderString(t, frame("finance", (*sources.Finance)(nil)))
	if !strings.Contains(out, loadingFinance) {
		t.Fatalf("typed nil should render loading:\n%s", out)
	}
}

func TestFinanceSlide(t *testing.T) {
	t.Parallel()

	out := renderString(t, frame("finance", &sources.Finance{
		USD:  sources.Quote{Value: 16250},
		Gold: sources.Quote{Value: 2000000, Change: 0.5},
		BTC:  sources.Quote{Value: 1500000000, Change: -1.2},
	}))
	for _, want := range []string{"PASAR KEUANGAN", "Rp 16.250", "Rp 2.000.000", "Rp 1.500.000.000", "0.5%", "1.2%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWrongTypeIsError(t *testing.T) {
	t.Parallel()

	err := NewTerminal(&bytes.Buffer{}, 60).Render(frame("finance", "oops"))
	if !errors.Is(err, ErrUnexpectedData) {
		t.Fatalf("err = %v, want ErrUnexpectedData", err)
	}
	err = NewTerminal(&bytes.Buffer{}, 60).Render(frame("mystery", nil))
	if !errors.Is(err, ErrUnexpectedData) {
		t.Fatalf("unknown slide err = %v", err)
	}
}

func TestNewsPageFooter(t *testing.T) {
	t.Parallel()

	f := frame("news", sources.NewsItem{Title: "Banjir di Jakarta", Desc: "Air setinggi 1 meter"})
	f.Page, f.Pages = 2, 5
	out := renderString(t, f)
	if !strings.Contains(out, "Banjir di Jakarta") || !strings.Contains(out, "HALAMAN 3/5") {
		t.Fatalf("unexpected news output:\n%s", out)
	}
}

func TestWeatherPrefersFetchedCalendar(t *testing.T) {
	t.Parallel()

	f := frame("weather", &sources.Weather{Temp: 30.6, Description: "Berawan", Humidity: 70})
	f.Context.Javanese = "Senin Wage"
	f.Context.Hijri = "23 Rajab 1447H"
	out := renderString(t, f)
	for _, want := range []string{"WONOGIRI", "31°C", "BERAWAN", "Senin Wage", "23 Rajab 1447H", "09:30"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestForecastChart(t *testing.T) {
	t.Parallel()

	fc := sources.Forecast{
		{LocalTime: "2026-01-12 03:00:00", Temp: 23},
		{LocalTime: "2026-01-12 09:00:00", Temp: 27, WeatherDesc: "Berawan"},
		{LocalTime: "2026-01-12 12:00:00", Temp: 30, WeatherDesc: "Cerah"},
	}
	out := renderString(t, frame("bmkg_forecast", fc))
	if strings.Contains(out, "03:00") {
		t.Fatalf("past step should be skipped:\n%s", out)
	}
	for _, want := range []string{"09:00", "12:00", "27°", "30°"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSystemSlideUnknowns(t *testing.T) {
	t.Parallel()

	out := renderString(t, frame("system", &sysstats.Stats{MemUsedMB: 1000, MemTotalMB: 4000, IP: "192.168.1.5"}))
	for _, want := range []string{"1000/4000 MB (25%)", "192.168.1.5", "N/A"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnchangedFrameIsNotRewritten(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminal(&buf, 60)
	f := frame("quote", &sources.Saying{Text: "Urip iku urup.", Author: "Pepatah Jawa"})
	if err := r.Render(f); err != nil {
		t.Fatalf("Render: %v", err)
	}
	n := buf.Len()
	if err := r.Render(f); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() != n {
		t.Fatal("identical frame was written twice")
	}
}

func TestNewRenderer(t *testing.T) {
	t.Parallel()

	if r, err := New("none", nil, 0); err != nil || r.Render(Frame{}) != nil {
		t.Fatalf("none renderer: %v", err)
	}
	if _, err := New("sdl", nil, 0); !errors.Is(err, ErrUnknownRenderer) {
		t.Fatalf("err = %v", err)
	}
}

func TestFormatIDR(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{0: "Rp 0", 999: "Rp 999", 1000: "Rp 1.000", 16250: "Rp 16.250", -1234567: "Rp -1.234.567"}
	for in, want := range cases {
		if got := FormatIDR(in); got != want {
			t.Fatalf("FormatIDR(%d) = %q, want %q", in, got, want)
		}
	}
}
