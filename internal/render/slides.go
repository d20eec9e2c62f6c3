package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"infokiosk/internal/sanitize"
	"infokiosk/internal/sources"
	"infokiosk/internal/sysstats"
)

// Loading lines, shown while a slide's source has nothing cached yet.
const (
	loadingWeather  = "Memuat data cuaca..."
	loadingForecast = "Memuat data BMKG..."
	loadingNews     = "Mengambil berita..."
	loadingFinance  = "Memuat data pasar..."
	loadingSholat   = "Mengambil jadwal..."
	loadingQuote    = "Memilih kata..."
	loadingSystem   = "Memindai system..."
	loadingAlert    = "Tidak ada peringatan aktif."
)

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch p := v.(type) {
	case *sources.Weather:
		return p == nil
	case *sources.Finance:
		return p == nil
	case *sources.Sholat:
		return p == nil
	case *sources.Saying:
		return p == nil
	case *sources.Warning:
		return p == nil
	case *sysstats.Stats:
		return p == nil
	case sources.Forecast:
		return len(p) == 0
	}
	return false
}

func unexpected(kind string, v any) error {
	return fmt.Errorf("%w: %s slide got %T", ErrUnexpectedData, kind, v)
}

func (t *Terminal) title(s string) string { return t.st.title.Render(s) }

func (t *Terminal) loading(title, line string) string {
	return lipgloss.JoinVertical(lipgloss.Left, t.title(title), "", t.st.dim.Render(line))
}

func (t *Terminal) weather(f Frame) (string, error) {
	lines := []string{}
	city := f.Context.Location
	if city == "" {
		city = "Indonesia"
	}
	if i := strings.IndexByte(city, ','); i > 0 {
		city = city[:i]
	}
	lines = append(lines, t.title(strings.ToUpper(city)))

	if isNil(f.Data) {
		lines = append(lines, t.st.dim.Render(loadingWeather))
	} else {
		w, ok := f.Data.(*sources.Weather)
		if !ok {
			return "", unexpected(f.Kind, f.Data)
		}
		lines = append(lines,
			t.st.clock.Render(fmt.Sprintf("%.0f°C", w.Temp))+"  "+t.st.accent.Render(strings.ToUpper(w.Description)),
			t.st.text.Render(fmt.Sprintf("Kelembapan %d%%  Angin %.1f m/s  Tekanan %d hPa", w.Humidity, w.WindSpeed, w.Pressure)),
		)
	}

	javanese := f.Context.Javanese
	if javanese == "" {
		javanese = f.Clock.Javanese
	}
	hijri := f.Context.Hijri
	if hijri == "" {
		hijri = f.Clock.Hijri
	}
	lines = append(lines, "", t.st.clock.Render(javanese), t.st.accent2.Render(hijri))
	return lipgloss.JoinVertical(lipgloss.Left, lines...), nil
}

// forecastColumns is how many upcoming steps the forecast slide shows.
const forecastColumns = 6

func (t *Terminal) forecast(f Frame) (string, error) {
	const title = "PRAKIRAAN CUACA"
	if isNil(f.Data) {
		return t.loading(title, loadingForecast), nil
	}
	fc, ok := f.Data.(sources.Forecast)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	entries := upcoming(fc, f.Clock.Local, forecastColumns)
	if len(entries) == 0 {
		return t.loading(title, loadingForecast), nil
	}

	const barWidth, gap = 3, 3
	col := barWidth + gap
	lo := entries[0].Temp
	for _, e := range entries {
		lo = math.Min(lo, e.Temp)
	}
	// Bars start a little below the coolest step so differences stay visible.
	base := math.Floor(lo) - 2

	bc := barchart.New(len(entries)*col-gap, 6,
		barchart.WithBarGap(gap),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	var hours, temps, descs strings.Builder
	for _, e := range entries {
		bc.Push(barchart.BarData{Values: []barchart.BarValue{
			{Name: e.LocalTime, Value: e.Temp - base, Style: t.st.bar},
		}})
		hours.WriteString(pad(entryHour(e.LocalTime), col))
		temps.WriteString(pad(fmt.Sprintf("%.0f°", e.Temp), col))
		descs.WriteString(pad(clip(e.WeatherDesc, col-1), col))
	}
	bc.Draw()

	return lipgloss.JoinVertical(lipgloss.Left,
		t.title(title),
		"",
		bc.View(),
		t.st.accent2.Render(temps.String()),
		t.st.text.Render(hours.String()),
		t.st.dim.Render(descs.String()),
	), nil
}

// upcoming returns up to n entries not older than the current 3-hour step.
func upcoming(fc sources.Forecast, now time.Time, n int) []sources.ForecastEntry {
	out := make([]sources.ForecastEntry, 0, n)
	for _, e := range fc {
		if len(out) == n {
			break
		}
		if e.LocalTime == "" {
			continue
		}
		if ts, err := time.ParseInLocation(time.DateTime, e.LocalTime, now.Location()); err == nil && !now.IsZero() {
			if ts.Add(3 * time.Hour).Before(now) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func entryHour(local string) string {
	if ts, err := time.Parse(time.DateTime, local); err == nil {
		return ts.Format("15:04")
	}
	return local
}

func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func pad(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

func (t *Terminal) news(f Frame) (string, error) {
	const title = "BERITA INDONESIA"
	if f.Data == nil {
		return t.loading(title, loadingNews), nil
	}
	item, ok := f.Data.(sources.NewsItem)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	wrap := lipgloss.NewStyle().Width(t.width - 2)
	return lipgloss.JoinVertical(lipgloss.Left,
		t.title(title),
		"",
		wrap.Inherit(t.st.clock).Render(item.Title),
		"",
		wrap.Inherit(t.st.text).Render(item.Desc),
	), nil
}

func (t *Terminal) finance(f Frame) (string, error) {
	const title = "PASAR KEUANGAN"
	if isNil(f.Data) {
		return t.loading(title, loadingFinance), nil
	}
	fin, ok := f.Data.(*sources.Finance)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	row := func(label string, q sources.Quote) string {
		line := pad(label, 12) + pad(FormatIDR(q.Value), 22)
		switch {
		case q.Change > 0:
			line += t.st.up.Render(fmt.Sprintf("▲ %.1f%%", q.Change))
		case q.Change < 0:
			line += t.st.down.Render(fmt.Sprintf("▼ %.1f%%", math.Abs(q.Change)))
		}
		return t.st.text.Render(line)
	}
	usd := "USD / IDR"
	if fin.USDFallback {
		usd += "*"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		t.title(title),
		"",
		row(usd, fin.USD),
		row("EMAS / GR", fin.Gold),
		row("BITCOIN", fin.BTC),
		row("ETHEREUM", fin.ETH),
	), nil
}

// FormatIDR formats v the Indonesian way: "Rp 1.500.000".
func FormatIDR(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}

func (t *Terminal) sholat(f Frame) (string, error) {
	loc := strings.ToUpper(f.Context.Location)
	if i := strings.IndexByte(loc, ','); i > 0 {
		loc = loc[:i]
	}
	title := "SHOLAT"
	if loc != "" {
		title += " - " + loc
	}
	if isNil(f.Data) {
		return t.loading(title, loadingSholat), nil
	}
	s, ok := f.Data.(*sources.Sholat)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	lines := []string{t.title(title), ""}
	for _, p := range []struct{ name, at string }{
		{"Imsak", s.Imsak}, {"Subuh", s.Subuh}, {"Dzuhur", s.Dzuhur},
		{"Ashar", s.Ashar}, {"Maghrib", s.Maghrib}, {"Isya", s.Isya},
	} {
		at := p.at
		if at == "" {
			at = "--:--"
		}
		lines = append(lines, t.st.text.Render(pad(p.name, 10))+t.st.accent2.Render(at))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...), nil
}

func (t *Terminal) quote(f Frame) (string, error) {
	const title = "QUOTE OF THE DAY"
	if isNil(f.Data) {
		return t.loading(title, loadingQuote), nil
	}
	q, ok := f.Data.(*sources.Saying)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	wrap := lipgloss.NewStyle().Width(t.width - 2).Italic(true)
	return lipgloss.JoinVertical(lipgloss.Left,
		t.title(title),
		"",
		wrap.Render("“"+q.Text+"”"),
		t.st.accent.Render("- "+q.Author),
	), nil
}

func (t *Terminal) system(f Frame) (string, error) {
	const title = "SYSTEM MONITOR"
	if isNil(f.Data) {
		return t.loading(title, loadingSystem), nil
	}
	s, ok := f.Data.(*sysstats.Stats)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	na := "N/A"
	temp, disk, signal, latency := na, na, na, na
	if s.HasTemp {
		temp = fmt.Sprintf("%.1f°C", s.TempC)
	}
	if s.HasDisk {
		disk = fmt.Sprintf("%.0f%%", s.DiskPercent)
	}
	if s.HasSignal {
		signal = fmt.Sprintf("%d dBm", s.WifiSignalDBm)
	}
	if s.HasLatency {
		latency = fmt.Sprintf("%.0f ms", s.LatencyMs)
	}
	ram := na
	if s.MemTotalMB > 0 {
		ram = fmt.Sprintf("%d/%d MB (%d%%)", s.MemUsedMB, s.MemTotalMB, s.MemUsedMB*100/s.MemTotalMB)
	}
	ip := s.IP
	if ip == "" {
		ip = "-"
	}
	ssid := s.WifiSSID
	if ssid == "" {
		ssid = "-"
	}
	kv := func(k, v string) string { return t.st.text.Render(pad(k, 10)) + t.st.accent.Render(v) }
	return lipgloss.JoinVertical(lipgloss.Left,
		t.title(title),
		"",
		kv("CPU TEMP", temp),
		kv("RAM", ram),
		kv("DISK", disk),
		kv("IP", ip),
		kv("WIFI", ssid+" ("+signal+")"),
		kv("PING", latency),
		kv("UPTIME", formatUptime(s.Uptime)),
	), nil
}

func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Truncate(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		return fmt.Sprintf("%dh %dj %dm", h/24, h%24, m)
	}
	return fmt.Sprintf("%dj %dm", h, m)
}

func (t *Terminal) alert(f Frame) (string, error) {
	const title = "PERINGATAN DINI BMKG"
	if isNil(f.Data) {
		return lipgloss.JoinVertical(lipgloss.Left, t.st.danger.Render(title), "", t.st.dim.Render(loadingAlert)), nil
	}
	w, ok := f.Data.(*sources.Warning)
	if !ok {
		return "", unexpected(f.Kind, f.Data)
	}
	wrap := lipgloss.NewStyle().Width(t.width - 2)
	return lipgloss.JoinVertical(lipgloss.Left,
		t.st.danger.Render(title),
		"",
		wrap.Inherit(t.st.clock).Render(w.Headline),
		"",
		wrap.Inherit(t.st.text).Render(sanitize.Truncate(w.Desc, 400)),
	), nil
}
