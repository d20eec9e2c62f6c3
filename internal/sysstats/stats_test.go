package sysstats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestHostStatsReadsProcFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := &Host{
		ThermalPath: writeFile(t, dir, "temp", "48312\n"),
		MeminfoPath: writeFile(t, dir, "meminfo", "MemTotal:        3884096 kB\nMemFree:          120000 kB\nMemAvailable:    2860096 kB\n"),
		WirelessPath: writeFile(t, dir, "wireless",
			"Inter-| sta-|   Quality        |   Discarded packets\n"+
				" face | tus | link level noise |  nwid  crypt\n"+
				"wlan0: 0000   54.  -56.  -256        0      0\n"),
		UptimePath: writeFile(t, dir, "uptime", "3600.50 7000.00\n"),
		Interface:  "wlan0",
	}

	s, err := h.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !s.HasTemp || s.TempC != 48.3 {
		t.Fatalf("temp = %v (%v), want 48.3", s.TempC, s.HasTemp)
	}
	if s.MemTotalMB != 3793 || s.MemUsedMB != 1000 {
		t.Fatalf("mem = %d/%d, want 1000/3793", s.MemUsedMB, s.MemTotalMB)
	}
	if !s.HasSignal || s.WifiSignalDBm != -56 {
		t.Fatalf("signal = %d (%v), want -56", s.WifiSignalDBm, s.HasSignal)
	}
	if s.Uptime != 3600*time.Second+500*time.Millisecond {
		t.Fatalf("uptime = %v", s.Uptime)
	}
	if s.IP != "" || s.WifiSSID != "" {
		t.Fatalf("ip/ssid should be unset without route target and command, got %q %q", s.IP, s.WifiSSID)
	}
}

func TestHostStatsMissingFilesAreUnknown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := &Host{
		ThermalPath:  filepath.Join(dir, "nope"),
		MeminfoPath:  filepath.Join(dir, "nope"),
		WirelessPath: filepath.Join(dir, "nope"),
		UptimePath:   filepath.Join(dir, "nope"),
		Interface:    "wlan0",
	}
	s, err := h.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.HasTemp || s.HasSignal || s.MemTotalMB != 0 || s.Uptime != 0 {
		t.Fatalf("expected unknown fields, got %+v", s)
	}
}

func TestLatencyProbeCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	fail := false
	p := &LatencyProbe{Every: time.Hour, Ping: func(context.Context) (time.Duration, error) {
		calls++
		if fail {
			return 0, errors.New("offline")
		}
		return 23500 * time.Microsecond, nil
	}}
	t0 := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)

	ms, ok := p.Latency(context.Background(), t0)
	if !ok || ms != 23.5 {
		t.Fatalf("first = %v %v", ms, ok)
	}
	p.Latency(context.Background(), t0.Add(30*time.Minute))
	if calls != 1 {
		t.Fatalf("calls = %d, want cached", calls)
	}

	fail = true
	ms, ok = p.Latency(context.Background(), t0.Add(2*time.Hour))
	if calls != 2 || !ok || ms != 23.5 {
		t.Fatalf("failure should keep last value: calls=%d ms=%v ok=%v", calls, ms, ok)
	}
	p.Latency(context.Background(), t0.Add(2*time.Hour+time.Minute))
	if calls != 2 {
		t.Fatalf("failed ping retried too early: calls=%d", calls)
	}
}

func TestNilLatencyProbe(t *testing.T) {
	t.Parallel()
	if NewLatencyProbe(0, 3) != nil {
		t.Fatal("disabled probe should be nil")
	}
	var p *LatencyProbe
	if _, ok := p.Latency(context.Background(), time.Now()); ok {
		t.Fatal("nil probe reported a value")
	}
}
