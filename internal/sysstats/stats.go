// Package sysstats collects host health figures for the system slide.
package sysstats

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Stats is one reading. Figures that could not be read are left at their
// zero value with the matching Has* flag unset.
type Stats struct {
	TempC         float64       `json:"temp_c"`
	HasTemp       bool          `json:"has_temp"`
	MemUsedMB     int64         `json:"mem_used_mb"`
	MemTotalMB    int64         `json:"mem_total_mb"`
	DiskPercent   float64       `json:"disk_percent"`
	HasDisk       bool          `json:"has_disk"`
	IP            string        `json:"ip"`
	WifiSSID      string        `json:"wifi_ssid"`
	WifiSignalDBm int           `json:"wifi_signal_dbm"`
	HasSignal     bool          `json:"has_signal"`
	Uptime        time.Duration `json:"uptime"`
	LatencyMs     float64       `json:"latency_ms"`
	HasLatency    bool          `json:"has_latency"`
}

// Provider is the capability the system source depends on.
type Provider interface {
	Stats(ctx context.Context) (*Stats, error)
}

// Host reads stats from the local Linux host. Paths default to the real
// procfs and sysfs locations and are overridable for tests.
type Host struct {
	ThermalPath  string // default /sys/class/thermal/thermal_zone0/temp
	MeminfoPath  string // default /proc/meminfo
	WirelessPath string // default /proc/net/wireless
	UptimePath   string // default /proc/uptime
	DiskPath     string // default /
	Interface    string // wireless interface, default wlan0
	// RouteTarget is dialed over UDP (no packets sent) to learn the local IP.
	RouteTarget string // default 8.8.8.8:80
	// SSIDCommand prints the connected SSID; empty disables the lookup.
	SSIDCommand []string

	Latency *LatencyProbe

	mu sync.Mutex
}

// NewHost returns a Host with the default locations.
func NewHost(iface string, latency *LatencyProbe) *Host {
	if iface == "" {
		iface = "wlan0"
	}
	return &Host{
		ThermalPath:  "/sys/class/thermal/thermal_zone0/temp",
		MeminfoPath:  "/proc/meminfo",
		WirelessPath: "/proc/net/wireless",
		UptimePath:   "/proc/uptime",
		DiskPath:     "/",
		Interface:    iface,
		RouteTarget:  "8.8.8.8:80",
		SSIDCommand:  []string{"iwgetid", "-r"},
		Latency:      latency,
	}
}

// Stats gathers every figure in parallel. Individual failures only leave
// their field unset; the error is non-nil only when ctx ends first.
func (h *Host) Stats(ctx context.Context) (*Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		out Stats
		mu  sync.Mutex
	)
	set := func(fn func(s *Stats)) {
		mu.Lock()
		fn(&out)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if c, ok := readTemp(h.ThermalPath); ok {
			set(func(s *Stats) { s.TempC, s.HasTemp = c, true })
		}
		return nil
	})
	g.Go(func() error {
		if used, total, ok := readMeminfo(h.MeminfoPath); ok {
			set(func(s *Stats) { s.MemUsedMB, s.MemTotalMB = used, total })
		}
		return nil
	})
	g.Go(func() error {
		if p, ok := diskPercent(h.DiskPath); ok {
			set(func(s *Stats) { s.DiskPercent, s.HasDisk = p, true })
		}
		return nil
	})
	g.Go(func() error {
		if ip := localIP(gctx, h.RouteTarget); ip != "" {
			set(func(s *Stats) { s.IP = ip })
		}
		return nil
	})
	g.Go(func() error {
		if dbm, ok := readSignal(h.WirelessPath, h.Interface); ok {
			set(func(s *Stats) { s.WifiSignalDBm, s.HasSignal = dbm, true })
		}
		return nil
	})
	g.Go(func() error {
		if ssid := runSSID(gctx, h.SSIDCommand); ssid != "" {
			set(func(s *Stats) { s.WifiSSID = ssid })
		}
		return nil
	})
	g.Go(func() error {
		if up, ok := readUptime(h.UptimePath); ok {
			set(func(s *Stats) { s.Uptime = up })
		}
		return nil
	})
	if h.Latency != nil {
		g.Go(func() error {
			if ms, ok := h.Latency.Latency(gctx, time.Now()); ok {
				set(func(s *Stats) { s.LatencyMs, s.HasLatency = ms, true })
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

func readTemp(path string) (float64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, false
	}
	// millidegrees
	return math.Round(v/100) / 10, true
}

func readMeminfo(path string) (usedMB, totalMB int64, ok bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false
	}
	var total, avail int64 = -1, -1
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 2 {
			continue
		}
		kb, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil {
			continue
		}
		switch f[0] {
		case "MemTotal:":
			total = kb
		case "MemAvailable:":
			avail = kb
		}
	}
	if total <= 0 || avail < 0 {
		return 0, 0, false
	}
	return (total - avail) / 1024, total / 1024, true
}

// readSignal parses the level column of /proc/net/wireless for iface.
func readSignal(path, iface string) (int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, iface+":") {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 4 {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(f[3], "."), 64)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func readUptime(path string) (time.Duration, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	f := strings.Fields(string(b))
	if len(f) == 0 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(f[0], 64)
	if err != nil || sec < 0 {
		return 0, false
	}
	return time.Duration(sec * float64(time.Second)), true
}

func localIP(ctx context.Context, target string) string {
	if target == "" {
		return ""
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, "udp", target)
	if err != nil {
		return ""
	}
	defer c.Close()
	if a, ok := c.LocalAddr().(*net.UDPAddr); ok {
		return a.IP.String()
	}
	return ""
}

func runSSID(ctx context.Context, argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
