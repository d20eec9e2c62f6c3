package sysstats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	st "github.com/showwin/speedtest-go/speedtest"
)

// PingFunc measures the round trip to the nearest test server.
type PingFunc func(ctx context.Context) (time.Duration, error)

// LatencyProbe caches a speedtest ping so the system source can refresh
// every few seconds without hitting the speedtest servers each time.
type LatencyProbe struct {
	Every time.Duration
	Ping  PingFunc

	mu     sync.Mutex
	last   time.Time
	value  float64
	ok     bool
	failed time.Time
}

// NewLatencyProbe measures at most once per every using speedtest servers.
// every <= 0 disables the probe and returns nil.
func NewLatencyProbe(every time.Duration, candidates int) *LatencyProbe {
	if every <= 0 {
		return nil
	}
	return &LatencyProbe{Every: every, Ping: SpeedtestPing(candidates)}
}

// Latency returns the cached figure in milliseconds, measuring first when
// the cache is older than Every. Failures are retried after Every as well.
func (p *LatencyProbe) Latency(ctx context.Context, now time.Time) (float64, bool) {
	if p == nil || p.Ping == nil {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := !p.last.IsZero() && now.Sub(p.last) < p.Every
	recentFail := !p.failed.IsZero() && now.Sub(p.failed) < p.Every
	if fresh || recentFail {
		return p.value, p.ok
	}
	d, err := p.Ping(ctx)
	if err != nil {
		p.failed = now
		return p.value, p.ok
	}
	p.last, p.failed = now, time.Time{}
	p.value, p.ok = float64(d.Microseconds())/1000, true
	return p.value, p.ok
}

// SpeedtestPing pings the closest candidates and reports the best latency.
// It only runs the ping phase; no download or upload is performed.
func SpeedtestPing(candidates int) PingFunc {
	if candidates <= 0 {
		candidates = 3
	}
	return func(ctx context.Context) (time.Duration, error) {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// A private instance: package-level helpers keep global state.
		stc := st.New(st.WithUserConfig(&st.UserConfig{SavingMode: true, MaxConnections: 1}))
		defer stc.Reset()

		servers, err := stc.FetchServerListContext(runCtx)
		if err != nil {
			return 0, fmt.Errorf("fetch server list: %w", err)
		}
		if a := servers.Available(); a != nil {
			servers = *a
		}
		if len(servers) == 0 {
			return 0, fmt.Errorf("no servers available")
		}
		sort.Slice(servers, func(i, j int) bool { return servers[i].Distance < servers[j].Distance })
		if len(servers) > candidates {
			servers = servers[:candidates]
		}

		var best time.Duration
		for _, s := range servers {
			if err := runCtx.Err(); err != nil {
				return 0, err
			}
			if err := s.PingTestContext(runCtx, nil); err != nil || s.Latency <= 0 {
				continue
			}
			if best == 0 || s.Latency < best {
				best = s.Latency
			}
		}
		if best == 0 {
			return 0, fmt.Errorf("all latency tests failed")
		}
		return best, nil
	}
}
