package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	kit "infokiosk/internal/transport"
)

const (
	defaultAlertQueue  = 64
	defaultAlertRepeat = 10 * time.Minute
	maxAlertText       = 3500
)

type alert struct {
	to     kit.ChatTarget
	text   string
	silent bool
}

type seenAlert struct {
	sent       time.Time
	suppressed int
}

// alertSink forwards warnings to the operator chat. The tick loop repeats
// the same failure every retry, so identical records (level, comp and
// message) are suppressed for the repeat window and the next one that gets
// through reports how many were dropped.
type alertSink struct {
	sender kit.Sender
	queue  chan alert
	now    func() time.Time

	mu      sync.Mutex
	to      kit.ChatTarget
	label   string
	min     Level
	limiter *rate.Limiter
	repeat  time.Duration
	seen    map[string]*seenAlert

	cancel context.CancelFunc
	done   chan struct{}
}

func newAlertSink(sender kit.Sender, queue int) *alertSink {
	if queue <= 0 {
		queue = defaultAlertQueue
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &alertSink{
		sender:  sender,
		queue:   make(chan alert, queue),
		now:     time.Now,
		min:     LevelWarn,
		limiter: rate.NewLimiter(1, 1),
		repeat:  defaultAlertRepeat,
		seen:    map[string]*seenAlert{},
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go a.run(ctx)
	return a
}

func (a *alertSink) configure(cfg TelegramConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.to = kit.ChatTarget{ChatID: cfg.ChatID, ThreadID: cfg.ThreadID}
	a.label = strings.TrimSpace(cfg.Label)
	a.min = parseLevel(cfg.MinLevel, LevelWarn)
	rps := max(1, cfg.RatePerSec)
	a.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	a.repeat = defaultAlertRepeat
	if cfg.Repeat > 0 {
		a.repeat = cfg.Repeat
	}
}

func (a *alertSink) Write(p []byte) (int, error) { return a.WriteLevel(LevelInfo, p) }

func (a *alertSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	a.mu.Lock()
	if level < a.min || a.to.ChatID == 0 {
		a.mu.Unlock()
		return len(p), nil
	}
	rec := decodeRecord(p)
	key := fmt.Sprint(rec["level"], "|", rec["comp"], "|", rec["message"])
	now := a.now()
	s := a.seen[key]
	if s != nil && now.Sub(s.sent) < a.repeat {
		s.suppressed++
		a.mu.Unlock()
		return len(p), nil
	}
	if !a.limiter.Allow() {
		a.mu.Unlock()
		return len(p), nil
	}
	suppressed := 0
	if s != nil {
		suppressed = s.suppressed
	}
	a.seen[key] = &seenAlert{sent: now}
	a.forget(now)
	it := alert{to: a.to, text: formatAlert(a.label, rec, suppressed), silent: level < LevelError}
	a.mu.Unlock()

	a.enqueue(it)
	return len(p), nil
}

// forget drops expired repeat state once the map grows. Caller holds mu.
func (a *alertSink) forget(now time.Time) {
	if len(a.seen) < 128 {
		return
	}
	for k, s := range a.seen {
		if now.Sub(s.sent) >= a.repeat {
			delete(a.seen, k)
		}
	}
}

// enqueue never blocks the caller; a full queue loses its oldest alert.
func (a *alertSink) enqueue(it alert) {
	for range 2 {
		select {
		case a.queue <- it:
			return
		default:
		}
		select {
		case <-a.queue:
		default:
		}
	}
}

func (a *alertSink) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-a.queue:
			a.send(ctx, it)
		}
	}
}

func (a *alertSink) send(ctx context.Context, it alert) {
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _ = a.sender.SendText(sendCtx, it.to, it.text, &kit.SendOptions{DisablePreview: true, Silent: it.silent})
}

// close stops the worker, then sends what is still queued until flush
// runs out.
func (a *alertSink) close(flush time.Duration) {
	a.cancel()
	<-a.done
	ctx, cancel := context.WithTimeout(context.Background(), flush)
	defer cancel()
	for {
		select {
		case it := <-a.queue:
			if ctx.Err() != nil {
				return
			}
			a.send(ctx, it)
		default:
			return
		}
	}
}

func decodeRecord(p []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return map[string]any{"message": strings.TrimSpace(string(p))}
	}
	if _, ok := m["message"]; !ok {
		m["message"] = m["msg"]
		delete(m, "msg")
	}
	return m
}

// formatAlert renders one record as plain text:
//
//	[WARN] Balai Desa: reconnect issued
//	comp: watchdog
//	failures: 5
func formatAlert(label string, rec map[string]any, suppressed int) string {
	var b strings.Builder
	if lvl, _ := rec["level"].(string); lvl != "" {
		b.WriteString("[" + strings.ToUpper(lvl) + "] ")
	}
	if label != "" {
		b.WriteString(label + ": ")
	}
	b.WriteString(fmt.Sprint(rec["message"]))

	keys := make([]string, 0, len(rec))
	for k := range rec {
		switch k {
		case "time", "level", "message", "caller", "stack":
		default:
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString("\n" + k + ": " + truncate(fmt.Sprint(rec[k]), 600))
	}
	if st, ok := rec["stack"]; ok {
		b.WriteString("\nstack:\n" + truncate(fmt.Sprint(st), 900))
	}
	if suppressed > 0 {
		fmt.Fprintf(&b, "\n(%d identical alerts suppressed)", suppressed)
	}
	return truncate(b.String(), maxAlertText)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n < 10 {
		return strings.ToValidUTF8(s[:n], "")
	}
	return strings.ToValidUTF8(s[:n-3], "") + "..."
}
