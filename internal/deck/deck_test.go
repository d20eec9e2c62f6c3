package deck

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)

var defaultOrder = []Kind{"weather", "bmkg_forecast", "news", "finance", "sholat", "quote", "system"}

func durations(k Kind) time.Duration {
	switch k {
	case "weather":
		return 15 * time.Second
	case "bmkg", "bmkg_forecast":
		return 6 * time.Second
	case "system":
		return 8 * time.Second
	default:
		return 10 * time.Second
	}
}

func newDeck(order []Kind, opts ...Option) *Deck {
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return New(order, durations, t0, opts...)
}

func pool(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestAdvanceWaitsForDuration(t *testing.T) {
	t.Parallel()
	d := newDeck(defaultOrder)
	if got := d.Advance(t0.Add(15 * time.Second)); got != StepNone {
		t.Fatalf("advanced at exactly the duration: %v", got)
	}
	if d.Current() != "weather" {
		t.Fatalf("current = %s", d.Current())
	}
}

func TestAtMostOneAdvancePerTick(t *testing.T) {
	t.Parallel()
	for _, jump := range []time.Duration{16 * time.Second, 40 * time.Second, time.Hour} {
		d := newDeck(defaultOrder)
		now := t0.Add(jump)
		if got := d.Advance(now); got != StepSlide {
			t.Fatalf("jump %v: step = %v", jump, got)
		}
		if d.Current() != "bmkg_forecast" || d.Index() != 1 {
			t.Fatalf("jump %v: landed on %s (%d), want one step", jump, d.Current(), d.Index())
		}
		if !d.StartedAt().Equal(now) {
			t.Fatalf("startedAt = %v, want %v", d.StartedAt(), now)
		}
		// A second evaluation in the same instant must not move again.
		if got := d.Advance(now); got != StepNone {
			t.Fatalf("jump %v: second advance at the same instant: %v", jump, got)
		}
	}
}

func TestRotationWraps(t *testing.T) {
	t.Parallel()
	d := newDeck([]Kind{"weather", "quote"})
	now := t0
	seen := []Kind{d.Current()}
	for range 4 {
		now = now.Add(time.Minute)
		d.Advance(now)
		seen = append(seen, d.Current())
	}
	want := []Kind{"weather", "quote", "weather", "quote", "weather"}
	if !slices.Equal(seen, want) {
		t.Fatalf("rotation = %v, want %v", seen, want)
	}
}

func TestNewsPagination(t *testing.T) {
	t.Parallel()
	d := newDeck([]Kind{"weather", "news", "finance"}, WithLimit(5))
	d.SetPool(pool(8))

	now := t0.Add(16 * time.Second)
	d.Advance(now)
	if d.Current() != "news" || d.PageCount() != 5 || d.Page() != 0 {
		t.Fatalf("entered %s page %d/%d", d.Current(), d.Page(), d.PageCount())
	}
	first := slices.Clone(d.Sample())

	for page := 1; page < 5; page++ {
		now = now.Add(11 * time.Second)
		if got := d.Advance(now); got != StepPage {
			t.Fatalf("page %d: step = %v", page, got)
		}
		if d.Current() != "news" || d.Page() != page {
			t.Fatalf("page %d: at %s page %d", page, d.Current(), d.Page())
		}
		if item, ok := d.PageItem(); !ok || item != first[page] {
			t.Fatalf("page %d item = %v, want %v", page, item, first[page])
		}
	}

	now = now.Add(11 * time.Second)
	if got := d.Advance(now); got != StepSlide || d.Current() != "finance" || d.Page() != 0 {
		t.Fatalf("after last page: step %v at %s page %d", got, d.Current(), d.Page())
	}
}

func TestNewsSampleDistinctAndRedrawnOnEntry(t *testing.T) {
	t.Parallel()
	d := newDeck([]Kind{"news", "weather"}, WithLimit(3))
	d.SetPool(pool(10))
	if len(d.Sample()) != 3 {
		t.Fatalf("initial sample = %v", d.Sample())
	}

	// Pool shrinks while news is on screen; the visit keeps its sample.
	d.SetPool(pool(2))
	if len(d.Sample()) != 3 {
		t.Fatalf("pool update changed the playing sample: %v", d.Sample())
	}

	now := t0
	for d.Current() == "news" {
		now = now.Add(11 * time.Second)
		d.Advance(now)
	}
	now = now.Add(16 * time.Second)
	d.Advance(now)
	if d.Current() != "news" {
		t.Fatalf("expected to re-enter news, at %s", d.Current())
	}
	s := d.Sample()
	if len(s) != 2 || d.PageCount() != 2 {
		t.Fatalf("re-entry sample = %v (pages %d), want min(pool=2, limit=3)", s, d.PageCount())
	}
	if s[0] == s[1] {
		t.Fatalf("sample drawn with replacement: %v", s)
	}
}

func TestEmptyNewsIsSinglePage(t *testing.T) {
	t.Parallel()
	d := newDeck([]Kind{"news", "weather"})
	if d.PageCount() != 1 {
		t.Fatalf("page count = %d", d.PageCount())
	}
	if _, ok := d.PageItem(); ok {
		t.Fatal("PageItem with no pool")
	}
	d.Advance(t0.Add(11 * time.Second))
	if d.Current() != "weather" {
		t.Fatalf("current = %s", d.Current())
	}
}

func TestClockStepBackwards(t *testing.T) {
	t.Parallel()
	d := newDeck(defaultOrder)
	back := t0.Add(-time.Hour)
	if got := d.Advance(back); got != StepNone {
		t.Fatalf("step = %v", got)
	}
	if !d.StartedAt().Equal(back) {
		t.Fatalf("startedAt not clamped: %v", d.StartedAt())
	}
}
