// Package deck implements the rotating slide deck: which slide (and which
// page of a paged slide) is on screen, when to move on, and how a
// conditional slide is inserted or removed without disturbing playback.
package deck

import (
	"math/rand/v2"
	"slices"
	"time"
)

// Kind names a slide. Kinds are unique within a deck, so a slide is
// addressed by its kind rather than by its position.
type Kind string

// Slide is one entry of the rotation.
type Slide struct {
	Kind        Kind
	Conditional bool
}

// DurationFunc returns the display time of one page of kind.
type DurationFunc func(Kind) time.Duration

// Step reports what Advance did.
type Step int

const (
	StepNone  Step = iota
	StepPage       // next page of the same slide
	StepSlide      // next slide
)

func (s Step) String() string {
	switch s {
	case StepPage:
		return "page"
	case StepSlide:
		return "slide"
	default:
		return "none"
	}
}

// Deck is the slide rotation. It is not safe for concurrent use.
type Deck struct {
	slides    []Slide
	index     int
	page      int
	startedAt time.Time

	duration DurationFunc

	paged  Kind
	limit  int
	pool   []any
	sample []any
	rng    *rand.Rand

	// pending is set when the playing slide was removed; the next Advance
	// enters pending unconditionally.
	pending    Kind
	hasPending bool
}

type Option func(*Deck)

// WithRand sets the random source used for page sampling.
func WithRand(r *rand.Rand) Option { return func(d *Deck) { d.rng = r } }

// WithPaged sets the kind whose pages are sampled from the item pool
// (default "news").
func WithPaged(k Kind) Option { return func(d *Deck) { d.paged = k } }

// WithLimit caps the number of pages drawn per visit of the paged slide.
func WithLimit(n int) Option { return func(d *Deck) { d.limit = n } }

// New builds a deck playing order[0] from now. order must not be empty.
func New(order []Kind, duration DurationFunc, now time.Time, opts ...Option) *Deck {
	d := &Deck{
		slides:    make([]Slide, 0, len(order)+1),
		startedAt: now,
		duration:  duration,
		paged:     "news",
		limit:     5,
		rng:       rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x6b696f736b)),
	}
	for _, o := range opts {
		o(d)
	}
	for _, k := range order {
		d.slides = append(d.slides, Slide{Kind: k})
	}
	if len(d.slides) > 0 && d.slides[0].Kind == d.paged {
		d.resample()
	}
	return d
}

// Current returns the playing slide kind.
func (d *Deck) Current() Kind {
	if len(d.slides) == 0 {
		return ""
	}
	return d.slides[d.index].Kind
}

// Index returns the position of the playing slide.
func (d *Deck) Index() int { return d.index }

// Page returns the zero based page of the playing slide.
func (d *Deck) Page() int { return d.page }

// PageCount returns the number of pages of the playing slide.
func (d *Deck) PageCount() int { return d.pageCount(d.Current()) }

func (d *Deck) pageCount(k Kind) int {
	if k == d.paged && len(d.sample) > 1 {
		return len(d.sample)
	}
	return 1
}

// StartedAt returns when the playing page went on screen.
func (d *Deck) StartedAt() time.Time { return d.startedAt }

// Kinds returns the rotation order.
func (d *Deck) Kinds() []Kind {
	out := make([]Kind, len(d.slides))
	for i, s := range d.slides {
		out[i] = s.Kind
	}
	return out
}

// Len returns the number of slides in rotation.
func (d *Deck) Len() int { return len(d.slides) }

// Contains reports whether k is in rotation.
func (d *Deck) Contains(k Kind) bool { return d.find(k) >= 0 }

func (d *Deck) find(k Kind) int {
	return slices.IndexFunc(d.slides, func(s Slide) bool { return s.Kind == k })
}

// SetDuration replaces the duration lookup (config reload).
func (d *Deck) SetDuration(fn DurationFunc) { d.duration = fn }

// SetLimit changes the per-visit page cap. It applies from the next visit.
func (d *Deck) SetLimit(n int) { d.limit = n }

// Advance evaluates the transition rule at now and performs at most one
// step, however much time has passed.
func (d *Deck) Advance(now time.Time) Step {
	if len(d.slides) == 0 {
		return StepNone
	}
	if now.Before(d.startedAt) {
		// clock stepped backwards
		d.startedAt = now
	}
	if d.hasPending {
		d.hasPending = false
		if i := d.find(d.pending); i >= 0 {
			d.enter(i, now)
			return StepSlide
		}
	}
	if now.Sub(d.startedAt) <= d.duration(d.Current()) {
		return StepNone
	}
	if d.page < d.PageCount()-1 {
		d.page++
		d.startedAt = now
		return StepPage
	}
	d.enter((d.index+1)%len(d.slides), now)
	return StepSlide
}

func (d *Deck) enter(i int, now time.Time) {
	d.index = i
	d.page = 0
	d.startedAt = now
	if d.slides[i].Kind == d.paged {
		d.resample()
	}
}
