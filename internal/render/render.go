// Package render turns the current slide and its cached data into output.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"infokiosk/internal/clock"
)

var (
	// ErrUnexpectedData is returned when a slide gets a payload of the wrong type.
	ErrUnexpectedData = errors.New("unexpected slide data")
	// ErrUnknownRenderer is returned by New for an unknown renderer name.
	ErrUnknownRenderer = errors.New("unknown renderer")
)

// Context is what every slide may show besides its own data.
type Context struct {
	Location string
	Province string
	// Javanese and Hijri prefer the fetched values over the local calendar.
	Javanese string
	Hijri    string
}

// Frame is one render request.
type Frame struct {
	Kind  string
	Page  int
	Pages int
	// Data is the cached payload of the slide's source, nil while loading.
	// For the news slide it is the sampled item of the current page.
	Data    any
	Clock   clock.Info
	Context Context
}

// Renderer draws frames. Implementations must not retain Data.
type Renderer interface {
	Render(f Frame) error
}

// None discards frames.
type None struct{}

func (None) Render(Frame) error { return nil }

// New returns the renderer called name ("terminal" or "none").
func New(name string, w io.Writer, width int) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "terminal":
		return NewTerminal(w, width), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
}
