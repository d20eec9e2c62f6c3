package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// clearScreen homes the cursor and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// Terminal draws slides as a framed text panel. The panel is only written
// when its content changes, so the 10 Hz loop does not flood the output.
type Terminal struct {
	w     io.Writer
	width int
	st    styles
	clear bool
	last  string
}

func NewTerminal(w io.Writer, width int) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	if width <= 0 {
		width = 60
	}
	_, isFile := w.(*os.File)
	return &Terminal{w: w, width: width, st: newStyles(width), clear: isFile}
}

func (t *Terminal) Render(f Frame) error {
	body, err := t.body(f)
	if err != nil {
		return err
	}
	view := t.st.frame.Render(lipgloss.JoinVertical(lipgloss.Left, t.header(f), "", body, "", t.footer(f)))
	if view == t.last {
		return nil
	}
	t.last = view
	if t.clear {
		view = clearScreen + view
	}
	_, err = io.WriteString(t.w, view+"\n")
	return err
}

func (t *Terminal) header(f Frame) string {
	left := t.st.clock.Render(f.Clock.Time)
	right := t.st.date.Render(f.Clock.Gregorian)
	gap := max(1, t.width-2-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (t *Terminal) footer(f Frame) string {
	s := strings.ToUpper(strings.ReplaceAll(f.Kind, "_", " "))
	if f.Pages > 1 {
		s += fmt.Sprintf("  HALAMAN %d/%d", f.Page+1, f.Pages)
	}
	return t.st.dim.Render(s)
}

func (t *Terminal) body(f Frame) (string, error) {
	switch f.Kind {
	case "weather":
		return t.weather(f)
	case "bmkg_forecast":
		return t.forecast(f)
	case "news":
		return t.news(f)
	case "finance":
		return t.finance(f)
	case "sholat":
		return t.sholat(f)
	case "quote":
		return t.quote(f)
	case "system":
		return t.system(f)
	case "bmkg":
		return t.alert(f)
	default:
		return "", fmt.Errorf("%w: unknown slide %q", ErrUnexpectedData, f.Kind)
	}
}
