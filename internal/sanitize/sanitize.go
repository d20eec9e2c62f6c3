// Package sanitize makes fetched text safe for the display: entities are
// decoded, markup is stripped, and characters the renderer cannot draw are
// dropped.
package sanitize

import (
	"html"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unsafeRune matches characters outside the Basic Multilingual Plane and
// control characters other than tab, newline and carriage return.
func unsafeRune(r rune) bool {
	if r > 0xFFFF || r == utf8.RuneError {
		return true
	}
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
}

var cleaner = runes.Remove(runes.Predicate(unsafeRune))

// Text decodes entities, strips tags, normalizes to NFC and removes unsafe
// characters. Non-breaking spaces become plain spaces and surrounding
// whitespace is trimmed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = StripTags(html.UnescapeString(s))
	s = strings.ReplaceAll(s, "\u00a0", " ")
	out, _, err := transform.String(transform.Chain(norm.NFC, cleaner), s)
	if err != nil {
		out = strings.Map(func(r rune) rune {
			if unsafeRune(r) {
				return -1
			}
			return r
		}, s)
	}
	return strings.TrimSpace(out)
}

// Runes only removes unsafe characters; markup and entities are kept.
func Runes(s string) string {
	out, _, err := transform.String(cleaner, s)
	if err != nil {
		return s
	}
	return out
}

// StripTags returns the text content of an HTML fragment. Text that does
// not parse as markup is returned as is.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	z := xhtml.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return b.String()
			}
			return s
		case xhtml.TextToken:
			b.Write(z.Text())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" || string(name) == "p" {
				if b.Len() > 0 && !endsWithSpace(b.String()) {
					b.WriteByte(' ')
				}
			}
		}
	}
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// Truncate cuts s to at most n runes and appends "..." when it did.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n]) + "..."
}
