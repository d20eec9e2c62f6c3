package sources

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"infokiosk/internal/sanitize"
)

// FallbackSaying is shown when the quote file is missing or empty.
var FallbackSaying = Saying{Text: "Urip iku urup.", Author: "Pepatah Jawa"}

// QuoteFetcher picks a random saying from a local JSON file of
// [{"quote": "...", "author": "..."}]. The file is read once.
type QuoteFetcher struct {
	Path string
	// Rand is used for the pick when set (tests).
	Rand *rand.Rand

	once    sync.Once
	sayings []Saying
}

func (f *QuoteFetcher) Name() string { return "quote" }

func (f *QuoteFetcher) load() {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return
	}
	var raw []struct {
		Quote  string `json:"quote"`
		Author string `json:"author"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	for _, r := range raw {
		text := sanitize.Text(r.Quote)
		if text == "" {
			continue
		}
		author := strings.TrimSpace(r.Author)
		if author == "" {
			author = "Anonim"
		}
		f.sayings = append(f.sayings, Saying{Text: text, Author: author})
	}
}

// Fetch never fails: an unusable file yields FallbackSaying.
func (f *QuoteFetcher) Fetch(_ context.Context, _ Params) (any, error) {
	f.once.Do(f.load)
	if len(f.sayings) == 0 {
		s := FallbackSaying
		return &s, nil
	}
	var i int
	if f.Rand != nil {
		i = f.Rand.IntN(len(f.sayings))
	} else {
		i = rand.IntN(len(f.sayings))
	}
	s := f.sayings[i]
	return &s, nil
}
