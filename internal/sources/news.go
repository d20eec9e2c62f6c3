package sources

import (
	"context"
	"fmt"
	"strings"

	"infokiosk/internal/sanitize"
)

const (
	newsDescLimit    = 250
	newsDescFallback = "Lihat berita selengkapnya di Google News."
)

// NewsFetcher reads the Google News top stories feed and returns the whole
// pool; sampling happens in the deck.
type NewsFetcher struct {
	Client *Client
	URL    string // default Indonesian edition
}

func (f *NewsFetcher) Name() string { return "news" }

func (f *NewsFetcher) Fetch(ctx context.Context, _ Params) (any, error) {
	u := f.URL
	if u == "" {
		u = "https://news.google.com/rss?hl=id&gl=ID&ceid=ID:id"
	}
	body, err := f.Client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	items, err := parseRSS(body)
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		if n, ok := newsItem(it); ok {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("news: %w", ErrNoData)
	}
	return out, nil
}

// newsItem cleans one feed entry: the trailing " - Publisher" is cut from the
// title and the title is removed from the description snippet.
func newsItem(it rssItem) (NewsItem, bool) {
	title := sanitize.Text(it.Title)
	if i := strings.LastIndex(title, " - "); i > 0 {
		title = title[:i]
	}
	if title == "" {
		return NewsItem{}, false
	}
	desc := strings.TrimSpace(strings.ReplaceAll(sanitize.Text(it.Description), title, ""))
	if desc == "" {
		desc = newsDescFallback
	}
	return NewsItem{Title: title, Desc: sanitize.Truncate(desc, newsDescLimit)}, true
}
