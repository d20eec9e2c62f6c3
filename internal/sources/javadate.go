package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// JavaDateFetcher asks tanggalanjawa.com for today's Javanese weekday and pasaran.
type JavaDateFetcher struct {
	Client  *Client
	BaseURL string // default "https://tanggalanjawa.com/api/calendar"
}

func (f *JavaDateFetcher) Name() string { return "javadate" }

func (f *JavaDateFetcher) Fetch(ctx context.Context, p Params) (any, error) {
	base := f.BaseURL
	if base == "" {
		base = "https://tanggalanjawa.com/api/calendar"
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(p.Now.Year()))
	q.Set("month", strconv.Itoa(int(p.Now.Month())))
	q.Set("day", strconv.Itoa(p.Now.Day()))

	var r struct {
		Weekday string `json:"weekday"`
		Pasaran string `json:"pasaran"`
	}
	if err := f.Client.GetJSON(ctx, base+"?"+q.Encode(), &r); err != nil {
		return nil, fmt.Errorf("javadate: %w", err)
	}
	text := strings.TrimSpace(r.Weekday + " " + r.Pasaran)
	if r.Pasaran == "" || text == "" {
		return nil, fmt.Errorf("javadate: %w", ErrNoData)
	}
	return &JavaDate{Text: text}, nil
}
