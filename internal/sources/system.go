package sources

import (
	"context"
	"fmt"

	"infokiosk/internal/sysstats"
)

// SystemFetcher exposes a sysstats.Provider as a source.
type SystemFetcher struct {
	Provider sysstats.Provider
}

func (f *SystemFetcher) Name() string { return "system" }

func (f *SystemFetcher) Fetch(ctx context.Context, _ Params) (any, error) {
	if f.Provider == nil {
		return nil, fmt.Errorf("system: no stats provider")
	}
	s, err := f.Provider.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}
	return s, nil
}
