package config

import (
	"slices"
	"testing"
)

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()

	oldCfg := minimal()
	newCfg := minimal()
	newCfg.Display.NewsLimit = 3
	newCfg.Sources.Refresh = map[string]RefreshConfig{"news": {Every: "5m"}}
	newCfg.Sources.Weather.APIKey = "rotated"

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if !slices.Equal(changed, []string{"display", "sources"}) {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}

	if changed, _ := SummarizeConfigChange(oldCfg, minimal()); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestChangedSources(t *testing.T) {
	t.Parallel()
	a := SourcesConfig{}
	b := SourcesConfig{
		Refresh: map[string]RefreshConfig{"quote": {Retry: "20s"}},
		BMKG:    BMKGSource{WarningURL: "http://x"},
	}
	got := changedSources(a, b)
	if !slices.Equal(got, []string{"quote", "bmkg"}) {
		t.Fatalf("changedSources = %v", got)
	}
}
