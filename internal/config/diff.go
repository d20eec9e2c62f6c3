package config

import (
	"reflect"
	"slices"
	"sort"
	"strings"

	logx "infokiosk/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured attrs for logging. Secrets (bot token, weather api key) are
// never included; only whether they are set.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
			logx.Bool("logging.telegram_token_set", strings.TrimSpace(newCfg.Logging.Telegram.Token) != ""),
		)
	}
	if !reflect.DeepEqual(oldCfg.Location, newCfg.Location) {
		changed = append(changed, "location")
		attrs = append(attrs,
			logx.String("location.name", newCfg.Location.Name),
			logx.String("location.adm4", newCfg.Location.ADM4),
		)
	}
	if !reflect.DeepEqual(oldCfg.Display, newCfg.Display) {
		changed = append(changed, "display")
		keys := make([]string, 0, len(newCfg.Display.Durations))
		for k := range newCfg.Display.Durations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs = append(attrs,
			logx.String("display.order", strings.Join(newCfg.Display.Order, ",")),
			logx.String("display.durations", strings.Join(keys, ",")),
			logx.Int("display.news_limit", newCfg.Display.NewsLimit),
		)
	}
	if srcs := changedSources(oldCfg.Sources, newCfg.Sources); len(srcs) > 0 {
		changed = append(changed, "sources")
		attrs = append(attrs,
			logx.String("sources.changed", strings.Join(srcs, ",")),
			logx.Bool("sources.weather_key_set", strings.TrimSpace(newCfg.Sources.Weather.APIKey) != ""),
		)
	}
	if !reflect.DeepEqual(oldCfg.Watchdog, newCfg.Watchdog) {
		changed = append(changed, "watchdog")
		attrs = append(attrs, logx.Bool("watchdog.disabled", newCfg.Watchdog.Disabled))
	}
	if !reflect.DeepEqual(oldCfg.Reboot, newCfg.Reboot) {
		changed = append(changed, "reboot")
		if newCfg.Reboot.Hours != nil {
			attrs = append(attrs, logx.Float64("reboot.hours", *newCfg.Reboot.Hours))
		}
		attrs = append(attrs, logx.String("reboot.window", newCfg.Reboot.Window))
	}
	if !reflect.DeepEqual(oldCfg.Actions, newCfg.Actions) {
		changed = append(changed, "actions")
		attrs = append(attrs, logx.Bool("actions.dry_run", newCfg.Actions.DryRun))
	}
	if oldCfg.Status != newCfg.Status {
		changed = append(changed, "status")
	}
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
	}
	return changed, attrs
}

// changedSources lists source names whose refresh policy or endpoint block differs.
func changedSources(a, b SourcesConfig) []string {
	var out []string
	for _, name := range SourceOrder {
		if !reflect.DeepEqual(a.Refresh[name], b.Refresh[name]) {
			out = append(out, name)
		}
	}
	blocks := []struct {
		name string
		a, b any
	}{
		{SourceWeather, a.Weather, b.Weather},
		{SourceNews, a.News, b.News},
		{SourceSholat, a.Sholat, b.Sholat},
		{SourceJavaDate, a.JavaDate, b.JavaDate},
		{"bmkg", a.BMKG, b.BMKG},
		{SourceFinance, a.Finance, b.Finance},
		{SourceQuote, a.Quote, b.Quote},
		{SourceSystem, a.System, b.System},
	}
	for _, blk := range blocks {
		if !reflect.DeepEqual(blk.a, blk.b) && !slices.Contains(out, blk.name) {
			out = append(out, blk.name)
		}
	}
	if a.Timeout != b.Timeout || a.UserAgent != b.UserAgent {
		out = append(out, "*")
	}
	return out
}
