package reboot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProcUptime reads the first field of /proc/uptime.
type ProcUptime struct {
	Path string // default "/proc/uptime"
}

func (p ProcUptime) Uptime() (time.Duration, error) {
	path := p.Path
	if path == "" {
		path = "/proc/uptime"
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUptimeUnavailable, err)
	}
	return parseUptime(string(b))
}

func parseUptime(s string) (time.Duration, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrUptimeUnavailable)
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w: bad value %q", ErrUptimeUnavailable, fields[0])
	}
	return time.Duration(secs * float64(time.Second)), nil
}
