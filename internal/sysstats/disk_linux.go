//go:build linux

package sysstats

import (
	"math"
	"syscall"
)

func diskPercent(path string) (float64, bool) {
	if path == "" {
		return 0, false
	}
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, false
	}
	total := float64(st.Blocks) * float64(st.Bsize)
	if total <= 0 {
		return 0, false
	}
	free := float64(st.Bavail) * float64(st.Bsize)
	return math.Round((total-free)/total*1000) / 10, true
}
