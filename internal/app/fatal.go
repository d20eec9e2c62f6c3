package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"infokiosk/internal/status"
)

// FatalError is returned by Run when the tick loop panicked. The process
// should exit non-zero and let the service manager restart it.
type FatalError struct {
	Cause any
	// Dump is the path of the diagnostic dump ("" if it could not be written).
	Dump string
}

func (e *FatalError) Error() string {
	if e.Dump == "" {
		return fmt.Sprintf("fatal: %v", e.Cause)
	}
	return fmt.Sprintf("fatal: %v (dump: %s)", e.Cause, e.Dump)
}

// writeFatalDump writes the cause, the orchestrator state and the stack to
// path, replacing an older dump.
func writeFatalDump(path string, at time.Time, cause any, stack []byte, snap *status.Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "infokiosk fatal error\n")
	fmt.Fprintf(&b, "time:  %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "cause: %v\n", cause)
	if snap != nil {
		state, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Fprintf(&b, "\nstate: unavailable: %v\n", err)
		} else {
			fmt.Fprintf(&b, "\nstate:\n%s\n", state)
		}
	}
	fmt.Fprintf(&b, "\nstack:\n%s", stack)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
