package app

import (
	"context"
	"errors"
	"os"
	"syscall"
)

// StopReason says why the kiosk stopped. It doubles as a context cancel
// cause so the signal handler can tell Run what happened.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
)

func (r StopReason) Error() string { return "stop: " + string(r) }

// ReasonForSignal maps a received signal to its StopReason.
func ReasonForSignal(sig os.Signal) StopReason {
	switch sig {
	case os.Interrupt:
		return StopSIGINT
	case syscall.SIGTERM:
		return StopSIGTERM
	default:
		return StopUnknown
	}
}

func reasonOf(ctx context.Context) StopReason {
	var r StopReason
	if errors.As(context.Cause(ctx), &r) {
		return r
	}
	return StopUnknown
}
