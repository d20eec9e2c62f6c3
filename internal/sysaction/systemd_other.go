//go:build !linux

package sysaction

import "context"

func DialSystemd(context.Context) (UnitManager, error) { return nil, ErrUnsupported }
