//go:build linux

package sysaction

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

type dbusManager struct {
	conn *dbus.Conn
}

// DialSystemd connects to the system bus.
func DialSystemd(ctx context.Context) (UnitManager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	return &dbusManager{conn: conn}, nil
}

// Jobs are queued without waiting for completion.
func (m *dbusManager) RestartUnit(ctx context.Context, unit string) error {
	if _, err := m.conn.RestartUnitContext(ctx, unit, "replace", nil); err != nil {
		return fmt.Errorf("restart %s: %w", unit, err)
	}
	return nil
}

func (m *dbusManager) StartUnit(ctx context.Context, unit, mode string) error {
	if _, err := m.conn.StartUnitContext(ctx, unit, mode, nil); err != nil {
		return fmt.Errorf("start %s: %w", unit, err)
	}
	return nil
}

func (m *dbusManager) Close() { m.conn.Close() }
