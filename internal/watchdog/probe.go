package watchdog

import (
	"context"
	"fmt"
	"net"
)

// DialProber checks reachability by opening a TCP connection to Target
// (a host:port such as the public DNS resolver "8.8.8.8:53").
type DialProber struct {
	Target string
	dialer net.Dialer
}

func NewDialProber(target string) *DialProber {
	return &DialProber{Target: target}
}

func (p *DialProber) Probe(ctx context.Context) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.Target)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.Target, err)
	}
	return conn.Close()
}
