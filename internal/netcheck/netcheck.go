// Package netcheck answers "can we reach the remote API right now".
package netcheck

import (
	"context"
	"net"
	"time"
)

// Prober reports whether the remote endpoint is reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// TCPProber dials a fixed address to test reachability.
type TCPProber struct {
	Addr    string
	Timeout time.Duration
}

// NewTCPProber builds a prober for addr (host:port).
func NewTCPProber(addr string, timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TCPProber{Addr: addr, Timeout: timeout}
}

// Online returns true when a TCP connection to the probe address succeeds.
func (p *TCPProber) Online(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// StaticProber always reports a fixed answer. Used in tests.
type StaticProber bool

func (p StaticProber) Online(context.Context) bool { return bool(p) }
