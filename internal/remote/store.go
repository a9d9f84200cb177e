package remote

import (
	"context"
	"net"
	"time"

	"github.com/jne-ops/opsboard-api/internal/models"
)

// Store is the capability contract both remote backends implement.
//
// GetData returns (nil, nil) when the device is offline or the backend has
// no authoritative data to offer; callers fall back to their cache.
// SaveData reports success as a plain bool and never returns an error:
// a failed background save must not cascade into UI error state, the
// payload is already durable locally and the next sync cycle retries.
type Store interface {
	GetData(ctx context.Context) (*models.AppData, error)
	SaveData(ctx context.Context, data *models.AppData) bool
	Name() string
}

// Probe reports whether the device currently has network connectivity.
// When offline the adapters skip the request entirely instead of burning
// their retry budget on a dead link.
type Probe interface {
	Online() bool
}

// NetProbe checks reachability by dialing a well-known host.
type NetProbe struct {
	Host    string
	Timeout time.Duration
}

// Online dials the probe host and reports whether the dial succeeded.
func (p NetProbe) Online() bool {
	host := p.Host
	if host == "" {
		host = "1.1.1.1:53"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	conn, err := net.DialTimeout("tcp", host, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// AlwaysOnline is a probe for deployments without an egress check.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }
