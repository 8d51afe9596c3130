package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Peer is a bridge found on the local network
type Peer struct {
	// Instance is the advertised instance name (e.g., "navien-bridge")
	Instance string

	// Hostname is the mDNS hostname of the machine running the bridge
	Hostname string

	// IP is the first usable address, IPv4 preferred
	IP string

	// Port is the HTTP listen port
	Port int

	// Metadata holds the TXT record ("version", "agent", "path")
	Metadata map[string]string

	// SeenAt is when the advertisement was received
	SeenAt time.Time
}

// String returns a one-line description
func (p *Peer) String() string {
	return fmt.Sprintf("%s (%s) at %s", p.Instance, p.Version(), p.Addr())
}

// Addr returns host:port
func (p *Peer) Addr() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// Version returns the bridge version from the TXT record
func (p *Peer) Version() string {
	if v := p.Metadata["version"]; v != "" {
		return v
	}
	return "unknown"
}

// URL returns the WebSocket URL of the bridge
func (p *Peer) URL() string {
	path := p.Metadata["path"]
	if path == "" {
		path = DefaultPath
	}
	return "ws://" + p.Addr() + path
}
