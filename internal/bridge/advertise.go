package bridge

import (
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/navien/internal/discovery"
	"github.com/muurk/navien/internal/version"
)

// ServiceType is the mDNS service the bridge registers
const ServiceType = discovery.ServiceType

// Advertiser is a running mDNS registration
type Advertiser interface {
	Shutdown()
}

// Advertise registers the bridge on the local network so clients can find
// it. Only the bridge is announced; controllers are never discovered here.
func Advertise(instance string, port int) (Advertiser, error) {
	txt := []string{
		"version=" + version.Version,
		"agent=" + version.UserAgent(),
		"path=" + discovery.DefaultPath,
	}
	server, err := zeroconf.Register(instance, ServiceType, discovery.ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", ServiceType, err)
	}
	return server, nil
}
