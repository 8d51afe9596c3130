package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type bridges register under
	ServiceType = "_navien-bridge._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultPath is the WebSocket path when the TXT record has none
	DefaultPath = "/ws"

	// DefaultTimeout bounds a browse when the caller gives none
	DefaultTimeout = 3 * time.Second
)

// Browse listens for bridge advertisements until timeout elapses or ctx is
// cancelled. Peers are returned sorted by instance name, one per instance.
func Browse(ctx context.Context, timeout time.Duration) ([]*Peer, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		wg    sync.WaitGroup
		peers = make(map[string]*Peer)
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if p := parseEntry(entry); p != nil {
					peers[p.Instance] = p
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for %s: %w", ServiceType, err)
	}

	wg.Wait()

	return collect(peers), nil
}

func collect(peers map[string]*Peer) []*Peer {
	out := make([]*Peer, 0, len(peers))
	for _, p := range peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

// parseEntry converts a zeroconf answer into a Peer. Entries without an
// address or port are dropped.
func parseEntry(entry *zeroconf.ServiceEntry) *Peer {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	instance := entry.Instance
	if instance == "" {
		instance = strings.TrimSuffix(entry.HostName, ".")
	}

	return &Peer{
		Instance: instance,
		Hostname: entry.HostName,
		IP:       ip,
		Port:     entry.Port,
		Metadata: metadata,
		SeenAt:   time.Now(),
	}
}
