package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantURL  string
		wantVer  string
	}{
		{
			name: "IPv4 with TXT",
			entry: entry("navien-bridge", "pi.local.", 8080,
				[]net.IP{net.ParseIP("192.168.1.20")}, nil,
				"version=1.2.0", "agent=navien/1.2.0", "path=/ws"),
			wantIP:   "192.168.1.20",
			wantPort: 8080,
			wantURL:  "ws://192.168.1.20:8080/ws",
			wantVer:  "1.2.0",
		},
		{
			name: "IPv6 fallback and default path",
			entry: entry("loft", "loft.local.", 9000,
				nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 9000,
			wantURL:  "ws://[fe80::1]:9000/ws",
			wantVer:  "unknown",
		},
		{
			name:    "no address",
			entry:   entry("navien-bridge", "pi.local.", 8080, nil, nil),
			wantNil: true,
		},
		{
			name: "no port",
			entry: entry("navien-bridge", "pi.local.", 0,
				[]net.IP{net.ParseIP("192.168.1.20")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseEntry(tt.entry)
			if tt.wantNil {
				if p != nil {
					t.Fatalf("parseEntry() = %+v, want nil", p)
				}
				return
			}
			if p == nil {
				t.Fatal("parseEntry() = nil")
			}
			if p.IP != tt.wantIP || p.Port != tt.wantPort {
				t.Errorf("address = %s:%d, want %s:%d", p.IP, p.Port, tt.wantIP, tt.wantPort)
			}
			if got := p.URL(); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
			if got := p.Version(); got != tt.wantVer {
				t.Errorf("Version() = %q, want %q", got, tt.wantVer)
			}
		})
	}
}

func TestParseEntry_InstanceFromHostname(t *testing.T) {
	e := entry("", "pi.local.", 8080, []net.IP{net.ParseIP("10.0.0.2")}, nil)
	p := parseEntry(e)
	if p == nil || p.Instance != "pi.local" {
		t.Fatalf("parseEntry() = %+v, want instance pi.local", p)
	}
}

func TestCollectSortsAndDedupes(t *testing.T) {
	peers := map[string]*Peer{
		"loft":    {Instance: "loft"},
		"cellar":  {Instance: "cellar"},
		"kitchen": {Instance: "kitchen"},
	}
	got := collect(peers)
	want := []string{"cellar", "kitchen", "loft"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Instance != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, p.Instance, want[i])
		}
	}
}

func TestPeerString(t *testing.T) {
	p := &Peer{Instance: "loft", IP: "10.0.0.2", Port: 8080, Metadata: map[string]string{"version": "1.0.0"}}
	if got, want := p.String(), "loft (1.0.0) at 10.0.0.2:8080"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
