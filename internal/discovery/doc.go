// Package discovery finds navien bridges on the local network.
//
// A bridge started with advertising enabled registers itself over
// multicast DNS as "_navien-bridge._tcp". This package browses for those
// registrations and turns each answer into a Peer carrying the WebSocket
// URL a client should dial.
//
// Controllers themselves are never discovered. They are reachable only
// through the vendor relay.
//
// # Usage Example
//
//	peers, err := discovery.Browse(ctx, 3*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range peers {
//	    fmt.Println(p.Instance, p.URL())
//	}
package discovery
