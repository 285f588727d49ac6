// Package discovery announces and finds canvas servers on the local
// network over mDNS, so development setups need no server list.
package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_canvas._tcp"

// Advertise announces a canvas server on the local network. The
// returned server must be shut down by the caller.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"collaborative-canvas"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	return mdns.NewServer(&mdns.Config{Zone: service})
}

// Discover browses the local network for canvas servers and returns
// their websocket URLs in discovery order, suitable as a candidate
// list for a failover connector.
func Discover() ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	var servers []string
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			servers = append(servers, fmt.Sprintf("ws://%s:%d", e.AddrV4.String(), e.Port))
		}
	}()

	err := mdns.Lookup(serviceType, entries)
	close(entries)
	<-collected
	if err != nil {
		return nil, err
	}
	return servers, nil
}
