package network

import (
	"context"
	"fmt"
	"net"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// ParseAddr accepts a multiaddr such as /ip4/127.0.0.1/tcp/4000 or a
// host:port pair. An empty host listens on all IPv4 interfaces.
func ParseAddr(addr string) (ma.Multiaddr, error) {
	if strings.HasPrefix(addr, "/") {
		m, err := ma.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid multiaddr %q: %w", addr, err)
		}
		return m, nil
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if tcpAddr.IP == nil {
		tcpAddr.IP = net.IPv4zero
	}
	m, err := manet.FromNetAddr(tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return m, nil
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	m, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}

	var d manet.Dialer
	conn, err := d.DialContext(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("network: dial %s: %w", m, err)
	}
	return conn, nil
}
