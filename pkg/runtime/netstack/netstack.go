// Package netstack is the network device of a generated program. The host
// operating system carries the traffic; the stack records the configured
// interface address and default route and hands out listeners.
package netstack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/conduit-lang/foundry/pkg/runtime/entropy"
)

// ErrNotConfigured is returned by Listen when the stack has no address.
var ErrNotConfigured = errors.New("netstack: no ipv4 address configured")

const (
	ephemeralLow  = 49152
	ephemeralHigh = 65535
)

// Stack is an IPv4 interface.
type Stack struct {
	ipv4    netip.Prefix
	gateway *netip.Addr
	rng     *entropy.Source
}

// New returns a stack with address ipv4 and an optional default route.
func New(ipv4 netip.Prefix, gateway *netip.Addr, rng *entropy.Source) *Stack {
	if rng == nil {
		rng = entropy.New()
	}
	return &Stack{ipv4: ipv4, gateway: gateway, rng: rng}
}

// Prefix returns the interface address and network.
func (s *Stack) Prefix() netip.Prefix { return s.ipv4 }

// Gateway returns the default route, if any.
func (s *Stack) Gateway() (netip.Addr, bool) {
	if s.gateway == nil {
		return netip.Addr{}, false
	}
	return *s.gateway, true
}

// Reachable reports whether addr is on the local network or routable through
// the gateway.
func (s *Stack) Reachable(addr netip.Addr) bool {
	if s.ipv4.IsValid() && s.ipv4.Masked().Contains(addr) {
		return true
	}
	return s.gateway != nil
}

// EphemeralPort returns a random port from the dynamic range.
func (s *Stack) EphemeralPort() int {
	return ephemeralLow + s.rng.Intn(ephemeralHigh-ephemeralLow+1)
}

// Listen opens a TCP listener on port. Port 0 picks an ephemeral port.
func (s *Stack) Listen(ctx context.Context, port int) (net.Listener, error) {
	if !s.ipv4.IsValid() {
		return nil, ErrNotConfigured
	}
	if port < 0 || port > ephemeralHigh {
		return nil, fmt.Errorf("netstack: invalid port %d", port)
	}
	if port == 0 {
		port = s.EphemeralPort()
	}
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp4", net.JoinHostPort("", strconv.Itoa(port)))
}

func (s *Stack) String() string {
	if s.gateway == nil {
		return s.ipv4.String()
	}
	return fmt.Sprintf("%s via %s", s.ipv4, *s.gateway)
}
