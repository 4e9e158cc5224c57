// Package route reports the host's routing state.
package route

import (
	"fmt"

	"routerswitcher/internal/port"

	"github.com/jackpal/gateway"
)

// GatewayAdapter implements the GatewayLocator port using jackpal/gateway.
type GatewayAdapter struct {
	discover func() (string, error)
}

// Ensure GatewayAdapter implements the GatewayLocator port
var _ port.GatewayLocator = (*GatewayAdapter)(nil)

// NewGatewayAdapter creates a gateway locator backed by the OS routing table.
func NewGatewayAdapter() *GatewayAdapter {
	return &GatewayAdapter{discover: func() (string, error) {
		ip, err := gateway.DiscoverGateway()
		if err != nil {
			return "", err
		}
		return ip.String(), nil
	}}
}

// DefaultGateway returns the current IPv4 default gateway.
func (g *GatewayAdapter) DefaultGateway() (string, error) {
	gw, err := g.discover()
	if err != nil {
		return "", fmt.Errorf("failed to discover default gateway: %w", err)
	}
	return gw, nil
}
