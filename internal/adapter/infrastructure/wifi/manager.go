// Package wifi provides the nl80211 adapter implementation.
package wifi

import (
	"fmt"

	"routerswitcher/internal/port"

	"github.com/mdlayher/wifi"
)

// ManagerAdapter implements the WirelessManager port using mdlayher/wifi.
// A generic netlink socket is opened per call and closed before returning.
type ManagerAdapter struct{}

// Ensure ManagerAdapter implements the WirelessManager port
var _ port.WirelessManager = (*ManagerAdapter)(nil)

// NewManagerAdapter creates a new wireless manager adapter.
func NewManagerAdapter() *ManagerAdapter {
	return &ManagerAdapter{}
}

// Stations returns the wireless interfaces operating in station mode.
func (w *ManagerAdapter) Stations() ([]*wifi.Interface, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open nl80211: %w", err)
	}
	defer client.Close()

	ifis, err := client.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list wireless interfaces: %w", err)
	}

	var stations []*wifi.Interface
	for _, ifi := range ifis {
		// Skip P2P devices and other entries without a netdev
		if ifi.Name == "" || ifi.Type != wifi.InterfaceTypeStation {
			continue
		}
		stations = append(stations, ifi)
	}
	return stations, nil
}

// CurrentBSS returns the BSS the interface is associated with.
func (w *ManagerAdapter) CurrentBSS(ifi *wifi.Interface) (*wifi.BSS, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open nl80211: %w", err)
	}
	defer client.Close()

	bss, err := client.BSS(ifi)
	if err != nil {
		return nil, fmt.Errorf("failed to query BSS on %s: %w", ifi.Name, err)
	}
	return bss, nil
}
