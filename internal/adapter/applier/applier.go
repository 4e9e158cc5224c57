// Package applier combines the static and DHCP appliers behind the
// InterfaceApplier port.
package applier

import (
	"context"

	"routerswitcher/internal/adapter/dhcp"
	"routerswitcher/internal/adapter/netcfg"
	"routerswitcher/internal/adapter/static"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"
)

// StaticApplier commits a static profile to an adapter.
type StaticApplier interface {
	Apply(ctx context.Context, ifaceName string, profile types.StaticProfile) error
}

// DHCPApplier obtains and holds a DHCP lease for an adapter.
type DHCPApplier interface {
	Apply(ctx context.Context, ifaceName string) error
	Handover(fn func() error) error
	OnLeaseLost(fn func(ifaceName string))
	Close() error
}

// Applier routes each mode to its applier. Static applies run as a DHCP
// handover so a lease renewal cannot overwrite them.
type Applier struct {
	static StaticApplier
	dhcp   DHCPApplier
}

// Ensure Applier implements the InterfaceApplier port
var _ port.InterfaceApplier = (*Applier)(nil)

// New creates an applier from its two halves.
func New(static StaticApplier, dhcp DHCPApplier) *Applier {
	return &Applier{static: static, dhcp: dhcp}
}

// NewNetlink wires the netlink-backed static and DHCP appliers over one configurator.
func NewNetlink(dhcpClient port.DHCPClient, networkMgr port.NetworkManager, fileMgr port.FileManager, resolvConf string, opts dhcp.Options) *Applier {
	configurator := netcfg.NewConfigurator(networkMgr, fileMgr, resolvConf)
	return New(static.NewApplier(configurator), dhcp.NewApplier(dhcpClient, configurator, opts))
}

// ApplyStatic implements port.InterfaceApplier.
func (a *Applier) ApplyStatic(ctx context.Context, adapter string, profile types.StaticProfile) error {
	return a.dhcp.Handover(func() error {
		return a.static.Apply(ctx, adapter, profile)
	})
}

// ApplyDHCP implements port.InterfaceApplier.
func (a *Applier) ApplyDHCP(ctx context.Context, adapter string) error {
	return a.dhcp.Apply(ctx, adapter)
}

// OnLeaseLost registers fn for leases that expire without renewal.
func (a *Applier) OnLeaseLost(fn func(adapter string)) {
	a.dhcp.OnLeaseLost(fn)
}

// Close stops background lease renewal.
func (a *Applier) Close() error {
	return a.dhcp.Close()
}
