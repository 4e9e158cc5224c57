// Package netcfg commits a complete IPv4 configuration (address, default
// route, DNS) to a link, restoring the previous state when any step fails.
package netcfg

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"syscall"
	"time"

	"routerswitcher/internal/port"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// DefaultResolvConf is the resolver file rewritten for DNS changes.
const DefaultResolvConf = "/etc/resolv.conf"

// lifetimeForever is the kernel's "infinite" address lifetime.
const lifetimeForever = math.MaxUint32

// Target is the full configuration committed by Commit.
type Target struct {
	Address  *net.IPNet
	Gateway  net.IP
	DNS      []net.IP
	Lifetime time.Duration // zero means permanent
}

// Configurator applies Targets through the NetworkManager and FileManager ports.
type Configurator struct {
	networkMgr port.NetworkManager
	fileMgr    port.FileManager
	resolvConf string
}

// NewConfigurator creates a configurator writing DNS to resolvConf.
func NewConfigurator(networkMgr port.NetworkManager, fileMgr port.FileManager, resolvConf string) *Configurator {
	if resolvConf == "" {
		resolvConf = DefaultResolvConf
	}
	return &Configurator{
		networkMgr: networkMgr,
		fileMgr:    fileMgr,
		resolvConf: resolvConf,
	}
}

// Link resolves an interface name to a netlink link.
func (c *Configurator) Link(ifaceName string) (netlink.Link, error) {
	link, err := c.networkMgr.GetLinkByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("failed to get netlink interface: %w", err)
	}
	return link, nil
}

// Commit applies target to link. Either the whole target is in place when
// Commit returns nil, or the state captured before the change is restored.
func (c *Configurator) Commit(link netlink.Link, target Target, logger *logrus.Entry) error {
	snap, err := c.capture(link)
	if err != nil {
		return fmt.Errorf("failed to capture current configuration: %w", err)
	}

	if err := c.apply(link, target, logger); err != nil {
		logger.WithError(err).Warn("Apply failed, restoring previous configuration")
		if rerr := c.restore(link, snap, logger); rerr != nil {
			logger.WithError(rerr).Error("Failed to restore previous configuration")
			return errors.Join(err, fmt.Errorf("restore failed: %w", rerr))
		}
		logger.Info("Previous configuration restored")
		return err
	}
	return nil
}

func (c *Configurator) apply(link netlink.Link, target Target, logger *logrus.Entry) error {
	if link.Attrs().Flags&net.FlagUp == 0 {
		logger.Warn("Interface is down, bringing it up")
		if err := c.networkMgr.SetLinkUp(link); err != nil {
			return fmt.Errorf("failed to bring interface up: %w", err)
		}
	}

	if err := c.ensureAddress(link, target, logger); err != nil {
		return err
	}

	if target.Gateway != nil {
		if err := c.ensureDefaultRoute(link, target.Gateway, logger); err != nil {
			return fmt.Errorf("failed to set default gateway: %w", err)
		}
	}

	if len(target.DNS) > 0 {
		if err := c.ensureDNS(target.DNS, logger); err != nil {
			return fmt.Errorf("failed to configure DNS: %w", err)
		}
	}

	return nil
}

// ensureAddress puts the target address on the link before removing any
// other IPv4 address, so the link is never left without one.
func (c *Configurator) ensureAddress(link netlink.Link, target Target, logger *logrus.Entry) error {
	ipNet := target.Address
	logger = logger.WithField("ip", ipNet.String())

	existingAddrs, err := c.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to list existing addresses: %w", err)
	}

	var current *netlink.Addr
	for i := range existingAddrs {
		if sameAddr(existingAddrs[i], ipNet) {
			current = &existingAddrs[i]
			break
		}
	}

	addr := &netlink.Addr{IPNet: ipNet}
	if target.Lifetime > 0 {
		addr.ValidLft = int(target.Lifetime.Seconds())
		addr.PreferedLft = int(target.Lifetime.Seconds())
	}

	switch {
	case current == nil:
		if err := c.networkMgr.AddAddress(link, addr); err != nil {
			return fmt.Errorf("failed to add IP address %s: %w", ipNet.String(), err)
		}
		logger.Info("Successfully added IP address")
	case target.Lifetime > 0 || !permanent(*current):
		if err := c.networkMgr.ReplaceAddress(link, addr); err != nil {
			return fmt.Errorf("failed to refresh IP address %s: %w", ipNet.String(), err)
		}
		logger.Debug("Refreshed IP address lifetime")
	default:
		logger.Info("IP address already configured, skipping")
	}

	for _, existing := range existingAddrs {
		if sameAddr(existing, ipNet) {
			continue
		}
		if err := c.networkMgr.DeleteAddress(link, &existing); err != nil {
			logger.WithError(err).WithField("address", existing.IPNet.String()).Warn("Failed to remove existing address")
		} else {
			logger.WithField("address", existing.IPNet.String()).Debug("Removed existing address")
		}
	}

	return nil
}

// ensureDefaultRoute makes gateway the only IPv4 default route on link.
// Default routes through other links are left alone.
func (c *Configurator) ensureDefaultRoute(link netlink.Link, gateway net.IP, logger *logrus.Entry) error {
	logger = logger.WithField("gateway", gateway.String())

	routes, err := c.networkMgr.ListRoutes()
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}

	for _, route := range routes {
		if onLink(route, link) && route.Gw != nil && route.Gw.Equal(gateway) {
			logger.Info("Default route already exists, skipping")
			return nil
		}
	}

	for _, route := range routes {
		if !onLink(route, link) {
			continue
		}
		if err := c.networkMgr.DeleteRoute(&route); err != nil {
			logger.WithError(err).Warn("Failed to remove existing default route")
		} else if route.Gw != nil {
			logger.WithField("old_gateway", route.Gw.String()).Debug("Removed existing default route")
		}
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Gw:        gateway,
	}
	if err := c.networkMgr.AddRoute(route); err != nil {
		if errors.Is(err, syscall.EEXIST) {
			logger.Debug("Default route already exists, ignoring error")
			return nil
		}
		return fmt.Errorf("failed to add default route: %w", err)
	}

	logger.Info("Successfully added default route")
	return nil
}

// ensureDNS rewrites the resolver file when its content differs.
func (c *Configurator) ensureDNS(servers []net.IP, logger *logrus.Entry) error {
	newContent := renderResolvConf(servers)

	if currentContent, err := c.fileMgr.ReadFile(c.resolvConf); err == nil {
		if bytes.Equal(currentContent, newContent) {
			logger.Debug("DNS configuration already up to date, skipping")
			return nil
		}
	}

	if err := c.fileMgr.WriteFile(c.resolvConf, newContent, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.resolvConf, err)
	}

	dnsStrings := make([]string, 0, len(servers))
	for _, dns := range servers {
		dnsStrings = append(dnsStrings, dns.String())
	}
	logger.WithField("dns_servers", strings.Join(dnsStrings, ", ")).Info("Updated resolver configuration")
	return nil
}

func renderResolvConf(servers []net.IP) []byte {
	var b bytes.Buffer
	b.WriteString("# Generated by routerswitcher\n")
	for _, dns := range servers {
		fmt.Fprintf(&b, "nameserver %s\n", dns.String())
	}
	return b.Bytes()
}

func sameAddr(addr netlink.Addr, ipNet *net.IPNet) bool {
	return addr.IPNet != nil && addr.IPNet.IP.Equal(ipNet.IP) && addr.IPNet.Mask.String() == ipNet.Mask.String()
}

func permanent(addr netlink.Addr) bool {
	return addr.ValidLft == 0 || addr.ValidLft == lifetimeForever
}

func isDefault(route netlink.Route) bool {
	return route.Dst == nil || route.Dst.String() == "0.0.0.0/0"
}

// onLink reports whether route is a default route through link.
func onLink(route netlink.Route, link netlink.Link) bool {
	return isDefault(route) && route.LinkIndex == link.Attrs().Index
}
