package netcfg

import (
	"bytes"
	"errors"
	"fmt"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// snapshot is the link state captured before a change.
type snapshot struct {
	addrs     []netlink.Addr
	routes    []netlink.Route
	resolv    []byte
	hadResolv bool
}

func (c *Configurator) capture(link netlink.Link) (*snapshot, error) {
	addrs, err := c.networkMgr.ListAddresses(link)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing addresses: %w", err)
	}

	routes, err := c.networkMgr.ListRoutes()
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	snap := &snapshot{addrs: addrs}
	for _, route := range routes {
		if onLink(route, link) {
			snap.routes = append(snap.routes, route)
		}
	}

	if content, err := c.fileMgr.ReadFile(c.resolvConf); err == nil {
		snap.resolv = content
		snap.hadResolv = true
	}

	return snap, nil
}

// restore brings addresses, default routes and the resolver file back to snap.
// Missing addresses are re-added before extra ones are removed.
func (c *Configurator) restore(link netlink.Link, snap *snapshot, logger *logrus.Entry) error {
	var errs []error

	current, err := c.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to list addresses: %w", err)
	}

	for _, want := range snap.addrs {
		if containsAddr(current, want) {
			continue
		}
		addr := &netlink.Addr{IPNet: want.IPNet}
		if !permanent(want) {
			addr.ValidLft = want.ValidLft
			addr.PreferedLft = want.PreferedLft
		}
		if err := c.networkMgr.AddAddress(link, addr); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.WithField("address", want.IPNet.String()).Debug("Restored address")
	}

	for _, have := range current {
		if containsAddr(snap.addrs, have) {
			continue
		}
		if err := c.networkMgr.DeleteAddress(link, &have); err != nil {
			errs = append(errs, err)
		}
	}

	routes, err := c.networkMgr.ListRoutes()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to list routes: %w", err))
	} else {
		for _, have := range routes {
			if onLink(have, link) && !containsRoute(snap.routes, have) {
				if err := c.networkMgr.DeleteRoute(&have); err != nil {
					errs = append(errs, err)
				}
			}
		}
		for _, want := range snap.routes {
			if containsRoute(routes, want) {
				continue
			}
			route := &netlink.Route{LinkIndex: want.LinkIndex, Gw: want.Gw, Priority: want.Priority}
			if err := c.networkMgr.AddRoute(route); err != nil && !errors.Is(err, syscall.EEXIST) {
				errs = append(errs, err)
			}
		}
	}

	if snap.hadResolv {
		content, err := c.fileMgr.ReadFile(c.resolvConf)
		if err != nil || !bytes.Equal(content, snap.resolv) {
			if err := c.fileMgr.WriteFile(c.resolvConf, snap.resolv, 0644); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func containsAddr(addrs []netlink.Addr, addr netlink.Addr) bool {
	for _, a := range addrs {
		if addr.IPNet != nil && sameAddr(a, addr.IPNet) {
			return true
		}
	}
	return false
}

func containsRoute(routes []netlink.Route, route netlink.Route) bool {
	for _, r := range routes {
		if isDefault(r) && r.LinkIndex == route.LinkIndex && r.Gw.Equal(route.Gw) {
			return true
		}
	}
	return false
}
