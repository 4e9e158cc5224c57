// Package types defines common types used across the application.
package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// IP modes accepted in Config.IPMode.
const (
	IPModeStatic = "static"
	IPModeDHCP   = "dhcp"
)

// Mode names written by earlier releases, read as IPModeDHCP.
const (
	legacyIPModeAdaptive = "adaptive"
	legacyIPModeDynamic  = "dynamic"
)

// NormalizeIPMode maps an empty or legacy IPMode to its current value.
// Other values are returned unchanged for Validate to judge.
func NormalizeIPMode(mode string) string {
	switch mode {
	case "", legacyIPModeAdaptive, legacyIPModeDynamic:
		return IPModeDHCP
	default:
		return mode
	}
}

// DefaultPrefixLength is used when StaticIP is given without a prefix.
const DefaultPrefixLength = 24

// maxSSIDLength is the 802.11 limit on SSID length in bytes.
const maxSSIDLength = 32

// Config is the persisted switching configuration. Field names are the
// on-disk JSON keys.
type Config struct {
	HomeSSID  string // Network name that selects the static profile; empty disables switching
	StaticIP  string // IPv4 address, dotted ("192.168.31.100") or CIDR ("192.168.31.100/24")
	Gateway   string // Default gateway for the static profile
	DNS       string // One DNS server or a comma-separated list
	AutoStart bool   // Register the daemon as a system service
	IPMode    string // Mode last applied by the engine, "static" or "dhcp"
}

// DefaultConfig returns the configuration used on first run: no home network,
// DHCP, no autostart.
func DefaultConfig() Config {
	return Config{IPMode: IPModeDHCP}
}

// SwitchingEnabled reports whether automatic switching is configured.
func (c Config) SwitchingEnabled() bool {
	return c.HomeSSID != ""
}

// StaticProfile returns the static profile described by the config.
func (c Config) StaticProfile() StaticProfile {
	return StaticProfile{
		Address: c.StaticIP,
		Gateway: c.Gateway,
		DNS:     c.DNS,
	}
}

// Validate checks every field and returns an error wrapping ErrInvalid.
func (c Config) Validate() error {
	switch c.IPMode {
	case IPModeStatic, IPModeDHCP:
	default:
		return fmt.Errorf("%w: ip mode must be %q or %q, got %q", ErrInvalid, IPModeStatic, IPModeDHCP, c.IPMode)
	}

	if len(c.HomeSSID) > maxSSIDLength {
		return fmt.Errorf("%w: home SSID longer than %d bytes", ErrInvalid, maxSSIDLength)
	}

	needStatic := c.IPMode == IPModeStatic || c.SwitchingEnabled()
	if needStatic {
		if c.StaticIP == "" {
			return fmt.Errorf("%w: static IP address is required", ErrInvalid)
		}
		if c.Gateway == "" {
			return fmt.Errorf("%w: gateway is required", ErrInvalid)
		}
	}

	if _, err := c.StaticProfile().parse(false); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// StaticProfile holds the static addressing values as entered by the user.
type StaticProfile struct {
	Address string
	Gateway string
	DNS     string
}

// ParsedProfile is a StaticProfile that passed address validation.
type ParsedProfile struct {
	Address *net.IPNet
	Gateway net.IP
	DNS     []net.IP
}

// Parse validates the profile and returns the parsed addresses. Errors wrap
// ErrInvalidAddress.
func (p StaticProfile) Parse() (ParsedProfile, error) {
	parsed, err := p.parse(true)
	if err != nil {
		return ParsedProfile{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return parsed, nil
}

func (p StaticProfile) parse(requireAddress bool) (ParsedProfile, error) {
	var parsed ParsedProfile

	if requireAddress || p.Address != "" {
		ipNet, err := ParseStaticAddress(p.Address)
		if err != nil {
			return parsed, err
		}
		parsed.Address = ipNet
	}

	if requireAddress || p.Gateway != "" {
		gw, err := parseIPv4(p.Gateway)
		if err != nil {
			return parsed, fmt.Errorf("gateway: %w", err)
		}
		parsed.Gateway = gw
	}

	if parsed.Address != nil && parsed.Gateway != nil {
		if !parsed.Address.Contains(parsed.Gateway) {
			return parsed, fmt.Errorf("gateway %s is outside %s", parsed.Gateway, parsed.Address)
		}
		if parsed.Address.IP.Equal(parsed.Gateway) {
			return parsed, fmt.Errorf("gateway %s equals the static address", parsed.Gateway)
		}
	}

	dns, err := ParseDNSList(p.DNS)
	if err != nil {
		return parsed, err
	}
	parsed.DNS = dns

	return parsed, nil
}

// ParseStaticAddress parses an IPv4 address with an optional prefix length.
// The returned IPNet keeps the host address in IP.
func ParseStaticAddress(s string) (*net.IPNet, error) {
	s = strings.TrimSpace(s)
	addr, prefix, hasPrefix := strings.Cut(s, "/")

	ip, err := parseIPv4(addr)
	if err != nil {
		return nil, fmt.Errorf("static address: %w", err)
	}

	bits := DefaultPrefixLength
	if hasPrefix {
		bits, err = strconv.Atoi(prefix)
		if err != nil || bits < 1 || bits > 32 {
			return nil, fmt.Errorf("static address: invalid prefix length %q", prefix)
		}
	}

	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, 32)}, nil
}

// ParseDNSList parses a comma-separated list of IPv4 DNS servers. Empty input
// yields an empty list.
func ParseDNSList(s string) ([]net.IP, error) {
	var servers []net.IP
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		ip, err := parseIPv4(field)
		if err != nil {
			return nil, fmt.Errorf("dns: %w", err)
		}
		servers = append(servers, ip)
	}
	return servers, nil
}

func parseIPv4(s string) (net.IP, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("only IPv4 addresses are supported: %s", s)
	}
	if ip4.IsUnspecified() {
		return nil, fmt.Errorf("unspecified address not allowed: %s", s)
	}
	return ip4, nil
}
