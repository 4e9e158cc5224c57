// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

//go:generate mockgen -source=network.go -destination=../mock/network.go -package=mock

import (
	"context"

	"routerswitcher/internal/types"
)

// ConfigStore is the durable holder of the single switching Config.
type ConfigStore interface {
	// Load returns the stored config. On ErrNotFound or ErrCorrupt the
	// returned config is the default and still usable.
	Load() (types.Config, error)

	// Save validates and persists the config. A failed save leaves the
	// previously stored value untouched.
	Save(cfg types.Config) error
}

// SSIDDetector observes the wireless adapter's association state.
type SSIDDetector interface {
	// CurrentSSID returns the current observation. An adapter that is present
	// but not associated is not an error. A missing adapter is
	// ErrAdapterUnavailable.
	CurrentSSID(ctx context.Context) (types.NetworkObservation, error)
}

// InterfaceApplier issues the OS-level addressing changes. It is the only
// component that mutates adapter configuration.
type InterfaceApplier interface {
	// ApplyStatic commits address, default gateway and DNS, or nothing.
	ApplyStatic(ctx context.Context, adapter string, profile types.StaticProfile) error

	// ApplyDHCP obtains a lease and commits it, or leaves the adapter as is.
	ApplyDHCP(ctx context.Context, adapter string) error
}

// Journal records switch attempts.
type Journal interface {
	Record(ctx context.Context, event types.SwitchEvent) error
	Recent(ctx context.Context, limit int) ([]types.SwitchEvent, error)
}

// GatewayLocator reports the host's current default gateway.
type GatewayLocator interface {
	DefaultGateway() (string, error)
}

// GatewayChecker tests whether a gateway answers before it is used.
type GatewayChecker interface {
	// Reachable returns nil when addr answered within the deadline of ctx.
	Reachable(ctx context.Context, addr string) error
}
