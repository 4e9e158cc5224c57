package static

import (
	"context"
	"fmt"

	"routerswitcher/internal/adapter/netcfg"
	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/types"
)

// Applier commits a static profile to an adapter. Validation happens before
// any interface is touched so an invalid profile never mutates the system.
type Applier struct {
	configurator *netcfg.Configurator
}

// NewApplier creates a static profile applier on top of the given configurator.
func NewApplier(configurator *netcfg.Configurator) *Applier {
	return &Applier{configurator: configurator}
}

// Apply configures ifaceName with the address, default gateway and DNS of profile.
func (a *Applier) Apply(ctx context.Context, ifaceName string, profile types.StaticProfile) error {
	logger := logging.WithComponentAndInterface("static", ifaceName)

	parsed, err := profile.Parse()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	link, err := a.configurator.Link(ifaceName)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"ip":      parsed.Address.String(),
		"gateway": parsed.Gateway.String(),
	}).Info("Applying static configuration")

	target := netcfg.Target{
		Address: parsed.Address,
		Gateway: parsed.Gateway,
		DNS:     parsed.DNS,
	}
	if err := a.configurator.Commit(link, target, logger); err != nil {
		return fmt.Errorf("failed to apply static configuration: %w", err)
	}

	logger.Info("Static configuration applied successfully")
	return nil
}
