// Package control is the single entry point used by user-facing surfaces
// (HTTP API, CLI) to read and change the switcher.
package control

import (
	"context"

	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"
)

// Engine is the part of the switch engine the control surface drives.
type Engine interface {
	Status() types.Status
	Reconfigure(save func() error) error
	Trigger()
	SetOverride(mode types.Mode) error
	Subscribe() (<-chan types.Status, func())
}

// Surface exposes config and status operations.
type Surface struct {
	store   port.ConfigStore
	engine  Engine
	journal port.Journal
	locator port.GatewayLocator
}

// New creates a control surface. journal and locator may be nil.
func New(store port.ConfigStore, engine Engine, journal port.Journal, locator port.GatewayLocator) *Surface {
	return &Surface{
		store:   store,
		engine:  engine,
		journal: journal,
		locator: locator,
	}
}

// GetConfig returns the stored config, or the defaults when none is usable.
func (s *Surface) GetConfig() types.Config {
	cfg, err := s.store.Load()
	if err != nil {
		logging.WithComponent("control").WithError(err).Debug("Returning default config")
	}
	return cfg
}

// UpdateConfig validates and persists cfg, then triggers a re-evaluation.
// An invalid config wraps ErrInvalid and leaves the stored one unchanged.
func (s *Surface) UpdateConfig(cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return s.engine.Reconfigure(func() error {
		return s.store.Save(cfg)
	})
}

// GetStatus returns the engine status with the host's current default gateway.
func (s *Surface) GetStatus() types.Status {
	st := s.engine.Status()

	if s.locator != nil {
		gw, err := s.locator.DefaultGateway()
		if err != nil {
			logging.WithComponent("control").WithError(err).Debug("Default gateway unknown")
		} else {
			st.CurrentGateway = gw
		}
	}

	return st
}

// SetMode forces the static or DHCP profile. ModeUnknown restores automatic
// switching.
func (s *Surface) SetMode(mode types.Mode) error {
	return s.engine.SetOverride(mode)
}

// Reevaluate asks the engine for an immediate evaluation.
func (s *Surface) Reevaluate() {
	s.engine.Trigger()
}

// History returns the most recent switch attempts, newest first.
func (s *Surface) History(ctx context.Context, limit int) ([]types.SwitchEvent, error) {
	if s.journal == nil {
		return []types.SwitchEvent{}, nil
	}
	return s.journal.Recent(ctx, limit)
}

// Subscribe streams status changes until the returned function is called.
func (s *Surface) Subscribe() (<-chan types.Status, func()) {
	return s.engine.Subscribe()
}
