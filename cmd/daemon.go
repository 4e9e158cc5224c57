package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"routerswitcher/internal/adapter/applier"
	"routerswitcher/internal/adapter/configstore"
	"routerswitcher/internal/adapter/detector"
	"routerswitcher/internal/adapter/dhcp"
	infraDhcp "routerswitcher/internal/adapter/infrastructure/dhcp"
	"routerswitcher/internal/adapter/infrastructure/file"
	"routerswitcher/internal/adapter/infrastructure/journal"
	"routerswitcher/internal/adapter/infrastructure/network"
	"routerswitcher/internal/adapter/infrastructure/route"
	infraWifi "routerswitcher/internal/adapter/infrastructure/wifi"
	"routerswitcher/internal/control"
	"routerswitcher/internal/control/api"
	"routerswitcher/internal/engine"
	"routerswitcher/internal/pkg/config"
	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"

	"github.com/kardianos/service"
)

// daemon wires every component and runs them under the service manager.
type daemon struct {
	settings *config.Config

	journal *journal.Store
	applier *applier.Applier
	engine  *engine.Engine
	server  *api.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newDaemon(settings *config.Config) *daemon {
	return &daemon{settings: settings}
}

// build creates the adapters, engine and API server from the settings.
func (d *daemon) build() error {
	logger := logging.WithComponent("daemon")
	s := d.settings

	// Create shared infrastructure adapters
	networkMgr := network.NewManagerAdapter()
	fileMgr := file.NewManagerAdapter()
	dhcpClient := infraDhcp.NewClientAdapter()

	store := configstore.New(s.ConfigFile, fileMgr)
	if _, err := store.Load(); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			logger.WithField("path", s.ConfigFile).Info("No config saved yet, switching disabled until one is set")
		default:
			logger.WithError(err).Warn("Stored config is unusable, using defaults")
		}
	}

	var events port.Journal
	j, err := journal.Open(s.JournalFile)
	if err != nil {
		logger.WithError(err).Warn("Switch journal unavailable, history disabled")
	} else {
		d.journal = j
		events = j
	}

	d.applier = applier.NewNetlink(dhcpClient, networkMgr, fileMgr, s.ResolvConf, dhcp.Options{
		Timeout: s.DHCP.Timeout,
		Retries: s.DHCP.Retries,
	})

	d.engine = engine.New(
		store,
		detector.New(infraWifi.NewManagerAdapter(), s.Adapter),
		d.applier,
		events,
		engine.Options{
			PollInterval:        s.PollInterval,
			BackoffInitial:      s.Backoff.Initial,
			BackoffMax:          s.Backoff.Max,
			RandomizationFactor: s.Backoff.Jitter,
			Gateway:             route.NewPinger(),
		},
	)
	d.applier.OnLeaseLost(d.engine.LeaseLost)

	surface := control.New(store, d.engine, events, route.NewGatewayAdapter())
	d.server = api.NewServer(surface, api.ServerOptions{
		Addr:               s.API.Listen,
		ReconfigureTimeout: s.DHCP.Budget(),
	})
	return nil
}

// Start implements service.Interface. It must not block.
func (d *daemon) Start(s service.Service) error {
	logger := logging.WithComponent("daemon")

	if err := d.build(); err != nil {
		return err
	}
	if err := d.server.Start(); err != nil {
		d.release()
		return fmt.Errorf("failed to start control API: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Switch engine failed")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"config_file": d.settings.ConfigFile,
		"api":         d.server.Addr(),
		"adapter":     d.settings.Adapter,
	}).Info("Daemon started")
	return nil
}

// Stop implements service.Interface.
func (d *daemon) Stop(s service.Service) error {
	logger := logging.WithComponent("daemon")
	logger.Info("Stopping daemon")

	if d.cancel != nil {
		d.cancel()
		d.wg.Wait()
	}

	if d.server != nil {
		if err := d.server.Stop(context.Background()); err != nil {
			logger.WithError(err).Warn("Control API did not shut down cleanly")
		}
	}

	d.release()
	logger.Info("Daemon stopped")
	return nil
}

func (d *daemon) release() {
	if d.applier != nil {
		_ = d.applier.Close()
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			logging.WithComponent("daemon").WithError(err).Warn("Failed to close switch journal")
		}
	}
}
