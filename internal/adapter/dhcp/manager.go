package dhcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"routerswitcher/internal/adapter/netcfg"
	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

const (
	// defaultLeaseTime is assumed when the server omits option 51.
	defaultLeaseTime = 60 * time.Second
	// renewRetryInterval spaces renewal attempts after a failed renewal.
	renewRetryInterval = 30 * time.Second
)

// Options tunes lease acquisition.
type Options struct {
	Timeout    time.Duration // per-exchange timeout
	Retries    int           // exchanges attempted before giving up
	RetryDelay time.Duration // pause between exchanges
}

// DefaultOptions returns the lease acquisition defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    15 * time.Second,
		Retries:    3,
		RetryDelay: 2 * time.Second,
	}
}

type heldLease struct {
	iface   string
	ack     *dhcpv4.DHCPv4
	expires time.Time
}

// Applier switches an adapter to DHCP addressing and keeps the lease renewed
// in the background until the adapter is handed over to another mode.
type Applier struct {
	dhcpClient   port.DHCPClient
	configurator *netcfg.Configurator
	opts         Options
	now          func() time.Time

	// applyMu serializes Apply, Handover and Close.
	applyMu sync.Mutex

	// mu guards lease state and every commit, including the keeper's.
	mu           sync.Mutex
	lease        *heldLease
	cancelKeeper context.CancelFunc
	keeperDone   chan struct{}
	onLeaseLost  func(ifaceName string)
}

// NewApplier creates a DHCP applier.
func NewApplier(dhcpClient port.DHCPClient, configurator *netcfg.Configurator, opts Options) *Applier {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Retries <= 0 {
		opts.Retries = defaults.Retries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = defaults.RetryDelay
	}

	return &Applier{
		dhcpClient:   dhcpClient,
		configurator: configurator,
		opts:         opts,
		now:          time.Now,
	}
}

// Apply obtains a lease for ifaceName and commits it. When no lease can be
// obtained the adapter is left untouched and the error wraps ErrLeaseFailed.
func (a *Applier) Apply(ctx context.Context, ifaceName string) error {
	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	logger := logging.WithComponentAndInterface("dhcp", ifaceName)

	a.mu.Lock()
	held := a.lease
	a.mu.Unlock()

	if held != nil && held.iface == ifaceName && a.now().Before(held.expires) {
		logger.WithField("ip", held.ack.YourIPAddr.String()).Info("Valid lease already held, skipping")
		return nil
	}

	a.stopKeeper()
	a.dropLease()

	link, err := a.configurator.Link(ifaceName)
	if err != nil {
		return err
	}

	ack, err := a.getDHCPLease(ctx, ifaceName, nil, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrLeaseFailed, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.applyDHCPLease(link, ack, logger); err != nil {
		return err
	}

	a.lease = &heldLease{
		iface:   ifaceName,
		ack:     ack,
		expires: a.now().Add(ack.IPAddressLeaseTime(defaultLeaseTime)),
	}
	a.startKeeperLocked(ifaceName, ack)

	logger.Info("Successfully configured interface")
	return nil
}

// Handover runs fn with lease renewal paused. When fn succeeds the lease is
// dropped so it can no longer overwrite the new configuration; otherwise
// renewal resumes.
func (a *Applier) Handover(fn func() error) error {
	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	a.stopKeeper()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := fn(); err != nil {
		if a.lease != nil && a.now().Before(a.lease.expires) {
			a.startKeeperLocked(a.lease.iface, a.lease.ack)
		}
		return err
	}

	if a.lease != nil {
		logging.WithComponentAndInterface("dhcp", a.lease.iface).Info("Releasing lease to another configuration")
	}
	a.lease = nil
	return nil
}

// OnLeaseLost registers fn to be called from the renewal loop when a lease
// expires without a successful renewal. fn must not block.
func (a *Applier) OnLeaseLost(fn func(ifaceName string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLeaseLost = fn
}

// Close stops lease renewal and waits for it to exit.
func (a *Applier) Close() error {
	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	a.stopKeeper()
	return nil
}

// getDHCPLease performs the DISCOVER/OFFER/REQUEST/ACK sequence with retries.
func (a *Applier) getDHCPLease(ctx context.Context, ifaceName string, requested net.IP, logger *logrus.Entry) (*dhcpv4.DHCPv4, error) {
	var lastErr error

	for attempt := 1; attempt <= a.opts.Retries; attempt++ {
		logger.WithField("attempt", fmt.Sprintf("%d/%d", attempt, a.opts.Retries)).Debug("Attempting DHCP lease")

		ack, err := a.dhcpClient.RequestLease(ctx, ifaceName, a.opts.Timeout, requested)
		if err == nil && !usableAddress(ack) {
			err = errors.New("server offered no usable address")
		}
		if err == nil {
			logger.WithField("ip", ack.YourIPAddr.String()).Info("Successfully obtained DHCP lease")
			return ack, nil
		}

		lastErr = err
		logger.WithError(err).WithField("attempt", attempt).Error("DHCP lease request failed")

		if attempt < a.opts.Retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.opts.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("DHCP lease request failed after %d attempts: %w", a.opts.Retries, lastErr)
}

// applyDHCPLease commits the address, router and DNS servers of ack.
// Callers hold a.mu.
func (a *Applier) applyDHCPLease(link netlink.Link, ack *dhcpv4.DHCPv4, logger *logrus.Entry) error {
	subnetMask := ack.SubnetMask()
	if subnetMask == nil {
		// Default to /24 if no subnet mask provided
		subnetMask = net.CIDRMask(types.DefaultPrefixLength, 32)
	}

	target := netcfg.Target{
		Address: &net.IPNet{
			IP:   ack.YourIPAddr.To4(),
			Mask: subnetMask,
		},
		DNS:      ack.DNS(),
		Lifetime: ack.IPAddressLeaseTime(defaultLeaseTime),
	}

	if routers := ack.Router(); len(routers) > 0 {
		target.Gateway = routers[0]
	}

	logger.WithFields(logrus.Fields{
		"ip":         target.Address.String(),
		"lease_time": target.Lifetime.String(),
	}).Info("Configuring interface with leased address")

	if err := a.configurator.Commit(link, target, logger); err != nil {
		return fmt.Errorf("failed to apply DHCP lease: %w", err)
	}
	return nil
}

// startKeeperLocked launches the renewal loop for the current lease.
// Callers hold a.mu.
func (a *Applier) startKeeperLocked(ifaceName string, ack *dhcpv4.DHCPv4) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancelKeeper = cancel
	a.keeperDone = done

	go func() {
		defer close(done)
		a.keepLease(ctx, ifaceName, ack)
	}()
}

// stopKeeper cancels the renewal loop and waits for it to return.
// Callers must not hold a.mu.
func (a *Applier) stopKeeper() {
	a.mu.Lock()
	cancel, done := a.cancelKeeper, a.keeperDone
	a.cancelKeeper, a.keeperDone = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (a *Applier) dropLease() {
	a.mu.Lock()
	a.lease = nil
	a.mu.Unlock()
}

// keepLease renews the lease at T1 until ctx is cancelled. Network I/O runs
// without the lock; the commit is skipped once ctx is done.
func (a *Applier) keepLease(ctx context.Context, ifaceName string, ack *dhcpv4.DHCPv4) {
	logger := logging.WithComponentAndInterface("dhcp", ifaceName)

	renewal := ack.IPAddressRenewalTime(ack.IPAddressLeaseTime(defaultLeaseTime) / 2)
	logger.WithField("renewal_time", renewal.String()).Info("Sleeping until renewal")

	renewalTimer := time.NewTimer(renewal)
	defer renewalTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Lease renewal stopped")
			return
		case <-renewalTimer.C:
			next, err := a.renew(ctx, ifaceName, ack, logger)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				retry, lost := a.retryOrExpire(ctx, logger)
				if lost {
					return
				}
				logger.WithError(err).Errorf("Failed to renew DHCP lease, retrying in %s", retry)
				renewalTimer.Reset(retry)
				continue
			}
			if next == nil {
				return
			}

			ack = next
			renewal = ack.IPAddressRenewalTime(ack.IPAddressLeaseTime(defaultLeaseTime) / 2)
			logger.WithField("renewal_time", renewal.String()).Info("Sleeping until renewal")
			renewalTimer.Reset(renewal)
		}
	}
}

// retryOrExpire decides what follows a failed renewal: another attempt
// after the returned delay, or, once the lease has run out, dropping it and
// notifying the lease-lost handler.
func (a *Applier) retryOrExpire(ctx context.Context, logger *logrus.Entry) (time.Duration, bool) {
	a.mu.Lock()
	if ctx.Err() != nil || a.lease == nil {
		a.mu.Unlock()
		return 0, true
	}

	left := a.lease.expires.Sub(a.now())
	if left > 0 {
		a.mu.Unlock()
		return min(renewRetryInterval, left), false
	}

	iface := a.lease.iface
	a.lease = nil
	notify := a.onLeaseLost
	a.mu.Unlock()

	logger.Error("DHCP lease expired without renewal")
	if notify != nil {
		notify(iface)
	}
	return 0, true
}

// renew requests the current address again and commits the answer. It
// returns a nil lease without error when renewal was stopped meanwhile.
func (a *Applier) renew(ctx context.Context, ifaceName string, current *dhcpv4.DHCPv4, logger *logrus.Entry) (*dhcpv4.DHCPv4, error) {
	next, err := a.getDHCPLease(ctx, ifaceName, current.YourIPAddr, logger)
	if err != nil {
		return nil, err
	}

	link, err := a.configurator.Link(ifaceName)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if ctx.Err() != nil {
		return nil, nil
	}

	if err := a.applyDHCPLease(link, next, logger); err != nil {
		return nil, err
	}

	a.lease = &heldLease{
		iface:   ifaceName,
		ack:     next,
		expires: a.now().Add(next.IPAddressLeaseTime(defaultLeaseTime)),
	}
	return next, nil
}

func usableAddress(ack *dhcpv4.DHCPv4) bool {
	return ack != nil && ack.YourIPAddr.To4() != nil && !ack.YourIPAddr.IsUnspecified()
}
