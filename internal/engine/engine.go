// Package engine decides which addressing mode the wireless adapter should
// use and drives the applier toward it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// Options tunes the engine's timing.
type Options struct {
	PollInterval        time.Duration
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
	RandomizationFactor float64
	Now                 func() time.Time

	// Gateway, when set, must answer before the static profile is chosen.
	Gateway        port.GatewayChecker
	GatewayTimeout time.Duration
}

// DefaultOptions returns the engine defaults: 5s polling, retries from 5s
// doubling up to 5m.
func DefaultOptions() Options {
	return Options{
		PollInterval:        5 * time.Second,
		BackoffInitial:      5 * time.Second,
		BackoffMax:          5 * time.Minute,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Now:                 time.Now,
		GatewayTimeout:      2 * time.Second,
	}
}

// target is one fully specified addressing outcome.
type target struct {
	mode    types.Mode
	adapter string
	profile types.StaticProfile
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Engine is the switch state machine. Evaluations are serialized; status
// reads use their own lock and never wait on an apply.
type Engine struct {
	store    port.ConfigStore
	detector port.SSIDDetector
	applier  port.InterfaceApplier
	journal  port.Journal
	opts     Options
	logger   *logrus.Entry

	// mu is the evaluation region: load, decide, apply and record.
	mu       sync.Mutex
	applied  *target
	failed   *target
	backoff  *backoff.ExponentialBackOff
	retryAt  time.Time
	override types.Mode

	// lostMu guards adapters whose DHCP lease expired since the last
	// evaluation. It is never held across other locks.
	lostMu sync.Mutex
	lost   map[string]bool

	statusMu sync.RWMutex
	status   types.Status

	trigger chan struct{}

	subMu       sync.Mutex
	subscribers map[int]chan types.Status
	nextSub     int
}

// New creates an engine. journal may be nil.
func New(store port.ConfigStore, detector port.SSIDDetector, applier port.InterfaceApplier, journal port.Journal, opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = defaults.BackoffInitial
	}
	if opts.BackoffMax < opts.BackoffInitial {
		opts.BackoffMax = max(defaults.BackoffMax, opts.BackoffInitial)
	}
	if opts.RandomizationFactor < 0 || opts.RandomizationFactor >= 1 {
		opts.RandomizationFactor = defaults.RandomizationFactor
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaults.GatewayTimeout
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     opts.BackoffInitial,
		RandomizationFactor: opts.RandomizationFactor,
		Multiplier:          2,
		MaxInterval:         opts.BackoffMax,
		MaxElapsedTime:      0,
		Clock:               clockFunc(opts.Now),
	}
	b.Reset()

	return &Engine{
		store:       store,
		detector:    detector,
		applier:     applier,
		journal:     journal,
		opts:        opts,
		logger:      logging.WithComponent("engine"),
		backoff:     b,
		status:      types.Status{State: types.StateUnknown, AppliedMode: types.ModeUnknown},
		trigger:     make(chan struct{}, 1),
		lost:        make(map[string]bool),
		subscribers: make(map[int]chan types.Status),
	}
}

// Run evaluates immediately, then on every poll tick or trigger, until ctx
// is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.WithField("poll_interval", e.opts.PollInterval.String()).Info("Starting switch engine")

	e.Evaluate(ctx)

	pollTimer := time.NewTimer(e.opts.PollInterval)
	defer pollTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Switch engine stopped due to context cancellation")
			return ctx.Err()
		case <-pollTimer.C:
			e.Evaluate(ctx)
			pollTimer.Reset(e.opts.PollInterval)
		case <-e.trigger:
			e.Evaluate(ctx)
			pollTimer.Reset(e.opts.PollInterval)
		}
	}
}

// Trigger requests an evaluation from Run. Triggers issued while one is
// pending collapse into it.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Reconfigure runs save inside the evaluation region so it never interleaves
// with an apply. On success the retry backoff is reset and an evaluation is
// triggered.
func (e *Engine) Reconfigure(save func() error) error {
	e.mu.Lock()
	err := save()
	if err == nil {
		e.resetBackoffLocked()
		e.failed = nil
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.logger.Info("Configuration changed, re-evaluating")
	e.Trigger()
	return nil
}

// SetOverride forces the static or DHCP profile regardless of the observed
// network. ModeUnknown returns to automatic switching. Forcing static
// requires a valid stored profile.
func (e *Engine) SetOverride(mode types.Mode) error {
	switch mode {
	case types.ModeUnknown, types.ModeStatic, types.ModeDHCP:
	default:
		return fmt.Errorf("%w: unknown mode %q", types.ErrInvalid, mode)
	}

	e.mu.Lock()
	if mode == types.ModeStatic {
		cfg, _ := e.store.Load()
		if _, err := cfg.StaticProfile().Parse(); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("%w: %v", types.ErrInvalid, err)
		}
	}
	if mode == types.ModeUnknown {
		mode = ""
	}
	e.override = mode
	e.failed = nil
	e.resetBackoffLocked()

	st := e.Status()
	st.Override = mode
	e.publish(st)
	e.mu.Unlock()

	if mode == "" {
		e.logger.Info("Returning to automatic switching")
	} else {
		e.logger.WithField("mode", mode).Info("Mode forced manually")
	}
	e.Trigger()
	return nil
}

// LeaseLost marks the adapter's DHCP configuration as gone so the next
// evaluation applies DHCP again. It is called from the lease keeper and
// never blocks on an evaluation.
func (e *Engine) LeaseLost(adapter string) {
	e.lostMu.Lock()
	e.lost[adapter] = true
	e.lostMu.Unlock()

	e.logger.WithField("adapter", adapter).Warn("DHCP lease lost, re-evaluating")
	e.Trigger()
}

// Status returns the current status snapshot.
func (e *Engine) Status() types.Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Subscribe returns a channel receiving the status after every evaluation
// that changed it. Slow readers only see the latest value. The returned
// function unsubscribes.
func (e *Engine) Subscribe() (<-chan types.Status, func()) {
	ch := make(chan types.Status, 1)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subscribers, id)
			e.subMu.Unlock()
		})
	}
}

// Evaluate runs one decision cycle and returns the resulting status.
func (e *Engine) Evaluate(ctx context.Context) types.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.evaluateLocked(ctx, e.Status())
	e.publish(next)
	return next
}

func (e *Engine) evaluateLocked(ctx context.Context, st types.Status) types.Status {
	st.Override = e.override

	cfg, loadErr := e.store.Load()
	switch {
	case errors.Is(loadErr, types.ErrNotFound):
		e.logger.Debug("No stored config, using defaults")
	case loadErr != nil:
		e.logger.WithError(loadErr).Warn("Failed to load config, using defaults")
	}

	if !cfg.SwitchingEnabled() && e.override == "" {
		if e.applied != nil || st.State != types.StateUnknown {
			e.logger.Info("No home network configured, switching disabled")
		}
		e.applied = nil
		e.failed = nil
		e.resetBackoffLocked()
		return types.Status{State: types.StateUnknown, AppliedMode: types.ModeUnknown}
	}

	e.lostMu.Lock()
	lost := e.lost
	e.lost = make(map[string]bool)
	e.lostMu.Unlock()
	if e.applied != nil && e.applied.mode == types.ModeDHCP && lost[e.applied.adapter] {
		e.applied = nil
		st.State = types.StateDegraded
		st.LastError = "dhcp lease expired without renewal"
	}

	obs, err := e.detector.CurrentSSID(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to observe wireless network")
		st.State = types.StateDegraded
		st.LastError = err.Error()
		st.Associated = false
		st.LastSSID = ""
		return st
	}

	st.LastSSID = obs.SSID
	st.Associated = obs.Associated
	st.Adapter = obs.Adapter

	want := e.selectTarget(ctx, cfg, obs)

	if e.applied != nil && *e.applied == want && st.State != types.StateDegraded && st.State != types.StateUnknown {
		return st
	}

	now := e.opts.Now()
	if e.failed != nil && *e.failed == want {
		if now.Before(e.retryAt) {
			return st
		}
	} else if e.failed != nil {
		// A different target is not held back by the previous one's backoff.
		e.failed = nil
		e.resetBackoffLocked()
	}

	logger := e.logger.WithFields(logrus.Fields{
		"ssid":    obs.SSID,
		"adapter": obs.Adapter,
		"mode":    want.mode,
	})
	logger.Info("Applying addressing mode")

	applyCtx := context.WithoutCancel(ctx)
	if want.mode == types.ModeStatic {
		err = e.applier.ApplyStatic(applyCtx, want.adapter, want.profile)
	} else {
		err = e.applier.ApplyDHCP(applyCtx, want.adapter)
	}

	e.record(applyCtx, obs, want.mode, err)

	if err != nil {
		// Jitter may pull the first interval below its nominal value.
		delay := max(e.backoff.NextBackOff(), e.opts.BackoffInitial)
		e.failed = &want
		e.retryAt = now.Add(delay)

		st.State = types.StateDegraded
		st.LastError = err.Error()
		st.RetryAt = e.retryAt
		st.Attempts++
		logger.WithError(err).WithField("retry_in", delay.String()).Error("Failed to apply addressing mode")
		return st
	}

	e.applied = &want
	e.failed = nil
	e.resetBackoffLocked()

	st.State = types.StateAwayApplied
	if want.mode == types.ModeStatic {
		st.State = types.StateHomeApplied
	}
	st.AppliedMode = want.mode
	st.LastError = ""
	st.LastAppliedAt = now
	st.RetryAt = time.Time{}
	st.Attempts = 0
	logger.Info("Addressing mode applied")

	if loadErr == nil {
		e.recordModeLocked(cfg, want.mode)
	}
	return st
}

// selectTarget picks the static profile on the home network when its
// gateway answers, DHCP anywhere else. A manual override wins.
func (e *Engine) selectTarget(ctx context.Context, cfg types.Config, obs types.NetworkObservation) target {
	static := target{mode: types.ModeStatic, adapter: obs.Adapter, profile: cfg.StaticProfile()}
	dhcp := target{mode: types.ModeDHCP, adapter: obs.Adapter}

	switch e.override {
	case types.ModeStatic:
		return static
	case types.ModeDHCP:
		return dhcp
	}

	if !obs.Associated || obs.SSID != cfg.HomeSSID {
		return dhcp
	}
	if e.opts.Gateway == nil {
		return static
	}

	checkCtx, cancel := context.WithTimeout(ctx, e.opts.GatewayTimeout)
	defer cancel()
	if err := e.opts.Gateway.Reachable(checkCtx, cfg.Gateway); err != nil {
		e.logger.WithError(err).WithField("gateway", cfg.Gateway).Warn("Home gateway unreachable, using DHCP")
		return dhcp
	}
	return static
}

// recordModeLocked stores the applied mode in the config's IPMode.
func (e *Engine) recordModeLocked(cfg types.Config, mode types.Mode) {
	if cfg.IPMode == string(mode) {
		return
	}
	cfg.IPMode = string(mode)
	if err := e.store.Save(cfg); err != nil {
		e.logger.WithError(err).Warn("Failed to record applied mode")
	}
}

func (e *Engine) resetBackoffLocked() {
	e.backoff.Reset()
	e.retryAt = time.Time{}
}

// record writes one apply attempt to the journal. Journal errors are only logged.
func (e *Engine) record(ctx context.Context, obs types.NetworkObservation, mode types.Mode, applyErr error) {
	if e.journal == nil {
		return
	}

	event := types.SwitchEvent{
		OccurredAt: e.opts.Now(),
		SSID:       obs.SSID,
		Adapter:    obs.Adapter,
		Mode:       mode,
		Outcome:    types.OutcomeApplied,
	}
	if applyErr != nil {
		event.Outcome = types.OutcomeFailed
		event.Error = applyErr.Error()
	}

	if err := e.journal.Record(ctx, event); err != nil {
		e.logger.WithError(err).Warn("Failed to record switch event")
	}
}

// publish stores st and notifies subscribers when it changed.
func (e *Engine) publish(st types.Status) {
	e.statusMu.Lock()
	changed := e.status != st
	e.status = st
	e.statusMu.Unlock()

	if !changed {
		return
	}

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
