// Package detector reports which wireless network the host is associated with.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"

	"github.com/mdlayher/wifi"
)

// Detector implements the SSIDDetector port over nl80211.
type Detector struct {
	wireless port.WirelessManager
	adapter  string
	now      func() time.Time
}

// Ensure Detector implements the SSIDDetector port
var _ port.SSIDDetector = (*Detector)(nil)

// New creates a detector. An empty adapter selects the first station-mode
// wireless interface on every observation.
func New(wireless port.WirelessManager, adapter string) *Detector {
	return &Detector{
		wireless: wireless,
		adapter:  adapter,
		now:      time.Now,
	}
}

// CurrentSSID implements port.SSIDDetector.
func (d *Detector) CurrentSSID(ctx context.Context) (types.NetworkObservation, error) {
	if err := ctx.Err(); err != nil {
		return types.NetworkObservation{}, err
	}

	ifi, err := d.selectInterface()
	if err != nil {
		return types.NetworkObservation{}, err
	}

	obs := types.NetworkObservation{
		Adapter:    ifi.Name,
		ObservedAt: d.now(),
	}

	bss, err := d.wireless.CurrentBSS(ifi)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.WithComponentAndInterface("detector", ifi.Name).Debug("Adapter is not associated")
		return obs, nil
	case err != nil:
		return types.NetworkObservation{}, fmt.Errorf("failed to query association on %s: %w", ifi.Name, err)
	}

	obs.SSID = bss.SSID
	obs.Associated = true
	return obs, nil
}

func (d *Detector) selectInterface() (*wifi.Interface, error) {
	stations, err := d.wireless.Stations()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrAdapterUnavailable, err)
	}

	for _, ifi := range stations {
		if d.adapter == "" || ifi.Name == d.adapter {
			return ifi, nil
		}
	}

	if d.adapter != "" {
		return nil, fmt.Errorf("%w: %s is not a wireless station", types.ErrAdapterUnavailable, d.adapter)
	}
	return nil, fmt.Errorf("%w: no wireless station interface found", types.ErrAdapterUnavailable)
}
