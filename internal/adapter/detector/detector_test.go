//go:build unit

package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"routerswitcher/internal/mock"
	"routerswitcher/internal/types"

	"github.com/mdlayher/wifi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDetector_CurrentSSID(t *testing.T) {
	ctx := context.Background()
	wlan0 := &wifi.Interface{Index: 3, Name: "wlan0", Type: wifi.InterfaceTypeStation}
	wlan1 := &wifi.Interface{Index: 4, Name: "wlan1", Type: wifi.InterfaceTypeStation}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Associated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "")
		d.now = func() time.Time { return fixed }

		wireless.EXPECT().Stations().Return([]*wifi.Interface{wlan0, wlan1}, nil)
		wireless.EXPECT().CurrentBSS(wlan0).Return(&wifi.BSS{SSID: "HomeNet"}, nil)

		obs, err := d.CurrentSSID(ctx)
		require.NoError(t, err)
		assert.Equal(t, types.NetworkObservation{
			SSID:       "HomeNet",
			Associated: true,
			Adapter:    "wlan0",
			ObservedAt: fixed,
		}, obs)
	})

	t.Run("ConfiguredAdapter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "wlan1")

		wireless.EXPECT().Stations().Return([]*wifi.Interface{wlan0, wlan1}, nil)
		wireless.EXPECT().CurrentBSS(wlan1).Return(&wifi.BSS{SSID: "Cafe"}, nil)

		obs, err := d.CurrentSSID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "wlan1", obs.Adapter)
		assert.Equal(t, "Cafe", obs.SSID)
	})

	t.Run("NotAssociated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "")

		wireless.EXPECT().Stations().Return([]*wifi.Interface{wlan0}, nil)
		wireless.EXPECT().CurrentBSS(wlan0).Return(nil, fmt.Errorf("failed to get BSS: %w", os.ErrNotExist))

		obs, err := d.CurrentSSID(ctx)
		require.NoError(t, err)
		assert.False(t, obs.Associated)
		assert.Empty(t, obs.SSID)
		assert.Equal(t, "wlan0", obs.Adapter)
	})

	t.Run("NoStations", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "")

		wireless.EXPECT().Stations().Return(nil, nil)

		_, err := d.CurrentSSID(ctx)
		assert.ErrorIs(t, err, types.ErrAdapterUnavailable)
	})

	t.Run("ConfiguredAdapterMissing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "wlan7")

		wireless.EXPECT().Stations().Return([]*wifi.Interface{wlan0}, nil)

		_, err := d.CurrentSSID(ctx)
		assert.ErrorIs(t, err, types.ErrAdapterUnavailable)
	})

	t.Run("NetlinkUnavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "")

		wireless.EXPECT().Stations().Return(nil, errors.New("nl80211 not found"))

		_, err := d.CurrentSSID(ctx)
		assert.ErrorIs(t, err, types.ErrAdapterUnavailable)
	})

	t.Run("QueryFailure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		wireless := mock.NewMockWirelessManager(ctrl)
		d := New(wireless, "")

		wireless.EXPECT().Stations().Return([]*wifi.Interface{wlan0}, nil)
		wireless.EXPECT().CurrentBSS(wlan0).Return(nil, assert.AnError)

		_, err := d.CurrentSSID(ctx)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, types.ErrAdapterUnavailable)
	})
}
