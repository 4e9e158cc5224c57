//go:build unit

package control

import (
	"context"
	"path/filepath"
	"testing"

	"routerswitcher/internal/adapter/configstore"
	"routerswitcher/internal/adapter/infrastructure/file"
	"routerswitcher/internal/engine"
	"routerswitcher/internal/mock"
	"routerswitcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store   *configstore.Store
	engine  *engine.Engine
	locator *mock.MockGatewayLocator
	journal *mock.MockJournal
	surface *Surface
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:   configstore.New(filepath.Join(t.TempDir(), "config.json"), file.NewManagerAdapter()),
		locator: mock.NewMockGatewayLocator(ctrl),
		journal: mock.NewMockJournal(ctrl),
	}
	// Detector and applier are never reached: nothing here runs an evaluation.
	f.engine = engine.New(f.store, mock.NewMockSSIDDetector(ctrl), mock.NewMockInterfaceApplier(ctrl), f.journal, engine.Options{})
	f.surface = New(f.store, f.engine, f.journal, f.locator)
	return f
}

func staticConfig() types.Config {
	return types.Config{
		HomeSSID:  "HomeNet",
		StaticIP:  "192.168.31.100/24",
		Gateway:   "192.168.31.1",
		DNS:       "192.168.31.1, 8.8.8.8",
		AutoStart: true,
		IPMode:    types.IPModeStatic,
	}
}

func TestSurface_UpdateConfig(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.surface.UpdateConfig(staticConfig()))
		assert.Equal(t, staticConfig(), f.surface.GetConfig())
	})

	t.Run("InvalidAddressLeavesStoredConfig", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.surface.UpdateConfig(staticConfig()))

		bad := staticConfig()
		bad.StaticIP = "999.1.1.1"

		err := f.surface.UpdateConfig(bad)
		assert.ErrorIs(t, err, types.ErrInvalid)
		assert.Equal(t, staticConfig(), f.surface.GetConfig())
	})

	t.Run("TriggersEvaluation", func(t *testing.T) {
		f := newFixture(t)
		e := &fakeEngine{}
		s := New(f.store, e, nil, nil)

		require.NoError(t, s.UpdateConfig(staticConfig()))
		assert.Equal(t, 1, e.reconfigured)
	})
}

func TestSurface_GetConfigDefaults(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, types.DefaultConfig(), f.surface.GetConfig())
}

func TestSurface_GetStatus(t *testing.T) {
	t.Run("WithGateway", func(t *testing.T) {
		f := newFixture(t)
		f.locator.EXPECT().DefaultGateway().Return("192.168.31.1", nil)

		st := f.surface.GetStatus()
		assert.Equal(t, types.StateUnknown, st.State)
		assert.Equal(t, "192.168.31.1", st.CurrentGateway)
	})

	t.Run("GatewayUnknown", func(t *testing.T) {
		f := newFixture(t)
		f.locator.EXPECT().DefaultGateway().Return("", assert.AnError)

		st := f.surface.GetStatus()
		assert.Empty(t, st.CurrentGateway)
	})
}

func TestSurface_Reevaluate(t *testing.T) {
	e := &fakeEngine{}
	s := New(nil, e, nil, nil)

	s.Reevaluate()
	assert.Equal(t, 1, e.triggered)
}

func TestSurface_SetMode(t *testing.T) {
	t.Run("ForwardsToEngine", func(t *testing.T) {
		e := &fakeEngine{}
		s := New(nil, e, nil, nil)

		require.NoError(t, s.SetMode(types.ModeDHCP))
		assert.Equal(t, types.ModeDHCP, e.override)
	})

	t.Run("StaticWithStoredProfile", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.surface.UpdateConfig(staticConfig()))
		f.locator.EXPECT().DefaultGateway().Return("", assert.AnError)

		require.NoError(t, f.surface.SetMode(types.ModeStatic))
		assert.Equal(t, types.ModeStatic, f.surface.GetStatus().Override)
	})

	t.Run("StaticWithoutProfile", func(t *testing.T) {
		f := newFixture(t)

		err := f.surface.SetMode(types.ModeStatic)
		assert.ErrorIs(t, err, types.ErrInvalid)
	})
}

func TestSurface_History(t *testing.T) {
	t.Run("FromJournal", func(t *testing.T) {
		f := newFixture(t)
		events := []types.SwitchEvent{{ID: "a", Mode: types.ModeStatic, Outcome: types.OutcomeApplied}}
		f.journal.EXPECT().Recent(gomock.Any(), 10).Return(events, nil)

		got, err := f.surface.History(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, events, got)
	})

	t.Run("WithoutJournal", func(t *testing.T) {
		s := New(nil, &fakeEngine{}, nil, nil)

		got, err := s.History(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

type fakeEngine struct {
	reconfigured int
	triggered    int
	override     types.Mode
}

func (f *fakeEngine) Status() types.Status { return types.Status{State: types.StateUnknown} }

func (f *fakeEngine) Reconfigure(save func() error) error {
	f.reconfigured++
	return save()
}

func (f *fakeEngine) Trigger() { f.triggered++ }

func (f *fakeEngine) SetOverride(mode types.Mode) error {
	f.override = mode
	return nil
}

func (f *fakeEngine) Subscribe() (<-chan types.Status, func()) {
	return make(chan types.Status), func() {}
}
