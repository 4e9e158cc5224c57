//go:build unit

package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"routerswitcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal", "switch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, types.SwitchEvent{
		OccurredAt: base,
		SSID:       "HomeNet",
		Adapter:    "wlan0",
		Mode:       types.ModeStatic,
		Outcome:    types.OutcomeApplied,
	}))
	require.NoError(t, store.Record(ctx, types.SwitchEvent{
		OccurredAt: base.Add(time.Minute),
		SSID:       "CafeWifi",
		Adapter:    "wlan0",
		Mode:       types.ModeDHCP,
		Outcome:    types.OutcomeFailed,
		Error:      "dhcp lease failed",
	}))

	events, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "CafeWifi", events[0].SSID)
	assert.Equal(t, types.ModeDHCP, events[0].Mode)
	assert.Equal(t, types.OutcomeFailed, events[0].Outcome)
	assert.Equal(t, "dhcp lease failed", events[0].Error)
	assert.True(t, events[0].OccurredAt.Equal(base.Add(time.Minute)))
	assert.NotEmpty(t, events[0].ID)

	assert.Equal(t, "HomeNet", events[1].SSID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestStore_RecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, types.SwitchEvent{
			OccurredAt: base.Add(time.Duration(i) * time.Second),
			Mode:       types.ModeStatic,
			Outcome:    types.OutcomeApplied,
		}))
	}

	events, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.True(t, events[0].OccurredAt.Equal(base.Add(4*time.Second)))
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switch.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, types.SwitchEvent{Mode: types.ModeDHCP, Outcome: types.OutcomeApplied}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
