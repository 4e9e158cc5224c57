//go:build unit

package configstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"routerswitcher/internal/adapter/infrastructure/file"
	"routerswitcher/internal/mock"
	"routerswitcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func homeConfig() types.Config {
	return types.Config{
		HomeSSID:  "HomeNet",
		StaticIP:  "192.168.31.100",
		Gateway:   "192.168.31.1",
		DNS:       "192.168.31.1",
		AutoStart: true,
		IPMode:    types.IPModeDHCP,
	}
}

func TestStore_Load(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "config.json"), file.NewManagerAdapter())

		cfg, err := store.Load()
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Equal(t, types.DefaultConfig(), cfg)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		cfg, err := New(path, file.NewManagerAdapter()).Load()
		assert.ErrorIs(t, err, types.ErrCorrupt)
		assert.Equal(t, types.DefaultConfig(), cfg)
	})

	t.Run("InvalidContent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"IPMode":"auto"}`), 0600))

		cfg, err := New(path, file.NewManagerAdapter()).Load()
		assert.ErrorIs(t, err, types.ErrCorrupt)
		assert.Equal(t, types.DefaultConfig(), cfg)
	})

	t.Run("OriginalFieldNames", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{
  "HomeSSID": "HomeNet",
  "StaticIP": "192.168.31.100",
  "Gateway": "192.168.31.1",
  "DNS": "192.168.31.1",
  "AutoStart": true,
  "IPMode": "dhcp"
}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := New(path, file.NewManagerAdapter()).Load()
		require.NoError(t, err)
		assert.Equal(t, homeConfig(), cfg)
	})

	t.Run("MissingModeDefaultsToDHCP", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"HomeSSID":""}`), 0600))

		cfg, err := New(path, file.NewManagerAdapter()).Load()
		require.NoError(t, err)
		assert.Equal(t, types.IPModeDHCP, cfg.IPMode)
	})

	for _, mode := range []string{"", "adaptive", "dynamic"} {
		t.Run("KeepsProfileWithIPMode_"+mode, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			content := `{"HomeSSID":"HomeNet","StaticIP":"192.168.31.100","Gateway":"192.168.31.1","DNS":"192.168.31.1","AutoStart":true,"IPMode":"` + mode + `"}`
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			cfg, err := New(path, file.NewManagerAdapter()).Load()
			require.NoError(t, err)
			assert.Equal(t, homeConfig(), cfg)
		})
	}
}

func TestStore_Save(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "nested", "config.json"), file.NewManagerAdapter())

		require.NoError(t, store.Save(homeConfig()))

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, homeConfig(), cfg)

		// A fresh store over the same file sees the same value
		cfg, err = New(store.Path(), file.NewManagerAdapter()).Load()
		require.NoError(t, err)
		assert.Equal(t, homeConfig(), cfg)
	})

	t.Run("InvalidConfigWritesNothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fileMgr := mock.NewMockFileManager(ctrl)
		store := New("/tmp/config.json", fileMgr)

		// WriteFileAtomic must not be called
		cfg := homeConfig()
		cfg.Gateway = "10.0.0.1"

		err := store.Save(cfg)
		assert.ErrorIs(t, err, types.ErrInvalid)
	})

	t.Run("FailedWriteKeepsPreviousValue", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		store := New(path, file.NewManagerAdapter())
		require.NoError(t, store.Save(homeConfig()))

		ctrl := gomock.NewController(t)
		fileMgr := mock.NewMockFileManager(ctrl)
		failing := New(path, fileMgr)
		fileMgr.EXPECT().
			WriteFileAtomic(path, gomock.Any(), 0644).
			Return(errors.New("disk full"))

		next := homeConfig()
		next.HomeSSID = "Other"
		assert.Error(t, failing.Save(next))

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, homeConfig(), cfg)
	})

	t.Run("ReadErrorUsesCache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fileMgr := mock.NewMockFileManager(ctrl)
		store := New("/tmp/config.json", fileMgr)

		fileMgr.EXPECT().WriteFileAtomic("/tmp/config.json", gomock.Any(), 0644).Return(nil)
		fileMgr.EXPECT().ReadFile("/tmp/config.json").Return(nil, errors.New("i/o error"))

		require.NoError(t, store.Save(homeConfig()))

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, homeConfig(), cfg)
	})
}
