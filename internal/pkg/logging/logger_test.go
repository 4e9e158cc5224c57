//go:build unit

package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactFormatter_Format(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "Applying addressing mode",
		Data: logrus.Fields{
			"component": "engine",
			"interface": "wlan0",
			"ssid":      "HomeNet",
			"mode":      "static",
		},
	}

	t.Run("WithTime", func(t *testing.T) {
		out, err := (&CompactFormatter{ShowTime: true}).Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[09:30:15][INFO][engine][wlan0] Applying addressing mode (mode=static, ssid=HomeNet)\n", string(out))
	})

	t.Run("WithoutTime", func(t *testing.T) {
		out, err := (&CompactFormatter{}).Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[INFO][engine][wlan0] Applying addressing mode (mode=static, ssid=HomeNet)\n", string(out))
	})
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	t.Run("InvalidLevelDefaultsToInfo", func(t *testing.T) {
		InitLogger(LogConfig{Level: "loud", Format: "json"})
		assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, Logger.Formatter)
	})

	t.Run("FileOutput", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "routerswitcher.log")
		InitLogger(LogConfig{Level: "debug", Format: "simple", File: file})

		WithComponent("test").Info("hello")

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[INFO][test] hello")
	})
}

func TestCompactFormatter_Error(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.WarnLevel,
		Message: "Apply failed",
		Data: logrus.Fields{
			"component":     "engine",
			"attempts":      2,
			logrus.ErrorKey: errors.New("permission denied"),
		},
	}

	out, err := (&CompactFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[WARNING][engine] Apply failed (attempts=2): permission denied\n", string(out))
}

func TestNewFormatter(t *testing.T) {
	f, ok := newFormatter("compact")
	assert.True(t, ok)
	assert.Equal(t, &CompactFormatter{ShowTime: true}, f)

	f, ok = newFormatter("xml")
	assert.False(t, ok)
	assert.IsType(t, &logrus.TextFormatter{}, f)
}
