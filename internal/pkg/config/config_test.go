//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("ValidConfig", func(t *testing.T) {
		configContent := `logging:
  level: debug
  format: simple
  file: /var/log/routerswitcher.log

adapter: wlan0
config_file: /etc/routerswitcher/config.json
poll_interval: 10s
backoff:
  initial: 2s
  max: 1m
dhcp:
  timeout: 5s
  retries: 2
api:
  listen: 127.0.0.1:9000
`
		configFile := filepath.Join(tempDir, "valid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		config, err := Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "simple", config.Logging.Format)
		assert.Equal(t, "/var/log/routerswitcher.log", config.Logging.File)
		assert.Equal(t, "wlan0", config.Adapter)
		assert.Equal(t, "/etc/routerswitcher/config.json", config.ConfigFile)
		assert.Equal(t, 10*time.Second, config.PollInterval)
		assert.Equal(t, 2*time.Second, config.Backoff.Initial)
		assert.Equal(t, time.Minute, config.Backoff.Max)
		assert.Equal(t, 5*time.Second, config.DHCP.Timeout)
		assert.Equal(t, 2, config.DHCP.Retries)
		assert.Equal(t, "127.0.0.1:9000", config.API.Listen)

		// Unset keys keep their defaults
		assert.Equal(t, 0.5, config.Backoff.Jitter)
		assert.Equal(t, "/etc/resolv.conf", config.ResolvConf)
		assert.NoError(t, config.Validate())
	})

	t.Run("EmptyPathReturnsDefaults", func(t *testing.T) {
		config, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), config)
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		configContent := `invalid: yaml: content: [
`
		configFile := filepath.Join(tempDir, "invalid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		_, err = Load(configFile)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		configFile := filepath.Join(tempDir, "duration.yml")
		require.NoError(t, os.WriteFile(configFile, []byte("poll_interval: soon\n"), 0644))

		_, err := Load(configFile)
		assert.Error(t, err)
	})
}

func TestConfig_ApplyEnvironment(t *testing.T) {
	t.Run("ProcessEnvironment", func(t *testing.T) {
		t.Setenv(EnvAdapter, "wlp2s0")
		t.Setenv(EnvAPIListen, "127.0.0.1:9999")
		t.Setenv(EnvLogLevel, "warn")

		config := Default()
		require.NoError(t, config.ApplyEnvironment(""))
		assert.Equal(t, "wlp2s0", config.Adapter)
		assert.Equal(t, "127.0.0.1:9999", config.API.Listen)
		assert.Equal(t, "warn", config.Logging.Level)
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		t.Setenv(EnvAdapter, "")
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("ROUTERSWITCHER_ADAPTER=wlan1\n"), 0644))
		require.NoError(t, os.Unsetenv(EnvAdapter))

		config := Default()
		require.NoError(t, config.ApplyEnvironment(envFile))
		assert.Equal(t, "wlan1", config.Adapter)
	})

	t.Run("MissingDotEnvIsIgnored", func(t *testing.T) {
		config := Default()
		assert.NoError(t, config.ApplyEnvironment(filepath.Join(t.TempDir(), ".env")))
	})
}

func TestConfig_ResolvePaths(t *testing.T) {
	config := Default()
	err := config.ResolvePaths(func() (string, error) {
		return "/home/user/.config/routerswitcher/config.json", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/home/user/.config/routerswitcher/config.json", config.ConfigFile)
	assert.Equal(t, "/home/user/.config/routerswitcher/journal.db", config.JournalFile)

	explicit := Default()
	explicit.ConfigFile = "/etc/routerswitcher/config.json"
	explicit.JournalFile = "/var/lib/routerswitcher/journal.db"
	require.NoError(t, explicit.ResolvePaths(func() (string, error) {
		t.Fatal("default path must not be resolved")
		return "", nil
	}))
	assert.Equal(t, "/var/lib/routerswitcher/journal.db", explicit.JournalFile)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	tests := []struct {
		name   string
		mutate func(c *Config)
		msg    string
	}{
		{"ZeroPoll", func(c *Config) { c.PollInterval = 0 }, "poll_interval must be positive"},
		{"ZeroBackoff", func(c *Config) { c.Backoff.Initial = 0 }, "backoff.initial must be positive"},
		{"MaxBelowInitial", func(c *Config) { c.Backoff.Max = time.Second }, "backoff.max"},
		{"Jitter", func(c *Config) { c.Backoff.Jitter = 1 }, "backoff.jitter"},
		{"DHCPTimeout", func(c *Config) { c.DHCP.Timeout = 0 }, "dhcp.timeout"},
		{"DHCPRetries", func(c *Config) { c.DHCP.Retries = 0 }, "dhcp.retries"},
		{"Listen", func(c *Config) { c.API.Listen = "localhost" }, "api.listen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDHCPConfig_Budget(t *testing.T) {
	assert.Equal(t, 75*time.Second, Default().DHCP.Budget())
	assert.Equal(t, 35*time.Second, DHCPConfig{Timeout: 5 * time.Second}.Budget())
}
