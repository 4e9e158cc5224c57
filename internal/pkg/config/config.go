package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"routerswitcher/internal/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding settings file values.
const (
	EnvAdapter   = "ROUTERSWITCHER_ADAPTER"
	EnvAPIListen = "ROUTERSWITCHER_API_LISTEN"
	EnvLogLevel  = "ROUTERSWITCHER_LOG_LEVEL"
)

// BackoffConfig represents the retry schedule after a failed apply
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
	Jitter  float64       `yaml:"jitter"`
}

// DHCPConfig represents lease acquisition settings
type DHCPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// applySlack covers link changes, retry pauses and resolver writes around
// the DHCP exchanges of one apply.
const applySlack = 30 * time.Second

// Budget is the longest a single DHCP apply can take.
func (d DHCPConfig) Budget() time.Duration {
	return d.Timeout*time.Duration(max(d.Retries, 1)) + applySlack
}

// APIConfig represents the local control API
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// Config represents the daemon settings
type Config struct {
	Logging      logging.LogConfig `yaml:"logging"`
	Adapter      string            `yaml:"adapter,omitempty"`
	ConfigFile   string            `yaml:"config_file,omitempty"`
	JournalFile  string            `yaml:"journal_file,omitempty"`
	ResolvConf   string            `yaml:"resolv_conf,omitempty"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Backoff      BackoffConfig     `yaml:"backoff"`
	DHCP         DHCPConfig        `yaml:"dhcp"`
	API          APIConfig         `yaml:"api"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		Logging: logging.LogConfig{
			Level:  "info",
			Format: "compact",
		},
		ResolvConf:   "/etc/resolv.conf",
		PollInterval: 5 * time.Second,
		Backoff: BackoffConfig{
			Initial: 5 * time.Second,
			Max:     5 * time.Minute,
			Jitter:  0.5,
		},
		DHCP: DHCPConfig{
			Timeout: 15 * time.Second,
			Retries: 3,
		},
		API: APIConfig{
			Listen: "127.0.0.1:8787",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// An empty path returns the defaults.
func Load(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return config, nil
}

// ApplyEnvironment loads envFile when it exists, then applies the
// ROUTERSWITCHER_* overrides. Variables already set in the process win
// over the file.
func (c *Config) ApplyEnvironment(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if v := os.Getenv(EnvAdapter); v != "" {
		c.Adapter = v
	}
	if v := os.Getenv(EnvAPIListen); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// ResolvePaths fills ConfigFile and JournalFile when unset. The journal
// defaults to a file next to the config file.
func (c *Config) ResolvePaths(defaultConfigFile func() (string, error)) error {
	if c.ConfigFile == "" {
		path, err := defaultConfigFile()
		if err != nil {
			return err
		}
		c.ConfigFile = path
	}
	if c.JournalFile == "" {
		c.JournalFile = filepath.Join(filepath.Dir(c.ConfigFile), "journal.db")
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.Backoff.Initial <= 0 {
		return fmt.Errorf("backoff.initial must be positive")
	}
	if c.Backoff.Max < c.Backoff.Initial {
		return fmt.Errorf("backoff.max must not be lower than backoff.initial")
	}
	if c.Backoff.Jitter < 0 || c.Backoff.Jitter >= 1 {
		return fmt.Errorf("backoff.jitter must be in [0, 1)")
	}
	if c.DHCP.Timeout <= 0 {
		return fmt.Errorf("dhcp.timeout must be positive")
	}
	if c.DHCP.Retries < 1 {
		return fmt.Errorf("dhcp.retries must be at least 1")
	}
	if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
		return fmt.Errorf("api.listen %q: %w", c.API.Listen, err)
	}
	return nil
}
