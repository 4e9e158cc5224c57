package cmd

import (
	"fmt"
	"path/filepath"

	"routerswitcher/internal/adapter/configstore"
	"routerswitcher/internal/pkg/config"
	"routerswitcher/internal/pkg/logging"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var (
	configFlag string
	envFlag    string
)

// loadSettings reads the settings file, applies environment overrides and
// resolves the default file locations.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvironment(envFlag); err != nil {
		return nil, err
	}
	if err := cfg.ResolvePaths(configstore.DefaultPath); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

// serviceConfig describes the daemon to the service manager.
func serviceConfig() (*service.Config, error) {
	args, err := serviceArgs(configFlag, envFlag)
	if err != nil {
		return nil, err
	}

	return &service.Config{
		Name:        "routerswitcher",
		DisplayName: "RouterSwitcher",
		Description: "Switches the Wi-Fi adapter between a static profile on the home network and DHCP elsewhere",
		Arguments:   args,
	}, nil
}

// serviceArgs builds the serve command line for the installed service. Paths
// are made absolute so the service finds them from any working directory.
func serviceArgs(settingsFile, envFile string) ([]string, error) {
	args := []string{"serve"}
	for _, f := range []struct{ flag, path string }{
		{"-f", settingsFile},
		{"--env-file", envFile},
	} {
		if f.path == "" {
			continue
		}
		abs, err := filepath.Abs(f.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f.path, err)
		}
		args = append(args, f.flag, abs)
	}
	return args, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the switching daemon in the foreground or under the service manager",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load and validate configuration
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		// Initialize logging
		logging.InitLogger(cfg.Logging)

		logger := logging.GetLogger()
		logger.WithField("settings_file", configFlag).Info("Starting daemon")

		svcConfig, err := serviceConfig()
		if err != nil {
			return err
		}

		s, err := service.New(newDaemon(cfg), svcConfig)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		// Run blocks until the service manager or a signal stops the daemon
		return s.Run()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to settings file (YAML)")
	serveCmd.Flags().StringVar(&envFlag, "env-file", ".env", "Optional dotenv file with ROUTERSWITCHER_* overrides")
	rootCmd.AddCommand(serveCmd)
}
