package cmd

import (
	"errors"
	"fmt"

	"routerswitcher/internal/adapter/configstore"
	"routerswitcher/internal/adapter/infrastructure/file"
	"routerswitcher/internal/types"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var forceFlag bool

func loadService() (service.Service, service.Logger, error) {
	svcConfig, err := serviceConfig()
	if err != nil {
		return nil, nil, err
	}

	s, err := service.New(&daemon{}, svcConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	logger, err := s.Logger(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service logger: %w", err)
	}
	return s, logger, nil
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install routerswitcher as a " + service.Platform() + " service",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		stored, err := configstore.New(settings.ConfigFile, file.NewManagerAdapter()).Load()
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("failed to read %s: %w", settings.ConfigFile, err)
		}
		if !stored.AutoStart && !forceFlag {
			return fmt.Errorf("AutoStart is disabled in %s; enable it with 'config set --auto-start' or use --force", settings.ConfigFile)
		}

		s, l, err := loadService()
		if err != nil {
			return err
		}
		_ = l.Info("Installing service")
		return s.Install()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall routerswitcher as a " + service.Platform() + " service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, l, err := loadService()
		if err != nil {
			return err
		}
		_ = l.Info("Uninstalling service")
		return s.Uninstall()
	},
}

func init() {
	installCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to settings file (YAML) passed to the installed service")
	installCmd.Flags().StringVar(&envFlag, "env-file", ".env", "Dotenv file with ROUTERSWITCHER_* overrides passed to the installed service")
	installCmd.Flags().BoolVar(&forceFlag, "force", false, "Install even when AutoStart is disabled")
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}
