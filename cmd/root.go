package cmd

import (
	"os"

	"routerswitcher/internal/control/api"
	"routerswitcher/internal/pkg/config"

	"github.com/spf13/cobra"
)

var apiFlag string

var rootCmd = &cobra.Command{
	Use:   "routerswitcher",
	Short: "routerswitcher switches a Wi-Fi adapter between a static profile at home and DHCP elsewhere",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	defaultAPI := os.Getenv(config.EnvAPIListen)
	if defaultAPI == "" {
		defaultAPI = api.DefaultAddress
	}
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", defaultAPI, "Address of the running daemon's control API")
}
