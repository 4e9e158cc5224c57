package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"routerswitcher/internal/control/api"
	"routerswitcher/internal/types"

	"github.com/spf13/cobra"
)

const (
	requestTimeout = 15 * time.Second
	// Config and mode changes wait for an in-flight apply on the daemon.
	reconfigureTimeout = 2 * time.Minute
)

var (
	homeSSIDFlag  string
	staticIPFlag  string
	gatewayFlag   string
	dnsFlag       string
	autoStartFlag bool
	ipModeFlag    string
	limitFlag     int
)

func newRequestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func newReconfigureContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), reconfigureTimeout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's switching status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newRequestContext()
		defer cancel()

		st, err := api.NewClient(apiFlag).GetStatus(ctx)
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change the switching configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newRequestContext()
		defer cancel()

		cfg, err := api.NewClient(apiFlag).GetConfig(ctx)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change fields of the stored configuration",
	Example: `  routerswitcher config set --home-ssid MyHome --static-ip 192.168.31.100/24 --gateway 192.168.31.1
  routerswitcher config set --home-ssid ""`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newReconfigureContext()
		defer cancel()

		client := api.NewClient(apiFlag)
		cfg, err := client.GetConfig(ctx)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("home-ssid") {
			cfg.HomeSSID = homeSSIDFlag
		}
		if flags.Changed("static-ip") {
			cfg.StaticIP = staticIPFlag
		}
		if flags.Changed("gateway") {
			cfg.Gateway = gatewayFlag
		}
		if flags.Changed("dns") {
			cfg.DNS = dnsFlag
		}
		if flags.Changed("auto-start") {
			cfg.AutoStart = autoStartFlag
		}
		if flags.Changed("ip-mode") {
			cfg.IPMode = types.NormalizeIPMode(ipModeFlag)
		}

		// Catch obvious mistakes before the round trip
		if err := cfg.Validate(); err != nil {
			return err
		}

		saved, err := client.UpdateConfig(ctx, cfg)
		if err != nil {
			return err
		}
		return printJSON(saved)
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode static|dhcp|auto",
	Short: "Force the static or DHCP profile, or return to automatic switching",
	Example: `  routerswitcher mode dhcp
  routerswitcher mode auto`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(types.ModeStatic), string(types.ModeDHCP), api.ModeAuto},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newReconfigureContext()
		defer cancel()

		st, err := api.NewClient(apiFlag).SetMode(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Ask the daemon to re-check the network now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newRequestContext()
		defer cancel()

		if err := api.NewClient(apiFlag).Evaluate(ctx); err != nil {
			return err
		}
		fmt.Println("Re-evaluation requested")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent switch attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newRequestContext()
		defer cancel()

		events, err := api.NewClient(apiFlag).History(ctx, limitFlag)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSSID\tADAPTER\tMODE\tOUTCOME\tERROR")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.OccurredAt.Local().Format(time.DateTime), e.SSID, e.Adapter, e.Mode, e.Outcome, e.Error)
		}
		return w.Flush()
	},
}

func init() {
	f := configSetCmd.Flags()
	f.StringVar(&homeSSIDFlag, "home-ssid", "", "Network name that selects the static profile (empty disables switching)")
	f.StringVar(&staticIPFlag, "static-ip", "", "Static IPv4 address, optionally with /prefix")
	f.StringVar(&gatewayFlag, "gateway", "", "Default gateway for the static profile")
	f.StringVar(&dnsFlag, "dns", "", "DNS server or comma-separated list")
	f.BoolVar(&autoStartFlag, "auto-start", false, "Register the daemon as a system service")
	f.StringVar(&ipModeFlag, "ip-mode", types.IPModeDHCP, "Recorded mode: static or dhcp (the daemon overwrites it after each apply)")

	historyCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Number of attempts to show")

	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(statusCmd, configCmd, modeCmd, evaluateCmd, historyCmd)
}
