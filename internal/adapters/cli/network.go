package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
	"gymbooking/internal/domain/settings"
)

func newNetworkCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Inspect or change the network simulation",
	}
	cmd.AddCommand(newNetworkShowCmd(opts), newNetworkSetCmd(opts))
	return cmd
}

func newNetworkShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the network simulation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				cfg, err := projections.QueryGetNetworkSettings(cmd.Context(), projections.GetSystemStatsDeps{Records: a.store})
				if err != nil {
					return err
				}
				printNetwork(cmd, cfg)
				return nil
			})
		},
	}
}

var errNothingToChange = errors.New("no settings given; use --enabled, --min-delay, --max-delay or --failure-rate")

func newNetworkSetCmd(opts *rootOptions) *cobra.Command {
	var (
		enabled     bool
		minDelay    int
		maxDelay    int
		failureRate float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the network simulation; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch settings.NetworkPatch
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				patch.Enabled = &enabled
			}
			if flags.Changed("min-delay") {
				patch.MinDelayMs = &minDelay
			}
			if flags.Changed("max-delay") {
				patch.MaxDelayMs = &maxDelay
			}
			if flags.Changed("failure-rate") {
				patch.FailureRate = &failureRate
			}
			if patch == (settings.NetworkPatch{}) {
				return errNothingToChange
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				cfg, err := orchestrators.ExecuteUpdateNetworkSettings(cmd.Context(), orchestrators.UpdateNetworkSettingsInput{Patch: patch}, a.adminDeps())
				if err != nil {
					return err
				}
				printNetwork(cmd, cfg)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", false, "simulate latency and failures")
	cmd.Flags().IntVar(&minDelay, "min-delay", 0, "minimum delay in milliseconds")
	cmd.Flags().IntVar(&maxDelay, "max-delay", 0, "maximum delay in milliseconds")
	cmd.Flags().Float64Var(&failureRate, "failure-rate", 0, "probability of a simulated failure, 0 to 1")
	return cmd
}

func printNetwork(cmd *cobra.Command, cfg settings.NetworkConfig) {
	state := "off"
	if cfg.Enabled {
		state = "on"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "network:        %s, %d-%dms delay, %.0f%% failures\n",
		state, cfg.MinDelayMs, cfg.MaxDelayMs, cfg.FailureRate*100)
}
