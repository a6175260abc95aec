// Package cli is the gym command line: the HTTP server plus the admin
// operations for scripting and local demos.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"gymbooking/internal/config"
)

// version is set at build time via -ldflags "-X gymbooking/internal/adapters/cli.version=..."
var version = "dev"

type rootOptions struct {
	envFile string
	cfg     config.Config
}

// NewRoot builds the gym command tree.
func NewRoot() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "gym",
		Short:         "Gym class booking engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if opts.envFile != "" {
				files = append(files, opts.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			setupLogging(cfg, cmd)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before the environment (default .env)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newResetCmd(opts),
		newClearBookingsCmd(opts),
		newRecomputeCmd(opts),
		newStatsCmd(opts),
		newNetworkCmd(opts),
		newTimeCmd(opts),
	)
	return cmd
}

// setupLogging installs the default slog handler: JSON in production, text
// otherwise. Logs go to stderr so command output stays parseable.
func setupLogging(cfg config.Config, cmd *cobra.Command) {
	hopts := &slog.HandlerOptions{Level: cfg.Level()}
	w := cmd.ErrOrStderr()
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	slog.SetDefault(slog.New(h))
}

// withApp opens the store for the duration of fn.
func (o *rootOptions) withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRoot().ExecuteContext(ctx); err != nil {
		slog.Error("command_failed", "error", err.Error())
		return 1
	}
	return 0
}
