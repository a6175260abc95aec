package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gymbooking/internal/application/orchestrators"
)

func newTimeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time",
		Short: "Inspect or move the simulated clock",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the simulated time",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(a *app) error {
					printTime(cmd, orchestrators.ExecuteGetTimeStatus(a.adminDeps()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "advance AMOUNT UNIT",
			Short:   "Move simulated time by AMOUNT minutes, hours or days",
			Example: "  gym time advance 2 days\n  gym time advance -- -30 minutes",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("amount %q is not a whole number", args[0])
				}
				return opts.withApp(cmd.Context(), func(a *app) error {
					status, err := orchestrators.ExecuteAdvanceTime(cmd.Context(), orchestrators.AdvanceTimeInput{Amount: amount, Unit: args[1]}, a.adminDeps())
					if err != nil {
						return err
					}
					printTime(cmd, status)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Return to real time",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(a *app) error {
					status, err := orchestrators.ExecuteResetTime(cmd.Context(), a.adminDeps())
					if err != nil {
						return err
					}
					printTime(cmd, status)
					return nil
				})
			},
		},
	)
	return cmd
}

func printTime(cmd *cobra.Command, t orchestrators.TimeStatus) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", t.Now.Format("Mon 2 Jan 2006 15:04 MST"), t.Label)
}
