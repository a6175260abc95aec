package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo data into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				res, err := orchestrators.ExecuteSeedTestData(cmd.Context(), a.seedDeps())
				if err != nil {
					return err
				}
				if !res.Seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "store already holds users; nothing seeded")
					return nil
				}
				printSeed(cmd, res)
				return nil
			})
		},
	}
}

var errNotConfirmed = errors.New("refusing to wipe the store without --yes")

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe every collection, return to real time and reseed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				res, err := orchestrators.ExecuteResetAllData(cmd.Context(), a.adminDeps())
				if err != nil {
					return err
				}
				printSeed(cmd, res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}

func printSeed(cmd *cobra.Command, res orchestrators.SeedResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d classes, %d bookings, %d waitlist entries\n",
		res.Users, res.Classes, res.Bookings, res.Waitlist)
}

func newClearBookingsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-bookings",
		Short: "Remove every booking and waitlist entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				res, err := orchestrators.ExecuteClearBookings(cmd.Context(), a.adminDeps())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d bookings and %d waitlist entries; %d classes corrected\n",
					res.Bookings, res.Waitlist, res.Corrected)
				return nil
			})
		},
	}
}

func newRecomputeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [class-id]",
		Short: "Reconcile class counters with booking records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				deps := orchestrators.RecomputeDeps{Records: a.store}
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					res, err := orchestrators.ExecuteRecomputeClassCounters(cmd.Context(), orchestrators.RecomputeClassCountersInput{ClassID: args[0]}, deps)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d/%d booked, %s (changed: %t)\n",
						res.Class.ID, res.Class.CurrentBookings, res.Class.Capacity, res.Class.Status, res.Changed)
					return nil
				}
				n, err := orchestrators.ExecuteRecomputeAllClassCounters(cmd.Context(), deps)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d classes corrected\n", n)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print collection counts and simulation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				s, err := projections.QueryGetSystemStats(cmd.Context(), projections.GetSystemStatsDeps{Records: a.store})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "users:          %d\n", s.Users)
				fmt.Fprintf(out, "classes:        %d (%d full)\n", s.Classes, s.FullClasses)
				fmt.Fprintf(out, "bookings:       %d\n", s.Bookings)
				fmt.Fprintf(out, "waitlist:       %d\n", s.WaitlistEntries)
				fmt.Fprintf(out, "notifications:  %d pending, %d failed\n", s.PendingNotifications, s.FailedNotifications)
				printNetwork(cmd, s.Network)
				fmt.Fprintf(out, "time:           %s\n", orchestrators.ExecuteGetTimeStatus(a.adminDeps()).Label)
				return nil
			})
		},
	}
}
