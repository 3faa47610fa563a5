// Command tripctl runs trip maintenance tasks against the configured
// database without going through the HTTP API.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/database"
	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/gdg-garage/groupy-loopy-api/internal/trips"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tripctl",
		Short:        "Groupy Loopy trip maintenance",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(checkUpcomingCmd())
	rootCmd.AddCommand(renumberCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newService() *trips.Service {
	cfg := config.LoadConfig()
	repo := store.New(database.Connect(cfg))
	dispatcher := push.NewDispatcher(repo, push.NewWebPushSender(cfg))
	return trips.NewService(repo, dispatcher, time.Duration(cfg.ReminderWindowHours)*time.Hour)
}

func checkUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-upcoming",
		Short: "Send push reminders for trips starting soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := newService().CheckUpcoming(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Trips checked:      %d\n", summary.TripsChecked)
			fmt.Printf("Upcoming trips:     %d\n", summary.UpcomingTrips)
			fmt.Printf("Notifications sent: %d\n", summary.NotificationsSent)
			return nil
		},
	}
}

func renumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renumber-trek-days [tripId]",
		Short: "Renumber a trip's trek days 1..n keeping their order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trip id %q", args[0])
			}
			days, err := newService().RenumberTrip(cmd.Context(), uint(tripID))
			if err != nil {
				return err
			}
			for _, d := range days {
				fmt.Printf("  day %d: %s\n", d.DayNumber, d.Title)
			}
			fmt.Printf("Renumbered %d trek days\n", len(days))
			return nil
		},
	}
}
