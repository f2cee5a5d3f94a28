package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-booking-backend/internal/schedule"
)

var (
	availabilityStart string
	availabilityDays  int
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Print open slots as the assistant sees them",
	Long: `Print the availability block injected into the assistant's prompt:
one line per day with free hours, or CERRADO / AGOTADO.`,
	Args: cobra.NoArgs,
	RunE: runAvailability,
}

func init() {
	availabilityCmd.Flags().StringVar(&availabilityStart, "start", "", "First day YYYY-MM-DD (default: today in the business timezone)")
	availabilityCmd.Flags().IntVar(&availabilityDays, "days", 0, "Number of days (default: HORIZON_DAYS)")
	rootCmd.AddCommand(availabilityCmd)
}

func runAvailability(cmd *cobra.Command, _ []string) error {
	if availabilityDays < 0 {
		return fmt.Errorf("--days must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	start := a.clock.Now()
	if s := strings.TrimSpace(availabilityStart); s != "" {
		d, err := a.calendar.ParseDate(s)
		if err != nil {
			return err
		}
		start = d
	}
	days, err := a.availability.Compute(ctx, start, availabilityDays)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), schedule.Render(a.calendar, days))
	return nil
}
