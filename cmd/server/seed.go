package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/services"
)

// seedFile is the YAML document accepted by "server seed".
//
//	settings:
//	  business_name: Barbería Z
//	  bot_enabled: "true"
//	appointments:
//	  - {date: 2025-12-22, time: 10am, name: Ana, phone: "18095551234", service: Corte, total: 10}
type seedFile struct {
	Settings     map[string]string `yaml:"settings"`
	Appointments []seedAppointment `yaml:"appointments"`
}

type seedAppointment struct {
	Date    string  `yaml:"date"`
	Time    string  `yaml:"time"`
	Name    string  `yaml:"name"`
	Phone   string  `yaml:"phone"`
	Service string  `yaml:"service"`
	Total   float64 `yaml:"total"`
}

var seedPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load settings and appointments from a YAML file",
	Long: `Load runtime settings and appointments from a YAML file. Settings go
through the same validation as PUT /config; appointments are booked through
the transactor, so past, closed or taken slots are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "seed.yaml", "Path to the seed file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(seedPath)
	if err != nil {
		return err
	}
	defer f.Close()
	seed, err := parseSeed(f)
	if err != nil {
		return fmt.Errorf("%s: %w", seedPath, err)
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

	booked, skipped, err := applySeed(ctx, a.settings, a.bookings, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "settings: %d, appointments booked: %d, skipped: %d\n", len(seed.Settings), booked, skipped)
	return nil
}

// parseSeed decodes a seed document, rejecting unknown fields.
func parseSeed(r io.Reader) (seedFile, error) {
	var s seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return seedFile{}, errors.New("empty seed file")
		}
		return seedFile{}, err
	}
	for i, ap := range s.Appointments {
		if strings.TrimSpace(ap.Date) == "" || strings.TrimSpace(ap.Time) == "" || strings.TrimSpace(ap.Name) == "" {
			return seedFile{}, fmt.Errorf("appointment %d: date, time and name are required", i+1)
		}
	}
	return s, nil
}

type seedSettings interface {
	Update(ctx context.Context, kv map[string]string) (map[string]string, error)
}

type seedBookings interface {
	Book(ctx context.Context, req services.BookingRequest) (*domain.Appointment, error)
}

// applySeed writes settings in one validated update and books appointments
// one by one. Validation and conflict errors skip the appointment; storage
// errors abort.
func applySeed(ctx context.Context, settings seedSettings, bookings seedBookings, s seedFile) (booked, skipped int, err error) {
	if len(s.Settings) > 0 {
		if _, err := settings.Update(ctx, s.Settings); err != nil {
			return 0, 0, fmt.Errorf("settings: %w", err)
		}
	}
	for _, ap := range s.Appointments {
		_, err := bookings.Book(ctx, services.BookingRequest{
			Date:    ap.Date,
			Time:    ap.Time,
			Name:    ap.Name,
			Phone:   ap.Phone,
			Service: ap.Service,
			Total:   ap.Total,
		})
		switch {
		case err == nil:
			booked++
		case errors.Is(err, services.ErrSlotTaken) || services.IsValidationError(err):
			skipped++
			log.Warn().Err(err).Str("date", ap.Date).Str("slot_time", ap.Time).Msg("seed appointment skipped")
		default:
			return booked, skipped, err
		}
	}
	return booked, skipped, nil
}
