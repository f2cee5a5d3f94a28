// Package services – BookingService
//
// BookingService is the only writer of Confirmed appointments. A booking
// validates the slot against the business calendar, then checks the slot,
// supersedes the customer's earlier future bookings and inserts the new row
// in one transaction. Same-slot requests are serialized by an in-process
// keyed lock; the partial unique index on (date, time) turns any
// cross-process race into ErrSlotTaken as well.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/observability"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// minPhoneLen is the shortest phone that supersedes earlier bookings.
// Shorter values are placeholders typed by staff.
const minPhoneLen = 6

// BookingRequest is the input of Book. Time may be any form the time
// normalizer accepts.
type BookingRequest struct {
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	Name    string  `json:"customer_name"`
	Phone   string  `json:"phone"`
	Service string  `json:"service"`
	Total   float64 `json:"total"`
}

// BookingService books, cancels and lists appointments.
type BookingService struct {
	DB       *gorm.DB
	Calendar schedule.Calendar
	Clock    clock.Clock
	Retry    RetryPolicy

	locks keyedMutex
}

// NewBookingService constructs a BookingService with the default retry
// policy.
func NewBookingService(db *gorm.DB, cal schedule.Calendar, clk clock.Clock) *BookingService {
	if clk == nil {
		clk = clock.System{}
	}
	return &BookingService{DB: db, Calendar: cal, Clock: clk, Retry: DefaultRetryPolicy}
}

// Book validates req and creates a Confirmed appointment. It returns
// ErrSlotTaken when the slot is held, leaving no side effects.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (appt *domain.Appointment, err error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Book",
		trace.WithAttributes(
			attribute.String("booking.date", req.Date),
			attribute.String("booking.time", req.Time),
		),
	)
	defer func() {
		observability.BookingsTotal.WithLabelValues(bookingOutcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Date = strings.TrimSpace(req.Date)
	req.Service = strings.TrimSpace(req.Service)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: customer name", ErrMissingFields)
	}
	if req.Service == "" {
		req.Service = domain.DefaultService
	}

	hhmm, err := schedule.Normalize(req.Time, s.Calendar)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if err := s.Calendar.ValidateSlot(req.Date, hhmm, now); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.Date + "|" + hhmm)
	defer unlock()

	return retry(ctx, s.Retry, repo.IsBusy, func(ctx context.Context) (*domain.Appointment, error) {
		return s.bookTx(ctx, req, hhmm, now)
	})
}

func (s *BookingService) bookTx(ctx context.Context, req BookingRequest, hhmm string, now time.Time) (*domain.Appointment, error) {
	var out *domain.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.FindConfirmedAt(ctx, tx, req.Date, hhmm); err == nil {
			return ErrSlotTaken
		} else if !repo.IsNotFound(err) {
			return err
		}

		if len(req.Phone) >= minPhoneLen {
			n, err := repo.CancelActiveForPhone(ctx, tx, req.Phone, s.Calendar.Today(now), now.UTC())
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info().Str("phone", req.Phone).Int64("cancelled", n).Msg("superseded earlier appointments")
			}
		}

		a := &domain.Appointment{
			Date:         req.Date,
			Time:         hhmm,
			CustomerName: req.Name,
			Phone:        req.Phone,
			Service:      req.Service,
			Total:        req.Total,
			Status:       domain.StatusConfirmed,
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		}
		if err := repo.CreateAppointment(ctx, tx, a); err != nil {
			if repo.IsDuplicate(err) {
				return ErrSlotTaken
			}
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("appointment_id", out.ID).Str("date", out.Date).Str("slot_time", out.Time).Msg("appointment booked")
	return out, nil
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case IsValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}

// IsValidationError reports whether err rejects the request itself rather
// than signalling a storage failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMissingFields,
		schedule.ErrInvalidTime,
		schedule.ErrInvalidDate,
		schedule.ErrClosedDay,
		schedule.ErrOutsideHours,
		schedule.ErrSlotInPast,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Get returns an appointment or ErrAppointmentNotFound.
func (s *BookingService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := repo.GetAppointment(ctx, s.DB, id)
	if repo.IsNotFound(err) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

// Cancel marks an appointment Cancelled.
func (s *BookingService) Cancel(ctx context.Context, id string) (*domain.Appointment, error) {
	err := repo.SetAppointmentStatus(ctx, s.DB, id, domain.StatusCancelled, s.Clock.Now().UTC())
	if repo.IsNotFound(err) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an appointment permanently.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	err := repo.DeleteAppointment(ctx, s.DB, id)
	if repo.IsNotFound(err) {
		return ErrAppointmentNotFound
	}
	return err
}

// ListPage returns a page of appointments matching f and the total count.
// It applies defaults for invalid page/pageSize.
func (s *BookingService) ListPage(ctx context.Context, f repo.AppointmentFilter, page, pageSize int) ([]domain.Appointment, int64, error) {
	if f.Status != "" && f.Status != domain.StatusConfirmed && f.Status != domain.StatusCancelled {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := repo.CountAppointments(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Appointment{}, 0, nil
	}
	items, err := repo.ListAppointmentsPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Fingerprint identifies the current state of the appointments matching f.
// It changes whenever a matching row is added, removed or updated and is
// used as a weak ETag by the listing endpoint.
func (s *BookingService) Fingerprint(ctx context.Context, f repo.AppointmentFilter) (string, error) {
	count, maxTS, err := repo.AppointmentsStats(ctx, s.DB, f)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf("%s:%s:%d:%d", f.Date, f.Status, count, ts), nil
}

// Today lists today's Confirmed appointments in the business timezone.
func (s *BookingService) Today(ctx context.Context) ([]domain.Appointment, error) {
	f := repo.AppointmentFilter{Date: s.Calendar.Today(s.Clock.Now()), Status: domain.StatusConfirmed}
	return repo.ListAppointmentsPage(ctx, s.DB, f, 0, 0)
}
