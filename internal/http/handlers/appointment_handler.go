// Appointment HTTP handlers.
//
// This file exposes the admin endpoints for appointments and availability:
//   - GET    /appointments              (list, paginated, ETag support)
//   - POST   /appointments              (book through the transactor, idempotent)
//   - GET    /appointments/today        (today's confirmed appointments)
//   - POST   /appointments/{id}/cancel  (cancel)
//   - DELETE /appointments/{id}         (delete)
//   - GET    /availability              (open slots per day)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/http/middleware"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
	"github.com/tbourn/go-booking-backend/internal/utils"
)

// IdempotencyScopeAppointments namespaces Idempotency-Key values of
// POST /appointments.
const IdempotencyScopeAppointments = "appointments"

//
// DTOs
//

// CreateAppointmentRequest is the JSON payload for an admin booking.
type CreateAppointmentRequest struct {
	Date    string  `json:"date"    binding:"required" example:"2025-12-22"`
	Time    string  `json:"time"    binding:"required" example:"10am"`
	Name    string  `json:"name"    binding:"required" example:"Ana"`
	Phone   string  `json:"phone"                      example:"18095551234"`
	Service string  `json:"service"                    example:"Corte + Barba"`
	Total   float64 `json:"total"                      example:"500"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListAppointmentsResponse wraps a page of appointments.
type ListAppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
	Pagination   Pagination           `json:"pagination"`
}

// AppointmentsResponse wraps an unpaginated list.
type AppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
}

// AvailabilityResponse lists the computed days.
type AvailabilityResponse struct {
	Days []schedule.Day `json:"days"`
}

//
// Handlers
//

// ListAppointments godoc
// @ID          listAppointments
// @Summary     List appointments (paginated)
// @Description Returns a page of appointments, optionally filtered by date and status. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Appointments
// @Produce     json
//
// @Param       date           query   string  false "Date (YYYY-MM-DD)"  example(2025-12-22)
// @Param       status         query   string  false "Confirmed or Cancelled"  Enums(Confirmed, Cancelled)
// @Param       phone          query   string  false "Customer phone"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false "ETag from a previous response"
//
// @Success     200  {object}  handlers.ListAppointmentsResponse
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments [get]
func (h *Handlers) ListAppointments(c *gin.Context) {
	ctx := c.Request.Context()
	f := repo.AppointmentFilter{
		Date:   strings.TrimSpace(c.Query("date")),
		Status: strings.TrimSpace(c.Query("status")),
		Phone:  strings.TrimSpace(c.Query("phone")),
	}
	if f.Date != "" {
		if _, err := h.d.Calendar.ParseDate(f.Date); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	// ETag pre-check (best effort).
	if fp, err := h.d.Bookings.Fingerprint(ctx, f); err == nil {
		etag := `W/"appointments:` + fp + `:` + c.Query("page") + `:` + c.Query("page_size") + `"`
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.d.Bookings.ListPage(ctx, f, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Appointment{}
	}
	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListAppointmentsResponse{
		Appointments: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Book an appointment
// @Description Books a slot through the same transactor the assistant uses: the time is normalized, the slot validated against the calendar, and the customer's earlier future bookings are cancelled.
// @Description Supports idempotency via the Idempotency-Key header (same key → same appointment).
// @Tags        Appointments
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateAppointmentRequest  true  "Booking"
//
// @Success     201  {object}  domain.Appointment
// @Success     200  {object}  domain.Appointment      "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot taken"
// @Failure     422  {object}  handlers.ErrorResponse  "Slot outside the calendar"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	if id := middleware.ReplayedResource(c); id != "" {
		if prev, err := h.d.Bookings.Get(ctx, id); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date, time and name are required")
		return
	}

	appt, err := h.d.Bookings.Book(ctx, services.BookingRequest{
		Date:    req.Date,
		Time:    req.Time,
		Name:    req.Name,
		Phone:   req.Phone,
		Service: req.Service,
		Total:   req.Total,
	})
	if err != nil {
		failErr(c, err, ErrCodeBookFailed)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.d.Idempotency != nil {
		if err := h.d.Idempotency.Record(ctx, IdempotencyScopeAppointments, key, appt.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
		}
	}
	ok(c, http.StatusCreated, appt)
}

// TodayAppointments godoc
// @ID          todayAppointments
// @Summary     Today's appointments
// @Description Confirmed appointments for today in the business timezone, ordered by time.
// @Tags        Appointments
// @Produce     json
// @Success     200  {object}  handlers.AppointmentsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/today [get]
func (h *Handlers) TodayAppointments(c *gin.Context) {
	items, err := h.d.Bookings.Today(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Appointment{}
	}
	ok(c, http.StatusOK, AppointmentsResponse{Appointments: items})
}

// CancelAppointment godoc
// @ID          cancelAppointment
// @Summary     Cancel an appointment
// @Tags        Appointments
// @Produce     json
// @Param       id   path      string  true  "Appointment ID"  format(uuid)
// @Success     200  {object}  domain.Appointment
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{id}/cancel [post]
func (h *Handlers) CancelAppointment(c *gin.Context) {
	appt, err := h.d.Bookings.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, appt)
}

// DeleteAppointment godoc
// @ID          deleteAppointment
// @Summary     Delete an appointment
// @Tags        Appointments
// @Param       id   path  string  true  "Appointment ID"  format(uuid)
// @Success     204  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{id} [delete]
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	if err := h.d.Bookings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "")
		return
	}
	noContent(c)
}

// Availability godoc
// @ID          getAvailability
// @Summary     Open slots
// @Description Free, booked and exhausted slots per day from start (default today) for days days (default the configured horizon, at most 31).
// @Tags        Availability
// @Produce     json
// @Param       start  query     string  false "First day (YYYY-MM-DD)"  example(2025-12-22)
// @Param       days   query     int     false "Number of days"  minimum(1) maximum(31)
// @Success     200    {object}  handlers.AvailabilityResponse
// @Failure     400    {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500    {object}  handlers.ErrorResponse  "Internal error"
// @Router      /availability [get]
func (h *Handlers) Availability(c *gin.Context) {
	start := h.d.Clock.Now()
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		d, err := h.d.Calendar.ParseDate(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = d
	}
	days := utils.AtoiDefault(c.Query("days"), 0)
	if days < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days must be positive")
		return
	}

	out, err := h.d.Availability.Compute(c.Request.Context(), start, days)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, AvailabilityResponse{Days: out})
}
