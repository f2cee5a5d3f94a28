// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them rather
// than on messages. writeError maps service and calendar errors onto them.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "slot_taken",
//	  "message": "slot already taken"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeSlotTaken      = "slot_taken"
	ErrCodeInvalidSlot    = "invalid_slot"
	ErrCodeMissingFields  = "missing_fields"
	ErrCodeInvalidSetting = "invalid_setting"
	ErrCodeBookFailed     = "book_failed"
	ErrCodeListFailed     = "list_failed"
)

// errorStatus resolves err to an HTTP status and code. Unknown errors are
// internal; fallbackCode names the failed operation in that case.
func errorStatus(err error, fallbackCode string) (int, string) {
	switch {
	case errors.Is(err, services.ErrSlotTaken):
		return http.StatusConflict, ErrCodeSlotTaken
	case errors.Is(err, services.ErrMissingFields):
		return http.StatusBadRequest, ErrCodeMissingFields
	case errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrClosedDay),
		errors.Is(err, schedule.ErrOutsideHours),
		errors.Is(err, schedule.ErrSlotInPast):
		return http.StatusUnprocessableEntity, ErrCodeInvalidSlot
	case errors.Is(err, services.ErrAppointmentNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrCustomerRequired),
		errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrUnknownSetting),
		errors.Is(err, services.ErrInvalidSetting):
		return http.StatusBadRequest, ErrCodeInvalidSetting
	}
	if fallbackCode == "" {
		fallbackCode = ErrCodeInternal
	}
	return http.StatusInternalServerError, fallbackCode
}
