// Package services defines the business logic for bookings, conversation
// sessions, availability, settings and the conversation orchestrator.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer (or by the orchestrator for the customer-facing text).
package services

import "errors"

// Booking errors. Calendar validation errors (schedule.ErrInvalidDate,
// schedule.ErrClosedDay, schedule.ErrOutsideHours, schedule.ErrSlotInPast,
// schedule.ErrInvalidTime) are returned unwrapped-compatible via %w.
var (
	// ErrSlotTaken means another Confirmed appointment already holds the slot.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrMissingFields is returned when a booking lacks a customer name.
	ErrMissingFields = errors.New("missing booking fields")

	// ErrAppointmentNotFound indicates that the appointment does not exist.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidStatus is returned for an unknown appointment status filter.
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// Conversation errors.
var (
	// ErrEmptyMessage is returned when an inbound message has no text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrCustomerRequired is returned when no customer identifier is given.
	ErrCustomerRequired = errors.New("customer id is required")
)

// Settings errors.
var (
	// ErrUnknownSetting is returned by updates naming a key that is not
	// editable.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSetting is returned when a value does not parse for its key.
	ErrInvalidSetting = errors.New("invalid setting value")
)
