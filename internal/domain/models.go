// Package domain defines the persistence models for appointments, customer
// sessions, the conversation log and runtime settings. These types are
// mapped with GORM and shared by the repository and service layers.
package domain

import (
	"time"

	"github.com/tbourn/go-booking-backend/internal/intent"
)

// Appointment statuses.
const (
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// DefaultService is used when a booking arrives without a service label.
const DefaultService = "Corte"

// Appointment is a booked slot.
//
// At most one Confirmed row may exist per (Date, Time). The booking service
// enforces it and the partial unique index ux_appointments_slot_confirmed
// (created in repo.AutoMigrate) backs it up.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Date / Time: calendar date (YYYY-MM-DD) and canonical time (HH:MM).
//   - CustomerName / Phone: who booked; Phone is the conversation key.
//   - Service: free-form label ("Corte + Barba").
//   - Total: optional price.
//   - Status: Confirmed or Cancelled (enforced by DB constraint).
type Appointment struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	Date         string    `json:"date"          gorm:"type:varchar(10);not null;index:idx_appt_slot,priority:1"`
	Time         string    `json:"time"          gorm:"type:varchar(5);not null;index:idx_appt_slot,priority:2"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(128);not null"`
	Phone        string    `json:"phone"         gorm:"type:varchar(32);not null;default:'';index:idx_appt_phone"`
	Service      string    `json:"service"       gorm:"type:varchar(128);not null;default:'Corte'"`
	Total        float64   `json:"total"         gorm:"not null;default:0"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;default:'Confirmed';check:status IN ('Confirmed','Cancelled')"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// Session is the durable conversation state of one customer.
// UpdatedAt is written by the session service from its clock, never by GORM,
// so expiry can be tested deterministically. Turns logged before HistoryFrom
// are not part of the dialogue history any more.
type Session struct {
	CustomerID  string           `json:"customer_id"  gorm:"type:varchar(64);primaryKey"`
	Collected   intent.Collected `json:"collected"    gorm:"type:text;not null;serializer:json"`
	HistoryFrom time.Time        `json:"history_from"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"   gorm:"autoUpdateTime:false;index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Turn roles.
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Message is one logged conversation turn. The most recent rows per
// customer form the dialogue history handed to the reply generator.
type Message struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	CustomerID   string    `json:"customer_id"   gorm:"type:varchar(64);not null;index:idx_customer_msgs,priority:1"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(128);not null;default:''"`
	Role         string    `json:"role"          gorm:"type:varchar(16);not null;check:role IN ('customer','assistant')"`
	Content      string    `json:"content"       gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_customer_msgs,priority:2;index"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Setting is a runtime-editable key/value pair.
type Setting struct {
	Key       string    `json:"key"        gorm:"type:varchar(64);primaryKey"`
	Value     string    `json:"value"      gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }
