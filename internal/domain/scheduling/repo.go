package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the scheduling domain.
var (
	ErrNotFound          = errors.New("appointment not found")
	ErrSlotTaken         = errors.New("slot is already booked")
	ErrMissingPatient    = errors.New("patient_id is required")
	ErrMissingDoctor     = errors.New("doctor_id is required")
	ErrMissingDate       = errors.New("date is required")
	ErrMissingSlot       = errors.New("time_slot is required")
	ErrInvalidDate       = errors.New("date must be in YYYY-MM-DD format")
	ErrUnknownSlot       = errors.New("time slot is not on the clinic grid")
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrInvalidTransition = errors.New("appointment status can only move forward")
	ErrNotOwner          = errors.New("patient is not authorized to access this appointment")
	ErrUnknownPatient    = errors.New("no patient record for this user")
)

// ListFilter narrows appointment listings. Nil / empty fields are ignored.
type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *time.Time
	Status    string
}

// AppointmentRepository is the booking ledger. Insert must enforce the
// uniqueness of (doctor_id, appointment_date, time_slot) and return
// ErrSlotTaken when a concurrent booking got there first.
type AppointmentRepository interface {
	Insert(ctx context.Context, a *Appointment) error
	FindByKey(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientDirectory resolves the patient record owned by an authenticated
// user, for scoping patient-role requests to their own bookings.
type PatientDirectory interface {
	PatientIDForUser(ctx context.Context, userID string) (uuid.UUID, error)
}
