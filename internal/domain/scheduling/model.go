package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. An appointment only moves forward through these:
// pending -> confirmed -> completed. Cancellation deletes the row instead of
// using a status, which is what frees the slot.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
)

var statusRank = map[string]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusCompleted: 2,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an appointment may move from one status to
// another. Only strictly forward moves are allowed.
func CanTransition(from, to string) bool {
	f, ok := statusRank[from]
	if !ok {
		return false
	}
	t, ok := statusRank[to]
	if !ok {
		return false
	}
	return t > f
}

// Appointment maps to the appointment table. One row per booked slot; the
// (doctor_id, appointment_date, time_slot) triple is unique.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName string    `db:"patient_name" json:"patient_name,omitempty"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        time.Time `db:"appointment_date" json:"-"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	Status      string    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// appointmentJSON controls the wire shape of Appointment: the date goes out
// as a plain YYYY-MM-DD string.
type appointmentJSON struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Date        string    `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(appointmentJSON{
		ID:          a.ID,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		DoctorID:    a.DoctorID,
		Date:        a.Date.Format("2006-01-02"),
		TimeSlot:    a.TimeSlot,
		Status:      a.Status,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	})
}

// BookingRequest is the payload for creating an appointment.
type BookingRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	TimeSlot  string    `json:"time_slot"`
	Notes     *string   `json:"notes,omitempty"`
}

// StatusUpdateRequest is the payload for moving an appointment forward.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// DaySlot is one entry in a doctor's resolved day schedule: a grid slot plus
// whatever booking occupies it.
type DaySlot struct {
	Time          string     `json:"time"`
	Available     bool       `json:"available"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	PatientName   string     `json:"patient_name,omitempty"`
	Status        string     `json:"status,omitempty"`
}

// DaySchedule is a doctor's complete schedule for one day: exactly one entry
// per grid slot, in chronological order.
type DaySchedule struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []DaySlot `json:"slots"`
}
