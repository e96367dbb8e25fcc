package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller for operations that are scoped
// by role.
type Actor struct {
	UserID string
	Role   string
}

// Service implements the scheduling operations: resolving day schedules,
// admitting bookings, moving appointments forward and cancelling them.
type Service struct {
	repo     AppointmentRepository
	patients PatientDirectory
	grid     *Grid
}

func NewService(repo AppointmentRepository, patients PatientDirectory, grid *Grid) *Service {
	return &Service{repo: repo, patients: patients, grid: grid}
}

// Grid returns the clinic slot grid the service resolves schedules against.
func (s *Service) Grid() *Grid {
	return s.grid
}

func parseDate(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, ErrMissingDate
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// DaySchedule resolves a doctor's schedule for one day. The result always
// has exactly one entry per grid slot, whether or not anything is booked;
// booked slots carry the appointment ID, patient name and status. The ledger
// is read once for the whole day.
func (s *Service) DaySchedule(ctx context.Context, doctorID uuid.UUID, date string) (*DaySchedule, error) {
	if doctorID == uuid.Nil {
		return nil, ErrMissingDoctor
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.ListForDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}

	bookedBySlot := make(map[string]*Appointment, len(booked))
	for _, a := range booked {
		bookedBySlot[a.TimeSlot] = a
	}

	sched := &DaySchedule{
		DoctorID: doctorID,
		Date:     day.Format("2006-01-02"),
		Slots:    make([]DaySlot, 0, s.grid.Len()),
	}
	for _, slot := range s.grid.Slots() {
		entry := DaySlot{Time: slot, Available: true}
		if a, ok := bookedBySlot[slot]; ok {
			entry.Available = false
			id := a.ID
			entry.AppointmentID = &id
			entry.PatientName = a.PatientName
			entry.Status = a.Status
		}
		sched.Slots = append(sched.Slots, entry)
	}
	return sched, nil
}

// Book admits a booking request. Validation and an advisory availability
// pre-check run first, but the ledger's unique constraint is what actually
// decides races: a concurrent booking of the same slot surfaces as
// ErrSlotTaken no matter which check catches it. Patients can only book for
// their own patient record.
func (s *Service) Book(ctx context.Context, actor Actor, req BookingRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, ErrMissingDoctor
	}
	if req.TimeSlot == "" {
		return nil, ErrMissingSlot
	}
	if !s.grid.Contains(req.TimeSlot) {
		return nil, ErrUnknownSlot
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	patientID := req.PatientID
	if actor.Role == "patient" {
		patientID, err = s.patients.PatientIDForUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
	}
	if patientID == uuid.Nil {
		return nil, ErrMissingPatient
	}

	// Advisory pre-check for a friendly early answer. The unique index still
	// backstops concurrent bookings that pass this check simultaneously.
	existing, err := s.repo.FindByKey(ctx, req.DoctorID, day, req.TimeSlot)
	if err == nil && existing != nil {
		return nil, ErrSlotTaken
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check slot availability: %w", err)
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      day,
		TimeSlot:  req.TimeSlot,
		Status:    StatusPending,
		Notes:     req.Notes,
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return a, nil
}

// Get returns a single appointment. Patients only see their own.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, actor, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns appointments matching the filter. Patient-role callers are
// always scoped to their own patient record and doctor-role callers to their
// own schedule, regardless of the filter. A patient user with no linked
// patient record simply has no appointments.
func (s *Service) List(ctx context.Context, actor Actor, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, ErrInvalidStatus
	}
	switch actor.Role {
	case "patient":
		pid, err := s.patients.PatientIDForUser(ctx, actor.UserID)
		if errors.Is(err, ErrUnknownPatient) {
			return []*Appointment{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		f.PatientID = &pid
	case "doctor":
		id, err := uuid.Parse(actor.UserID)
		if err != nil {
			return []*Appointment{}, 0, nil
		}
		f.DoctorID = &id
	}
	return s.repo.List(ctx, f, limit, offset)
}

// UpdateStatus moves an appointment forward: pending -> confirmed ->
// completed. Backward and repeated transitions are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, status) {
		return nil, ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Cancel deletes an appointment, freeing its slot for rebooking. Patients
// may only cancel their own appointments.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(ctx, actor, a); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkOwnership(ctx context.Context, actor Actor, a *Appointment) error {
	if actor.Role != "patient" {
		return nil
	}
	pid, err := s.patients.PatientIDForUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if a.PatientID != pid {
		return ErrNotOwner
	}
	return nil
}
