package crm

import "errors"

var (
	// ErrExternalAppointment means the target appointment is read-only
	// calendar data and can never change status.
	ErrExternalAppointment = errors.New("external calendar events cannot change status")

	// ErrSameStatus means the requested status equals the current one.
	// The transition performs no write in that case.
	ErrSameStatus = errors.New("appointment is already in that status")

	// ErrInvalidTarget means the requested status is not a valid outcome.
	ErrInvalidTarget = errors.New("invalid target status")
)

// StatusWriter persists a status change for a local appointment.
type StatusWriter interface {
	UpdateAppointmentStatus(id string, status AppointmentStatus) error
}

// ValidateTransition checks whether app may move to target without touching
// storage. Only local appointments may transition, the only valid outcomes
// are completed, canceled and no-show, and a transition to the current status
// is rejected as a no-op rather than silently succeeding.
func ValidateTransition(app Appointment, target AppointmentStatus) error {
	if app.IsExternal() {
		return ErrExternalAppointment
	}
	switch target {
	case StatusCompleted, StatusCanceled, StatusNoShow:
	default:
		return ErrInvalidTarget
	}
	if app.Status == target {
		return ErrSameStatus
	}
	return nil
}

// Transition applies a status change to a local appointment. Validation runs
// before any I/O; on a write failure no state has changed and the caller must
// not assume the transition occurred. On success the caller is expected to
// re-fetch rather than patch its in-memory view.
func Transition(w StatusWriter, app Appointment, target AppointmentStatus) error {
	if err := ValidateTransition(app, target); err != nil {
		return err
	}
	return w.UpdateAppointmentStatus(app.ID, target)
}
