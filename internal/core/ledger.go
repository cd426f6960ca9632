package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
)

// Reservation is the outcome of a slot reservation.
type Reservation int

const (
	Admitted Reservation = iota
	CapacityFull
	EventNotFound
)

func (r Reservation) String() string {
	switch r {
	case Admitted:
		return "admitted"
	case CapacityFull:
		return "capacity_full"
	default:
		return "event_not_found"
	}
}

// CapacityLedger admits registrations only while an event has free capacity.
// The active count is always read from the registration rows.
type CapacityLedger struct{}

// TryReserveSlot write-locks the event, runs admit against the locked event
// and then inserts reg if the event has fewer active registrations than its
// capacity. The check and the insert happen in one statement inside tx, so
// two reservations can never both take the last slot. The event is returned
// whenever it exists.
func (CapacityLedger) TryReserveSlot(tx *store.Tx, reg *models.Registration, admit func(*models.Event) error) (*models.Event, Reservation, error) {
	found, err := tx.LockEvent(reg.EventID)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, EventNotFound, nil
	}
	event, err := tx.Event(reg.EventID)
	if err != nil {
		return nil, 0, storeErr(err, ErrEventNotFound)
	}
	if admit != nil {
		if err := admit(event); err != nil {
			return event, 0, err
		}
	}

	inserted, err := tx.InsertRegistrationIfRoom(reg)
	if errors.Is(err, store.ErrDuplicate) {
		return event, 0, ErrAlreadyRegistered
	}
	if err != nil {
		return event, 0, err
	}
	if !inserted {
		return event, CapacityFull, nil
	}
	event.RegistrationCount++
	return event, Admitted, nil
}

// ReleaseSlot cancels an active registration. It reports false when the
// registration was already canceled.
func (CapacityLedger) ReleaseSlot(tx *store.Tx, registrationID string, at time.Time) (bool, error) {
	released, err := tx.CancelRegistration(registrationID, at)
	if err != nil {
		return false, fmt.Errorf("release slot: %w", err)
	}
	return released, nil
}

// ActiveCount counts the active registrations of an event. Callers hold the
// event lock so the count cannot change before they commit.
func (CapacityLedger) ActiveCount(tx *store.Tx, eventID string) (int64, error) {
	return tx.ActiveCount(eventID)
}
