// Package store is the gorm-backed entity store for events, registrations
// and users.
//
// Every state transition goes through Transact, which runs a callback inside a
// single database transaction bound to the caller's context: the callback's
// writes are committed together or not at all.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transact runs fn in one transaction. The transaction is rolled back when fn
// returns an error or ctx is done before commit.
func (s *Store) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// GetUser implements the user directory lookup used to backfill contact fields.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Event loads an event with its image and active registration count.
func (s *Store) Event(ctx context.Context, id string) (*models.Event, error) {
	return loadEvent(s.db.WithContext(ctx), id)
}

// Registration loads a single registration.
func (s *Store) Registration(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// EventRegistrations lists every registration of an event, oldest first.
func (s *Store) EventRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at asc").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	return regs, nil
}

// UserRegistrations lists every registration of a user, newest first.
func (s *Store) UserRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registered_at desc").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return regs, nil
}

// History lists the snapshots of a registration, newest first.
func (s *Store) History(ctx context.Context, registrationID string) ([]models.RegistrationHistory, error) {
	var history []models.RegistrationHistory
	err := s.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("created_at desc").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("list registration history: %w", err)
	}
	return history, nil
}

func loadEvent(db *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	err := withRegistrationCount(db.Model(&models.Event{})).
		Preload("Image").
		Where("events.id = ?", id).
		Take(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// withRegistrationCount selects the active registration count next to the
// event columns so the count is always derived from the registration rows.
func withRegistrationCount(db *gorm.DB) *gorm.DB {
	return db.Select(`events.*, (
		SELECT COUNT(*) FROM registrations r
		WHERE r.event_id = events.id AND r.canceled = false
	) AS registration_count`)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
