package store

import (
	"fmt"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is the view of the store inside a Transact callback. It must not be
// used after the callback returns.
type Tx struct {
	db *gorm.DB
}

// LockEvent takes the write lock on an event row for the rest of the
// transaction. It reports false when the event does not exist.
func (t *Tx) LockEvent(id string) (bool, error) {
	res := t.db.Exec(`UPDATE events SET capacity = capacity WHERE id = ?`, id)
	if res.Error != nil {
		return false, fmt.Errorf("lock event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Event loads an event with its image and active registration count.
func (t *Tx) Event(id string) (*models.Event, error) {
	return loadEvent(t.db, id)
}

// ActiveCount counts the non-canceled registrations of an event.
func (t *Tx) ActiveCount(eventID string) (int64, error) {
	var count int64
	err := t.db.Model(&models.Registration{}).
		Where("event_id = ? AND canceled = ?", eventID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return count, nil
}

// HasActiveRegistration reports whether userID holds a non-canceled
// registration for eventID.
func (t *Tx) HasActiveRegistration(eventID, userID string) (bool, error) {
	var count int64
	err := t.db.Model(&models.Registration{}).
		Where("event_id = ? AND user_id = ? AND canceled = ?", eventID, userID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return count > 0, nil
}

// InsertRegistrationIfRoom inserts reg only while the event's active
// registration count is below its capacity, in a single statement. It
// reports false when nothing was inserted, either because the event is full
// or because it does not exist.
func (t *Tx) InsertRegistrationIfRoom(reg *models.Registration) (bool, error) {
	res := t.db.Exec(`INSERT INTO registrations
		(id, event_id, user_id, name, email, phone, canceled, registered_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, false, ?, ?
		WHERE (SELECT COUNT(*) FROM registrations WHERE event_id = ? AND canceled = false)
			< (SELECT capacity FROM events WHERE id = ?)`,
		reg.ID, reg.EventID, reg.UserID, reg.Name, reg.Email, reg.Phone, reg.RegisteredAt, reg.UpdatedAt,
		reg.EventID, reg.EventID,
	)
	if res.Error != nil {
		return false, fmt.Errorf("insert registration: %w", translate(res.Error))
	}
	return res.RowsAffected == 1, nil
}

// Registration loads a registration inside the transaction.
func (t *Tx) Registration(id string) (*models.Registration, error) {
	var reg models.Registration
	if err := t.db.First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// CancelRegistration flips an active registration to canceled. It reports
// false when the registration was already canceled or does not exist.
func (t *Tx) CancelRegistration(id string, at time.Time) (bool, error) {
	res := t.db.Model(&models.Registration{}).
		Where("id = ? AND canceled = ?", id, false).
		Updates(map[string]any{"canceled": true, "canceled_at": at, "updated_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("cancel registration: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateContact overwrites the contact snapshot of an active registration.
func (t *Tx) UpdateContact(reg *models.Registration) (bool, error) {
	res := t.db.Model(&models.Registration{}).
		Where("id = ? AND canceled = ?", reg.ID, false).
		Updates(map[string]any{
			"name":       reg.Name,
			"email":      reg.Email,
			"phone":      reg.Phone,
			"updated_at": reg.UpdatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update registration: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AppendHistory snapshots reg as it stands after action.
func (t *Tx) AppendHistory(reg *models.Registration, action models.HistoryAction, actorID string, at time.Time) error {
	entry := models.RegistrationHistory{
		RegistrationID:     reg.ID,
		EventID:            reg.EventID,
		UserID:             reg.UserID,
		ActorID:            actorID,
		Action:             action,
		RegistrationFields: reg.RegistrationFields,
		CreatedAt:          at,
	}
	if err := t.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("append registration history: %w", err)
	}
	return nil
}

// CreateEvent inserts an event together with its image.
func (t *Tx) CreateEvent(event *models.Event, image *models.EventImage) error {
	if err := t.db.Omit(clause.Associations).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", translate(err))
	}
	image.EventID = event.ID
	if err := t.db.Create(image).Error; err != nil {
		return fmt.Errorf("create event image: %w", translate(err))
	}
	return nil
}

// SaveEvent writes every column of an existing event.
func (t *Tx) SaveEvent(event *models.Event) error {
	if err := t.db.Omit(clause.Associations).Save(event).Error; err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event with its image, registrations and history.
func (t *Tx) DeleteEvent(id string) error {
	steps := []struct {
		what  string
		model any
		where string
	}{
		{"registration history", &models.RegistrationHistory{}, "event_id = ?"},
		{"registrations", &models.Registration{}, "event_id = ?"},
		{"event image", &models.EventImage{}, "event_id = ?"},
		{"event", &models.Event{}, "id = ?"},
	}
	for _, step := range steps {
		if err := t.db.Where(step.where, id).Delete(step.model).Error; err != nil {
			return fmt.Errorf("delete %s: %w", step.what, err)
		}
	}
	return nil
}
