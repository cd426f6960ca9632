package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationFields is the attendee contact snapshot, shared by a
// registration and its history entries.
type RegistrationFields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Canceled bool   `gorm:"not null;default:false" json:"canceled"`
}

type Registration struct {
	ID                 string `gorm:"primaryKey;size:36" json:"id"`
	EventID            string `gorm:"size:36;index;not null" json:"event_id"`
	UserID             string `gorm:"size:36;index;not null" json:"user_id"`
	RegistrationFields `gorm:"embedded"`
	RegisteredAt       time.Time  `json:"registered_at"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
