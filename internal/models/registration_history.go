package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryAction string

const (
	HistoryRegistered HistoryAction = "registered"
	HistoryUpdated    HistoryAction = "updated"
	HistoryCanceled   HistoryAction = "canceled"
)

type RegistrationHistory struct {
	ID                 string        `gorm:"primaryKey;size:36" json:"id"`
	RegistrationID     string        `gorm:"size:36;index;not null" json:"registration_id"`
	EventID            string        `gorm:"size:36;index;not null" json:"event_id"`
	UserID             string        `gorm:"size:36;not null" json:"user_id"`
	ActorID            string        `gorm:"size:36" json:"actor_id"`
	Action             HistoryAction `gorm:"size:16;not null" json:"action"`
	RegistrationFields `gorm:"embedded"`
	CreatedAt          time.Time `json:"created_at"`
}

func (h *RegistrationHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
