package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

type EventType string

const (
	EventTypeConference EventType = "Conference"
	EventTypeWorkshop   EventType = "Workshop"
	EventTypeSeminar    EventType = "Seminar"
	EventTypeWebinar    EventType = "Webinar"
	EventTypeMeetup     EventType = "Meetup"
	EventTypeBirthday   EventType = "Birthday"
	EventTypeParty      EventType = "Party"
	EventTypeHomecoming EventType = "Homecoming"
	EventTypeReunion    EventType = "Reunion"
	EventTypeSocial     EventType = "Social"
	EventTypeFestival   EventType = "Festival"
	EventTypeCeremony   EventType = "Ceremony"
)

// EventTypes lists every supported event type in display order.
var EventTypes = []EventType{
	EventTypeConference,
	EventTypeWorkshop,
	EventTypeSeminar,
	EventTypeWebinar,
	EventTypeMeetup,
	EventTypeBirthday,
	EventTypeParty,
	EventTypeHomecoming,
	EventTypeReunion,
	EventTypeSocial,
	EventTypeFestival,
	EventTypeCeremony,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Event struct {
	ID                  string      `gorm:"primaryKey;size:36" json:"id"`
	Title               string      `gorm:"not null" json:"title"`
	Description         string      `json:"description"`
	Location            string      `json:"location"`
	Type                EventType   `gorm:"size:32;index" json:"type"`
	Capacity            int         `gorm:"not null" json:"capacity"`
	EventDate           time.Time   `gorm:"index" json:"event_date"`
	RegistrationCutoff  time.Time   `json:"registration_cutoff"`
	OpenForRegistration bool        `gorm:"not null" json:"open_for_registration"`
	OwnerID             string      `gorm:"size:36;index" json:"owner_id"`
	OwnerName           string      `json:"owner_name"`
	Image               *EventImage `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"image,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`

	// Case-folded title, description and location matched by search.
	SearchText string `gorm:"not null;default:''" json:"-"`

	// Active registrations; filled by queries that select it, never written.
	RegistrationCount int64 `gorm:"->;-:migration" json:"registration_count"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Event) BeforeSave(tx *gorm.DB) error {
	e.SearchText = FoldSearch(strings.Join([]string{e.Title, e.Description, e.Location}, "\n"))
	return nil
}

// FoldSearch normalizes text for case-insensitive matching. Stored search
// text and search terms must both go through it.
func FoldSearch(s string) string {
	return cases.Fold().String(s)
}

type EventImage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	EventID   string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *EventImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
