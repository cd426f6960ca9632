package store

import (
	"context"
	"fmt"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
)

// Condition is a SQL WHERE fragment over the events table with its
// positional parameters.
type Condition struct {
	Clause string
	Params []any
}

type EventListQuery struct {
	Conditions []Condition
	Offset     int
	Limit      int
}

// ListEvents returns one page of events matching every condition, ordered by
// event date, plus the total number of matches.
func (s *Store) ListEvents(ctx context.Context, q EventListQuery) ([]models.Event, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Event{})
	for _, c := range q.Conditions {
		base = base.Where(c.Clause, c.Params...)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	events := []models.Event{}
	if total == 0 || q.Offset >= int(total) {
		return events, total, nil
	}

	err := withRegistrationCount(base).
		Preload("Image").
		Order("events.event_date asc").
		Order("events.id asc").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}
