package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

type EventInput struct {
	Title              string
	Description        string
	Location           string
	Type               models.EventType
	Capacity           int
	EventDate          time.Time
	RegistrationCutoff time.Time
}

// EventPatch holds the fields of an event update. Nil pointers and blank
// strings leave the current value in place.
type EventPatch struct {
	Title               *string
	Description         *string
	Location            *string
	Type                *models.EventType
	Capacity            *int
	EventDate           *time.Time
	RegistrationCutoff  *time.Time
	OpenForRegistration *bool
}

type EventService struct {
	store        *store.Store
	users        UserDirectory
	notifier     Notifier
	ledger       CapacityLedger
	logger       *slog.Logger
	defaultImage string
	now          func() time.Time
}

func NewEventService(s *store.Store, users UserDirectory, notifier Notifier, logger *slog.Logger, defaultImage string) *EventService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		store:        s,
		users:        users,
		notifier:     notifier,
		logger:       logger,
		defaultImage: defaultImage,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a new event owned by the calling admin. The event starts
// open for registration and gets the default image in the same commit.
func (s *EventService) Create(ctx context.Context, caller Caller, in EventInput) (event *models.Event, err error) {
	ctx, span := startSpan(ctx, "core.CreateEvent", attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return nil, ErrNotAdmin
	}
	if err := validateEvent(in); err != nil {
		return nil, err
	}

	owner, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	event = &models.Event{
		Title:               strings.TrimSpace(in.Title),
		Description:         strings.TrimSpace(in.Description),
		Location:            strings.TrimSpace(in.Location),
		Type:                in.Type,
		Capacity:            in.Capacity,
		EventDate:           in.EventDate.UTC(),
		RegistrationCutoff:  in.RegistrationCutoff.UTC(),
		OpenForRegistration: true,
		OwnerID:             owner.ID,
		OwnerName:           owner.Name(),
	}
	image := &models.EventImage{ImageURL: s.defaultImage}

	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		return tx.CreateEvent(event, image)
	})
	if err != nil {
		return nil, err
	}
	event.Image = image

	span.SetAttributes(attribute.String("event.id", event.ID))
	s.logger.InfoContext(ctx, "event created",
		"event_id", event.ID, "owner_id", event.OwnerID, "capacity", event.Capacity)
	return event, nil
}

// Get returns an event with its image and active registration count.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, ErrEventNotFound)
	}
	return event, nil
}

// Update applies a partial update on behalf of the event owner or a
// super-admin.
func (s *EventService) Update(ctx context.Context, caller Caller, eventID string, patch EventPatch) (event *models.Event, err error) {
	ctx, span := startSpan(ctx, "core.UpdateEvent",
		attribute.String("event.id", eventID),
		attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		found, err := tx.LockEvent(eventID)
		if err != nil {
			return err
		}
		if !found {
			return ErrEventNotFound
		}
		if event, err = tx.Event(eventID); err != nil {
			return storeErr(err, ErrEventNotFound)
		}
		if !caller.canManage(event.OwnerID) {
			return ErrForbidden
		}

		if err := applyPatch(event, patch); err != nil {
			return err
		}
		if event.Capacity < 1 {
			return ErrInvalidEvent.WithMessage("capacity must be positive")
		}
		active, err := s.ledger.ActiveCount(tx, eventID)
		if err != nil {
			return err
		}
		if int64(event.Capacity) < active {
			return ErrCapacityBelowRegistrations.WithMessage(
				"capacity %d is below the %d active registrations", event.Capacity, active)
		}
		event.UpdatedAt = s.now()
		return tx.SaveEvent(event)
	})
	if err != nil {
		s.logger.InfoContext(ctx, "event update rejected",
			"event_id", eventID, "user_id", caller.UserID, "reason", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "event updated", "event_id", eventID, "user_id", caller.UserID)
	return event, nil
}

// Delete removes an event with its image and registrations in one commit.
func (s *EventService) Delete(ctx context.Context, caller Caller, eventID string) (event *models.Event, err error) {
	ctx, span := startSpan(ctx, "core.DeleteEvent",
		attribute.String("event.id", eventID),
		attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		found, err := tx.LockEvent(eventID)
		if err != nil {
			return err
		}
		if !found {
			return ErrEventNotFound
		}
		if event, err = tx.Event(eventID); err != nil {
			return storeErr(err, ErrEventNotFound)
		}
		if !caller.canManage(event.OwnerID) {
			return ErrForbidden
		}
		return tx.DeleteEvent(eventID)
	})
	if err != nil {
		s.logger.InfoContext(ctx, "event delete rejected",
			"event_id", eventID, "user_id", caller.UserID, "reason", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "event deleted",
		"event_id", eventID, "user_id", caller.UserID, "registrations", event.RegistrationCount)
	notify(ctx, s.logger, "event_deleted", func(ctx context.Context) error {
		return s.notifier.NotifyEventDeleted(ctx, event)
	})
	return event, nil
}

func (s *EventService) Types() []models.EventType {
	return models.EventTypes
}

func validateEvent(in EventInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return ErrInvalidEvent.WithMessage("title is required")
	case !in.Type.Valid():
		return ErrInvalidEvent.WithMessage("unknown event type %q", in.Type)
	case in.Capacity < 1:
		return ErrInvalidEvent.WithMessage("capacity must be positive")
	case !in.RegistrationCutoff.Before(in.EventDate):
		return ErrInvalidEvent.WithMessage("registration cutoff must be before the event date")
	}
	return nil
}

func applyPatch(event *models.Event, patch EventPatch) error {
	if v, ok := supplied(patch.Title); ok {
		event.Title = v
	}
	if v, ok := supplied(patch.Description); ok {
		event.Description = v
	}
	if v, ok := supplied(patch.Location); ok {
		event.Location = v
	}
	if patch.Type != nil && *patch.Type != "" {
		if !patch.Type.Valid() {
			return ErrInvalidEvent.WithMessage("unknown event type %q", *patch.Type)
		}
		event.Type = *patch.Type
	}
	if patch.Capacity != nil {
		event.Capacity = *patch.Capacity
	}
	if patch.OpenForRegistration != nil {
		event.OpenForRegistration = *patch.OpenForRegistration
	}

	if patch.EventDate != nil || patch.RegistrationCutoff != nil {
		if patch.EventDate != nil {
			event.EventDate = patch.EventDate.UTC()
		}
		if patch.RegistrationCutoff != nil {
			event.RegistrationCutoff = patch.RegistrationCutoff.UTC()
		}
		if !event.RegistrationCutoff.Before(event.EventDate) {
			return ErrInvalidEvent.WithMessage("registration cutoff must be before the event date")
		}
	}
	return nil
}
