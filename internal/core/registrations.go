package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ContactInput carries optional contact fields. Nil or blank values are not
// supplied.
type ContactInput struct {
	Name  *string
	Email *string
	Phone *string
}

type RegistrationService struct {
	store    *store.Store
	users    UserDirectory
	notifier Notifier
	ledger   CapacityLedger
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistrationService(s *store.Store, users UserDirectory, notifier Notifier, logger *slog.Logger) *RegistrationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		store:    s,
		users:    users,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register admits the caller to an event. Contact fields that are not
// supplied are copied from the caller's profile.
func (s *RegistrationService) Register(ctx context.Context, caller Caller, eventID string, in ContactInput) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "core.Register",
		attribute.String("event.id", eventID),
		attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	// Resolved before the transaction so no lock is held across the lookup.
	user, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	now := s.now()
	reg = &models.Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       caller.UserID,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	reg.Name = pick(in.Name, user.Name())
	reg.Email = pick(in.Email, user.Email)
	reg.Phone = pick(in.Phone, user.Phone)

	var event *models.Event
	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		var res Reservation
		var err error
		event, res, err = s.ledger.TryReserveSlot(tx, reg, func(event *models.Event) error {
			if err := checkWindow(event, now); err != nil {
				return err
			}
			active, err := tx.HasActiveRegistration(eventID, caller.UserID)
			if err != nil {
				return err
			}
			if active {
				return ErrAlreadyRegistered
			}
			return nil
		})
		if err != nil {
			return err
		}
		switch res {
		case CapacityFull:
			return ErrCapacityFull
		case EventNotFound:
			return ErrEventNotFound
		}

		return tx.AppendHistory(reg, models.HistoryRegistered, caller.UserID, now)
	})
	if err != nil {
		s.logger.InfoContext(ctx, "registration rejected",
			"event_id", eventID, "user_id", caller.UserID, "reason", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("registration.id", reg.ID))
	s.logger.InfoContext(ctx, "registration admitted",
		"event_id", eventID, "registration_id", reg.ID, "user_id", caller.UserID,
		"active", event.RegistrationCount, "capacity", event.Capacity)

	notify(ctx, s.logger, "registered", func(ctx context.Context) error {
		return s.notifier.NotifyRegistered(ctx, event, reg)
	})
	return reg, nil
}

// Cancel cancels an active registration and frees its slot.
func (s *RegistrationService) Cancel(ctx context.Context, caller Caller, registrationID string) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "core.Cancel",
		attribute.String("registration.id", registrationID),
		attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	now := s.now()
	var event *models.Event
	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		if reg, err = tx.Registration(registrationID); err != nil {
			return storeErr(err, ErrRegistrationNotFound)
		}
		if !caller.canManage(reg.UserID) {
			return ErrForbidden
		}
		if reg.Canceled {
			return ErrAlreadyCanceled
		}

		released, err := s.ledger.ReleaseSlot(tx, reg.ID, now)
		if err != nil {
			return err
		}
		if !released {
			return ErrAlreadyCanceled
		}
		reg.Canceled = true
		reg.CanceledAt = &now
		reg.UpdatedAt = now

		if err := tx.AppendHistory(reg, models.HistoryCanceled, caller.UserID, now); err != nil {
			return err
		}
		if event, err = tx.Event(reg.EventID); err != nil {
			return storeErr(err, ErrEventNotFound)
		}
		return nil
	})
	if err != nil {
		s.logger.InfoContext(ctx, "cancel rejected",
			"registration_id", registrationID, "user_id", caller.UserID, "reason", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration canceled",
		"event_id", reg.EventID, "registration_id", reg.ID, "user_id", reg.UserID, "actor_id", caller.UserID)

	notify(ctx, s.logger, "canceled", func(ctx context.Context) error {
		return s.notifier.NotifyCanceled(ctx, event, reg)
	})
	return reg, nil
}

// UpdateContactInfo overwrites the supplied contact fields of an active
// registration while its event still accepts registrations.
func (s *RegistrationService) UpdateContactInfo(ctx context.Context, caller Caller, registrationID string, in ContactInput) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "core.UpdateContactInfo",
		attribute.String("registration.id", registrationID),
		attribute.String("user.id", caller.UserID))
	defer func() { endSpan(span, err) }()

	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	now := s.now()
	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		if reg, err = tx.Registration(registrationID); err != nil {
			return storeErr(err, ErrRegistrationNotFound)
		}
		if !caller.canManage(reg.UserID) {
			return ErrForbidden
		}
		if reg.Canceled {
			return ErrAlreadyCanceled
		}

		event, err := tx.Event(reg.EventID)
		if err != nil {
			return storeErr(err, ErrEventNotFound)
		}
		if err := checkWindow(event, now); err != nil {
			return err
		}

		reg.Name = pick(in.Name, reg.Name)
		reg.Email = pick(in.Email, reg.Email)
		reg.Phone = pick(in.Phone, reg.Phone)
		reg.UpdatedAt = now

		updated, err := tx.UpdateContact(reg)
		if err != nil {
			return err
		}
		if !updated {
			return ErrAlreadyCanceled
		}
		return tx.AppendHistory(reg, models.HistoryUpdated, caller.UserID, now)
	})
	if err != nil {
		s.logger.InfoContext(ctx, "update rejected",
			"registration_id", registrationID, "user_id", caller.UserID, "reason", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration updated",
		"event_id", reg.EventID, "registration_id", reg.ID, "user_id", reg.UserID, "actor_id", caller.UserID)
	return reg, nil
}

// Get returns a registration to its owner, the event owner or a super-admin.
func (s *RegistrationService) Get(ctx context.Context, caller Caller, registrationID string) (*models.Registration, error) {
	reg, err := s.readable(ctx, caller, registrationID, true)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListForEvent returns the roster of an event to its owner or a super-admin.
func (s *RegistrationService) ListForEvent(ctx context.Context, caller Caller, eventID string) ([]models.Registration, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, ErrEventNotFound)
	}
	if !caller.canManage(event.OwnerID) {
		return nil, ErrForbidden
	}
	return s.store.EventRegistrations(ctx, eventID)
}

// ListForUser returns every registration of a user to that user or a
// super-admin.
func (s *RegistrationService) ListForUser(ctx context.Context, caller Caller, userID string) ([]models.Registration, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !caller.canManage(userID) {
		return nil, ErrForbidden
	}
	return s.store.UserRegistrations(ctx, userID)
}

// FieldsDiff holds contact fields of a history entry. With diffing enabled a
// nil field means unchanged from the previous entry.
type FieldsDiff struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Canceled *bool   `json:"canceled,omitempty"`
}

type HistoryEntry struct {
	ID        string               `json:"id"`
	Action    models.HistoryAction `json:"action"`
	ActorID   string               `json:"actor_id"`
	Fields    FieldsDiff           `json:"fields"`
	CreatedAt time.Time            `json:"created_at"`
}

// History returns the snapshots of a registration, newest first. With diff
// set, each entry only carries the fields that changed since the entry
// before it; the oldest entry is always complete.
func (s *RegistrationService) History(ctx context.Context, caller Caller, registrationID string, diff bool) ([]HistoryEntry, error) {
	if _, err := s.readable(ctx, caller, registrationID, false); err != nil {
		return nil, err
	}

	snapshots, err := s.store.History(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(snapshots))
	for i, h := range snapshots {
		entry := HistoryEntry{
			ID:        h.ID,
			Action:    h.Action,
			ActorID:   h.ActorID,
			CreatedAt: h.CreatedAt,
		}

		var prev *models.RegistrationFields
		if diff && i+1 < len(snapshots) {
			prev = &snapshots[i+1].RegistrationFields
		}
		cur := h.RegistrationFields
		if prev == nil || cur.Name != prev.Name {
			entry.Fields.Name = &cur.Name
		}
		if prev == nil || cur.Email != prev.Email {
			entry.Fields.Email = &cur.Email
		}
		if prev == nil || cur.Phone != prev.Phone {
			entry.Fields.Phone = &cur.Phone
		}
		if prev == nil || cur.Canceled != prev.Canceled {
			entry.Fields.Canceled = &cur.Canceled
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// readable loads a registration the caller may see. Event owners can read
// registrations of their events only when allowEventOwner is set.
func (s *RegistrationService) readable(ctx context.Context, caller Caller, registrationID string, allowEventOwner bool) (*models.Registration, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	reg, err := s.store.Registration(ctx, registrationID)
	if err != nil {
		return nil, storeErr(err, ErrRegistrationNotFound)
	}
	if caller.canManage(reg.UserID) {
		return reg, nil
	}
	if allowEventOwner {
		event, err := s.store.Event(ctx, reg.EventID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if event != nil && event.OwnerID == caller.UserID {
			return reg, nil
		}
	}
	return nil, ErrForbidden
}

func pick(in *string, fallback string) string {
	if v, ok := supplied(in); ok {
		return v
	}
	return fallback
}
