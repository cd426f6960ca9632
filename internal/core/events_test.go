package core

import (
	"context"
	"testing"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	user := e.user(t, "u1", models.RoleUser)

	now := time.Now()
	input := EventInput{
		Title:              "  Go workshop ",
		Type:               models.EventTypeWorkshop,
		Capacity:           20,
		EventDate:          now.Add(48 * time.Hour),
		RegistrationCutoff: now.Add(24 * time.Hour),
	}

	t.Run("Admin", func(t *testing.T) {
		event, err := e.events.Create(ctx, admin, input)
		require.NoError(t, err)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "Go workshop", event.Title)
		assert.True(t, event.OpenForRegistration)
		assert.Equal(t, admin.UserID, event.OwnerID)
		assert.Equal(t, "Display admin", event.OwnerName)

		loaded, err := e.events.Get(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.Image)
		assert.Equal(t, "https://img.example/default.png", loaded.Image.ImageURL)
		assert.Zero(t, loaded.RegistrationCount)
	})

	t.Run("NotAdmin", func(t *testing.T) {
		_, err := e.events.Create(ctx, user, input)
		assert.ErrorIs(t, err, ErrNotAdmin)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("Anonymous", func(t *testing.T) {
		_, err := e.events.Create(ctx, Caller{}, input)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := map[string]func(in *EventInput){
			"BlankTitle":      func(in *EventInput) { in.Title = " " },
			"UnknownType":     func(in *EventInput) { in.Type = "Hackathon" },
			"ZeroCapacity":    func(in *EventInput) { in.Capacity = 0 },
			"CutoffAfterDate": func(in *EventInput) { in.RegistrationCutoff = in.EventDate },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				in := input
				mutate(&in)
				_, err := e.events.Create(ctx, admin, in)
				assert.ErrorIs(t, err, ErrInvalidEvent)
				assert.Equal(t, KindInvalid, KindOf(err))
			})
		}
	})
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	owner := e.user(t, "owner", models.RoleAdmin)
	otherAdmin := e.user(t, "other", models.RoleAdmin)
	super := e.user(t, "super", models.RoleSuperAdmin)
	user := e.user(t, "u1", models.RoleUser)
	event := e.event(t, owner, 2, time.Hour, 2*time.Hour)

	t.Run("EmptyTitleIsNoOp", func(t *testing.T) {
		updated, err := e.events.Update(ctx, owner, event.ID, EventPatch{Title: ptr(""), Location: ptr("   ")})
		require.NoError(t, err)
		assert.Equal(t, "Garage meetup", updated.Title)
		assert.Equal(t, "Brno", updated.Location)
	})

	t.Run("PartialFields", func(t *testing.T) {
		updated, err := e.events.Update(ctx, owner, event.ID, EventPatch{
			Description: ptr("New description"),
			Type:        ptr(models.EventTypeSocial),
		})
		require.NoError(t, err)
		assert.Equal(t, "New description", updated.Description)
		assert.Equal(t, models.EventTypeSocial, updated.Type)
		assert.Equal(t, 2, updated.Capacity)
	})

	t.Run("Forbidden", func(t *testing.T) {
		_, err := e.events.Update(ctx, otherAdmin, event.ID, EventPatch{Title: ptr("Hijacked")})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = e.events.Update(ctx, user, event.ID, EventPatch{Title: ptr("Hijacked")})
		assert.ErrorIs(t, err, ErrForbidden)

		loaded, err := e.events.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "Garage meetup", loaded.Title)
	})

	t.Run("SuperAdmin", func(t *testing.T) {
		updated, err := e.events.Update(ctx, super, event.ID, EventPatch{Title: ptr("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := e.events.Update(ctx, owner, "missing", EventPatch{Title: ptr("x")})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("CapacityBelowRegistrations", func(t *testing.T) {
		u2 := e.user(t, "u2", models.RoleUser)
		_, err := e.registrations.Register(ctx, user, event.ID, ContactInput{})
		require.NoError(t, err)
		_, err = e.registrations.Register(ctx, u2, event.ID, ContactInput{})
		require.NoError(t, err)

		_, err = e.events.Update(ctx, owner, event.ID, EventPatch{Capacity: ptr(1)})
		assert.ErrorIs(t, err, ErrCapacityBelowRegistrations)
		assert.Equal(t, KindConflict, KindOf(err))

		updated, err := e.events.Update(ctx, owner, event.ID, EventPatch{Capacity: ptr(3)})
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Capacity)
		assert.EqualValues(t, 2, updated.RegistrationCount)
	})

	t.Run("CutoffAfterDate", func(t *testing.T) {
		late := time.Now().Add(3 * time.Hour)
		_, err := e.events.Update(ctx, owner, event.ID, EventPatch{RegistrationCutoff: &late})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	owner := e.user(t, "owner", models.RoleAdmin)
	otherAdmin := e.user(t, "other", models.RoleAdmin)
	super := e.user(t, "super", models.RoleSuperAdmin)
	user := e.user(t, "u1", models.RoleUser)

	event := e.event(t, owner, 5, time.Hour, 2*time.Hour)
	reg, err := e.registrations.Register(ctx, user, event.ID, ContactInput{})
	require.NoError(t, err)

	_, err = e.events.Delete(ctx, otherAdmin, event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := e.events.Delete(ctx, owner, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, deleted.ID)
	assert.Equal(t, []string{event.ID}, e.notifier.deleted)

	_, err = e.events.Get(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = e.registrations.Get(ctx, user, reg.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	_, err = e.events.Delete(ctx, owner, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	t.Run("SuperAdmin", func(t *testing.T) {
		other := e.event(t, owner, 5, time.Hour, 2*time.Hour)
		_, err := e.events.Delete(ctx, super, other.ID)
		require.NoError(t, err)
	})
}

func TestEventTypes(t *testing.T) {
	e := newEngine(t)
	types := e.events.Types()
	assert.Len(t, types, 12)
	assert.Contains(t, types, models.EventTypeConference)
	assert.Contains(t, types, models.EventTypeCeremony)
}
