package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityLedger(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	event := e.event(t, admin, 1, time.Hour, 2*time.Hour)

	var ledger CapacityLedger
	newReg := func(eventID, userID string) *models.Registration {
		now := time.Now().UTC()
		return &models.Registration{ID: uuid.NewString(), EventID: eventID, UserID: userID, RegisteredAt: now, UpdatedAt: now}
	}
	reserve := func(reg *models.Registration, admit func(*models.Event) error) (got *models.Event, res Reservation, err error) {
		txErr := e.store.Transact(ctx, func(tx *store.Tx) error {
			got, res, err = ledger.TryReserveSlot(tx, reg, admit)
			return err
		})
		if err == nil {
			err = txErr
		}
		return got, res, err
	}

	t.Run("EventNotFound", func(t *testing.T) {
		got, res, err := reserve(newReg("missing", alice.UserID), nil)
		require.NoError(t, err)
		assert.Equal(t, EventNotFound, res)
		assert.Nil(t, got)
	})

	t.Run("AdmitRejects", func(t *testing.T) {
		closed := errors.New("closed")
		var seen *models.Event
		_, _, err := reserve(newReg(event.ID, alice.UserID), func(ev *models.Event) error {
			seen = ev
			return closed
		})
		assert.ErrorIs(t, err, closed)
		require.NotNil(t, seen)
		assert.Equal(t, event.ID, seen.ID)

		var count int64
		require.NoError(t, e.db.Model(&models.Registration{}).Where("event_id = ?", event.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("AdmittedThenFull", func(t *testing.T) {
		got, res, err := reserve(newReg(event.ID, alice.UserID), nil)
		require.NoError(t, err)
		assert.Equal(t, Admitted, res)
		assert.EqualValues(t, 1, got.RegistrationCount)

		_, res, err = reserve(newReg(event.ID, bob.UserID), nil)
		require.NoError(t, err)
		assert.Equal(t, CapacityFull, res)

		err = e.store.Transact(ctx, func(tx *store.Tx) error {
			active, err := ledger.ActiveCount(tx, event.ID)
			assert.EqualValues(t, 1, active)
			return err
		})
		require.NoError(t, err)
	})
}
