package httperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/garage-events-api/internal/core"
)

func TestFrom(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"NotFound", core.ErrEventNotFound, http.StatusNotFound},
		{"Conflict", core.ErrCapacityFull, http.StatusConflict},
		{"WrappedConflict", fmt.Errorf("register: %w", core.ErrAlreadyRegistered), http.StatusConflict},
		{"Forbidden", core.ErrForbidden, http.StatusForbidden},
		{"NotAdmin", core.ErrNotAdmin, http.StatusForbidden},
		{"Unauthorized", core.ErrUnauthorized, http.StatusUnauthorized},
		{"WindowClosed", core.ErrCutoffPassed, http.StatusBadRequest},
		{"Invalid", core.ErrInvalidFilter, http.StatusUnprocessableEntity},
		{"Timeout", fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"Internal", errors.New("disk I/O error"), http.StatusInternalServerError},
		{"AlreadyHTTP", huma.Error410Gone("gone"), http.StatusGone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := From(context.Background(), tc.err)
			var se huma.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected huma status error, got %T", err)
			}
			if se.GetStatus() != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, se.GetStatus())
			}
		})
	}

	t.Run("InternalHidesDetails", func(t *testing.T) {
		err := From(context.Background(), errors.New("secret table name"))
		if err.Error() != "Internal server error" {
			t.Errorf("expected generic message, got %q", err.Error())
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if From(context.Background(), nil) != nil {
			t.Error("expected nil for nil error")
		}
	})
}
