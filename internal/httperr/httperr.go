// Package httperr turns engine errors into HTTP problem responses.
package httperr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/garage-events-api/internal/core"
)

// From maps err to a huma status error by its engine kind. Errors that are
// not engine errors are logged and reported as a bare 500.
func From(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}

	msg := err.Error()
	switch core.KindOf(err) {
	case core.KindNotFound:
		return huma.Error404NotFound(msg)
	case core.KindConflict:
		return huma.Error409Conflict(msg)
	case core.KindForbidden:
		return huma.Error403Forbidden(msg)
	case core.KindUnauthorized:
		return huma.Error401Unauthorized(msg)
	case core.KindWindowClosed:
		return huma.Error400BadRequest(msg)
	case core.KindInvalid:
		return huma.Error422UnprocessableEntity(msg)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return huma.Error503ServiceUnavailable("Operation timed out")
	}
	slog.ErrorContext(ctx, "request failed", "error", err)
	return huma.Error500InternalServerError("Internal server error")
}
