// Package core is the registration and capacity engine. Every operation takes
// the verified Caller explicitly and commits its state change in a single
// store transaction.
package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/gdg-garage/garage-events-api/internal/core")

// UserDirectory looks up user profiles to backfill contact fields.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Notifier is told about committed changes. Failures never undo a commit.
type Notifier interface {
	NotifyRegistered(ctx context.Context, event *models.Event, reg *models.Registration) error
	NotifyCanceled(ctx context.Context, event *models.Event, reg *models.Registration) error
	NotifyEventDeleted(ctx context.Context, event *models.Event) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyRegistered(context.Context, *models.Event, *models.Registration) error {
	return nil
}

func (nopNotifier) NotifyCanceled(context.Context, *models.Event, *models.Registration) error {
	return nil
}

func (nopNotifier) NotifyEventDeleted(context.Context, *models.Event) error { return nil }

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// checkWindow rejects changes to registrations of an event that is closed or
// whose cutoff is not in the future.
func checkWindow(event *models.Event, now time.Time) error {
	if !event.OpenForRegistration {
		return ErrRegistrationClosed
	}
	if !now.Before(event.RegistrationCutoff) {
		return ErrCutoffPassed
	}
	return nil
}

// notify runs fn detached from the request's cancellation so a client that
// hangs up after commit still gets its notification sent.
func notify(ctx context.Context, logger *slog.Logger, what string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		logger.WarnContext(ctx, "notification failed", "notification", what, "error", err)
	}
}

func storeErr(err error, notFound *Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}

// supplied returns the trimmed value of s, or ok=false when s is nil or blank.
func supplied(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}
