package core

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors for the boundary layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindWindowClosed
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindWindowClosed:
		return "window_closed"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a rejected operation. Two errors are equal under errors.Is when
// their codes match, so sentinels can be compared against errors carrying a
// more specific message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying a different message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrEventNotFound        = &Error{KindNotFound, "event_not_found", "event not found"}
	ErrRegistrationNotFound = &Error{KindNotFound, "registration_not_found", "registration not found"}
	ErrUserNotFound         = &Error{KindNotFound, "user_not_found", "user not found"}

	ErrAlreadyRegistered          = &Error{KindConflict, "already_registered", "user is already registered for this event"}
	ErrCapacityFull               = &Error{KindConflict, "capacity_full", "event is at full capacity"}
	ErrAlreadyCanceled            = &Error{KindConflict, "already_canceled", "registration is already canceled"}
	ErrCapacityBelowRegistrations = &Error{KindConflict, "capacity_below_registrations", "capacity is below the number of active registrations"}

	ErrRegistrationClosed = &Error{KindWindowClosed, "registration_closed", "event is not open for registration"}
	ErrCutoffPassed       = &Error{KindWindowClosed, "cutoff_passed", "registration cutoff has passed"}

	ErrForbidden    = &Error{KindForbidden, "forbidden", "not allowed to perform this action"}
	ErrNotAdmin     = &Error{KindForbidden, "not_admin", "only admins can perform this action"}
	ErrUnauthorized = &Error{KindUnauthorized, "unauthorized", "authentication required"}

	ErrInvalidEvent  = &Error{KindInvalid, "invalid_event", "invalid event"}
	ErrInvalidFilter = &Error{KindInvalid, "invalid_filter", "invalid filter"}
)

// KindOf reports the class of err; errors that are not engine errors are
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
