// Package service is the storefront core: the cart client, the checkout
// orchestrator, the profile read-through cache, the admin order viewer and
// the session lifecycle. Every operation returns a typed error and also
// reports the outcome through the injected Notifier.
package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apiclient"
	"storefront/internal/pending"
	"storefront/internal/session"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrInvalidID          = fmt.Errorf("%w: missing or invalid id", ErrValidation)
	ErrNoPaymentMethod    = fmt.Errorf("%w: payment method is required", ErrValidation)
	ErrInvalidInput       = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrClearNotConfirmed  = errors.New("clear cart not confirmed")
	ErrProfileUnavailable = errors.New("profile unavailable")
)

// ProfileError reports a profile that could not be loaded. It matches
// ErrProfileUnavailable and the underlying cause.
type ProfileError struct {
	UserID string
	Cause  error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile %s unavailable: %v", e.UserID, e.Cause)
}

func (e *ProfileError) Unwrap() []error { return []error{ErrProfileUnavailable, e.Cause} }

// Kind is the user-facing category of an error.
type Kind int

const (
	KindNone Kind = iota
	KindUnauthenticated
	KindUnauthorized
	KindValidation
	KindBusy
	KindCancelled
	KindNetwork
	KindService
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindBusy:
		return "busy"
	case KindCancelled:
		return "cancelled"
	case KindNetwork:
		return "network"
	case KindService:
		return "service"
	default:
		return "internal"
	}
}

// Classify maps err onto the error taxonomy. Service responses with 401 and
// 403 count as unauthenticated and unauthorized.
func Classify(err error) Kind {
	var se *apiclient.ServiceError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, session.ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, session.ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyCart):
		return KindValidation
	case errors.Is(err, pending.ErrBusy):
		return KindBusy
	case errors.Is(err, pending.ErrAbandoned), errors.Is(err, ErrClearNotConfirmed), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, apiclient.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.As(err, &se):
		switch {
		case se.Unauthenticated():
			return KindUnauthenticated
		case se.Forbidden():
			return KindUnauthorized
		}
		return KindService
	}
	return KindInternal
}

// Message is the text shown to the user for err. Service errors carry the
// server's own message when it sent one; otherwise fallback is used.
func Message(err error, fallback string) string {
	var se *apiclient.ServiceError
	switch Classify(err) {
	case KindNone:
		return ""
	case KindUnauthenticated:
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
		return "You must be logged in"
	case KindUnauthorized:
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
		return "Not authorized!"
	case KindValidation:
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			return "Quantity must be at least 1"
		case errors.Is(err, ErrEmptyCart):
			return "Your cart is empty"
		case errors.Is(err, ErrNoPaymentMethod):
			return "Please select a payment method"
		}
		return fallback
	case KindBusy:
		return "Please wait, this is already in progress"
	case KindNetwork:
		return "Network error, please try again."
	case KindService:
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
	}
	return fallback
}
