package client

import (
	"errors"
	"fmt"
)

// ErrLoginRequired is returned without any network call when an operation
// needs a session and none is stored.
var ErrLoginRequired = errors.New("login required")

// Kind classifies a failed call
type Kind int

const (
	// KindNetwork covers transport failures and unusable responses.
	KindNetwork Kind = iota + 1
	// KindValidation carries a message from the backend meant for the user.
	KindValidation
	// KindUnauthorized means the session is missing, expired or rejected.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every failed call
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Kind.String() + " error: " + e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or 0 if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsUnauthorized also reports true for ErrLoginRequired; both mean the
// caller must log in again.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized || errors.Is(err, ErrLoginRequired)
}

// Validation builds a validation error raised before any call is made
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}
