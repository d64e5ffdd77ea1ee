package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the service wraps exactly one of
// these; handlers map the kind to an HTTP status and show Error() to the
// client.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

// Error is a classified failure with a message safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func unauthenticated(msg string) error { return newError(ErrUnauthenticated, "%s", msg) }
func forbidden(msg string) error       { return newError(ErrForbidden, "%s", msg) }
func notFound(msg string) error        { return newError(ErrNotFound, "%s", msg) }
func conflict(msg string) error        { return newError(ErrConflict, "%s", msg) }

// missingFields reports absent required fields as one validation error.
func missingFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return newError(ErrValidation, "Missing required fields: %s", strings.Join(missing, ", "))
}
