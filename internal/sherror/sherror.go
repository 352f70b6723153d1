package sherror

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// A Kind classifies an error for callers and for the HTTP layer.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindCrypto
	KindNotFound
	KindValidation
	KindStorage
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindCrypto:
		return "crypto"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

type (
	// An Error represents the error format that can be rendered by the server.
	Error struct {
		Kind       Kind     `json:"-"`
		HTTPCode   int      `json:"-"`
		FieldError fieldErr `json:"error"`
		cause      error
	}

	fieldErr struct {
		Tag     string `json:"tag,omitempty"`
		Message string `json:"message"`
	}
)

// New returns a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:       kind,
		HTTPCode:   httpCode(kind),
		FieldError: fieldErr{Tag: kind.String(), Message: message},
	}
}

// NewWithTagCode returns a new Error with the given code, tag and message.
func NewWithTagCode(kind Kind, code int, tag, message string) *Error {
	return &Error{Kind: kind, HTTPCode: code, FieldError: fieldErr{Tag: tag, Message: message}}
}

// Wrap returns a new Error of the given kind holding err as cause.
// The cause is never rendered.
func Wrap(kind Kind, err error, message string) *Error {
	e := New(kind, message)
	e.cause = err
	return e
}

// Crypto returns a crypto error. The cause is kept out of the message so no
// partial plaintext can be rendered.
func Crypto(err error) *Error {
	return Wrap(KindCrypto, err, "Could not process protected data.")
}

// NotFound returns a not found error for the given entity name.
func NotFound(entity string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s not found", entity))
}

// Validation returns a validation error.
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Storage returns a storage error wrapping err.
func Storage(err error, operation string) *Error {
	return Wrap(KindStorage, err, "could not "+operation)
}

// Unauthorized returns the generic authentication error.
func Unauthorized() *Error {
	return NewWithTagCode(KindUnauthorized, http.StatusUnauthorized, "invalid-auth", "Invalid login credentials.")
}

// Error implements error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.FieldError.Message + ": " + e.cause.Error()
	}
	return e.FieldError.Message
}

// Message returns the renderable message.
func (e *Error) Message() string {
	return e.FieldError.Message
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause implements github.com/pkg/errors causer.
func (e *Error) Cause() error {
	return e.cause
}

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPCode
	}
	var pf *PartialFailureError
	if errors.As(err, &pf) {
		return http.StatusMultiStatus
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, KindInternal if err is not an Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsCrypto returns true if err is a crypto error.
func IsCrypto(err error) bool {
	return err != nil && KindOf(err) == KindCrypto
}

// IsNotFound returns true if err is a not found error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsStorage returns true if err is a storage error.
func IsStorage(err error) bool {
	return err != nil && KindOf(err) == KindStorage
}

// IsUnauthorized returns true if err is an authentication error.
func IsUnauthorized(err error) bool {
	return err != nil && KindOf(err) == KindUnauthorized
}

func httpCode(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindCrypto:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

//
// Partial failure
//

type (
	// A CategoryFailure records a data category that could not be deleted.
	CategoryFailure struct {
		Namespace string
		Category  string
		Err       error
	}

	// A PartialFailureError aggregates the failures of a continue-on-error operation.
	PartialFailureError struct {
		Failures []CategoryFailure
	}
)

// Add records a failure.
func (e *PartialFailureError) Add(namespace, category string, err error) {
	e.Failures = append(e.Failures, CategoryFailure{
		Namespace: namespace,
		Category:  category,
		Err:       err,
	})
}

// ErrorOrNil returns nil when nothing failed.
func (e *PartialFailureError) ErrorOrNil() error {
	if e == nil || len(e.Failures) == 0 {
		return nil
	}
	return e
}

// Categories returns the failed categories.
func (e *PartialFailureError) Categories() []string {
	categories := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		categories = append(categories, f.Category)
	}
	return categories
}

// Error implements error interface.
func (e *PartialFailureError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Category, f.Err))
	}
	return fmt.Sprintf("%d categories failed (%s)", len(e.Failures), strings.Join(parts, "; "))
}

// IsPartialFailure returns true if err is a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
