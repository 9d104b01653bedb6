package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewPermissionDenied reports a failed capability guard on a lifecycle transition.
func NewPermissionDenied(message string) error {
	return NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, nil)
}

// NewAlreadyClaimed reports a claim attempt on a ticket that already has a claimant.
func NewAlreadyClaimed(claimantID string) error {
	return NewDomainError("ALREADY_CLAIMED", "ticket already claimed", http.StatusConflict, map[string]any{
		"claimant_id": claimantID,
	})
}

// NewAlreadyRated reports a repeated rating attempt on a spent prompt.
func NewAlreadyRated(ticketID string) error {
	return NewDomainError("ALREADY_RATED", "ticket already rated", http.StatusConflict, map[string]any{
		"ticket_id": ticketID,
	})
}

// NewInvalidRating reports a star value outside the accepted range.
func NewInvalidRating(stars int) error {
	return NewDomainError("INVALID_RATING", "rating must be between 1 and 5", http.StatusBadRequest, map[string]any{
		"stars": stars,
	})
}

// NewCreationDenied reports an Access Policy denial with its reason.
func NewCreationDenied(reason string) error {
	return NewDomainError("CREATION_DENIED", reason, http.StatusForbidden, nil)
}

// NewStoreIO wraps a persistence failure. The triggering operation fails; the
// process keeps running.
func NewStoreIO(err error) error {
	return &DomainError{
		Code:       "STORE_IO",
		Message:    "persistence failure",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewPlatformCommandFailed wraps a rejected outbound platform command.
func NewPlatformCommandFailed(command string, err error) error {
	return &DomainError{
		Code:       "PLATFORM_COMMAND_FAILED",
		Message:    fmt.Sprintf("platform command %s failed", command),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"command": command},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	domainErr := ToDomainError(err)
	return domainErr != nil && domainErr.Code == code
}
