// Package domainerrors carries coded errors across layers.
//
// Stores return infrastructure sentinels (see pkg/platform/sentinel). Services
// translate those into coded errors so transports can map them to a response
// without inspecting messages:
//
//	if errors.Is(err, sentinel.ErrNotFound) {
//		return dErrors.New(dErrors.CodeNotFound, "member not found")
//	}
//
// Codes are stable strings; they appear in HTTP error envelopes.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Placement codes.
	CodePaymentNotCompleted Code = "payment_not_completed"
	CodeTariffUnavailable   Code = "tariff_unavailable"
	CodeAlreadyPlaced       Code = "already_placed"
	CodePositionConflict    Code = "position_conflict"
	CodePlacementFailed     Code = "placement_failed"
	CodeStructureCorruption Code = "structure_corruption"
)

// Error is a coded domain error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error. A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// chain carries no domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code to the status used by the HTTP transport.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyPlaced, CodePositionConflict:
		return http.StatusConflict
	case CodePaymentNotCompleted, CodeTariffUnavailable:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodePlacementFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientFacing reports whether the message of an error with this code is
// safe to return to callers.
func IsClientFacing(code Code) bool {
	switch code {
	case CodeInternal, CodeStructureCorruption, CodeInvariantViolation:
		return false
	default:
		return true
	}
}
