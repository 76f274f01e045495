package models

import "errors"

// Error codes returned in the "code" field of failed responses
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateActor     = "DUPLICATE_ACTOR"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeDeliveryFailed     = "DELIVERY_FAILED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is a domain failure with a client-safe message.
// Err carries the underlying cause for logs only.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the domain code of err, CodeInternal when err is not an *Error
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func ValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func DuplicateActor(msg string) *Error {
	return &Error{Code: CodeDuplicateActor, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func InvalidOTP() *Error {
	return &Error{Code: CodeInvalidOTP, Message: "Invalid OTP"}
}

func OTPExpired() *Error {
	return &Error{Code: CodeOTPExpired, Message: "OTP has expired"}
}

func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

func DeliveryFailed(err error) *Error {
	return &Error{Code: CodeDeliveryFailed, Message: "Failed to send OTP", Err: err}
}

func StorageUnavailable(err error) *Error {
	return &Error{Code: CodeStorageUnavailable, Message: "Service temporarily unavailable", Err: err}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func RateLimited() *Error {
	return &Error{Code: CodeRateLimited, Message: "Too many OTP requests, try again later"}
}

func InternalError(err error) *Error {
	return &Error{Code: CodeInternal, Message: "Internal server error", Err: err}
}
