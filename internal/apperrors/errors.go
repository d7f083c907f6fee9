// Package apperrors provides the error taxonomy shared by the broadcast
// engine and its HTTP surface.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of a failure.
type ErrorCode string

const (
	ErrCodeAuth                 ErrorCode = "AUTH"
	ErrCodeValidation           ErrorCode = "VALIDATION"
	ErrCodeNotAllowed           ErrorCode = "NOT_ALLOWED"
	ErrCodeLimitExceeded        ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeNoRecipients         ErrorCode = "NO_RECIPIENTS"
	ErrCodeChannelNotConfigured ErrorCode = "CHANNEL_NOT_CONFIGURED"
	ErrCodeProviderFailure      ErrorCode = "PROVIDER_FAILURE"
	ErrCodeProvisioningFailure  ErrorCode = "PROVISIONING_FAILURE"
	ErrCodeDispatchInProgress   ErrorCode = "DISPATCH_IN_PROGRESS"
	ErrCodeInternal             ErrorCode = "INTERNAL"
)

// Error is a classified failure. Remaining is only meaningful for
// ErrCodeLimitExceeded.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apperrors.New(apperrors.ErrCodeNoRecipients, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with the given code that wraps cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// NotFound is the only shape an ownership failure is ever surfaced in.
func NotFound() *Error {
	return New(ErrCodeAuth, "Not found")
}

func Validation(message string) *Error {
	return New(ErrCodeValidation, message)
}

func NotAllowed(message string) *Error {
	return New(ErrCodeNotAllowed, message)
}

// LimitExceeded carries the remaining allowance, never negative.
func LimitExceeded(remaining int) *Error {
	if remaining < 0 {
		remaining = 0
	}
	return &Error{
		Code:      ErrCodeLimitExceeded,
		Message:   "You have reached your monthly SMS limit.",
		Details:   fmt.Sprintf("%d message(s) remaining this period", remaining),
		Remaining: remaining,
	}
}

func NoRecipients(message string) *Error {
	return New(ErrCodeNoRecipients, message)
}

func ChannelNotConfigured(segment string) *Error {
	return New(ErrCodeChannelNotConfigured, fmt.Sprintf("No Telegram channel configured for %s", segment))
}

func ProvisioningFailure(cause error) *Error {
	return Wrap(ErrCodeProvisioningFailure, "Could not obtain a sending number", cause)
}

func DispatchInProgress() *Error {
	return New(ErrCodeDispatchInProgress, "Another broadcast for this account is still running")
}
