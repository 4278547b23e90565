package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so copies produced by
// WithError and WithMessage still satisfy errors.Is against the sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy with a more specific user-facing message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrDecode = &AppError{
		Code:       "DECODE_ERROR",
		Message:    "Image data is not valid base64",
		StatusCode: 400,
	}

	ErrUnsupportedExtension = &AppError{
		Code:       "UNSUPPORTED_EXTENSION",
		Message:    "expecting filename to have .jpeg or .png extension",
		StatusCode: 400,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrUpstream = &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    "An upstream service failed, please try again later",
		StatusCode: 502,
	}

	ErrUpstreamTimeout = &AppError{
		Code:       "UPSTREAM_TIMEOUT",
		Message:    "An upstream service did not respond in time",
		StatusCode: 504,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrFaceNotFound = &AppError{
		Code:       "FACE_NOT_FOUND",
		Message:    "Entry does not exist!",
		StatusCode: 404,
	}

	ErrConstraintViolation = &AppError{
		Code:       "CONSTRAINT_VIOLATION",
		Message:    "This face is already registered",
		StatusCode: 409,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
