package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies the application-level error condition.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1004
	ErrorCode_FORBIDDEN        ErrorCode = 1005

	ErrorCode_WEBHOOK_BAD_SIGNATURE ErrorCode = 2000
	ErrorCode_WEBHOOK_BAD_PAYLOAD   ErrorCode = 2001
	ErrorCode_EVENT_DUPLICATE       ErrorCode = 2002

	ErrorCode_TRANSCRIPT_FETCH_FAILED ErrorCode = 3000
	ErrorCode_TRANSCRIPT_NOT_READY    ErrorCode = 3001
	ErrorCode_TRANSCRIPT_ABSENT       ErrorCode = 3002
	ErrorCode_TRANSCRIPT_PARSE_FAILED ErrorCode = 3003

	ErrorCode_DRAFT_GENERATION_FAILED ErrorCode = 4000
	ErrorCode_DRAFT_PARSE_FAILED      ErrorCode = 4001
	ErrorCode_DRAFT_QUOTA_EXCEEDED    ErrorCode = 4002

	ErrorCode_JOB_NOT_FOUND         ErrorCode = 5000
	ErrorCode_JOB_ALREADY_IN_FLIGHT ErrorCode = 5001

	ErrorCode_EXTERNAL_API_FAILED ErrorCode = 6000
	ErrorCode_DB_QUERY_FAILED     ErrorCode = 6001
	ErrorCode_CACHE_FAILED        ErrorCode = 6002
	ErrorCode_STORAGE_FAILED      ErrorCode = 6003
)

// String returns a short name for the error code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                 "OK",
	ErrorCode_INTERNAL:                "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:        "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:               "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:          "ALREADY_EXISTS",
	ErrorCode_UNAUTHENTICATED:         "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:               "FORBIDDEN",
	ErrorCode_WEBHOOK_BAD_SIGNATURE:   "WEBHOOK_BAD_SIGNATURE",
	ErrorCode_WEBHOOK_BAD_PAYLOAD:     "WEBHOOK_BAD_PAYLOAD",
	ErrorCode_EVENT_DUPLICATE:         "EVENT_DUPLICATE",
	ErrorCode_TRANSCRIPT_FETCH_FAILED: "TRANSCRIPT_FETCH_FAILED",
	ErrorCode_TRANSCRIPT_NOT_READY:    "TRANSCRIPT_NOT_READY",
	ErrorCode_TRANSCRIPT_ABSENT:       "TRANSCRIPT_ABSENT",
	ErrorCode_TRANSCRIPT_PARSE_FAILED: "TRANSCRIPT_PARSE_FAILED",
	ErrorCode_DRAFT_GENERATION_FAILED: "DRAFT_GENERATION_FAILED",
	ErrorCode_DRAFT_PARSE_FAILED:      "DRAFT_PARSE_FAILED",
	ErrorCode_DRAFT_QUOTA_EXCEEDED:    "DRAFT_QUOTA_EXCEEDED",
	ErrorCode_JOB_NOT_FOUND:           "JOB_NOT_FOUND",
	ErrorCode_JOB_ALREADY_IN_FLIGHT:   "JOB_ALREADY_IN_FLIGHT",
	ErrorCode_EXTERNAL_API_FAILED:     "EXTERNAL_API_FAILED",
	ErrorCode_DB_QUERY_FAILED:         "DB_QUERY_FAILED",
	ErrorCode_CACHE_FAILED:            "CACHE_FAILED",
	ErrorCode_STORAGE_FAILED:          "STORAGE_FAILED",
}

// Class determines how the pipeline reacts to an error.
type Class int

const (
	// ClassPermanent errors are never retried.
	ClassPermanent Class = iota
	// ClassAuth errors are rejected immediately and never retried.
	ClassAuth
	// ClassTransient errors are retried with exponential backoff.
	ClassTransient
	// ClassNotReady means the upstream has not produced content yet; the
	// attempt is deferred without consuming a retry.
	ClassNotReady
	// ClassMalformed means content was fetched but could not be parsed even
	// by the fallback parser.
	ClassMalformed
)

// AppError is the custom error type for the application.
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Class     Class
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error.
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// ClassOf returns the retry class of err. Unknown errors are permanent.
func ClassOf(err error) Class {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Class
	}
	return ClassPermanent
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return ClassOf(err) == ClassTransient
}

// IsNotReady reports whether err means content is not available yet.
func IsNotReady(err error) bool {
	return ClassOf(err) == ClassNotReady
}

// IsQuotaExceeded reports whether err is a draft quota block. Quota blocks
// are not processing failures.
func IsQuotaExceeded(err error) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrorCode_DRAFT_QUOTA_EXCEEDED
	}
	return false
}

// General errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrAlreadyExists(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  fmt.Sprintf("%s already exists", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Class:    ClassAuth,
		Message:  "Authentication required",
	}
}

func ErrForbidden(message string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_FORBIDDEN,
		Class:    ClassAuth,
		Message:  message,
	}
}

// Webhook / ingestion errors

func ErrBadSignature(platform string) AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_WEBHOOK_BAD_SIGNATURE,
		Class:    ClassAuth,
		Message:  "Webhook signature verification failed",
	}.WithDetail("platform", platform)
}

func ErrBadPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_WEBHOOK_BAD_PAYLOAD,
		Message:  "Invalid webhook payload",
	}
}

// Transcript errors

func ErrTranscriptFetch(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_TRANSCRIPT_FETCH_FAILED,
		Class:    ClassTransient,
		Message:  "Failed to download transcript content",
	}
}

func ErrTranscriptNotReady(source string) AppError {
	return AppError{
		HTTPCode: http.StatusAccepted,
		Code:     ErrorCode_TRANSCRIPT_NOT_READY,
		Class:    ClassNotReady,
		Message:  "Transcript content is not ready yet",
	}.WithDetail("source", source)
}

func ErrTranscriptAbsent() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TRANSCRIPT_ABSENT,
		Message:  "No transcript content exists on any source",
	}
}

func ErrTranscriptParse(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_TRANSCRIPT_PARSE_FAILED,
		Class:    ClassMalformed,
		Message:  "Failed to parse transcript content",
	}
}

// Draft errors

func ErrDraftGeneration(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_DRAFT_GENERATION_FAILED,
		Class:    ClassTransient,
		Message:  "Draft generation failed",
	}
}

func ErrDraftParse(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_DRAFT_PARSE_FAILED,
		Class:    ClassMalformed,
		Message:  "Failed to parse generation response",
	}
}

func ErrQuotaExceeded(used, limit int) AppError {
	return AppError{
		HTTPCode: http.StatusTooManyRequests,
		Code:     ErrorCode_DRAFT_QUOTA_EXCEEDED,
		Message:  "Monthly draft quota exceeded",
	}.WithDetail("used", fmt.Sprintf("%d", used)).
		WithDetail("limit", fmt.Sprintf("%d", limit))
}

// Job errors

func ErrJobNotFound(jobID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_JOB_NOT_FOUND,
		Message:  "Processing job not found",
	}.WithDetail("job_id", jobID)
}

func ErrJobAlreadyInFlight(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_JOB_ALREADY_IN_FLIGHT,
		Message:  "A processing job is already in flight for this meeting",
	}.WithDetail("meeting_id", meetingID)
}

// Integration errors

func ErrExternalAPI(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_EXTERNAL_API_FAILED,
		Class:    ClassTransient,
		Message:  fmt.Sprintf("External API call failed: %s", service),
	}
}

func ErrDBQuery(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}
}

func ErrCache(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrStorage(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}
