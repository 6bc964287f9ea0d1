package domain

import "errors"

var (
	ErrBusy            = errors.New("request already in flight")
	ErrEmptySubmission = errors.New("empty submission")
	ErrEncoding        = errors.New("attachment encoding failed")
	ErrBoundary        = errors.New("tutor boundary call failed")
	ErrSchemaMismatch  = errors.New("response does not match answer schema")
	ErrMissingOwner    = errors.New("history operation without owner")
	ErrRecordNotFound  = errors.New("history record not found")
	ErrSessionNotFound = errors.New("session not found")
)
