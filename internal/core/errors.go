package core

import "errors"

// ValidationKind classifies an upload-time failure.
type ValidationKind string

const (
	KindEncoding       ValidationKind = "encoding"
	KindMissingColumns ValidationKind = "missing_columns"
	KindParse          ValidationKind = "parse"
	KindEmpty          ValidationKind = "empty"
	KindTooLarge       ValidationKind = "too_large"
	KindTimestamp      ValidationKind = "timestamp"
	KindAmount         ValidationKind = "amount"
)

// SummaryKind classifies a summary-time failure.
type SummaryKind string

const (
	KindNoFile       SummaryKind = "no_file"
	KindNoData       SummaryKind = "no_data"
	KindLoad         SummaryKind = "load"
	KindUserNotFound SummaryKind = "user_not_found"
	KindInvalidDate  SummaryKind = "invalid_date"
	KindDateOrder    SummaryKind = "date_order"
	KindNoAmounts    SummaryKind = "no_amounts"
	KindSummary      SummaryKind = "summary"
)

// ValidationError reports why an uploaded file was rejected. Msg is safe to
// show to the client.
type ValidationError struct {
	Kind ValidationKind
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError wrapping an optional cause.
func NewValidationError(kind ValidationKind, msg string, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Msg: msg, Err: cause}
}

// SummaryError reports why a summary could not be produced.
type SummaryError struct {
	Kind SummaryKind
	Msg  string
	Err  error
}

func (e *SummaryError) Error() string { return e.Msg }

func (e *SummaryError) Unwrap() error { return e.Err }

// NotFound is true when no transactions file has been persisted yet.
func (e *SummaryError) NotFound() bool { return e.Kind == KindNoFile }

// NewSummaryError builds a SummaryError wrapping an optional cause.
func NewSummaryError(kind SummaryKind, msg string, cause error) *SummaryError {
	return &SummaryError{Kind: kind, Msg: msg, Err: cause}
}

// IsValidation reports whether err is a ValidationError of the given kind.
// An empty kind matches any ValidationError.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return kind == "" || ve.Kind == kind
}

// IsSummary reports whether err is a SummaryError of the given kind.
// An empty kind matches any SummaryError.
func IsSummary(err error, kind SummaryKind) bool {
	var se *SummaryError
	if !errors.As(err, &se) {
		return false
	}
	return kind == "" || se.Kind == kind
}
