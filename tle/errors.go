package tle

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a record was rejected.
type ErrorKind int

const (
	ChecksumMismatch ErrorKind = iota + 1
	LineNumberMismatch
	FieldDecode
	DateOutOfRange
	UnknownClassification
)

func (k ErrorKind) String() string {
	switch k {
	case ChecksumMismatch:
		return "checksum_mismatch"
	case LineNumberMismatch:
		return "line_number_mismatch"
	case FieldDecode:
		return "field_decode"
	case DateOutOfRange:
		return "date_out_of_range"
	case UnknownClassification:
		return "unknown_classification"
	default:
		return "unknown"
	}
}

// ParseError describes a rejected record. Field names the offending field or
// line and Raw holds the exact characters that failed to decode.
type ParseError struct {
	Kind  ErrorKind
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("tle: %s: %s %q", e.Kind, e.Field, e.Raw)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets callers match on kind alone, e.g. errors.Is(err, &ParseError{Kind: ChecksumMismatch}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not a ParseError.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func fieldError(field, raw string, err error) *ParseError {
	return &ParseError{Kind: FieldDecode, Field: field, Raw: raw, Err: err}
}
