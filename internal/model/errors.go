package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for pipeline failures
const (
	CodeAPIError         = "API_ERR"
	CodeAPIConnection    = "API_CONN_ERR"
	CodeAPIRequest       = "API_REQ_ERR"
	CodeCertGeneration   = "CERT_GEN_ERR"
	CodeCertStorage      = "CERT_STORAGE_ERR"
	CodeCertLoading      = "CERT_LOADING_ERR"
	CodeXMLGeneration    = "XML_GEN_ERR"
	CodeXMLParsing       = "XML_PARSE_ERR"
	CodeHashCalculation  = "HASH_ERR"
	CodeSigning          = "SIGN_ERR"
	CodeQRCodeGeneration = "QR_GEN_ERR"
	CodeValidation       = "VALIDATION_ERR"
	CodeUnknown          = "UNKNOWN_ERR"
)

// Error is the single error type surfaced by every pipeline stage.
// Callers discriminate on Code via errors.As or HasCode, never on
// message text.
type Error struct {
	Code    string
	Message string
	// Fields lists every offending field for validation failures,
	// not just the first one encountered.
	Fields []string
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(e.Fields, ", "))
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error with the given code
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error carrying every missing field
func NewValidationError(message string, fields []string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// WrapError returns err unchanged when it already is an *Error, otherwise
// wraps it as UNKNOWN_ERR preserving the original cause.
func WrapError(err error, message string) *Error {
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr
	}
	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code
func HasCode(err error, code string) bool {
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr.Code == code
	}
	return false
}
