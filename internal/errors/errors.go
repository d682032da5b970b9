// Package errors implements magellan's stable error taxonomy (spec §7):
// MAG-CAT-NNN coded errors carrying enough structure for a JSON
// ErrorResponse, grounded on the teacher's typed-error family in
// internal/errors (IndexingError/ParseError/FileError/ConfigError, all
// wrapping an Underlying error via Unwrap).
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/magellan/internal/span"
)

// Category is the error taxonomy's top-level bucket (spec §7).
type Category string

const (
	CategoryIO         Category = "IO"
	CategoryValidation Category = "VALIDATION"
	CategoryParse      Category = "PARSE"
	CategoryQuery      Category = "QUERY"
	CategoryInternal   Category = "INTERNAL"
)

// Code is a stable "MAG-CAT-NNN" identifier.
type Code string

const (
	CodeFileRead          Code = "MAG-IO-001"
	CodeDBOpen            Code = "MAG-IO-002"
	CodeWatchSetup        Code = "MAG-IO-003"
	CodeOutsideRoot       Code = "MAG-VALIDATION-001"
	CodeSuspiciousTraversal Code = "MAG-VALIDATION-002"
	CodeSymlinkEscape     Code = "MAG-VALIDATION-003"
	CodeDBParentMissing   Code = "MAG-VALIDATION-004"
	CodeRootPathMissing   Code = "MAG-VALIDATION-005"
	CodeInputPathMissing  Code = "MAG-VALIDATION-006"
	CodeSchemaTooNew      Code = "MAG-VALIDATION-007"
	CodeOrphanReference   Code = "MAG-VALIDATION-008"
	CodeOrphanCallCaller  Code = "MAG-VALIDATION-009"
	CodeOrphanCallCallee  Code = "MAG-VALIDATION-010"
	CodeGrammarParseFail  Code = "MAG-PARSE-001"
	CodeInvalidSpan       Code = "MAG-PARSE-002"
	CodeZeroWidthSpan     Code = "MAG-PARSE-003"
	CodeUTF8Boundary      Code = "MAG-PARSE-004"
	CodeUnknownSymbol     Code = "MAG-QUERY-001"
	CodeUnknownFile       Code = "MAG-QUERY-002"
	CodeAmbiguousFQN      Code = "MAG-QUERY-003"
	CodeTransactionRollback Code = "MAG-INTERNAL-001"
	CodeBackendError      Code = "MAG-INTERNAL-002"
)

// MagError is the single structured error type surfaced across magellan's
// public API and JSON ErrorResponses.
type MagError struct {
	Code        Code
	Category    Category
	Message     string
	FilePath    string
	Span        *span.Span
	Remediation string
	Underlying  error
	Timestamp   time.Time
}

func newError(code Code, category Category, msg string, underlying error) *MagError {
	return &MagError{
		Code:       code,
		Category:   category,
		Message:    msg,
		Underlying: underlying,
		Timestamp:  time.Now(),
	}
}

// NewIOError builds an IO-category error, e.g. file read or DB open failure.
func NewIOError(code Code, msg string, underlying error) *MagError {
	return newError(code, CategoryIO, msg, underlying)
}

// NewValidationError builds a VALIDATION-category error.
func NewValidationError(code Code, msg string, underlying error) *MagError {
	return newError(code, CategoryValidation, msg, underlying)
}

// NewParseError builds a PARSE-category error.
func NewParseError(code Code, msg string, underlying error) *MagError {
	return newError(code, CategoryParse, msg, underlying)
}

// NewQueryError builds a QUERY-category error.
func NewQueryError(code Code, msg string, underlying error) *MagError {
	return newError(code, CategoryQuery, msg, underlying)
}

// NewInternalError builds an INTERNAL-category error.
func NewInternalError(code Code, msg string, underlying error) *MagError {
	return newError(code, CategoryInternal, msg, underlying)
}

// WithFile attaches the file path the error occurred on.
func (e *MagError) WithFile(path string) *MagError {
	e.FilePath = path
	return e
}

// WithSpan attaches the span the error occurred at.
func (e *MagError) WithSpan(s span.Span) *MagError {
	e.Span = &s
	return e
}

// WithRemediation attaches a human remediation hint.
func (e *MagError) WithRemediation(hint string) *MagError {
	e.Remediation = hint
	return e
}

// Error implements the error interface.
func (e *MagError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s: %s", e.Code, e.FilePath, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *MagError) Unwrap() error {
	return e.Underlying
}
