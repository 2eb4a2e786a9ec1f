// Package errors defines the categorized error taxonomy used across the
// reconciliation pipeline.
//
// Errors fall into two groups with different propagation behavior:
//   - fatal errors (configuration, aggregation input, store, report) abort
//     the operation that raised them and surface to the caller with enough
//     context to fix the input;
//   - recoverable warnings (a rule referencing a missing column, a row whose
//     numeric field fails to parse) are collected and reported but never
//     interrupt processing.
//
// The Warning type intentionally does not implement error: warnings are
// values carried alongside results, not failures.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryMatching      ErrorCategory = "matching"
	CategoryAggregation   ErrorCategory = "aggregation"
	CategoryStore         ErrorCategory = "store"
	CategoryReport        ErrorCategory = "report"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Configuration errors
	CodeEmptyRuleSet  ErrorCode = "empty_rule_set"
	CodeRuleArity     ErrorCode = "rule_arity_mismatch"
	CodeMalformedRule ErrorCode = "malformed_rule"
	CodeInvalidConfig ErrorCode = "invalid_config"

	// File and parse errors
	CodeFileNotFound  ErrorCode = "file_not_found"
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Aggregation errors
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidSource ErrorCode = "invalid_source"

	// Store errors
	CodeProvisionFailed ErrorCode = "provision_failed"
	CodeCopyFailed      ErrorCode = "copy_failed"
	CodeEnrichFailed    ErrorCode = "enrich_failed"

	// Report errors
	CodeWriteFailed ErrorCode = "write_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconError is the base error type for all application errors
type ReconError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconError) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	var parts []string
	for k, v := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// Unwrap returns the underlying cause error
func (e *ReconError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryMatching, CategoryAggregation, CategoryInternal:
		return 5
	case CategoryStore, CategoryReport:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconError) WithContext(key string, value interface{}) *ReconError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error aborts the operation that raised it.
// Every ReconError is fatal; recoverable conditions are Warnings, not errors.
func (e *ReconError) IsFatal() bool {
	return true
}

// New creates a new ReconError
func New(category ErrorCategory, code ErrorCode, message string) *ReconError {
	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconError {
	if err == nil {
		return nil
	}

	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ConfigurationError creates a fatal configuration error. Raised before any
// matching starts; a batch never proceeds past one of these.
func ConfigurationError(code ErrorCode, rule string, detail string) *ReconError {
	var message string
	switch code {
	case CodeEmptyRuleSet:
		message = "rule list is empty: at least one matching rule is required"
	case CodeRuleArity:
		message = fmt.Sprintf("rule '%s' has mismatched key arity: %s", rule, detail)
	case CodeMalformedRule:
		message = fmt.Sprintf("rule '%s' is malformed: %s", rule, detail)
	default:
		message = fmt.Sprintf("invalid configuration: %s", detail)
	}

	return New(CategoryConfiguration, code, message).
		WithContext("rule", rule)
}

// AggregationError creates a fatal aggregation-input error. Bucket semantics
// are undefined without the named field, so the aggregator call aborts.
func AggregationError(code ErrorCode, field string, err error) *ReconError {
	var message string
	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing from the tagged set", field)
	case CodeInvalidSource:
		message = fmt.Sprintf("unrecognized source value '%s' in tagged set", field)
	default:
		message = fmt.Sprintf("aggregation input error on field '%s'", field)
	}

	var result *ReconError
	if err != nil {
		result = Wrap(err, CategoryAggregation, code, message)
	} else {
		result = New(CategoryAggregation, code, message)
	}
	return result.WithContext("field", field)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, err error) *ReconError {
	var message string
	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s'", file, line, column)
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
	}

	var result *ReconError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}
	return result.
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column)
}

// StoreError creates a staging-store error
func StoreError(code ErrorCode, table string, err error) *ReconError {
	var message string
	switch code {
	case CodeProvisionFailed:
		message = fmt.Sprintf("failed to provision staging table %s", table)
	case CodeCopyFailed:
		message = fmt.Sprintf("bulk copy into %s failed", table)
	case CodeEnrichFailed:
		message = fmt.Sprintf("enrichment update on %s failed", table)
	default:
		message = fmt.Sprintf("store error on table %s", table)
	}

	return Wrap(err, CategoryStore, code, message).WithContext("table", table)
}

// ReportError creates a report-writing error
func ReportError(name string, err error) *ReconError {
	return Wrap(err, CategoryReport, CodeWriteFailed,
		fmt.Sprintf("failed to write report '%s'", name)).
		WithContext("report", name)
}

// WarningKind classifies recoverable conditions collected during a batch.
type WarningKind string

const (
	// WarnMissingColumn: a rule referenced a column absent from one side;
	// the rule was skipped and matching continued.
	WarnMissingColumn WarningKind = "missing_column"
	// WarnAmbiguousNumeric: a row's numeric field failed to parse; the row
	// was excluded from numeric buckets but not dropped from the dataset.
	WarnAmbiguousNumeric WarningKind = "ambiguous_numeric"
)

// Warning is a recoverable condition. Warnings never interrupt processing.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	Context Context     `json:"context,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
}

// MissingColumnWarning reports a rule skipped because of absent key columns.
func MissingColumnWarning(rule, side string, columns []string) Warning {
	return Warning{
		Kind:    WarnMissingColumn,
		Message: fmt.Sprintf("skipping rule '%s': %s columns %v not found", rule, side, columns),
		Context: Context{"rule": rule, "side": side, "columns": columns},
	}
}

// AmbiguousNumericWarning reports a row whose numeric field failed to parse.
func AmbiguousNumericWarning(field string, line int, value string) Warning {
	return Warning{
		Kind:    WarnAmbiguousNumeric,
		Message: fmt.Sprintf("field '%s' at line %d does not parse as numeric: '%s'", field, line, value),
		Context: Context{"field": field, "line": line, "value": value},
	}
}

// IsCategory checks whether err is a ReconError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var re *ReconError
	if errors.As(err, &re) {
		return re.Category == category
	}
	return false
}

// IsCode checks whether err is a ReconError with the given code
func IsCode(err error, code ErrorCode) bool {
	var re *ReconError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// GetExitCode extracts an exit code from any error
func GetExitCode(err error) int {
	var re *ReconError
	if errors.As(err, &re) {
		return re.GetExitCode()
	}
	return 1
}
