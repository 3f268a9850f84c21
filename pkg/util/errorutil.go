package util

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Pipeline error codes.
const (
	CodeMissingInput   = "MISSING_INPUT"
	CodeMissingColumns = "MISSING_COLUMNS"
	CodeEmptyInput     = "EMPTY_INPUT"
	CodeInvalidValue   = "INVALID_VALUE"
	CodeInternal       = "INTERNAL_ERROR"
)

// PipelineError standardizes application errors.
type PipelineError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError constructs a PipelineError.
func NewPipelineError(code, message string, details map[string]any) *PipelineError {
	return &PipelineError{Code: code, Message: message, Details: details}
}

// NewMissingInput reports an absent input file and the stage that produces it.
func NewMissingInput(path, upstream string) error {
	return &PipelineError{
		Code:    CodeMissingInput,
		Message: fmt.Sprintf("input file %s not found; run %q first", path, upstream),
		Details: map[string]any{"path": path, "upstream": upstream},
	}
}

// NewMissingColumns reports required columns absent from an input table.
func NewMissingColumns(columns ...string) error {
	sorted := append([]string(nil), columns...)
	sort.Strings(sorted)
	return &PipelineError{
		Code:    CodeMissingColumns,
		Message: fmt.Sprintf("missing required columns: %s", strings.Join(sorted, ", ")),
		Details: map[string]any{"columns": sorted},
	}
}

// NewEmptyInput reports a table with no rows where aggregation is undefined.
func NewEmptyInput(what string) error {
	return NewPipelineError(CodeEmptyInput, fmt.Sprintf("%s is empty", what), nil)
}

// NewInvalidValue reports a cell that cannot be parsed into its typed column.
func NewInvalidValue(column string, row int, raw string, err error) error {
	return &PipelineError{
		Code:    CodeInvalidValue,
		Message: fmt.Sprintf("invalid value %q in column %s (row %d)", raw, column, row),
		Details: map[string]any{"column": column, "row": row, "value": raw},
		Err:     err,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) error {
	return &PipelineError{
		Code:    CodeInternal,
		Message: "internal pipeline error",
		Err:     err,
	}
}

// ToPipelineError converts generic errors to PipelineError; file-not-found
// errors become MISSING_INPUT and everything else unexpected INTERNAL_ERROR.
func ToPipelineError(err error) *PipelineError {
	if err == nil {
		return nil
	}
	var pipeErr *PipelineError
	if errors.As(err, &pipeErr) {
		return pipeErr
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &PipelineError{Code: CodeMissingInput, Message: err.Error(), Err: err}
	}
	return &PipelineError{
		Code:    CodeInternal,
		Message: "internal pipeline error",
		Err:     err,
	}
}

// IsCode reports whether err carries the given pipeline error code.
func IsCode(err error, code string) bool {
	pe := ToPipelineError(err)
	return pe != nil && pe.Code == code
}
