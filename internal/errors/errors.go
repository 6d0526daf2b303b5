package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeStatusWrite   = "E100"
	CodeStatusMissing = "E200"
	CodeStatusRemove  = "E300"
	CodeMirror        = "E400"
)

// AppError is an error classified by how the probe must react to it.
type AppError struct {
	Code      string
	Message   string
	Severity  Severity
	Fatal     bool
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewStatusWriteError reports that the status file could not be written.
// The probe cannot keep its only contract, so the process must stop.
func NewStatusWriteError(path string, cause error) *AppError {
	return &AppError{
		Code:      CodeStatusWrite,
		Message:   fmt.Sprintf("write status file %s", path),
		Severity:  SeverityCritical,
		Fatal:     true,
		Retryable: false,
		cause:     cause,
	}
}

func NewStatusMissingError(path string, cause error) *AppError {
	return &AppError{
		Code:      CodeStatusMissing,
		Message:   fmt.Sprintf("status file %s does not exist", path),
		Severity:  SeverityMedium,
		Fatal:     false,
		Retryable: false,
		cause:     cause,
	}
}

func NewStatusRemoveError(path string, cause error) *AppError {
	return &AppError{
		Code:      CodeStatusRemove,
		Message:   fmt.Sprintf("remove status file %s", path),
		Severity:  SeverityHigh,
		Fatal:     false,
		Retryable: false,
		cause:     cause,
	}
}

func NewMirrorError(op string, cause error) *AppError {
	return &AppError{
		Code:      CodeMirror,
		Message:   fmt.Sprintf("status mirror %s failed", op),
		Severity:  SeverityLow,
		Fatal:     false,
		Retryable: true,
		cause:     cause,
	}
}
