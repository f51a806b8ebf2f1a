package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an internal message plus a safe user-facing one. Internal
// details are never echoed to chat.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewDirectoryError reports a failed membership lookup against Telegram.
func NewDirectoryError(group string, cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("membership lookup failed for %s", group),
		UserMessage: "Couldn't verify your membership right now. Please try again in a moment.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewSourceError reports a failure resolving or iterating one content source.
func NewSourceError(source string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("source %s unavailable", source),
		UserMessage: "Some sources were temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewSinkError reports a failed journal or spreadsheet append.
func NewSinkError(sink string, cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("sink %s append failed", sink),
		UserMessage: "",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewQueueError reports a failed background job submission.
func NewQueueError(cause error) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     "failed to enqueue background job",
		UserMessage: "Couldn't start the search. Please send your batch again.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}
