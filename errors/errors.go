package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// As reports whether err is or wraps an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}

// --- Constructors ---

// NoConnectedNodes is returned when a run has no entry node to start from.
func NoConnectedNodes() *AppError {
	return &AppError{
		Code: ErrCodeNoConnectedNodes, Message: "No connected nodes to execute. Connect at least one node to another.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// InvalidGraph creates an error for a graph snapshot that failed validation.
func InvalidGraph(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidGraph, Message: reason,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NodeNotFound creates an error for a node id missing from the graph.
func NodeNotFound(nodeID string) *AppError {
	return &AppError{
		Code: ErrCodeNodeNotFound, Message: fmt.Sprintf("Node %q is not part of the flow.", nodeID),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"node_id": nodeID},
	}
}

// ExecutorNotFound creates an error for a node type with no registered executor.
func ExecutorNotFound(nodeType string) *AppError {
	return &AppError{
		Code: ErrCodeExecutorNotFound, Message: fmt.Sprintf("No executor registered for node type %q.", nodeType),
		HTTPStatus: http.StatusNotImplemented,
		Details:    map[string]any{"node_type": nodeType},
	}
}

// Execution wraps an executor failure for a node.
func Execution(nodeID string, cause error) *AppError {
	msg := "execution failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code: ErrCodeExecution, Message: msg,
		HTTPStatus: http.StatusInternalServerError, Retryable: IsRetryable(cause),
		Details: map[string]any{"node_id": nodeID}, Cause: cause,
	}
}

// Cancelled is returned when the caller's cancellation stopped a node.
func Cancelled(nodeID string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: "cancelled by caller",
		HTTPStatus: 499,
		Details:    map[string]any{"node_id": nodeID},
	}
}

// Timeout is returned when the per-node timeout fired before the executor finished.
func Timeout(nodeID string, after time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("timed out after %s", after),
		HTTPStatus: http.StatusGatewayTimeout,
		Details:    map[string]any{"node_id": nodeID, "timeout": after.String()},
	}
}

// Provider creates a retryable error for a failing external model provider.
func Provider(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProvider, Message: fmt.Sprintf("The %s provider returned an error.", provider),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
