package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph-structural errors
const (
	// ErrCodeNoConnectedNodes indicates the graph has no executable entry node.
	ErrCodeNoConnectedNodes ErrorCode = "NO_CONNECTED_NODES"
	// ErrCodeInvalidGraph indicates the graph snapshot failed validation.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
	// ErrCodeNodeNotFound indicates a node id that is not part of the graph.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"
)

// Per-node execution errors
const (
	// ErrCodeExecution indicates an executor returned an error.
	ErrCodeExecution ErrorCode = "EXECUTION_ERROR"
	// ErrCodeExecutorNotFound indicates no executor is registered for a node type.
	ErrCodeExecutorNotFound ErrorCode = "EXECUTOR_NOT_FOUND"
	// ErrCodeCancelled indicates the caller cancelled the run.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeTimeout indicates the per-node timeout fired.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeProvider indicates an external model provider failed.
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
)

// Input and internal errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProvider: true,
	ErrCodeInternal: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
