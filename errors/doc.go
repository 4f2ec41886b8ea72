// Package errors provides the structured error type used across flowkit.
//
// AppError carries a machine-readable code, an HTTP status for the server
// surface, and a retryable flag consulted by executor retry middleware.
package errors
