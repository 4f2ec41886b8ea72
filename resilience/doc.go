// Package resilience retries transient executor failures with jittered
// exponential backoff.
//
//	res, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (flow.Result, error) {
//	    return exec.Execute(ctx, in)
//	})
//
// By default only errors marked retryable (see errors.IsRetryable) are
// retried. Cancellation and timeouts never are.
package resilience
