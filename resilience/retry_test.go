package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 1 {
		t.Errorf("expected one successful call, got %q %v after %d calls", got, err, calls)
	}
}

func TestRetry_RetriesProviderErrors(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.Provider("gemini", stderrors.New("503"))
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected success, got %q %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		return 0, stderrors.New("bad prompt")
	})
	if err == nil || calls != 1 {
		t.Errorf("expected a single call and an error, got %d calls, err=%v", calls, err)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastConfig(2), func() (int, error) {
		calls++
		return 0, errors.Provider("p", nil)
	})
	if !errors.HasCode(err, errors.ErrCodeProvider) || calls != 2 {
		t.Errorf("expected provider error after 2 calls, got %v after %d", err, calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, fastConfig(3), func() (int, error) {
		calls++
		return 1, nil
	})
	if !stderrors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("expected context.Canceled without calls, got %v after %d", err, calls)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { attempts = append(attempts, attempt) }
	_, _ = Retry(context.Background(), cfg, func() (int, error) {
		return 0, errors.Provider("p", nil)
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected OnRetry attempts %v", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"provider", errors.Provider("p", nil), true},
		{"plain", stderrors.New("x"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"timeout code", errors.Timeout("n", time.Second), false},
		{"cancelled code", errors.Cancelled("n"), false},
	}
	for _, tc := range tests {
		if got := DefaultRetryIf(tc.err); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCalculateBackoffCapped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffFactor: 10}
	if got := calculateBackoff(3, cfg); got != 3*time.Second {
		t.Errorf("expected cap at 3s, got %v", got)
	}
	if got := calculateBackoff(1, cfg); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}
