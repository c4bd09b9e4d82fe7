package healthcare

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Retry metrics.
var (
	retryCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicomweb_client_retry_count",
		Help: "Total number of retried requests by response status",
	}, []string{"status"})
)

// Defaults of the retry policy used against the Cloud Healthcare API.
const (
	DefaultMaxAttempts = 5
	DefaultBaseWait    = 2 * time.Second
	DefaultMaxWait     = 32 * time.Second
)

// RetryPolicy decides, per response, whether another attempt should be made
// and how long to wait before it. Waits double from BaseWait up to MaxWait.
type RetryPolicy struct {
	// Maximum number of attempts, including the first one.
	MaxAttempts int

	// Wait before the second attempt. Doubles for every attempt after
	// that.
	BaseWait time.Duration

	// Upper bound on the wait between two attempts.
	MaxWait time.Duration

	// RetryOn reports whether a response status is worth another attempt.
	RetryOn func(status int) bool

	// Sleep waits between attempts and returns early with the context's
	// error when it is canceled. Replaceable in tests; nil means a real
	// context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the policy applied to every DICOMweb request
// unless overridden: up to 5 attempts with waits of 2s, 4s, 8s and 16s
// (capped at 32s), retrying on 429, 408, 503 and 504 responses.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseWait:    DefaultBaseWait,
		MaxWait:     DefaultMaxWait,
		RetryOn:     IsRetriableHTTPStatus,
	}
}

// IsRetriableHTTPStatus reports whether the given response status describes a
// transient server condition.
func IsRetriableHTTPStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Do invokes fn until it returns a non-retriable outcome or the attempt cap
// is reached. Transport-level errors from fn are terminal and propagate
// immediately; only response statuses are retried. The last outcome is
// returned even when its status is still retriable, leaving status
// validation to the caller.
func (p *RetryPolicy) Do(ctx context.Context, fn func() (*httpOutcome, error)) (*httpOutcome, error) {
	wait := p.BaseWait
	for attempt := 1; ; attempt++ {
		outcome, err := fn()
		if err != nil {
			return nil, err
		}
		if attempt >= p.MaxAttempts || !p.RetryOn(outcome.status) {
			return outcome, nil
		}

		retryCount.WithLabelValues(strconv.Itoa(outcome.status)).Inc()
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
		if wait *= 2; wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
