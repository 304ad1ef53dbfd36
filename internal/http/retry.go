package http

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// attemptsKey carries the per-call attempt counter through retryablehttp.
type attemptsKey struct{}

type attempts struct {
	count int
}

func withAttempts(ctx context.Context) (context.Context, *attempts) {
	counter := &attempts{}

	return context.WithValue(ctx, attemptsKey{}, counter), counter
}

func attemptsFrom(ctx context.Context) *attempts {
	counter, _ := ctx.Value(attemptsKey{}).(*attempts)

	return counter
}

// checkRetry retries HTTP 429 only, and only when enabled. Network errors and
// every other status surface immediately.
func checkRetry(enabled bool) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil || resp == nil {
			return false, nil
		}

		return enabled && resp.StatusCode == http.StatusTooManyRequests, nil
	}
}

// retryBackoff honours Retry-After and otherwise backs off exponentially
// between minWait and maxWait.
func retryBackoff(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if wait, ok := parseRetryAfter(resp.Header.Get(constants.HeaderRetryAfter), time.Now()); ok {
			return wait
		}
	}

	mult := math.Pow(constants.ExponentialBackoffBase, float64(attemptNum)) * float64(minWait)

	wait := time.Duration(mult)
	if float64(wait) != mult || wait > maxWait {
		wait = maxWait
	}

	return wait
}

// parseRetryAfter reads a Retry-After value given as seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}

		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait, true
}
