package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{name: "empty", value: "", wantOK: false},
		{name: "seconds", value: "3", want: 3 * time.Second, wantOK: true},
		{name: "negative", value: "-1", wantOK: false},
		{name: "http date", value: now.Add(2 * time.Second).Format(http.TimeFormat), want: 2 * time.Second, wantOK: true},
		{name: "date in the past", value: now.Add(-time.Minute).Format(http.TimeFormat), want: 0, wantOK: true},
		{name: "garbage", value: "soon", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseRetryAfter(tt.value, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetryBackoff(t *testing.T) {
	t.Parallel()

	minWait := 10 * time.Millisecond
	maxWait := 50 * time.Millisecond

	assert.Equal(t, 10*time.Millisecond, retryBackoff(minWait, maxWait, 0, nil))
	assert.Equal(t, 20*time.Millisecond, retryBackoff(minWait, maxWait, 1, nil))
	assert.Equal(t, 40*time.Millisecond, retryBackoff(minWait, maxWait, 2, nil))
	assert.Equal(t, maxWait, retryBackoff(minWait, maxWait, 3, nil))
	assert.Equal(t, maxWait, retryBackoff(minWait, maxWait, 200, nil))

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"2"}}}
	assert.Equal(t, 2*time.Second, retryBackoff(minWait, maxWait, 0, resp))
}

func TestCheckRetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tooMany := &http.Response{StatusCode: http.StatusTooManyRequests}
	unavailable := &http.Response{StatusCode: http.StatusServiceUnavailable}

	retry, err := checkRetry(true)(ctx, tooMany, nil)
	assert.NoError(t, err)
	assert.True(t, retry)

	retry, err = checkRetry(false)(ctx, tooMany, nil)
	assert.NoError(t, err)
	assert.False(t, retry)

	retry, err = checkRetry(true)(ctx, unavailable, nil)
	assert.NoError(t, err)
	assert.False(t, retry)

	retry, err = checkRetry(true)(ctx, nil, context.DeadlineExceeded)
	assert.NoError(t, err)
	assert.False(t, retry)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	retry, err = checkRetry(true)(cancelled, tooMany, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, retry)
}
