package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 100 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
)

type retryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newRetryer() retryer {
	return retryer{
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

// do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out.
func (r retryer) do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || !isRetryableError(err) {
			return err
		}

		lastErr = err
		if attempt < r.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay(attempt)):
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// delay is exponential backoff with ±25% jitter, capped at maxDelay.
func (r retryer) delay(attempt int) time.Duration {
	d := float64(r.baseDelay) * math.Pow(2.0, float64(attempt))
	d += d * 0.25 * (2*rand.Float64() - 1)
	if d > float64(r.maxDelay) {
		d = float64(r.maxDelay)
	}
	return time.Duration(d)
}

func isRetryableError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "RequestTimeoutException", "InternalError":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code >= 500 && code < 600
	}

	return errors.Is(err, io.ErrUnexpectedEOF)
}
