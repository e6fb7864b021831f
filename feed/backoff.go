package feed

import (
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	backoffBase = 10 * time.Second
	backoffStep = 5 * time.Second
)

// QuadraticBackoff returns a backoff whose n-th delay is base + step*n²,
// starting at n = 1. It is not safe for concurrent use, matching the
// single-goroutine scheduler that owns it.
func QuadraticBackoff(base, step time.Duration) retry.Backoff {
	var attempt int

	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++

		return backoffDelay(base, step, attempt), false
	})
}

// backoffDelay computes base + step*n² for the n-th consecutive failure
func backoffDelay(base, step time.Duration, n int) time.Duration {
	return base + step*time.Duration(n*n)
}
