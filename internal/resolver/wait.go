// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"time"
)

// awaitCandidate races the found channel against the resolve timeout and the
// caller's context. The navigation settle period runs concurrently; whichever
// signal arrives first wins. A closed-without-value found channel degrades to
// the timeout path.
func awaitCandidate(ctx context.Context, found <-chan string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case u, ok := <-found:
		if !ok || u == "" {
			return "", ErrNotFound
		}
		return u, nil
	case <-timer.C:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
