// SPDX-License-Identifier: MIT

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMirror means every mirror in the list failed. Callers must treat
	// this as a recoverable skip-run condition, not a crash.
	ErrNoMirror = errors.New("source: no mirror available")
	// ErrBadPayload means a mirror answered but the body was not decodable.
	ErrBadPayload = errors.New("source: invalid payload")
)

// MirrorError records why one mirror attempt failed.
type MirrorError struct {
	Mirror string
	Status int
	Err    error
}

func (e *MirrorError) Error() string {
	msg := fmt.Sprintf("source: mirror %s failed", e.Mirror)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MirrorError) Unwrap() error { return e.Err }

// ExhaustedError wraps ErrNoMirror with the per-mirror failures for
// diagnostics.
type ExhaustedError struct {
	Attempts []*MirrorError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s)", ErrNoMirror, len(e.Attempts))
}

func (e *ExhaustedError) Unwrap() error { return ErrNoMirror }
