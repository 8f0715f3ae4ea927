// SPDX-License-Identifier: MIT

// Package resolver turns opaque embed page references into direct stream
// URLs by driving a headless browser and observing its network traffic.
package resolver

import (
	"context"
	"errors"
	"regexp"
)

var (
	// ErrTimeout means no candidate arrived before the resolve timeout.
	// Expected and non-fatal: most attempts time out when no stream is
	// live yet.
	ErrTimeout = errors.New("resolver: timed out waiting for stream URL")
	// ErrNotFound means neither live capture nor the content scan produced
	// a candidate. Also expected and non-fatal.
	ErrNotFound = errors.New("resolver: no stream URL found")
)

// Resolver resolves an embed reference into a direct stream URL.
type Resolver interface {
	Resolve(ctx context.Context, embedRef string) (string, error)
}

// DefaultPattern matches scheme-qualified URLs carrying an HLS manifest
// extension.
const DefaultPattern = `https?://[^"'\s>]+\.m3u8[^"'\s>]*`

// Matcher recognizes direct stream URLs in request traffic and in rendered
// page content.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles pattern, falling back to DefaultPattern when empty.
func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re}, nil
}

// MatchURL reports whether a single outgoing request URL is a direct stream
// URL.
func (m *Matcher) MatchURL(u string) bool {
	return m.re.MatchString(u)
}

// ScanContent returns the first direct stream URL in document order, or ""
// when the content holds none. Document order is the deliberate tie-break for
// the fallback path; live capture uses first-observed order instead.
func (m *Matcher) ScanContent(content string) string {
	return m.re.FindString(content)
}

// ScanContentAll returns every distinct candidate in document order.
func (m *Matcher) ScanContentAll(content string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range m.re.FindAllString(content, -1) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
