// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ev2m3u/ev2m3u/internal/log"
)

const maxPayloadSize = 16 << 20 // 16 MiB catalog cap

// Client fetches catalog payloads with strict in-order mirror fallback. Each
// mirror gets exactly one try per run; the ordered list is the retry
// mechanism.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a Client with the given per-mirror timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Fetch tries each mirror in order and returns the first payload the adapter
// can decode, together with the decoded groups. All mirrors failing yields an
// ExhaustedError wrapping ErrNoMirror.
func (c *Client) Fetch(ctx context.Context, mirrors []string, adapter Adapter) ([]byte, []Group, error) {
	logger := log.WithComponentFromContext(ctx, "source")
	exhausted := &ExhaustedError{}
	for _, mirror := range mirrors {
		body, status, err := c.get(ctx, mirror)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "source.mirror_failed").
				Str("mirror", mirror).
				Msg("mirror fetch failed")
			exhausted.Attempts = append(exhausted.Attempts, &MirrorError{Mirror: mirror, Status: status, Err: err})
			continue
		}
		groups, err := adapter.Decode(body)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "source.mirror_bad_payload").
				Str("mirror", mirror).
				Msg("mirror returned undecodable payload")
			exhausted.Attempts = append(exhausted.Attempts, &MirrorError{Mirror: mirror, Err: ErrBadPayload})
			continue
		}
		logger.Info().
			Str("event", "source.fetched").
			Str("mirror", mirror).
			Int("groups", len(groups)).
			Msg("catalog fetched")
		return body, groups, nil
	}
	return nil, nil, exhausted
}

// PickBase returns the first base mirror answering with a success status.
// When none respond the first mirror is returned anyway so downstream URL
// construction still has a deterministic base.
func (c *Client) PickBase(ctx context.Context, mirrors []string) string {
	if len(mirrors) == 0 {
		return ""
	}
	logger := log.WithComponentFromContext(ctx, "source")
	for _, mirror := range mirrors {
		_, _, err := c.get(ctx, mirror)
		if err == nil {
			return mirror
		}
		logger.Debug().
			Err(err).
			Str("event", "source.base_probe_failed").
			Str("mirror", mirror).
			Msg("base mirror probe failed")
	}
	return mirrors[0]
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "ev2m3u/1.0")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, res.StatusCode, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxPayloadSize))
	if err != nil {
		return nil, res.StatusCode, err
	}
	return body, res.StatusCode, nil
}
