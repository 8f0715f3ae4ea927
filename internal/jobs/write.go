// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/ev2m3u/ev2m3u/internal/log"
	"github.com/ev2m3u/ev2m3u/internal/playlist"
)

// writeM3U writes the playlist with atomic-replace semantics: temp file,
// fsync, rename. A crash mid-write never corrupts the previous playlist.
func writeM3U(ctx context.Context, path string, items []playlist.Item) error {
	logger := log.FromContext(ctx)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending M3U file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending M3U file")
		}
	}()

	if err := playlist.WriteM3U(pending, items); err != nil {
		return fmt.Errorf("write M3U data: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace M3U file: %w", err)
	}
	return nil
}
