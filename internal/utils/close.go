package utils

import (
	"io"

	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// DrainClose discards up to 64KiB of what is left in an HTTP body and closes
// it, so the underlying connection can go back to the pool.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 64<<10))
	_ = rc.Close()
}

// CloseLogged closes c and logs a warning naming what failed to close.
// Use for shutdown paths where we want to track close errors.
func CloseLogged(c io.Closer, log logger.Logger, name string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
	}
}
