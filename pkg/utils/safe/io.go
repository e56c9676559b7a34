package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

// Close closes closer and logs a failure instead of returning it. Nil closers
// are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. Used once response headers are
// already committed and there is nobody left to return the error to.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write", slog.Any("error", err), slog.Int("size", len(data)))
	}
}
