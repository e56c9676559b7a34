package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

// Dispatch runs handler in its own goroutine detached from the caller's
// cancellation. The caller's logger is carried over; errors and panics are
// logged under the given task name and never propagated.
func Dispatch(ctx context.Context, task string, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx).With("task", task))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async task", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async task failed", "error", goerr.Unwrap(err))
		}
	}()
}
