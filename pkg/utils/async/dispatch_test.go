package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	t.Run("runs the handler", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
			close(done)
			return nil
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler was not executed")
		}
	})

	t.Run("survives cancellation of the caller context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		errCh := make(chan error, 1)
		async.Dispatch(ctx, "test", func(ctx context.Context) error {
			errCh <- ctx.Err()
			return errors.New("ignored")
		})

		select {
		case err := <-errCh:
			gt.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("handler was not executed")
		}
	})

	t.Run("recovers from panic", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
			defer close(done)
			panic("boom")
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler was not executed")
		}
	})
}
