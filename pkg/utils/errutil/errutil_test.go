package errutil_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(context.Background(), nil, "noop"))
	})

	t.Run("returns the original error", func(t *testing.T) {
		base := errors.New("boom")
		err := goerr.Wrap(base, "wrapped", goerr.V("threat_id", "t1"))

		got := errutil.Handle(context.Background(), err, "failed")
		gt.Error(t, got).Is(base)
	})
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, goerr.New("not found"), http.StatusNotFound)

	gt.Value(t, w.Code).Equal(http.StatusNotFound)
	gt.String(t, w.Body.String()).Contains(`"error":"not found"`)
	gt.Value(t, w.Header().Get("Content-Type")).Equal("application/json")
}

func newCapturingHub(t *testing.T) (context.Context, *[]*sentry.Event) {
	t.Helper()
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err).Required()

	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), &events
}

func TestHandleHTTP_ReportsServerErrors(t *testing.T) {
	ctx, events := newCapturingHub(t)

	w := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, w, goerr.New("store down", goerr.V("threat_id", "t1")), http.StatusInternalServerError)

	gt.Array(t, *events).Length(1).Required()
	values := (*events)[0].Contexts["goerr"]
	gt.Value(t, values).NotNil().Required()
	gt.Value(t, values["threat_id"]).Equal(any("t1"))
}

func TestHandleHTTP_DoesNotReportClientErrors(t *testing.T) {
	ctx, events := newCapturingHub(t)

	w := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, w, goerr.New("bad input"), http.StatusBadRequest)

	gt.Array(t, *events).Length(0)
}
