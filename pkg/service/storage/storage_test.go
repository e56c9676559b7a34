package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/service/storage"
)

func runArtefactStoreTest(t *testing.T, store interfaces.ArtefactStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Put then Get", func(t *testing.T) {
		gt.NoError(t, store.Put(ctx, "projects/p1/register/v1.md", []byte("# v1"), "text/markdown")).Required()

		data, err := store.Get(ctx, "projects/p1/register/v1.md")
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal("# v1")
	})

	t.Run("Get returns ErrNotFound for missing object", func(t *testing.T) {
		_, err := store.Get(ctx, "projects/p1/register/v99.md")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List filters by prefix", func(t *testing.T) {
		gt.NoError(t, store.Put(ctx, "projects/p1/register/v2.md", []byte("# v2"), "text/markdown")).Required()
		gt.NoError(t, store.Put(ctx, "projects/p2/register/v1.md", []byte("# other"), "text/markdown")).Required()

		objects, err := store.List(ctx, "projects/p1/register/")
		gt.NoError(t, err).Required()
		gt.Array(t, objects).Length(2).Required()

		var paths []string
		for _, obj := range objects {
			paths = append(paths, obj.Path)
			gt.Bool(t, obj.Size > 0).True()
		}
		gt.Array(t, paths).Has("projects/p1/register/v1.md")
		gt.Array(t, paths).Has("projects/p1/register/v2.md")
	})
}

func TestLocal(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	gt.NoError(t, err).Required()
	runArtefactStoreTest(t, store)

	t.Run("rejects paths escaping the root", func(t *testing.T) {
		err := store.Put(context.Background(), "../outside.md", []byte("x"), "text/markdown")
		gt.Value(t, err).NotNil()
	})
}

func TestGCS(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set")
	}

	ctx := context.Background()
	store, err := storage.NewGCS(ctx, bucket, storage.WithObjectPrefix(fmt.Sprintf("test_%d", time.Now().UnixNano())))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, store.Close())
	})

	runArtefactStoreTest(t, store)
}
