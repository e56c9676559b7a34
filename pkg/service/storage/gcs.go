package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/utils/safe"
	"google.golang.org/api/iterator"
)

var _ interfaces.ArtefactStore = (*GCS)(nil)

// GCS stores artefacts in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSOption is a functional option for GCS
type GCSOption func(*GCS)

// WithObjectPrefix prepends prefix to every object name
func WithObjectPrefix(prefix string) GCSOption {
	return func(g *GCS) {
		g.prefix = strings.Trim(prefix, "/")
	}
}

// NewGCS creates a bucket-backed store using application default credentials
func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	g := &GCS{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Close closes the underlying client
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) objectName(path string) string {
	if g.prefix == "" {
		return path
	}
	return g.prefix + "/" + path
}

// Put writes data to the object at path
func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(g.objectName(path)).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", g.bucket), goerr.V("path", path))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", g.bucket), goerr.V("path", path))
	}
	return nil
}

// Get reads the object at path
func (g *GCS) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := g.client.Bucket(g.bucket).Object(g.objectName(path)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "object not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("bucket", g.bucket), goerr.V("path", path))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("bucket", g.bucket), goerr.V("path", path))
	}
	return data, nil
}

// List returns objects whose path starts with prefix
func (g *GCS) List(ctx context.Context, prefix string) ([]*interfaces.ObjectInfo, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.objectName(prefix)})

	var objects []*interfaces.ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list objects", goerr.V("bucket", g.bucket), goerr.V("prefix", prefix))
		}

		name := attrs.Name
		if g.prefix != "" {
			name = strings.TrimPrefix(name, g.prefix+"/")
		}
		objects = append(objects, &interfaces.ObjectInfo{
			Path:      name,
			Size:      attrs.Size,
			CreatedAt: attrs.Created.UTC(),
		})
	}
	return objects, nil
}
