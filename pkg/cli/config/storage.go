package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/service/storage"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage selects where exported register artefacts are kept
type Storage struct {
	bucket   string
	prefix   string
	localDir string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for exported artefacts",
			Category:    "Storage",
			Sources:     cli.EnvVars("THREATLINE_STORAGE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix inside the bucket",
			Category:    "Storage",
			Sources:     cli.EnvVars("THREATLINE_STORAGE_PREFIX"),
			Destination: &x.prefix,
		},
		&cli.StringFlag{
			Name:        "storage-dir",
			Usage:       "Local directory for exported artefacts (used when no bucket is set)",
			Category:    "Storage",
			Sources:     cli.EnvVars("THREATLINE_STORAGE_DIR"),
			Destination: &x.localDir,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.String("dir", x.localDir),
	)
}

// Configure returns the artefact store, or nil when neither a bucket nor a
// directory is configured. The returned function releases the client.
func (x *Storage) Configure(ctx context.Context) (interfaces.ArtefactStore, func(), error) {
	switch {
	case x.bucket != "":
		var opts []storage.GCSOption
		if x.prefix != "" {
			opts = append(opts, storage.WithObjectPrefix(x.prefix))
		}
		store, err := storage.NewGCS(ctx, x.bucket, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize cloud storage", goerr.V("bucket", x.bucket))
		}
		logging.Default().Info("Using Cloud Storage for artefacts", "bucket", x.bucket, "prefix", x.prefix)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close storage client", "error", err.Error())
			}
		}, nil

	case x.localDir != "":
		store, err := storage.NewLocal(x.localDir)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize local storage", goerr.V("dir", x.localDir))
		}
		logging.Default().Info("Using local directory for artefacts", "dir", x.localDir)
		return store, func() {}, nil

	default:
		return nil, func() {}, nil
	}
}
