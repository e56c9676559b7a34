package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/repository/firestore"
	"github.com/secmon-lab/threatline/pkg/repository/memory"
	"github.com/secmon-lab/threatline/pkg/repository/postgres"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Supported repository backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend     string
	projectID   string
	databaseID  string
	postgresDSN string `masq:"secret"`
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or postgres)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("THREATLINE_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("THREATLINE_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Value:       "(default)",
			Sources:     cli.EnvVars("THREATLINE_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL connection string (required when using postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("THREATLINE_POSTGRES_DSN"),
			Destination: &r.postgresDSN,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.Int("postgres_dsn.len", len(r.postgresDSN)),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Configure initializes and returns a repository based on the configured
// backend. The returned function releases the backend connection.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, func(), error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, nil, goerr.Wrap(ErrMissingOption, "firestore-project-id is required when using firestore backend",
				goerr.V(OptionKey, "firestore-project-id"))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, closeWithLog(repo.Close, "firestore"), nil

	case BackendPostgres:
		repo, err := r.configurePostgres(ctx)
		if err != nil {
			return nil, nil, err
		}
		logging.Default().Info("Using PostgreSQL repository")
		return repo, closeWithLog(repo.Close, "postgres"), nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), func() {}, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "unknown repository backend", goerr.V(BackendKey, r.backend))
	}
}

// ConfigurePostgres connects to PostgreSQL regardless of the selected
// backend. Used by migrate.
func (r *Repository) ConfigurePostgres(ctx context.Context) (*postgres.Postgres, error) {
	return r.configurePostgres(ctx)
}

func (r *Repository) configurePostgres(ctx context.Context) (*postgres.Postgres, error) {
	if r.postgresDSN == "" {
		return nil, goerr.Wrap(ErrMissingOption, "postgres-dsn is required when using postgres backend",
			goerr.V(OptionKey, "postgres-dsn"))
	}
	repo, err := postgres.New(ctx, r.postgresDSN)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize postgres repository")
	}
	return repo, nil
}

func closeWithLog(closeFn func() error, name string) func() {
	return func() {
		if err := closeFn(); err != nil {
			logging.Default().Error("failed to close repository", "backend", name, "error", err.Error())
		}
	}
}
