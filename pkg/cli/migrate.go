package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes or the PostgreSQL schema",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case config.BackendPostgres:
				return migratePostgres(ctx, &repoCfg, dryRun)
			case config.BackendMemory:
				logging.Default().Info("In-memory repository needs no migration")
				return nil
			default:
				return goerr.Wrap(config.ErrInvalidBackend, "unknown repository backend",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()

	if projectID == "" {
		return goerr.Wrap(config.ErrMissingOption, "firestore-project-id is required",
			goerr.V(config.OptionKey, "firestore-project-id"))
	}

	client, err := fireconf.New(ctx, projectID, databaseID, getIndexConfig(),
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing index changes")
	} else {
		logger.Info("Applying index migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Index migration completed", "dry_run", dryRun)
	return nil
}

func migratePostgres(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	repo, err := repoCfg.ConfigurePostgres(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close postgres connection", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - connection verified, schema left unchanged")
		return nil
	}

	logger.Info("Applying schema migration")
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("Schema migration applied successfully")
	return nil
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "threats",
				Indexes: []fireconf.Index{
					// List with stage filter: stage ASC, created_at ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "stage", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
