package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/secmon-lab/threatline/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdExport() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var storageCfg config.Storage
	var projectID string
	var output string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project whose threat register is exported",
			Required:    true,
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the register to this file instead of storing a new version ('-' for stdout)",
			Destination: &output,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:    "export",
		Aliases: []string{"e"},
		Usage:   "Export a project's threat register as Markdown",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load risk configuration")
			}

			repo, closeRepo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer closeRepo()

			ucOpts := []usecase.Option{usecase.WithRiskConfig(riskCfg)}
			if output == "" {
				store, closeStore, err := storageCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to configure artefact storage")
				}
				defer closeStore()
				if store == nil {
					return goerr.Wrap(config.ErrMissingOption, "set --storage-bucket or --storage-dir, or use --output",
						goerr.V(config.OptionKey, "storage"))
				}
				ucOpts = append(ucOpts, usecase.WithArtefactStore(store))
			}

			uc := usecase.New(repo, ucOpts...)
			pid := model.ProjectID(projectID)

			if output != "" {
				data, err := uc.Artefact.RenderRegister(ctx, pid)
				if err != nil {
					return err
				}
				if output == "-" {
					safe.Write(ctx, os.Stdout, data)
					return nil
				}
				if err := os.WriteFile(output, data, 0600); err != nil {
					return goerr.Wrap(err, "failed to write register", goerr.V("path", output))
				}
				logger.Info("Register written", "path", output, "size", len(data))
				return nil
			}

			artefact, err := uc.Artefact.ExportRegister(ctx, pid)
			if err != nil {
				return err
			}
			logger.Info("Register exported",
				"project_id", artefact.ProjectID,
				"version", artefact.Version,
				"path", artefact.Path,
				"size", artefact.Size,
			)
			return nil
		},
	}
}
