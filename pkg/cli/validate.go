package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Also check stored threats and links against the configuration",
		Sources:     cli.EnvVars("THREATLINE_VALIDATE_CHECK_DB"),
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if appCfg.Path() == "" {
				return goerr.Wrap(config.ErrMissingOption, "--config is required",
					goerr.V(config.OptionKey, "config"))
			}

			riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			subTechniques := 0
			for _, t := range riskCfg.Techniques {
				subTechniques += len(t.Subs)
			}
			logger.Info("Configuration validation passed",
				"path", appCfg.Path(),
				"likelihood_levels", len(riskCfg.Likelihood),
				"impact_levels", len(riskCfg.Impact),
				"techniques", len(riskCfg.Techniques),
				"sub_techniques", subTechniques,
			)

			if !checkDB {
				logger.Info("--check-db not set, skipping DB consistency check")
				return nil
			}

			repo, closeRepo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer closeRepo()

			uc := usecase.New(repo, usecase.WithRiskConfig(riskCfg))
			validationResult, err := uc.ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if validationResult.HasIssues() {
				for _, issue := range validationResult.Issues {
					logger.Warn("DB consistency issue found",
						"project_id", issue.ProjectID,
						"threat_id", issue.ThreatID,
						"link_id", issue.LinkID,
						"message", issue.Message,
						"expected", issue.Expected,
						"actual", issue.Actual,
					)
				}

				return fmt.Errorf("DB consistency check found %d issue(s)", len(validationResult.Issues))
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
