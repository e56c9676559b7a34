package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	httpctrl "github.com/secmon-lab/threatline/pkg/controller/http"
	"github.com/secmon-lab/threatline/pkg/service/worker"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var exportInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var geminiCfg config.Gemini
	var storageCfg config.Storage

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("THREATLINE_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "export-interval",
			Usage:       "Export a new register version for changed projects at this interval (0 disables)",
			Category:    "Storage",
			Sources:     cli.EnvVars("THREATLINE_EXPORT_INTERVAL"),
			Destination: &exportInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
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

			ucOpts := []usecase.Option{
				usecase.WithRiskConfig(riskCfg),
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack notifier")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logger.Info("Slack notification enabled", "slack", slackCfg)
			} else {
				logger.Info("Slack not configured, notifications are disabled")
			}

			suggester, err := geminiCfg.ConfigureSuggester(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure technique suggester")
			}
			if suggester != nil {
				ucOpts = append(ucOpts, usecase.WithSuggester(suggester))
				logger.LogAttrs(ctx, slog.LevelInfo, "ATT&CK technique suggestion enabled", geminiCfg.LogAttrs()...)
			} else {
				logger.Info("Gemini project not configured, technique suggestion is disabled")
			}

			store, closeStore, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure artefact storage")
			}
			defer closeStore()
			if store != nil {
				ucOpts = append(ucOpts, usecase.WithArtefactStore(store))
			} else {
				logger.Info("Artefact storage not configured, register export is disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			var exportWorker *worker.RegisterExportWorker
			if store != nil && exportInterval > 0 {
				exportWorker = worker.NewRegisterExportWorker(repo, uc.Artefact, exportInterval)
				if err := exportWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start register export worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"likelihood_levels", len(riskCfg.Likelihood),
					"impact_levels", len(riskCfg.Impact),
					"techniques", len(riskCfg.Techniques),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				if exportWorker != nil {
					exportWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
