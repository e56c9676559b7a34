package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdCompose() *cli.Command {
	var appCfg config.AppConfig
	var draftPath string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "draft",
			Aliases:     []string{"d"},
			Usage:       "Path to the TOML draft (items, links and stage inputs)",
			Required:    true,
			Destination: &draftPath,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "compose",
		Usage: "Compose a threat statement offline from a TOML draft",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load risk configuration")
			}

			d, err := loadDraft(draftPath)
			if err != nil {
				return err
			}

			results, err := d.compose(riskCfg)
			if err != nil {
				return goerr.Wrap(err, "failed to compose draft", goerr.V("draft", draftPath))
			}

			printResults(os.Stdout, results)
			return nil
		},
	}
}

var (
	stageColor      = color.New(color.FgCyan, color.Bold)
	statementColor  = color.New(color.FgGreen)
	diagnosticColor = color.New(color.FgYellow)
	conflictColor   = color.New(color.FgRed)
)

func printResults(w io.Writer, results []*stageResult) {
	for _, r := range results {
		_, _ = stageColor.Fprintf(w, "[%s]\n", r.Stage)

		if r.Composition.Complete {
			_, _ = statementColor.Fprintln(w, r.Composition.Statement)
		} else {
			_, _ = diagnosticColor.Fprintln(w, r.Composition.Statement)
		}

		for _, conflict := range r.Composition.Conflicts {
			_, _ = conflictColor.Fprintf(w, "  conflict: %s %q replaced by %q\n",
				conflict.Role, conflict.Previous, conflict.Current)
		}
		_, _ = fmt.Fprintln(w)
	}
}
