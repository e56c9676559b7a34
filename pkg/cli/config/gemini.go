package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/service/technique"
	"github.com/urfave/cli/v3"
)

// Gemini holds configuration for the Gemini LLM client
type Gemini struct {
	projectID      string
	location       string
	maxSuggestions int
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("THREATLINE_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("THREATLINE_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.IntFlag{
			Name:        "max-suggestions",
			Usage:       "Maximum number of ATT&CK technique suggestions per request",
			Category:    "LLM",
			Value:       technique.DefaultMaxSuggestions,
			Sources:     cli.EnvVars("THREATLINE_MAX_SUGGESTIONS"),
			Destination: &g.maxSuggestions,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.Int("max_suggestions", g.maxSuggestions),
	}
}

// Configure creates a new Gemini LLM client from the configured flags.
// Returns nil if projectID is not configured (technique suggestions will be disabled).
func (g *Gemini) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, nil
	}

	client, err := gemini.New(ctx, g.projectID, g.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	return client, nil
}

// ConfigureSuggester wraps the Gemini client in a technique suggester.
// Returns nil when Gemini is not configured.
func (g *Gemini) ConfigureSuggester(ctx context.Context) (interfaces.TechniqueSuggester, error) {
	client, err := g.Configure(ctx)
	if err != nil || client == nil {
		return nil, err
	}

	var opts []technique.Option
	if g.maxSuggestions > 0 {
		opts = append(opts, technique.WithMaxSuggestions(g.maxSuggestions))
	}
	svc, err := technique.New(client, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create technique suggester")
	}
	return svc, nil
}
