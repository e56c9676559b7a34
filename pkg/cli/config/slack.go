package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken  string `masq:"secret"`
	channelID string
	baseURL   string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("THREATLINE_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives threat register notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("THREATLINE_SLACK_CHANNEL_ID"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the web UI used in notification links (e.g., https://your-domain.com)",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("THREATLINE_BASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
		slog.String("base-url", x.baseURL),
	)
}

// IsConfigured checks if Slack notification configuration is complete
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure returns a notifier, or nil when Slack is not configured. Setting
// only one of token and channel is an error.
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrMissingOption, "both --slack-bot-token and --slack-channel-id are required for notifications",
			goerr.V(OptionKey, "slack"))
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}

	var opts []slack.NotifierOption
	if x.baseURL != "" {
		opts = append(opts, slack.WithBaseURL(x.baseURL))
	}
	return slack.NewNotifier(svc, x.channelID, opts...), nil
}
