package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service provides interface to Slack API for threat register notifications
type Service interface {
	// PostMessage posts a Block Kit message to a channel and returns the message timestamp.
	// The text parameter is used as a fallback for notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)

	// GetTeamURL retrieves the Slack workspace URL (e.g., "https://example.slack.com/")
	// The result is cached for the lifetime of the service instance.
	GetTeamURL(ctx context.Context) (string, error)
}
