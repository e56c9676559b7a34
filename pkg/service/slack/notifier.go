package slack

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxSectionText is the Slack limit for a section block text
const maxSectionText = 3000

// Notifier posts threat register events to a single channel
type Notifier struct {
	svc       Service
	channelID string
	baseURL   string
}

// NotifierOption is a functional option for Notifier
type NotifierOption func(*Notifier)

// WithBaseURL sets the web UI URL used to build links back to projects
func WithBaseURL(url string) NotifierOption {
	return func(n *Notifier) {
		n.baseURL = strings.TrimSuffix(url, "/")
	}
}

// NewNotifier creates a Notifier posting to channelID
func NewNotifier(svc Service, channelID string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		svc:       svc,
		channelID: channelID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyThreatSaved posts a message for a newly saved threat statement
func (n *Notifier) NotifyThreatSaved(ctx context.Context, project *model.Project, threat *model.Threat) error {
	blocks := ThreatSavedBlocks(project, threat, n.projectURL(project))
	fallback := fmt.Sprintf("New %s threat in %s", threat.Stage, project.Name)

	if _, err := n.svc.PostMessage(ctx, n.channelID, blocks, fallback); err != nil {
		return goerr.Wrap(err, "failed to notify saved threat",
			goerr.V("projectID", project.ID),
			goerr.V("threatID", threat.ID))
	}
	return nil
}

// NotifyControlLinked posts a message when a control is applied to a threat family
func (n *Notifier) NotifyControlLinked(ctx context.Context, project *model.Project, control *model.Control, family []*model.Threat) error {
	blocks := ControlLinkedBlocks(project, control, family, n.projectURL(project))
	fallback := fmt.Sprintf("Control %q linked to %d threats in %s", control.Title, len(family), project.Name)

	if _, err := n.svc.PostMessage(ctx, n.channelID, blocks, fallback); err != nil {
		return goerr.Wrap(err, "failed to notify linked control",
			goerr.V("projectID", project.ID),
			goerr.V("controlID", control.ID))
	}
	return nil
}

func (n *Notifier) projectURL(project *model.Project) string {
	if n.baseURL == "" {
		return ""
	}
	return n.baseURL + "/projects/" + project.ID.String()
}

// ThreatSavedBlocks builds the Block Kit message for a saved threat
func ThreatSavedBlocks(project *model.Project, threat *model.Threat, projectURL string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Threat statement saved", true, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncate(">"+threat.Statement, maxSectionText), false, false),
			nil, nil,
		),
	}

	fields := []string{
		"*Project:* " + projectLabel(project, projectURL),
		"*Stage:* " + threat.Stage.String(),
	}
	if threat.Rating != nil {
		fields = append(fields, fmt.Sprintf("*Score:* %d", threat.Rating.Score))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(fields, "  |  "), false, false),
	))
	return blocks
}

// ControlLinkedBlocks builds the Block Kit message for a control applied to a family
func ControlLinkedBlocks(project *model.Project, control *model.Control, family []*model.Threat, projectURL string) []slack.Block {
	title := control.Title
	if control.URL != "" {
		title = fmt.Sprintf("<%s|%s>", control.URL, control.Title)
	}

	var lines []string
	for _, threat := range family {
		lines = append(lines, fmt.Sprintf("• [%s] %s", threat.Stage, threat.Statement))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Control linked", true, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "*"+title+"*", false, false),
			nil, nil,
		),
	}
	if len(lines) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncate(strings.Join(lines, "\n"), maxSectionText), false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Project:* %s  |  *Status:* %s", projectLabel(project, projectURL), control.Status.Normalize()),
			false, false),
	))
	return blocks
}

func projectLabel(project *model.Project, projectURL string) string {
	if projectURL == "" {
		return project.Name
	}
	return fmt.Sprintf("<%s|%s>", projectURL, project.Name)
}

// truncate cuts s to at most limit runes, marking the cut with an ellipsis
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
