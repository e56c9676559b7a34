package slack_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

type mockService struct {
	postMessageFn func(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error)
}

func (m *mockService) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	return m.postMessageFn(ctx, channelID, blocks, text)
}

func (m *mockService) GetTeamURL(ctx context.Context) (string, error) {
	return "https://example.slack.com/", nil
}

func sectionTexts(blocks []goslack.Block) []string {
	var texts []string
	for _, b := range blocks {
		switch block := b.(type) {
		case *goslack.SectionBlock:
			texts = append(texts, block.Text.Text)
		case *goslack.ContextBlock:
			for _, elem := range block.ContextElements.Elements {
				if obj, ok := elem.(*goslack.TextBlockObject); ok {
					texts = append(texts, obj.Text)
				}
			}
		}
	}
	return texts
}

func TestNotifier_NotifyThreatSaved(t *testing.T) {
	project := &model.Project{ID: "p1", Name: "Payments"}
	threat := &model.Threat{
		ID:        "t1",
		Statement: "An attacker with phishing can steal data.",
		Stage:     types.StageInitial,
		Rating:    &model.Rating{Score: 12},
	}

	t.Run("posts statement to configured channel", func(t *testing.T) {
		var channel, fallback string
		var blocks []goslack.Block
		svc := &mockService{
			postMessageFn: func(ctx context.Context, channelID string, b []goslack.Block, text string) (string, error) {
				channel, blocks, fallback = channelID, b, text
				return "ts", nil
			},
		}

		n := slack.NewNotifier(svc, "C999", slack.WithBaseURL("https://threatline.example.com/"))
		gt.NoError(t, n.NotifyThreatSaved(context.Background(), project, threat)).Required()

		gt.Value(t, channel).Equal("C999")
		gt.String(t, fallback).Contains("Payments")

		texts := sectionTexts(blocks)
		gt.Array(t, texts).Length(2).Required()
		gt.String(t, texts[0]).Contains(threat.Statement)
		gt.String(t, texts[1]).Contains("<https://threatline.example.com/projects/p1|Payments>")
		gt.String(t, texts[1]).Contains("*Score:* 12")
	})

	t.Run("wraps post failure", func(t *testing.T) {
		errPost := errors.New("rate limited")
		svc := &mockService{
			postMessageFn: func(ctx context.Context, channelID string, b []goslack.Block, text string) (string, error) {
				return "", errPost
			},
		}

		n := slack.NewNotifier(svc, "C999")
		err := n.NotifyThreatSaved(context.Background(), project, threat)
		gt.Error(t, err).Is(errPost)
	})
}

func TestControlLinkedBlocks(t *testing.T) {
	project := &model.Project{ID: "p1", Name: "Payments"}
	control := &model.Control{Title: "Enforce MFA", URL: "https://wiki/mfa"}
	family := []*model.Threat{
		{Statement: "parent", Stage: types.StageInitial},
		{Statement: "child", Stage: types.StageIntermediate},
	}

	texts := sectionTexts(slack.ControlLinkedBlocks(project, control, family, ""))
	gt.Array(t, texts).Length(3).Required()
	gt.Value(t, texts[0]).Equal("*<https://wiki/mfa|Enforce MFA>*")
	gt.Value(t, texts[1]).Equal("• [initial] parent\n• [intermediate] child")
	gt.String(t, texts[2]).Contains("*Status:* backlog")
}
