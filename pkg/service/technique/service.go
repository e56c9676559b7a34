package technique

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

// DefaultMaxSuggestions caps the number of suggestions returned
const DefaultMaxSuggestions = 5

var _ interfaces.TechniqueSuggester = (*client)(nil)

// client implements Service interface
type client struct {
	llmClient      gollem.LLMClient
	maxSuggestions int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithMaxSuggestions sets the maximum number of returned suggestions
func WithMaxSuggestions(n int) Option {
	return func(c *client) {
		c.maxSuggestions = n
	}
}

// New creates a new technique suggestion service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient:      llmClient,
		maxSuggestions: DefaultMaxSuggestions,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Suggest asks the LLM for catalog techniques matching the statement
func (c *client) Suggest(ctx context.Context, statement string, catalog []config.Technique) ([]*model.TechniqueSuggestion, error) {
	if strings.TrimSpace(statement) == "" || len(catalog) == 0 {
		return nil, nil
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(buildSystemPrompt(c.maxSuggestions)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(buildUserPrompt(statement, catalog))})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty LLM response")
	}

	var llmResp llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &llmResp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}

	cfg := &config.RiskConfig{Techniques: catalog}
	seen := make(map[string]struct{})
	suggestions := make([]*model.TechniqueSuggestion, 0, len(llmResp.Techniques))

	for _, t := range llmResp.Techniques {
		tech, ok := resolve(cfg, t)
		if !ok {
			logging.From(ctx).Warn("LLM suggested technique outside catalog",
				"technique_id", t.TechniqueID,
				"sub_technique_id", t.SubTechniqueID)
			continue
		}

		key := tech.TechniqueID + "/" + tech.SubTechniqueID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		suggestions = append(suggestions, &model.TechniqueSuggestion{
			Technique: tech,
			Reason:    t.Reason,
		})
		if c.maxSuggestions > 0 && len(suggestions) >= c.maxSuggestions {
			break
		}
	}

	return suggestions, nil
}

// resolve maps an LLM answer to a catalog entry. A sub-technique ID must
// belong to the named technique when both are given.
func resolve(cfg *config.RiskConfig, t llmTechnique) (model.AttackTechnique, bool) {
	if t.SubTechniqueID != "" {
		parent, sub, ok := cfg.FindTechnique(t.SubTechniqueID)
		if !ok || sub == nil {
			return model.AttackTechnique{}, false
		}
		if t.TechniqueID != "" && t.TechniqueID != parent.ID {
			return model.AttackTechnique{}, false
		}
		return model.AttackTechnique{
			TechniqueID:      parent.ID,
			TechniqueName:    parent.Name,
			SubTechniqueID:   sub.ID,
			SubTechniqueName: sub.Name,
		}, true
	}

	parent, sub, ok := cfg.FindTechnique(t.TechniqueID)
	if !ok || sub != nil {
		return model.AttackTechnique{}, false
	}
	return model.AttackTechnique{
		TechniqueID:   parent.ID,
		TechniqueName: parent.Name,
	}, true
}

// buildSystemPrompt creates the fixed system prompt for technique selection
func buildSystemPrompt(limit int) string {
	var sb strings.Builder

	sb.WriteString("You are a threat modelling assistant. Your task is to map a threat statement to MITRE ATT&CK techniques.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Read the threat statement and decide which techniques an adversary would use to carry it out.\n")
	sb.WriteString("2. Only choose techniques and sub-techniques listed in the catalog. Never invent IDs.\n")
	sb.WriteString("3. For each technique provide:\n")
	sb.WriteString("   - technique_id: The technique ID from the catalog (e.g. T1566)\n")
	sb.WriteString("   - sub_technique_id: The sub-technique ID when a specific one applies, otherwise an empty string\n")
	sb.WriteString("   - reason: One sentence on why the technique fits (in the same language as the statement)\n")
	if limit > 0 {
		fmt.Fprintf(&sb, "4. Return at most %d techniques, most relevant first.\n", limit)
	}

	return sb.String()
}

// buildUserPrompt lists the catalog followed by the statement
func buildUserPrompt(statement string, catalog []config.Technique) string {
	var sb strings.Builder

	sb.WriteString("## Technique catalog:\n\n")
	for _, t := range catalog {
		fmt.Fprintf(&sb, "- %s: %s\n", t.ID, t.Name)
		if t.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", t.Description)
		}
		for _, sub := range t.Subs {
			fmt.Fprintf(&sb, "  - %s: %s\n", sub.ID, sub.Name)
		}
	}

	sb.WriteString("\n## Threat statement:\n\n")
	sb.WriteString(statement)
	sb.WriteString("\n")

	return sb.String()
}

// buildResponseSchema creates the JSON schema for structured output
func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "TechniqueSuggestionResponse",
		Description: "ATT&CK techniques that realise the threat statement",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"techniques": {
				Type:        gollem.TypeArray,
				Description: "Suggested techniques, most relevant first",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"technique_id": {
							Type:        gollem.TypeString,
							Description: "Technique ID from the catalog",
							Required:    true,
						},
						"sub_technique_id": {
							Type:        gollem.TypeString,
							Description: "Sub-technique ID from the catalog, or empty",
						},
						"reason": {
							Type:        gollem.TypeString,
							Description: "Why the technique fits the statement",
							Required:    true,
						},
					},
				},
			},
		},
	}
}
