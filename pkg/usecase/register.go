package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

var stageTitles = map[types.Stage]string{
	types.StageInitial:      "Initial threats",
	types.StageIntermediate: "Intermediate threats",
	types.StageFinal:        "Final threats",
}

func renderRegister(project *model.Project, threats []*model.Threat, controls map[model.ThreatID][]*model.Control, cfg *config.RiskConfig, generatedAt time.Time) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Threat register: %s\n\n", project.Name)
	if project.Description != "" {
		sb.WriteString(project.Description)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Generated at %s\n", generatedAt.Format(time.RFC3339))

	for _, stage := range types.AllStages() {
		var inStage []*model.Threat
		for _, t := range threats {
			if t.Stage == stage {
				inStage = append(inStage, t)
			}
		}
		if len(inStage) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "\n## %s\n", stageTitles[stage])
		for i, t := range inStage {
			fmt.Fprintf(&sb, "\n### %d. %s\n\n", i+1, t.Statement)
			writeRating(&sb, t.Rating, cfg)
			if t.Components != nil && len(t.Components.Techniques) > 0 {
				labels := make([]string, 0, len(t.Components.Techniques))
				for _, tech := range t.Components.Techniques {
					labels = append(labels, tech.Label())
				}
				fmt.Fprintf(&sb, "- Techniques: %s\n", strings.Join(labels, ", "))
			}
			writeControls(&sb, controls[t.ID])
		}
	}

	return []byte(sb.String())
}

func writeRating(sb *strings.Builder, rating *model.Rating, cfg *config.RiskConfig) {
	if rating == nil {
		sb.WriteString("- Rating: not rated\n")
		return
	}

	likelihood := rating.LikelihoodID.String()
	if l, ok := cfg.FindLikelihood(likelihood); ok {
		likelihood = l.Name
	}
	impact := rating.ImpactID.String()
	if i, ok := cfg.FindImpact(impact); ok {
		impact = i.Name
	}
	fmt.Fprintf(sb, "- Rating: %s likelihood, %s impact (score %d)\n", likelihood, impact, rating.Score)
}

func writeControls(sb *strings.Builder, controls []*model.Control) {
	if len(controls) == 0 {
		sb.WriteString("- Controls: none\n")
		return
	}

	sb.WriteString("- Controls:\n")
	for _, c := range controls {
		title := c.Title
		if c.URL != "" {
			title = fmt.Sprintf("[%s](%s)", c.Title, c.URL)
		}
		fmt.Fprintf(sb, "  - %s (%s)\n", title, c.Status.Normalize())
	}
}
