package technique

import (
	"context"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
)

// Service suggests ATT&CK techniques for a threat statement
type Service interface {
	// Suggest asks the LLM for techniques that realise the statement. Only
	// techniques found in catalog are returned, with names taken from the
	// catalog rather than from the LLM.
	Suggest(ctx context.Context, statement string, catalog []config.Technique) ([]*model.TechniqueSuggestion, error)
}

type llmResponse struct {
	Techniques []llmTechnique `json:"techniques"`
}

type llmTechnique struct {
	TechniqueID    string `json:"technique_id"`
	SubTechniqueID string `json:"sub_technique_id"`
	Reason         string `json:"reason"`
}
