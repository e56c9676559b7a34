package interfaces

import (
	"context"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// ThreatRepository is the Threat Store
type ThreatRepository interface {
	// Create saves a statement. ID is generated when empty.
	Create(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error)

	Get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*model.Threat, error)

	// List returns saved statements ordered by creation time. An empty stage
	// returns every stage.
	List(ctx context.Context, projectID model.ProjectID, stage types.Stage) ([]*model.Threat, error)

	// Update replaces statement, components and rating of an existing threat
	Update(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error)

	Delete(ctx context.Context, projectID model.ProjectID, id model.ThreatID) error
	DeleteAll(ctx context.Context, projectID model.ProjectID) error
}

// RevisionRepository records statement edits of threats
type RevisionRepository interface {
	Create(ctx context.Context, projectID model.ProjectID, rev *model.ThreatRevision) (*model.ThreatRevision, error)

	// List returns revisions of a threat, oldest first
	List(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatRevision, error)

	DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error
}
