package interfaces

import (
	"context"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

// ControlRepository defines the interface for Control data access
type ControlRepository interface {
	Create(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error)
	Get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*model.Control, error)
	List(ctx context.Context, projectID model.ProjectID) ([]*model.Control, error)
	Update(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error)
	Delete(ctx context.Context, projectID model.ProjectID, id model.ControlID) error
	DeleteAll(ctx context.Context, projectID model.ProjectID) error
}

// ThreatControlRepository defines the interface for Threat-Control links
type ThreatControlRepository interface {
	// Link is idempotent
	Link(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error
	Unlink(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error
	ListByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatControl, error)
	ListByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) ([]*model.ThreatControl, error)
	DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error
	DeleteByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) error
}
