package interfaces

import (
	"context"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

// LinkRepository persists the Link Set of a project
type LinkRepository interface {
	Create(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error)

	// List returns the Link Set in composition order (creation time, then ID)
	List(ctx context.Context, projectID model.ProjectID) ([]*model.Link, error)

	// Update rewrites endpoints of an existing link, used when item indexes
	// shift after an item is removed
	Update(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error)

	Delete(ctx context.Context, projectID model.ProjectID, id model.LinkID) error

	// DeleteAll clears the Link Set
	DeleteAll(ctx context.Context, projectID model.ProjectID) error
}
