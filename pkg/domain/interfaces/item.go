package interfaces

import (
	"context"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

// ItemRepository is the Item Store: free-text entries of the eight
// reference tables of a project
type ItemRepository interface {
	Create(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error)
	Get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*model.TableItem, error)

	// List returns every item of the project ordered by table, position
	// and ID, which is the order model.NewItemTables indexes by
	List(ctx context.Context, projectID model.ProjectID) ([]*model.TableItem, error)

	Update(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error)
	Delete(ctx context.Context, projectID model.ProjectID, id model.ItemID) error
	DeleteAll(ctx context.Context, projectID model.ProjectID) error
}
