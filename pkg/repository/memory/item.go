package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type itemRepository struct {
	mu    sync.RWMutex
	items map[model.ProjectID]map[model.ItemID]*model.TableItem
}

func newItemRepository() *itemRepository {
	return &itemRepository{
		items: make(map[model.ProjectID]map[model.ItemID]*model.TableItem),
	}
}

func (r *itemRepository) ensureProject(projectID model.ProjectID) {
	if _, exists := r.items[projectID]; !exists {
		r.items[projectID] = make(map[model.ItemID]*model.TableItem)
	}
}

func copyItem(item *model.TableItem) *model.TableItem {
	copied := *item
	return &copied
}

func (r *itemRepository) Create(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureProject(projectID)

	created := copyItem(item)
	if created.ID == "" {
		created.ID = model.NewItemID()
	}
	created.ProjectID = projectID
	created.CreatedAt = time.Now().UTC()

	r.items[projectID][created.ID] = created
	return copyItem(created), nil
}

func (r *itemRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*model.TableItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[projectID][id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("id", id))
	}
	return copyItem(item), nil
}

func (r *itemRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.TableItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*model.TableItem, 0, len(r.items[projectID]))
	for _, item := range r.items[projectID] {
		items = append(items, copyItem(item))
	}
	model.SortItems(items)
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.items[projectID][item.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("id", item.ID))
	}

	updated := copyItem(item)
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt

	r.items[projectID][updated.ID] = updated
	return copyItem(updated), nil
}

func (r *itemRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[projectID][id]; !exists {
		return goerr.Wrap(ErrNotFound, "item not found", goerr.V("id", id))
	}
	delete(r.items[projectID], id)
	return nil
}

func (r *itemRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, projectID)
	return nil
}
