package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type controlRepository struct {
	mu       sync.RWMutex
	controls map[model.ProjectID]map[model.ControlID]*model.Control
}

func newControlRepository() *controlRepository {
	return &controlRepository{
		controls: make(map[model.ProjectID]map[model.ControlID]*model.Control),
	}
}

// copyControl creates a deep copy of a control
func copyControl(c *model.Control) *model.Control {
	copied := *c
	if c.OwnerIDs != nil {
		copied.OwnerIDs = make([]string, len(c.OwnerIDs))
		copy(copied.OwnerIDs, c.OwnerIDs)
	}
	return &copied
}

func (r *controlRepository) Create(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controls[projectID]; !exists {
		r.controls[projectID] = make(map[model.ControlID]*model.Control)
	}

	now := time.Now().UTC()
	created := copyControl(control)
	if created.ID == "" {
		created.ID = model.NewControlID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now
	created.UpdatedAt = now

	r.controls[projectID][created.ID] = created
	return copyControl(created), nil
}

func (r *controlRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*model.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.controls[projectID][id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "control not found", goerr.V("id", id))
	}
	return copyControl(c), nil
}

func (r *controlRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	controls := make([]*model.Control, 0, len(r.controls[projectID]))
	for _, c := range r.controls[projectID] {
		controls = append(controls, copyControl(c))
	}
	sort.Slice(controls, func(i, j int) bool {
		if !controls[i].CreatedAt.Equal(controls[j].CreatedAt) {
			return controls[i].CreatedAt.Before(controls[j].CreatedAt)
		}
		return controls[i].ID < controls[j].ID
	})
	return controls, nil
}

func (r *controlRepository) Update(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.controls[projectID][control.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "control not found", goerr.V("id", control.ID))
	}

	updated := copyControl(control)
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.controls[projectID][updated.ID] = updated
	return copyControl(updated), nil
}

func (r *controlRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ControlID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controls[projectID][id]; !exists {
		return goerr.Wrap(ErrNotFound, "control not found", goerr.V("id", id))
	}
	delete(r.controls[projectID], id)
	return nil
}

func (r *controlRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.controls, projectID)
	return nil
}
