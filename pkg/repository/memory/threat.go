package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

type threatRepository struct {
	mu      sync.RWMutex
	threats map[model.ProjectID]map[model.ThreatID]*model.Threat
}

func newThreatRepository() *threatRepository {
	return &threatRepository{
		threats: make(map[model.ProjectID]map[model.ThreatID]*model.Threat),
	}
}

func (r *threatRepository) Create(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.threats[projectID]; !exists {
		r.threats[projectID] = make(map[model.ThreatID]*model.Threat)
	}

	now := time.Now().UTC()
	created := threat.Clone()
	if created.ID == "" {
		created.ID = model.NewThreatID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now
	created.UpdatedAt = now

	r.threats[projectID][created.ID] = created
	return created.Clone(), nil
}

func (r *threatRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*model.Threat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	threat, exists := r.threats[projectID][id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
	}
	return threat.Clone(), nil
}

func (r *threatRepository) List(ctx context.Context, projectID model.ProjectID, stage types.Stage) ([]*model.Threat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	threats := make([]*model.Threat, 0, len(r.threats[projectID]))
	for _, threat := range r.threats[projectID] {
		if stage != "" && threat.Stage != stage {
			continue
		}
		threats = append(threats, threat.Clone())
	}
	sort.Slice(threats, func(i, j int) bool {
		if !threats[i].CreatedAt.Equal(threats[j].CreatedAt) {
			return threats[i].CreatedAt.Before(threats[j].CreatedAt)
		}
		return threats[i].ID < threats[j].ID
	})
	return threats, nil
}

func (r *threatRepository) Update(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.threats[projectID][threat.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", threat.ID))
	}

	updated := threat.Clone()
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.threats[projectID][updated.ID] = updated
	return updated.Clone(), nil
}

func (r *threatRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ThreatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.threats[projectID][id]; !exists {
		return goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
	}
	delete(r.threats[projectID], id)
	return nil
}

func (r *threatRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.threats, projectID)
	return nil
}
