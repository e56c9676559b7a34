package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type threatControlRepository struct {
	mu    sync.RWMutex
	links map[model.ProjectID][]model.ThreatControl
}

func newThreatControlRepository() *threatControlRepository {
	return &threatControlRepository{
		links: make(map[model.ProjectID][]model.ThreatControl),
	}
}

func (r *threatControlRepository) Link(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tc := range r.links[projectID] {
		if tc.ThreatID == threatID && tc.ControlID == controlID {
			return nil // Already linked, not an error
		}
	}

	r.links[projectID] = append(r.links[projectID], model.ThreatControl{
		ThreatID:  threatID,
		ControlID: controlID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (r *threatControlRepository) Unlink(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	links := r.links[projectID]
	for i, tc := range links {
		if tc.ThreatID == threatID && tc.ControlID == controlID {
			r.links[projectID] = append(links[:i:i], links[i+1:]...)
			return nil
		}
	}

	return goerr.Wrap(ErrNotFound, "threat-control link not found",
		goerr.V("threatID", threatID),
		goerr.V("controlID", controlID))
}

func (r *threatControlRepository) ListByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatControl, error) {
	return r.filter(projectID, func(tc model.ThreatControl) bool { return tc.ThreatID == threatID }), nil
}

func (r *threatControlRepository) ListByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) ([]*model.ThreatControl, error) {
	return r.filter(projectID, func(tc model.ThreatControl) bool { return tc.ControlID == controlID }), nil
}

func (r *threatControlRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	r.remove(projectID, func(tc model.ThreatControl) bool { return tc.ThreatID == threatID })
	return nil
}

func (r *threatControlRepository) DeleteByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) error {
	r.remove(projectID, func(tc model.ThreatControl) bool { return tc.ControlID == controlID })
	return nil
}

func (r *threatControlRepository) filter(projectID model.ProjectID, match func(model.ThreatControl) bool) []*model.ThreatControl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.ThreatControl, 0)
	for _, tc := range r.links[projectID] {
		if match(tc) {
			copied := tc
			result = append(result, &copied)
		}
	}
	return result
}

func (r *threatControlRepository) remove(projectID model.ProjectID, match func(model.ThreatControl) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]model.ThreatControl, 0, len(r.links[projectID]))
	for _, tc := range r.links[projectID] {
		if !match(tc) {
			kept = append(kept, tc)
		}
	}
	r.links[projectID] = kept
}
