package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type revisionRepository struct {
	mu sync.RWMutex
	// revisions per project and threat, in insertion order
	revisions map[model.ProjectID]map[model.ThreatID][]*model.ThreatRevision
}

func newRevisionRepository() *revisionRepository {
	return &revisionRepository{
		revisions: make(map[model.ProjectID]map[model.ThreatID][]*model.ThreatRevision),
	}
}

func copyRevision(rev *model.ThreatRevision) *model.ThreatRevision {
	copied := *rev
	return &copied
}

func (r *revisionRepository) Create(ctx context.Context, projectID model.ProjectID, rev *model.ThreatRevision) (*model.ThreatRevision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.revisions[projectID]; !exists {
		r.revisions[projectID] = make(map[model.ThreatID][]*model.ThreatRevision)
	}

	created := copyRevision(rev)
	if created.ID == "" {
		created.ID = model.NewRevisionID()
	}
	created.CreatedAt = time.Now().UTC()

	r.revisions[projectID][created.ThreatID] = append(r.revisions[projectID][created.ThreatID], created)
	return copyRevision(created), nil
}

func (r *revisionRepository) List(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatRevision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.revisions[projectID][threatID]
	revisions := make([]*model.ThreatRevision, 0, len(stored))
	for _, rev := range stored {
		revisions = append(revisions, copyRevision(rev))
	}
	return revisions, nil
}

func (r *revisionRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.revisions[projectID], threatID)
	return nil
}
