package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type linkRepository struct {
	mu    sync.RWMutex
	links map[model.ProjectID]map[model.LinkID]*model.Link
}

func newLinkRepository() *linkRepository {
	return &linkRepository{
		links: make(map[model.ProjectID]map[model.LinkID]*model.Link),
	}
}

func copyLink(link *model.Link) *model.Link {
	copied := *link
	return &copied
}

func (r *linkRepository) Create(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[projectID]; !exists {
		r.links[projectID] = make(map[model.LinkID]*model.Link)
	}

	created := copyLink(link)
	if created.ID == "" {
		created.ID = model.NewLinkID()
	}
	created.ProjectID = projectID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.links[projectID][created.ID] = created
	return copyLink(created), nil
}

func (r *linkRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]*model.Link, 0, len(r.links[projectID]))
	for _, link := range r.links[projectID] {
		links = append(links, copyLink(link))
	}
	model.SortLinks(links)
	return links, nil
}

func (r *linkRepository) Update(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.links[projectID][link.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "link not found", goerr.V("id", link.ID))
	}

	updated := copyLink(link)
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt

	r.links[projectID][updated.ID] = updated
	return copyLink(updated), nil
}

func (r *linkRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.LinkID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[projectID][id]; !exists {
		return goerr.Wrap(ErrNotFound, "link not found", goerr.V("id", id))
	}
	delete(r.links[projectID], id)
	return nil
}

func (r *linkRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.links, projectID)
	return nil
}
