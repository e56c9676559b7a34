package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type projectRepository struct {
	mu       sync.RWMutex
	projects map[model.ProjectID]*model.Project
}

func newProjectRepository() *projectRepository {
	return &projectRepository{
		projects: make(map[model.ProjectID]*model.Project),
	}
}

func copyProject(p *model.Project) *model.Project {
	copied := *p
	return &copied
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyProject(p)
	if created.ID == "" {
		created.ID = model.NewProjectID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.projects[created.ID] = created
	return copyProject(created), nil
}

func (r *projectRepository) Get(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.projects[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}
	return copyProject(p), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, copyProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.Before(projects[j].CreatedAt)
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.projects[p.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", p.ID))
	}

	updated := copyProject(p)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.projects[updated.ID] = updated
	return copyProject(updated), nil
}

func (r *projectRepository) Delete(ctx context.Context, id model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[id]; !exists {
		return goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}
	delete(r.projects, id)
	return nil
}
