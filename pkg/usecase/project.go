package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type ProjectUseCase struct {
	repo interfaces.Repository
}

func NewProjectUseCase(repo interfaces.Repository) *ProjectUseCase {
	return &ProjectUseCase{
		repo: repo,
	}
}

// requireProject loads the project or fails with ErrProjectNotFound
func requireProject(ctx context.Context, repo interfaces.Repository, id model.ProjectID) (*model.Project, error) {
	project, err := repo.Project().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, id))
	}
	return project, nil
}

func (uc *ProjectUseCase) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "project name is required")
	}

	created, err := uc.repo.Project().Create(ctx, &model.Project{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project")
	}
	return created, nil
}

func (uc *ProjectUseCase) GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	return requireProject(ctx, uc.repo, id)
}

func (uc *ProjectUseCase) ListProjects(ctx context.Context) ([]*model.Project, error) {
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}
	return projects, nil
}

func (uc *ProjectUseCase) UpdateProject(ctx context.Context, id model.ProjectID, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "project name cannot be empty")
	}

	existing, err := requireProject(ctx, uc.repo, id)
	if err != nil {
		return nil, err
	}
	existing.Name = name
	existing.Description = description

	updated, err := uc.repo.Project().Update(ctx, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V(ProjectIDKey, id))
	}
	return updated, nil
}

// DeleteProject removes the project and everything scoped to it
func (uc *ProjectUseCase) DeleteProject(ctx context.Context, id model.ProjectID) error {
	if _, err := requireProject(ctx, uc.repo, id); err != nil {
		return err
	}

	threats, err := uc.repo.Threat().List(ctx, id, "")
	if err != nil {
		return goerr.Wrap(err, "failed to list threats", goerr.V(ProjectIDKey, id))
	}
	for _, threat := range threats {
		if err := uc.repo.Revision().DeleteByThreat(ctx, id, threat.ID); err != nil {
			return goerr.Wrap(err, "failed to delete revisions", goerr.V(ThreatIDKey, threat.ID))
		}
		if err := uc.repo.ThreatControl().DeleteByThreat(ctx, id, threat.ID); err != nil {
			return goerr.Wrap(err, "failed to delete threat-control links", goerr.V(ThreatIDKey, threat.ID))
		}
	}

	controls, err := uc.repo.Control().List(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list controls", goerr.V(ProjectIDKey, id))
	}
	for _, control := range controls {
		if err := uc.repo.ThreatControl().DeleteByControl(ctx, id, control.ID); err != nil {
			return goerr.Wrap(err, "failed to delete threat-control links", goerr.V(ControlIDKey, control.ID))
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, model.ProjectID) error
	}{
		{"threats", uc.repo.Threat().DeleteAll},
		{"controls", uc.repo.Control().DeleteAll},
		{"links", uc.repo.Link().DeleteAll},
		{"items", uc.repo.Item().DeleteAll},
	}
	for _, step := range steps {
		if err := step.fn(ctx, id); err != nil {
			return goerr.Wrap(err, "failed to delete project data",
				goerr.V(ProjectIDKey, id),
				goerr.V("entity", step.name))
		}
	}

	if err := uc.repo.Project().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V(ProjectIDKey, id))
	}
	return nil
}
