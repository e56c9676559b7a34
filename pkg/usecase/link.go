package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

type LinkUseCase struct {
	repo interfaces.Repository
}

func NewLinkUseCase(repo interfaces.Repository) *LinkUseCase {
	return &LinkUseCase{
		repo: repo,
	}
}

func (uc *LinkUseCase) ListLinks(ctx context.Context, projectID model.ProjectID) ([]*model.Link, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	links, err := uc.repo.Link().List(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list links", goerr.V(ProjectIDKey, projectID))
	}
	return links, nil
}

// AddLink appends a link to the Link Set after checking both endpoints
// against the current tables
func (uc *LinkUseCase) AddLink(ctx context.Context, projectID model.ProjectID, a, b model.Endpoint) (*model.Link, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	items, err := uc.repo.Item().List(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list items", goerr.V(ProjectIDKey, projectID))
	}

	link := &model.Link{
		Table1: a.Table,
		Item1:  a.Item,
		Table2: b.Table,
		Item2:  b.Item,
	}
	if err := model.ValidateLink(model.NewItemTables(items), link); err != nil {
		return nil, goerr.Wrap(err, "invalid link")
	}

	created, err := uc.repo.Link().Create(ctx, projectID, link)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create link", goerr.V(ProjectIDKey, projectID))
	}
	return created, nil
}

func (uc *LinkUseCase) DeleteLink(ctx context.Context, projectID model.ProjectID, id model.LinkID) error {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return err
	}

	if err := uc.repo.Link().Delete(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete link", goerr.V(LinkIDKey, id))
	}
	return nil
}

// ClearLinks empties the Link Set
func (uc *LinkUseCase) ClearLinks(ctx context.Context, projectID model.ProjectID) error {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return err
	}

	if err := uc.repo.Link().DeleteAll(ctx, projectID); err != nil {
		return goerr.Wrap(err, "failed to clear links", goerr.V(ProjectIDKey, projectID))
	}
	return nil
}
