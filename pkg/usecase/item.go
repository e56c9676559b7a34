package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

type ItemUseCase struct {
	repo interfaces.Repository
}

func NewItemUseCase(repo interfaces.Repository) *ItemUseCase {
	return &ItemUseCase{
		repo: repo,
	}
}

func (uc *ItemUseCase) ListItems(ctx context.Context, projectID model.ProjectID) ([]*model.TableItem, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	items, err := uc.repo.Item().List(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list items", goerr.V(ProjectIDKey, projectID))
	}
	return items, nil
}

// Tables returns the indexed snapshot of the project's reference tables
func (uc *ItemUseCase) Tables(ctx context.Context, projectID model.ProjectID) (model.ItemTables, error) {
	items, err := uc.ListItems(ctx, projectID)
	if err != nil {
		return model.ItemTables{}, err
	}
	return model.NewItemTables(items), nil
}

// CreateItem appends an item at the end of its table
func (uc *ItemUseCase) CreateItem(ctx context.Context, projectID model.ProjectID, table types.TableIndex, text string) (*model.TableItem, error) {
	if !table.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown table", goerr.V("table", int(table)))
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "item text is required")
	}

	items, err := uc.ListItems(ctx, projectID)
	if err != nil {
		return nil, err
	}

	position := 0
	for _, item := range items {
		if item.Table == table && item.Position >= position {
			position = item.Position + 1
		}
	}

	created, err := uc.repo.Item().Create(ctx, projectID, &model.TableItem{
		Table:    table,
		Text:     text,
		Position: position,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create item", goerr.V(ProjectIDKey, projectID))
	}
	return created, nil
}

// UpdateItem replaces the text of an item. Links keep pointing at it.
func (uc *ItemUseCase) UpdateItem(ctx context.Context, projectID model.ProjectID, id model.ItemID, text string) (*model.TableItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "item text cannot be empty")
	}
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	existing, err := uc.repo.Item().Get(ctx, projectID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get item", goerr.V(ItemIDKey, id))
	}
	existing.Text = text

	updated, err := uc.repo.Item().Update(ctx, projectID, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update item", goerr.V(ItemIDKey, id))
	}
	return updated, nil
}

// DeleteItem removes an item, drops the links touching it and shifts links
// pointing at later items of the same table down by one.
func (uc *ItemUseCase) DeleteItem(ctx context.Context, projectID model.ProjectID, id model.ItemID) error {
	items, err := uc.ListItems(ctx, projectID)
	if err != nil {
		return err
	}

	table, index, ok := model.LocateItem(items, id)
	if !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "item not found", goerr.V(ItemIDKey, id))
	}

	if err := uc.repo.Item().Delete(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete item", goerr.V(ItemIDKey, id))
	}

	links, err := uc.repo.Link().List(ctx, projectID)
	if err != nil {
		return goerr.Wrap(err, "failed to list links", goerr.V(ProjectIDKey, projectID))
	}

	removed := model.Endpoint{Table: table, Item: index}
	for _, link := range links {
		if link.Touches(removed) {
			if err := uc.repo.Link().Delete(ctx, projectID, link.ID); err != nil {
				return goerr.Wrap(err, "failed to delete link", goerr.V(LinkIDKey, link.ID))
			}
			continue
		}

		if !shiftLink(link, table, index) {
			continue
		}
		if _, err := uc.repo.Link().Update(ctx, projectID, link); err != nil {
			return goerr.Wrap(err, "failed to reindex link", goerr.V(LinkIDKey, link.ID))
		}
	}

	return nil
}

// shiftLink decrements endpoints in table above index and reports whether
// the link changed
func shiftLink(link *model.Link, table types.TableIndex, index int) bool {
	changed := false
	if link.Table1 == table && link.Item1 > index {
		link.Item1--
		changed = true
	}
	if link.Table2 == table && link.Item2 > index {
		link.Item2--
		changed = true
	}
	return changed
}
