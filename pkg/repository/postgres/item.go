package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

func (r *itemRepository) Create(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	created := *item
	if created.ID == "" {
		created.ID = model.NewItemID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now()

	if err := r.db.WithContext(ctx).Create(toItemRecord(&created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create item",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *itemRepository) get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*itemRecord, error) {
	var rec itemRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		First(&rec).Error
	if err != nil {
		return nil, wrapNotFound(err, "item", id)
	}
	return &rec, nil
}

func (r *itemRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*model.TableItem, error) {
	rec, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *itemRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.TableItem, error) {
	var recs []itemRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID.String()).
		Order("table_no asc, position asc, id asc").
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list items", goerr.V("projectID", projectID))
	}

	items := make([]*model.TableItem, 0, len(recs))
	for i := range recs {
		items = append(items, recs[i].toModel())
	}
	// keep ordering identical to the other backends regardless of collation
	model.SortItems(items)
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	existing, err := r.get(ctx, projectID, item.ID)
	if err != nil {
		return nil, err
	}

	updated := *item
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt.UTC()

	if err := r.db.WithContext(ctx).Save(toItemRecord(&updated)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update item", goerr.V("id", item.ID))
	}
	return &updated, nil
}

func (r *itemRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ItemID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		Delete(&itemRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete item", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "item not found", goerr.V("id", id))
	}
	return nil
}

func (r *itemRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Delete(&itemRecord{}).Error; err != nil {
		return goerr.Wrap(err, "failed to delete items", goerr.V("projectID", projectID))
	}
	return nil
}
