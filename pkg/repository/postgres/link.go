package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"gorm.io/gorm"
)

type linkRepository struct {
	db *gorm.DB
}

func (r *linkRepository) Create(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	created := *link
	if created.ID == "" {
		created.ID = model.NewLinkID()
	}
	created.ProjectID = projectID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}

	if err := r.db.WithContext(ctx).Create(toLinkRecord(&created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create link",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *linkRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Link, error) {
	var recs []linkRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID.String()).
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list links", goerr.V("projectID", projectID))
	}

	links := make([]*model.Link, 0, len(recs))
	for i := range recs {
		links = append(links, recs[i].toModel())
	}
	model.SortLinks(links)
	return links, nil
}

func (r *linkRepository) Update(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	var existing linkRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), link.ID.String()).
		First(&existing).Error
	if err != nil {
		return nil, wrapNotFound(err, "link", link.ID)
	}

	updated := *link
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt.UTC()

	if err := r.db.WithContext(ctx).Save(toLinkRecord(&updated)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update link", goerr.V("id", link.ID))
	}
	return &updated, nil
}

func (r *linkRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.LinkID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		Delete(&linkRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete link", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "link not found", goerr.V("id", id))
	}
	return nil
}

func (r *linkRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Delete(&linkRecord{}).Error; err != nil {
		return goerr.Wrap(err, "failed to clear links", goerr.V("projectID", projectID))
	}
	return nil
}
