package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	ts := now()
	created := *p
	if created.ID == "" {
		created.ID = model.NewProjectID()
	}
	created.CreatedAt = ts
	created.UpdatedAt = ts

	if err := r.db.WithContext(ctx).Create(toProjectRecord(&created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *projectRepository) get(ctx context.Context, id model.ProjectID) (*projectRecord, error) {
	var rec projectRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id.String()).Error; err != nil {
		return nil, wrapNotFound(err, "project", id)
	}
	return &rec, nil
}

func (r *projectRepository) Get(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	rec, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	var recs []projectRecord
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}

	projects := make([]*model.Project, 0, len(recs))
	for i := range recs {
		projects = append(projects, recs[i].toModel())
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	existing, err := r.get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	updated := *p
	updated.CreatedAt = existing.CreatedAt.UTC()
	updated.UpdatedAt = now()

	if err := r.db.WithContext(ctx).Save(toProjectRecord(&updated)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", p.ID))
	}
	return &updated, nil
}

func (r *projectRepository) Delete(ctx context.Context, id model.ProjectID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&projectRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete project", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}
	return nil
}
