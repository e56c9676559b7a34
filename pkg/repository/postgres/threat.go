package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"gorm.io/gorm"
)

type threatRepository struct {
	db *gorm.DB
}

func (r *threatRepository) Create(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error) {
	ts := now()
	created := threat.Clone()
	if created.ID == "" {
		created.ID = model.NewThreatID()
	}
	created.ProjectID = projectID
	created.CreatedAt = ts
	created.UpdatedAt = ts

	if err := r.db.WithContext(ctx).Create(toThreatRecord(created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create threat",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return created, nil
}

func (r *threatRepository) get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*threatRecord, error) {
	var rec threatRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		First(&rec).Error
	if err != nil {
		return nil, wrapNotFound(err, "threat", id)
	}
	return &rec, nil
}

func (r *threatRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*model.Threat, error) {
	rec, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *threatRepository) List(ctx context.Context, projectID model.ProjectID, stage types.Stage) ([]*model.Threat, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID.String())
	if stage != "" {
		q = q.Where("stage = ?", stage.String())
	}

	var recs []threatRecord
	if err := q.Order("created_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list threats",
			goerr.V("projectID", projectID),
			goerr.V("stage", stage))
	}

	threats := make([]*model.Threat, 0, len(recs))
	for i := range recs {
		threats = append(threats, recs[i].toModel())
	}
	return threats, nil
}

func (r *threatRepository) Update(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error) {
	existing, err := r.get(ctx, projectID, threat.ID)
	if err != nil {
		return nil, err
	}

	updated := threat.Clone()
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt.UTC()
	updated.UpdatedAt = now()

	if err := r.db.WithContext(ctx).Save(toThreatRecord(updated)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update threat", goerr.V("id", threat.ID))
	}
	return updated, nil
}

func (r *threatRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ThreatID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		Delete(&threatRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete threat", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
	}
	return nil
}

func (r *threatRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Delete(&threatRecord{}).Error; err != nil {
		return goerr.Wrap(err, "failed to delete threats", goerr.V("projectID", projectID))
	}
	return nil
}
