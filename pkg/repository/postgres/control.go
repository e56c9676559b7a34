package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type controlRepository struct {
	db *gorm.DB
}

func (r *controlRepository) Create(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error) {
	ts := now()
	created := *control
	if created.ID == "" {
		created.ID = model.NewControlID()
	}
	created.ProjectID = projectID
	created.CreatedAt = ts
	created.UpdatedAt = ts

	if err := r.db.WithContext(ctx).Create(toControlRecord(&created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create control",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *controlRepository) get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*controlRecord, error) {
	var rec controlRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		First(&rec).Error
	if err != nil {
		return nil, wrapNotFound(err, "control", id)
	}
	return &rec, nil
}

func (r *controlRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*model.Control, error) {
	rec, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *controlRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Control, error) {
	var recs []controlRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID.String()).
		Order("created_at asc, id asc").
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list controls", goerr.V("projectID", projectID))
	}

	controls := make([]*model.Control, 0, len(recs))
	for i := range recs {
		controls = append(controls, recs[i].toModel())
	}
	return controls, nil
}

func (r *controlRepository) Update(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error) {
	existing, err := r.get(ctx, projectID, control.ID)
	if err != nil {
		return nil, err
	}

	updated := *control
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt.UTC()
	updated.UpdatedAt = now()

	if err := r.db.WithContext(ctx).Save(toControlRecord(&updated)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update control", goerr.V("id", control.ID))
	}
	return &updated, nil
}

func (r *controlRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ControlID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID.String(), id.String()).
		Delete(&controlRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete control", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "control not found", goerr.V("id", id))
	}
	return nil
}

func (r *controlRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Delete(&controlRecord{}).Error; err != nil {
		return goerr.Wrap(err, "failed to delete controls", goerr.V("projectID", projectID))
	}
	return nil
}

type threatControlRepository struct {
	db *gorm.DB
}

func (r *threatControlRepository) Link(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	rec := &threatControlRecord{
		ProjectID: projectID.String(),
		ThreatID:  threatID.String(),
		ControlID: controlID.String(),
		CreatedAt: now(),
	}
	// Already linked is not an error
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error; err != nil {
		return goerr.Wrap(err, "failed to link threat and control",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}
	return nil
}

func (r *threatControlRepository) Unlink(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND threat_id = ? AND control_id = ?", projectID.String(), threatID.String(), controlID.String()).
		Delete(&threatControlRecord{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to unlink threat and control",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "threat-control link not found",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}
	return nil
}

func (r *threatControlRepository) list(ctx context.Context, query string, args ...any) ([]*model.ThreatControl, error) {
	var recs []threatControlRecord
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at asc").Find(&recs).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list threat-control links")
	}

	result := make([]*model.ThreatControl, 0, len(recs))
	for _, rec := range recs {
		result = append(result, &model.ThreatControl{
			ThreatID:  model.ThreatID(rec.ThreatID),
			ControlID: model.ControlID(rec.ControlID),
			CreatedAt: rec.CreatedAt.UTC(),
		})
	}
	return result, nil
}

func (r *threatControlRepository) ListByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatControl, error) {
	return r.list(ctx, "project_id = ? AND threat_id = ?", projectID.String(), threatID.String())
}

func (r *threatControlRepository) ListByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) ([]*model.ThreatControl, error) {
	return r.list(ctx, "project_id = ? AND control_id = ?", projectID.String(), controlID.String())
}

func (r *threatControlRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND threat_id = ?", projectID.String(), threatID.String()).
		Delete(&threatControlRecord{}).Error
	if err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V("threatID", threatID))
	}
	return nil
}

func (r *threatControlRepository) DeleteByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND control_id = ?", projectID.String(), controlID.String()).
		Delete(&threatControlRecord{}).Error
	if err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V("controlID", controlID))
	}
	return nil
}
