package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"gorm.io/gorm"
)

type revisionRepository struct {
	db *gorm.DB
}

func (r *revisionRepository) Create(ctx context.Context, projectID model.ProjectID, rev *model.ThreatRevision) (*model.ThreatRevision, error) {
	created := *rev
	if created.ID == "" {
		created.ID = model.NewRevisionID()
	}
	created.CreatedAt = now()

	rec := &revisionRecord{
		ID:        string(created.ID),
		ProjectID: projectID.String(),
		ThreatID:  created.ThreatID.String(),
		Previous:  created.Previous,
		Current:   created.Current,
		Patch:     created.Patch,
		CreatedAt: created.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create revision",
			goerr.V("projectID", projectID),
			goerr.V("threatID", created.ThreatID))
	}
	return &created, nil
}

func (r *revisionRepository) List(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatRevision, error) {
	var recs []revisionRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND threat_id = ?", projectID.String(), threatID.String()).
		Order("created_at asc, id asc").
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list revisions", goerr.V("threatID", threatID))
	}

	revisions := make([]*model.ThreatRevision, 0, len(recs))
	for _, rec := range recs {
		revisions = append(revisions, &model.ThreatRevision{
			ID:        model.RevisionID(rec.ID),
			ThreatID:  model.ThreatID(rec.ThreatID),
			Previous:  rec.Previous,
			Current:   rec.Current,
			Patch:     rec.Patch,
			CreatedAt: rec.CreatedAt.UTC(),
		})
	}
	return revisions, nil
}

func (r *revisionRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND threat_id = ?", projectID.String(), threatID.String()).
		Delete(&revisionRecord{}).Error
	if err != nil {
		return goerr.Wrap(err, "failed to delete revisions", goerr.V("threatID", threatID))
	}
	return nil
}
