package postgres

import (
	"time"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// Table names come from the struct names with the "Record" suffix removed
// (projectRecord -> projects).

type projectRecord struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Name        string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

type itemRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ProjectID string    `gorm:"size:64;index;not null"`
	TableNo   int       `gorm:"column:table_no;not null"`
	Text      string    `gorm:"type:text"`
	Position  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

type linkRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ProjectID string    `gorm:"size:64;index;not null"`
	Table1    int       `gorm:"not null"`
	Item1     int       `gorm:"not null"`
	Table2    int       `gorm:"not null"`
	Item2     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

type componentsJSON struct {
	Article            string          `json:"article,omitempty"`
	Actor              string          `json:"actor,omitempty"`
	Vector             string          `json:"vector,omitempty"`
	Stride             string          `json:"stride,omitempty"`
	Asset              string          `json:"asset,omitempty"`
	LocalObjective     string          `json:"local_objective,omitempty"`
	StrategicObjective string          `json:"strategic_objective,omitempty"`
	AdversarialAction  string          `json:"adversarial_action,omitempty"`
	LocalImpact        string          `json:"local_impact,omitempty"`
	CIANA              string          `json:"ciana,omitempty"`
	Techniques         []techniqueJSON `json:"techniques,omitempty"`
	Base               string          `json:"base,omitempty"`
}

type techniqueJSON struct {
	TechniqueID      string `json:"technique_id"`
	TechniqueName    string `json:"technique_name"`
	SubTechniqueID   string `json:"sub_technique_id,omitempty"`
	SubTechniqueName string `json:"sub_technique_name,omitempty"`
}

type threatRecord struct {
	ID               string          `gorm:"primaryKey;size:64"`
	ProjectID        string          `gorm:"size:64;index:,composite:project_stage;not null"`
	Stage            string          `gorm:"size:16;index:,composite:project_stage"`
	Statement        string          `gorm:"type:text"`
	ParentID         string          `gorm:"size:64"`
	Components       *componentsJSON `gorm:"type:text;serializer:json"`
	RatingLikelihood string          `gorm:"size:64"`
	RatingImpact     string          `gorm:"size:64"`
	RatingScore      *int            `gorm:"column:rating_score"`
	CreatedAt        time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime:false"`
}

type revisionRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ProjectID string    `gorm:"size:64;index:,composite:project_threat;not null"`
	ThreatID  string    `gorm:"size:64;index:,composite:project_threat;not null"`
	Previous  string    `gorm:"type:text"`
	Current   string    `gorm:"type:text"`
	Patch     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

type controlRecord struct {
	ID          string    `gorm:"primaryKey;size:64"`
	ProjectID   string    `gorm:"size:64;index;not null"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	OwnerIDs    []string  `gorm:"type:text;serializer:json"`
	URL         string    `gorm:"type:text"`
	Status      string    `gorm:"size:32"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

type threatControlRecord struct {
	ProjectID string    `gorm:"primaryKey;size:64"`
	ThreatID  string    `gorm:"primaryKey;size:64"`
	ControlID string    `gorm:"primaryKey;size:64;index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func toProjectRecord(p *model.Project) *projectRecord {
	return &projectRecord{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *projectRecord) toModel() *model.Project {
	return &model.Project{
		ID:          model.ProjectID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toItemRecord(item *model.TableItem) *itemRecord {
	return &itemRecord{
		ID:        item.ID.String(),
		ProjectID: item.ProjectID.String(),
		TableNo:   int(item.Table),
		Text:      item.Text,
		Position:  item.Position,
		CreatedAt: item.CreatedAt,
	}
}

func (r *itemRecord) toModel() *model.TableItem {
	return &model.TableItem{
		ID:        model.ItemID(r.ID),
		ProjectID: model.ProjectID(r.ProjectID),
		Table:     types.TableIndex(r.TableNo),
		Text:      r.Text,
		Position:  r.Position,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toLinkRecord(link *model.Link) *linkRecord {
	return &linkRecord{
		ID:        link.ID.String(),
		ProjectID: link.ProjectID.String(),
		Table1:    int(link.Table1),
		Item1:     link.Item1,
		Table2:    int(link.Table2),
		Item2:     link.Item2,
		CreatedAt: link.CreatedAt,
	}
}

func (r *linkRecord) toModel() *model.Link {
	return &model.Link{
		ID:        model.LinkID(r.ID),
		ProjectID: model.ProjectID(r.ProjectID),
		Table1:    types.TableIndex(r.Table1),
		Item1:     r.Item1,
		Table2:    types.TableIndex(r.Table2),
		Item2:     r.Item2,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toThreatRecord(t *model.Threat) *threatRecord {
	rec := &threatRecord{
		ID:        t.ID.String(),
		ProjectID: t.ProjectID.String(),
		Stage:     t.Stage.String(),
		Statement: t.Statement,
		ParentID:  t.ParentID.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if c := t.Components; c != nil {
		rec.Components = &componentsJSON{
			Article:            c.Article,
			Actor:              c.Actor,
			Vector:             c.Vector,
			Stride:             c.Stride,
			Asset:              c.Asset,
			LocalObjective:     c.LocalObjective,
			StrategicObjective: c.StrategicObjective,
			AdversarialAction:  c.AdversarialAction,
			LocalImpact:        c.LocalImpact,
			CIANA:              c.CIANA,
			Base:               c.Base,
		}
		for _, tech := range c.Techniques {
			rec.Components.Techniques = append(rec.Components.Techniques, techniqueJSON(tech))
		}
	}

	if t.Rating != nil {
		score := t.Rating.Score
		rec.RatingLikelihood = t.Rating.LikelihoodID.String()
		rec.RatingImpact = t.Rating.ImpactID.String()
		rec.RatingScore = &score
	}
	return rec
}

func (r *threatRecord) toModel() *model.Threat {
	t := &model.Threat{
		ID:        model.ThreatID(r.ID),
		ProjectID: model.ProjectID(r.ProjectID),
		Statement: r.Statement,
		Stage:     types.Stage(r.Stage),
		ParentID:  model.ThreatID(r.ParentID),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}

	if c := r.Components; c != nil {
		t.Components = &model.StatementComponents{
			Article:            c.Article,
			Actor:              c.Actor,
			Vector:             c.Vector,
			Stride:             c.Stride,
			Asset:              c.Asset,
			LocalObjective:     c.LocalObjective,
			StrategicObjective: c.StrategicObjective,
			AdversarialAction:  c.AdversarialAction,
			LocalImpact:        c.LocalImpact,
			CIANA:              c.CIANA,
			Base:               c.Base,
		}
		for _, tech := range c.Techniques {
			t.Components.Techniques = append(t.Components.Techniques, model.AttackTechnique(tech))
		}
	}

	if r.RatingScore != nil {
		t.Rating = &model.Rating{
			LikelihoodID: types.LikelihoodID(r.RatingLikelihood),
			ImpactID:     types.ImpactID(r.RatingImpact),
			Score:        *r.RatingScore,
		}
	}
	return t
}

func toControlRecord(c *model.Control) *controlRecord {
	return &controlRecord{
		ID:          c.ID.String(),
		ProjectID:   c.ProjectID.String(),
		Title:       c.Title,
		Description: c.Description,
		OwnerIDs:    c.OwnerIDs,
		URL:         c.URL,
		Status:      c.Status.String(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r *controlRecord) toModel() *model.Control {
	return &model.Control{
		ID:          model.ControlID(r.ID),
		ProjectID:   model.ProjectID(r.ProjectID),
		Title:       r.Title,
		Description: r.Description,
		OwnerIDs:    r.OwnerIDs,
		URL:         r.URL,
		Status:      types.ControlStatus(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// now returns the current time at the precision Postgres stores
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
