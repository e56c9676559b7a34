package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type threatRepository struct {
	root *collectionRoot
}

type techniqueDocument struct {
	TechniqueID      string `firestore:"technique_id"`
	TechniqueName    string `firestore:"technique_name"`
	SubTechniqueID   string `firestore:"sub_technique_id"`
	SubTechniqueName string `firestore:"sub_technique_name"`
}

type componentsDocument struct {
	Article            string              `firestore:"article"`
	Actor              string              `firestore:"actor"`
	Vector             string              `firestore:"vector"`
	Stride             string              `firestore:"stride"`
	Asset              string              `firestore:"asset"`
	LocalObjective     string              `firestore:"local_objective"`
	StrategicObjective string              `firestore:"strategic_objective"`
	AdversarialAction  string              `firestore:"adversarial_action"`
	LocalImpact        string              `firestore:"local_impact"`
	CIANA              string              `firestore:"ciana"`
	Techniques         []techniqueDocument `firestore:"techniques"`
	Base               string              `firestore:"base"`
}

type ratingDocument struct {
	LikelihoodID string `firestore:"likelihood_id"`
	ImpactID     string `firestore:"impact_id"`
	Score        int    `firestore:"score"`
}

type threatDocument struct {
	ID         string              `firestore:"id"`
	Statement  string              `firestore:"statement"`
	Stage      string              `firestore:"stage"`
	ParentID   string              `firestore:"parent_id"`
	Components *componentsDocument `firestore:"components"`
	Rating     *ratingDocument     `firestore:"rating"`
	CreatedAt  time.Time           `firestore:"created_at"`
	UpdatedAt  time.Time           `firestore:"updated_at"`
}

func toThreatDocument(t *model.Threat) *threatDocument {
	doc := &threatDocument{
		ID:        t.ID.String(),
		Statement: t.Statement,
		Stage:     t.Stage.String(),
		ParentID:  t.ParentID.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if c := t.Components; c != nil {
		doc.Components = &componentsDocument{
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
			doc.Components.Techniques = append(doc.Components.Techniques, techniqueDocument(tech))
		}
	}

	if t.Rating != nil {
		doc.Rating = &ratingDocument{
			LikelihoodID: t.Rating.LikelihoodID.String(),
			ImpactID:     t.Rating.ImpactID.String(),
			Score:        t.Rating.Score,
		}
	}
	return doc
}

func (d *threatDocument) toModel(projectID model.ProjectID) *model.Threat {
	t := &model.Threat{
		ID:        model.ThreatID(d.ID),
		ProjectID: projectID,
		Statement: d.Statement,
		Stage:     types.Stage(d.Stage),
		ParentID:  model.ThreatID(d.ParentID),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	if c := d.Components; c != nil {
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

	if d.Rating != nil {
		t.Rating = &model.Rating{
			LikelihoodID: types.LikelihoodID(d.Rating.LikelihoodID),
			ImpactID:     types.ImpactID(d.Rating.ImpactID),
			Score:        d.Rating.Score,
		}
	}
	return t
}

func (r *threatRepository) collection(projectID model.ProjectID) *firestore.CollectionRef {
	return r.root.sub(projectID, threatsCollection)
}

func (r *threatRepository) Create(ctx context.Context, projectID model.ProjectID, threat *model.Threat) (*model.Threat, error) {
	now := now()
	created := threat.Clone()
	if created.ID == "" {
		created.ID = model.NewThreatID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection(projectID).Doc(created.ID.String()).Set(ctx, toThreatDocument(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create threat",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return created, nil
}

func (r *threatRepository) get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*threatDocument, error) {
	snap, err := r.collection(projectID).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get threat", goerr.V("id", id))
	}

	var doc threatDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode threat", goerr.V("id", id))
	}
	return &doc, nil
}

func (r *threatRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*model.Threat, error) {
	doc, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(projectID), nil
}

func (r *threatRepository) List(ctx context.Context, projectID model.ProjectID, stage types.Stage) ([]*model.Threat, error) {
	q := r.collection(projectID).Query
	if stage != "" {
		q = q.Where("stage", "==", stage.String())
	}
	iter := q.OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	threats := make([]*model.Threat, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate threats",
				goerr.V("projectID", projectID),
				goerr.V("stage", stage))
		}

		var doc threatDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode threat", goerr.V("doc_id", snap.Ref.ID))
		}
		threats = append(threats, doc.toModel(projectID))
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
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	if _, err := r.collection(projectID).Doc(threat.ID.String()).Set(ctx, toThreatDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update threat", goerr.V("id", threat.ID))
	}
	return updated, nil
}

func (r *threatRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ThreatID) error {
	if _, err := r.get(ctx, projectID, id); err != nil {
		return err
	}

	if _, err := r.collection(projectID).Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete threat", goerr.V("id", id))
	}
	return nil
}

func (r *threatRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := deleteQuery(ctx, r.root.client, r.collection(projectID).Query); err != nil {
		return goerr.Wrap(err, "failed to delete threats", goerr.V("projectID", projectID))
	}
	return nil
}
