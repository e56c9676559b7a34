package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type revisionRepository struct {
	root *collectionRoot
}

type revisionDocument struct {
	ID        string    `firestore:"id"`
	ThreatID  string    `firestore:"threat_id"`
	Previous  string    `firestore:"previous"`
	Current   string    `firestore:"current"`
	Patch     string    `firestore:"patch"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (r *revisionRepository) collection(projectID model.ProjectID, threatID model.ThreatID) *firestore.CollectionRef {
	return r.root.sub(projectID, threatsCollection).Doc(threatID.String()).Collection(revisionsCollection)
}

func (r *revisionRepository) Create(ctx context.Context, projectID model.ProjectID, rev *model.ThreatRevision) (*model.ThreatRevision, error) {
	created := *rev
	if created.ID == "" {
		created.ID = model.NewRevisionID()
	}
	created.CreatedAt = now()

	doc := &revisionDocument{
		ID:        string(created.ID),
		ThreatID:  created.ThreatID.String(),
		Previous:  created.Previous,
		Current:   created.Current,
		Patch:     created.Patch,
		CreatedAt: created.CreatedAt,
	}
	if _, err := r.collection(projectID, created.ThreatID).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create revision",
			goerr.V("projectID", projectID),
			goerr.V("threatID", created.ThreatID))
	}
	return &created, nil
}

func (r *revisionRepository) List(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatRevision, error) {
	iter := r.collection(projectID, threatID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	revisions := make([]*model.ThreatRevision, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate revisions", goerr.V("threatID", threatID))
		}

		var doc revisionDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode revision", goerr.V("doc_id", snap.Ref.ID))
		}
		revisions = append(revisions, &model.ThreatRevision{
			ID:        model.RevisionID(doc.ID),
			ThreatID:  model.ThreatID(doc.ThreatID),
			Previous:  doc.Previous,
			Current:   doc.Current,
			Patch:     doc.Patch,
			CreatedAt: doc.CreatedAt,
		})
	}
	return revisions, nil
}

func (r *revisionRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	if err := deleteQuery(ctx, r.root.client, r.collection(projectID, threatID).Query); err != nil {
		return goerr.Wrap(err, "failed to delete revisions", goerr.V("threatID", threatID))
	}
	return nil
}
