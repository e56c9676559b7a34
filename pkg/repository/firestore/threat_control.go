package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type threatControlRepository struct {
	root *collectionRoot
}

type threatControlDocument struct {
	ThreatID  string    `firestore:"threat_id"`
	ControlID string    `firestore:"control_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (r *threatControlRepository) collection(projectID model.ProjectID) *firestore.CollectionRef {
	return r.root.sub(projectID, threatControlsCollection)
}

func linkDocID(threatID model.ThreatID, controlID model.ControlID) string {
	return fmt.Sprintf("%s_%s", threatID, controlID)
}

func (r *threatControlRepository) Link(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	ref := r.collection(projectID).Doc(linkDocID(threatID, controlID))

	// Check if the link already exists
	_, err := ref.Get(ctx)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to check existing link",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}

	doc := &threatControlDocument{
		ThreatID:  threatID.String(),
		ControlID: controlID.String(),
		CreatedAt: now(),
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to create threat-control link",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}
	return nil
}

func (r *threatControlRepository) Unlink(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	ref := r.collection(projectID).Doc(linkDocID(threatID, controlID))
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "threat-control link not found",
				goerr.V("threatID", threatID),
				goerr.V("controlID", controlID))
		}
		return goerr.Wrap(err, "failed to check existing link",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete threat-control link",
			goerr.V("threatID", threatID),
			goerr.V("controlID", controlID))
	}
	return nil
}

func (r *threatControlRepository) list(ctx context.Context, q firestore.Query) ([]*model.ThreatControl, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.ThreatControl, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate threat-control links")
		}

		var doc threatControlDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode threat-control link", goerr.V("doc_id", snap.Ref.ID))
		}
		result = append(result, &model.ThreatControl{
			ThreatID:  model.ThreatID(doc.ThreatID),
			ControlID: model.ControlID(doc.ControlID),
			CreatedAt: doc.CreatedAt,
		})
	}
	return result, nil
}

func (r *threatControlRepository) ListByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.ThreatControl, error) {
	links, err := r.list(ctx, r.collection(projectID).Where("threat_id", "==", threatID.String()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list controls of threat", goerr.V("threatID", threatID))
	}
	return links, nil
}

func (r *threatControlRepository) ListByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) ([]*model.ThreatControl, error) {
	links, err := r.list(ctx, r.collection(projectID).Where("control_id", "==", controlID.String()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list threats of control", goerr.V("controlID", controlID))
	}
	return links, nil
}

func (r *threatControlRepository) DeleteByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) error {
	q := r.collection(projectID).Where("threat_id", "==", threatID.String())
	if err := deleteQuery(ctx, r.root.client, q); err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V("threatID", threatID))
	}
	return nil
}

func (r *threatControlRepository) DeleteByControl(ctx context.Context, projectID model.ProjectID, controlID model.ControlID) error {
	q := r.collection(projectID).Where("control_id", "==", controlID.String())
	if err := deleteQuery(ctx, r.root.client, q); err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V("controlID", controlID))
	}
	return nil
}
