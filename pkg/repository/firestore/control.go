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

type controlRepository struct {
	root *collectionRoot
}

type controlDocument struct {
	ID          string    `firestore:"id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	OwnerIDs    []string  `firestore:"owner_ids"`
	URL         string    `firestore:"url"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func toControlDocument(c *model.Control) *controlDocument {
	return &controlDocument{
		ID:          c.ID.String(),
		Title:       c.Title,
		Description: c.Description,
		OwnerIDs:    c.OwnerIDs,
		URL:         c.URL,
		Status:      c.Status.String(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d *controlDocument) toModel(projectID model.ProjectID) *model.Control {
	return &model.Control{
		ID:          model.ControlID(d.ID),
		ProjectID:   projectID,
		Title:       d.Title,
		Description: d.Description,
		OwnerIDs:    d.OwnerIDs,
		URL:         d.URL,
		Status:      types.ControlStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *controlRepository) collection(projectID model.ProjectID) *firestore.CollectionRef {
	return r.root.sub(projectID, controlsCollection)
}

func (r *controlRepository) Create(ctx context.Context, projectID model.ProjectID, control *model.Control) (*model.Control, error) {
	now := now()
	created := *control
	if created.ID == "" {
		created.ID = model.NewControlID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection(projectID).Doc(created.ID.String()).Set(ctx, toControlDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create control",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *controlRepository) get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*controlDocument, error) {
	snap, err := r.collection(projectID).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "control not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get control", goerr.V("id", id))
	}

	var doc controlDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode control", goerr.V("id", id))
	}
	return &doc, nil
}

func (r *controlRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*model.Control, error) {
	doc, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(projectID), nil
}

func (r *controlRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Control, error) {
	iter := r.collection(projectID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	controls := make([]*model.Control, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate controls", goerr.V("projectID", projectID))
		}

		var doc controlDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode control", goerr.V("doc_id", snap.Ref.ID))
		}
		controls = append(controls, doc.toModel(projectID))
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
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	if _, err := r.collection(projectID).Doc(control.ID.String()).Set(ctx, toControlDocument(&updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update control", goerr.V("id", control.ID))
	}
	return &updated, nil
}

func (r *controlRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ControlID) error {
	if _, err := r.get(ctx, projectID, id); err != nil {
		return err
	}

	if _, err := r.collection(projectID).Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete control", goerr.V("id", id))
	}
	return nil
}

func (r *controlRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := deleteQuery(ctx, r.root.client, r.collection(projectID).Query); err != nil {
		return goerr.Wrap(err, "failed to delete controls", goerr.V("projectID", projectID))
	}
	return nil
}
