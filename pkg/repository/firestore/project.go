package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type projectRepository struct {
	root *collectionRoot
}

type projectDocument struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func toProjectDocument(p *model.Project) *projectDocument {
	return &projectDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *projectDocument) toModel() *model.Project {
	return &model.Project{
		ID:          model.ProjectID(d.ID),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	now := now()
	created := *p
	if created.ID == "" {
		created.ID = model.NewProjectID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.root.projects().Doc(created.ID.String()).Set(ctx, toProjectDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *projectRepository) get(ctx context.Context, id model.ProjectID) (*projectDocument, error) {
	snap, err := r.root.projects().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	var doc projectDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project", goerr.V("id", id))
	}
	return &doc, nil
}

func (r *projectRepository) Get(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	iter := r.root.projects().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	projects := make([]*model.Project, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var doc projectDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode project", goerr.V("doc_id", snap.Ref.ID))
		}
		projects = append(projects, doc.toModel())
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	existing, err := r.get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	updated := *p
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	if _, err := r.root.projects().Doc(p.ID.String()).Set(ctx, toProjectDocument(&updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", p.ID))
	}
	return &updated, nil
}

func (r *projectRepository) Delete(ctx context.Context, id model.ProjectID) error {
	if _, err := r.get(ctx, id); err != nil {
		return err
	}

	if _, err := r.root.projects().Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}
	return nil
}
