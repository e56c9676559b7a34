package firestore

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type linkRepository struct {
	root *collectionRoot
}

type linkDocument struct {
	ID        string    `firestore:"id"`
	Table1    int       `firestore:"table1"`
	Item1     int       `firestore:"item1"`
	Table2    int       `firestore:"table2"`
	Item2     int       `firestore:"item2"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toLinkDocument(link *model.Link) *linkDocument {
	return &linkDocument{
		ID:        link.ID.String(),
		Table1:    int(link.Table1),
		Item1:     link.Item1,
		Table2:    int(link.Table2),
		Item2:     link.Item2,
		CreatedAt: link.CreatedAt,
	}
}

func (d *linkDocument) toModel(projectID model.ProjectID) *model.Link {
	return &model.Link{
		ID:        model.LinkID(d.ID),
		ProjectID: projectID,
		Table1:    types.TableIndex(d.Table1),
		Item1:     d.Item1,
		Table2:    types.TableIndex(d.Table2),
		Item2:     d.Item2,
		CreatedAt: d.CreatedAt,
	}
}

func (r *linkRepository) Create(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	created := *link
	if created.ID == "" {
		created.ID = model.NewLinkID()
	}
	created.ProjectID = projectID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}

	if _, err := r.root.sub(projectID, linksCollection).Doc(created.ID.String()).Set(ctx, toLinkDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create link",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *linkRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.Link, error) {
	iter := r.root.sub(projectID, linksCollection).Documents(ctx)
	defer iter.Stop()

	links := make([]*model.Link, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate links", goerr.V("projectID", projectID))
		}

		var doc linkDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode link", goerr.V("doc_id", snap.Ref.ID))
		}
		links = append(links, doc.toModel(projectID))
	}

	model.SortLinks(links)
	return links, nil
}

func (r *linkRepository) Update(ctx context.Context, projectID model.ProjectID, link *model.Link) (*model.Link, error) {
	ref := r.root.sub(projectID, linksCollection).Doc(link.ID.String())
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "link not found", goerr.V("id", link.ID))
		}
		return nil, goerr.Wrap(err, "failed to get link", goerr.V("id", link.ID))
	}

	var existing linkDocument
	if err := snap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode link", goerr.V("id", link.ID))
	}

	updated := *link
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt

	if _, err := ref.Set(ctx, toLinkDocument(&updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update link", goerr.V("id", link.ID))
	}
	return &updated, nil
}

func (r *linkRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.LinkID) error {
	ref := r.root.sub(projectID, linksCollection).Doc(id.String())
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "link not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check link existence", goerr.V("id", id))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete link", goerr.V("id", id))
	}
	return nil
}

func (r *linkRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := deleteQuery(ctx, r.root.client, r.root.sub(projectID, linksCollection).Query); err != nil {
		return goerr.Wrap(err, "failed to clear links", goerr.V("projectID", projectID))
	}
	return nil
}
