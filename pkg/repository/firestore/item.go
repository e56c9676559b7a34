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

type itemRepository struct {
	root *collectionRoot
}

type itemDocument struct {
	ID        string    `firestore:"id"`
	Table     int       `firestore:"table"`
	Text      string    `firestore:"text"`
	Position  int       `firestore:"position"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toItemDocument(item *model.TableItem) *itemDocument {
	return &itemDocument{
		ID:        item.ID.String(),
		Table:     int(item.Table),
		Text:      item.Text,
		Position:  item.Position,
		CreatedAt: item.CreatedAt,
	}
}

func (d *itemDocument) toModel(projectID model.ProjectID) *model.TableItem {
	return &model.TableItem{
		ID:        model.ItemID(d.ID),
		ProjectID: projectID,
		Table:     types.TableIndex(d.Table),
		Text:      d.Text,
		Position:  d.Position,
		CreatedAt: d.CreatedAt,
	}
}

func (r *itemRepository) Create(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	created := *item
	if created.ID == "" {
		created.ID = model.NewItemID()
	}
	created.ProjectID = projectID
	created.CreatedAt = now()

	if _, err := r.root.sub(projectID, itemsCollection).Doc(created.ID.String()).Set(ctx, toItemDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create item",
			goerr.V("projectID", projectID),
			goerr.V("id", created.ID))
	}
	return &created, nil
}

func (r *itemRepository) get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*itemDocument, error) {
	snap, err := r.root.sub(projectID, itemsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get item", goerr.V("id", id))
	}

	var doc itemDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode item", goerr.V("id", id))
	}
	return &doc, nil
}

func (r *itemRepository) Get(ctx context.Context, projectID model.ProjectID, id model.ItemID) (*model.TableItem, error) {
	doc, err := r.get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(projectID), nil
}

func (r *itemRepository) List(ctx context.Context, projectID model.ProjectID) ([]*model.TableItem, error) {
	iter := r.root.sub(projectID, itemsCollection).Documents(ctx)
	defer iter.Stop()

	items := make([]*model.TableItem, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate items", goerr.V("projectID", projectID))
		}

		var doc itemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode item", goerr.V("doc_id", snap.Ref.ID))
		}
		items = append(items, doc.toModel(projectID))
	}

	model.SortItems(items)
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, projectID model.ProjectID, item *model.TableItem) (*model.TableItem, error) {
	existing, err := r.get(ctx, projectID, item.ID)
	if err != nil {
		return nil, err
	}

	updated := *item
	updated.ProjectID = projectID
	updated.CreatedAt = existing.CreatedAt

	if _, err := r.root.sub(projectID, itemsCollection).Doc(item.ID.String()).Set(ctx, toItemDocument(&updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update item", goerr.V("id", item.ID))
	}
	return &updated, nil
}

func (r *itemRepository) Delete(ctx context.Context, projectID model.ProjectID, id model.ItemID) error {
	if _, err := r.get(ctx, projectID, id); err != nil {
		return err
	}

	if _, err := r.root.sub(projectID, itemsCollection).Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete item", goerr.V("id", id))
	}
	return nil
}

func (r *itemRepository) DeleteAll(ctx context.Context, projectID model.ProjectID) error {
	if err := deleteQuery(ctx, r.root.client, r.root.sub(projectID, itemsCollection).Query); err != nil {
		return goerr.Wrap(err, "failed to delete items", goerr.V("projectID", projectID))
	}
	return nil
}
