package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"google.golang.org/api/iterator"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = interfaces.ErrNotFound

const (
	projectsCollection       = "projects"
	itemsCollection          = "items"
	linksCollection          = "links"
	threatsCollection        = "threats"
	revisionsCollection      = "revisions"
	controlsCollection       = "controls"
	threatControlsCollection = "threat_controls"
)

type Firestore struct {
	client        *firestore.Client
	root          *collectionRoot
	project       *projectRepository
	item          *itemRepository
	link          *linkRepository
	threat        *threatRepository
	revision      *revisionRepository
	control       *controlRepository
	threatControl *threatControlRepository
}

var _ interfaces.Repository = &Firestore{}

// collectionRoot resolves project-scoped collection references. Every
// repository shares one root so a prefix applies to all of them.
type collectionRoot struct {
	client *firestore.Client
	prefix string
}

func (c *collectionRoot) projects() *firestore.CollectionRef {
	if c.prefix != "" {
		return c.client.Collection(c.prefix + "_" + projectsCollection)
	}
	return c.client.Collection(projectsCollection)
}

func (c *collectionRoot) sub(projectID model.ProjectID, name string) *firestore.CollectionRef {
	return c.projects().Doc(projectID.String()).Collection(name)
}

type Option func(*Firestore)

// WithCollectionPrefix isolates all collections under a prefix, used by tests
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.root.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	root := &collectionRoot{client: client}
	f := &Firestore{
		client:        client,
		root:          root,
		project:       &projectRepository{root: root},
		item:          &itemRepository{root: root},
		link:          &linkRepository{root: root},
		threat:        &threatRepository{root: root},
		revision:      &revisionRepository{root: root},
		control:       &controlRepository{root: root},
		threatControl: &threatControlRepository{root: root},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) Item() interfaces.ItemRepository {
	return f.item
}

func (f *Firestore) Link() interfaces.LinkRepository {
	return f.link
}

func (f *Firestore) Threat() interfaces.ThreatRepository {
	return f.threat
}

func (f *Firestore) Revision() interfaces.RevisionRepository {
	return f.revision
}

func (f *Firestore) Control() interfaces.ControlRepository {
	return f.control
}

func (f *Firestore) ThreatControl() interfaces.ThreatControlRepository {
	return f.threatControl
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

// deleteQuery removes every document matched by q
func deleteQuery(ctx context.Context, client *firestore.Client, q firestore.Query) error {
	iter := q.Documents(ctx)
	defer iter.Stop()

	bulkWriter := client.BulkWriter(ctx)
	defer bulkWriter.End()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate documents for deletion")
		}

		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("path", doc.Ref.Path))
		}
	}

	return nil
}

// now returns the current time at the precision Firestore stores
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
