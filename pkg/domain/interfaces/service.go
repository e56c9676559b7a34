package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
)

// Notifier announces threat register changes to humans
type Notifier interface {
	NotifyThreatSaved(ctx context.Context, project *model.Project, threat *model.Threat) error
	NotifyControlLinked(ctx context.Context, project *model.Project, control *model.Control, family []*model.Threat) error
}

// TechniqueSuggester proposes ATT&CK techniques for a statement. Results
// are restricted to the given catalog.
type TechniqueSuggester interface {
	Suggest(ctx context.Context, statement string, catalog []config.Technique) ([]*model.TechniqueSuggestion, error)
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// ArtefactStore keeps exported register documents
type ArtefactStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns objects whose path starts with prefix
	List(ctx context.Context, prefix string) ([]*ObjectInfo, error)
}
