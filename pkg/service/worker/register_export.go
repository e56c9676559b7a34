package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

// RegisterExporter stores versioned register documents
type RegisterExporter interface {
	ListArtefacts(ctx context.Context, projectID model.ProjectID) ([]*model.Artefact, error)
	ExportRegister(ctx context.Context, projectID model.ProjectID) (*model.Artefact, error)
}

// RegisterExportWorker periodically exports a new register version for every
// project changed since its last export.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Deleting a threat or control does not count as a change
type RegisterExportWorker struct {
	repo     interfaces.Repository
	exporter RegisterExporter
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu       sync.Mutex
	exported map[model.ProjectID]time.Time
}

// NewRegisterExportWorker creates a new worker exporting registers every interval
func NewRegisterExportWorker(repo interfaces.Repository, exporter RegisterExporter, interval time.Duration) *RegisterExportWorker {
	return &RegisterExportWorker{
		repo:     repo,
		exporter: exporter,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		exported: make(map[model.ProjectID]time.Time),
	}
}

// Start begins the background export loop. The first cycle runs
// immediately in the background and does not block server startup.
func (w *RegisterExportWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("export interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Register export worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *RegisterExportWorker) Stop() {
	logging.Default().Info("Register export worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Register export worker stopped")
}

func (w *RegisterExportWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if _, err := w.Sync(ctx); err != nil {
		logging.Default().Error("Initial register export failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				logging.Default().Error("Register export failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Register export worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Register export worker context cancelled")
			return
		}
	}
}

// Sync runs one export cycle and returns the number of exported registers.
// A failing project is logged and skipped so the others still export.
func (w *RegisterExportWorker) Sync(ctx context.Context) (int, error) {
	startTime := time.Now()

	projects, err := w.repo.Project().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list projects")
	}

	count := 0
	for _, project := range projects {
		exported, err := w.syncProject(ctx, project)
		if err != nil {
			logging.Default().Error("failed to export register",
				"project_id", project.ID,
				"error", err.Error())
			continue
		}
		if exported {
			count++
		}
	}

	logging.Default().Info("Register export cycle completed",
		"projects", len(projects),
		"exported", count,
		"duration", time.Since(startTime).String())
	return count, nil
}

func (w *RegisterExportWorker) syncProject(ctx context.Context, project *model.Project) (bool, error) {
	latest, err := w.latestChange(ctx, project)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	last, seen := w.exported[project.ID]
	w.mu.Unlock()

	if !seen {
		artefacts, err := w.exporter.ListArtefacts(ctx, project.ID)
		if err != nil {
			return false, goerr.Wrap(err, "failed to list artefacts", goerr.V("project_id", project.ID))
		}
		if n := len(artefacts); n > 0 {
			last, seen = artefacts[n-1].CreatedAt, true
		}
	}

	if seen && !latest.After(last) {
		w.remember(project.ID, last)
		return false, nil
	}

	artefact, err := w.exporter.ExportRegister(ctx, project.ID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to export register", goerr.V("project_id", project.ID))
	}
	w.remember(project.ID, latest)

	logging.Default().Info("Register exported",
		"project_id", project.ID,
		"version", artefact.Version,
		"path", artefact.Path)
	return true, nil
}

func (w *RegisterExportWorker) remember(id model.ProjectID, t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exported[id] = t
}

// latestChange is the newest update time among the project, its threats and
// its controls
func (w *RegisterExportWorker) latestChange(ctx context.Context, project *model.Project) (time.Time, error) {
	latest := project.UpdatedAt

	threats, err := w.repo.Threat().List(ctx, project.ID, "")
	if err != nil {
		return latest, goerr.Wrap(err, "failed to list threats", goerr.V("project_id", project.ID))
	}
	for _, t := range threats {
		if t.UpdatedAt.After(latest) {
			latest = t.UpdatedAt
		}
	}

	controls, err := w.repo.Control().List(ctx, project.ID)
	if err != nil {
		return latest, goerr.Wrap(err, "failed to list controls", goerr.V("project_id", project.ID))
	}
	for _, c := range controls {
		if c.UpdatedAt.After(latest) {
			latest = c.UpdatedAt
		}
	}

	return latest, nil
}
