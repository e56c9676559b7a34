package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/repository/memory"
	"github.com/secmon-lab/threatline/pkg/service/storage"
	"github.com/secmon-lab/threatline/pkg/service/worker"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

const initialStatement = "An attacker with phishing email could target the customer database to conduct data theft in order to extort the company"

func setup(t *testing.T) (*usecase.UseCases, *memory.Memory) {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	gt.NoError(t, err).Required()

	repo := memory.New()
	return usecase.New(repo, usecase.WithArtefactStore(store)), repo
}

func TestRegisterExportWorker_Sync(t *testing.T) {
	ctx := context.Background()
	uc, repo := setup(t)

	project, err := uc.Project.CreateProject(ctx, "Payments", "")
	gt.NoError(t, err).Required()
	threat, err := uc.Threat.SaveText(ctx, project.ID, initialStatement, types.StageInitial, "")
	gt.NoError(t, err).Required()

	w := worker.NewRegisterExportWorker(repo, uc.Artefact, time.Hour)

	t.Run("exports a project without artefacts", func(t *testing.T) {
		n, err := w.Sync(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(1)

		artefacts, err := uc.Artefact.ListArtefacts(ctx, project.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, artefacts).Length(1)
	})

	t.Run("skips an unchanged project", func(t *testing.T) {
		n, err := w.Sync(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(0)
	})

	t.Run("exports again after an edit", func(t *testing.T) {
		time.Sleep(time.Millisecond)
		_, err := uc.Threat.UpdateText(ctx, project.ID, threat.ID, initialStatement+" and its customers")
		gt.NoError(t, err).Required()

		n, err := w.Sync(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(1)

		artefacts, err := uc.Artefact.ListArtefacts(ctx, project.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, artefacts).Length(2).Required()
		gt.Value(t, artefacts[1].Version).Equal(2)
	})
}

type failingExporter struct{}

func (failingExporter) ListArtefacts(ctx context.Context, projectID model.ProjectID) ([]*model.Artefact, error) {
	return nil, nil
}

func (failingExporter) ExportRegister(ctx context.Context, projectID model.ProjectID) (*model.Artefact, error) {
	return nil, usecase.ErrNotConfigured
}

func TestRegisterExportWorker_FailingProjectIsSkipped(t *testing.T) {
	ctx := context.Background()
	uc, repo := setup(t)

	_, err := uc.Project.CreateProject(ctx, "Payments", "")
	gt.NoError(t, err).Required()

	w := worker.NewRegisterExportWorker(repo, failingExporter{}, time.Hour)
	n, err := w.Sync(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, n).Equal(0)
}

func TestRegisterExportWorker_StartStop(t *testing.T) {
	ctx := context.Background()
	uc, repo := setup(t)

	project, err := uc.Project.CreateProject(ctx, "Payments", "")
	gt.NoError(t, err).Required()

	w := worker.NewRegisterExportWorker(repo, uc.Artefact, 10*time.Minute)
	gt.NoError(t, w.Start(ctx)).Required()

	deadline := time.Now().Add(5 * time.Second)
	for {
		artefacts, err := uc.Artefact.ListArtefacts(ctx, project.ID)
		gt.NoError(t, err).Required()
		if len(artefacts) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial export did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.Stop()
}

func TestRegisterExportWorker_RejectsNonPositiveInterval(t *testing.T) {
	uc, repo := setup(t)
	w := worker.NewRegisterExportWorker(repo, uc.Artefact, 0)
	gt.Value(t, w.Start(context.Background())).NotNil()
}
