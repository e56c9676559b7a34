package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

func runControlRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create, Get and Update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		created, err := repo.Control().Create(ctx, projectID, &model.Control{
			Title:    "Enforce MFA",
			OwnerIDs: []string{"U001", "U002"},
			URL:      "https://example.com/mfa",
			Status:   types.ControlStatusTodo,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).NotEqual(model.ControlID(""))

		got, err := repo.Control().Get(ctx, projectID, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Enforce MFA")
		gt.Value(t, got.OwnerIDs).Equal([]string{"U001", "U002"})
		gt.Value(t, got.Status).Equal(types.ControlStatusTodo)

		got.Status = types.ControlStatusCompleted
		updated, err := repo.Control().Update(ctx, projectID, got)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.ControlStatusCompleted)
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()

		_, err = repo.Control().Update(ctx, projectID, &model.Control{ID: model.NewControlID(), Title: "x"})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List, Delete and DeleteAll", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		c1, err := repo.Control().Create(ctx, projectID, &model.Control{Title: "c1", Status: types.ControlStatusBacklog})
		gt.NoError(t, err).Required()
		_, err = repo.Control().Create(ctx, projectID, &model.Control{Title: "c2", Status: types.ControlStatusBacklog})
		gt.NoError(t, err).Required()

		controls, err := repo.Control().List(ctx, projectID)
		gt.NoError(t, err).Required()
		gt.Array(t, controls).Length(2)

		gt.NoError(t, repo.Control().Delete(ctx, projectID, c1.ID)).Required()
		_, err = repo.Control().Get(ctx, projectID, c1.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		gt.NoError(t, repo.Control().DeleteAll(ctx, projectID)).Required()
		controls, err = repo.Control().List(ctx, projectID)
		gt.NoError(t, err).Required()
		gt.Array(t, controls).Length(0)
	})
}

func runThreatControlRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Link is idempotent and Unlink removes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()
		threatID := model.NewThreatID()
		controlID := model.NewControlID()

		gt.NoError(t, repo.ThreatControl().Link(ctx, projectID, threatID, controlID)).Required()
		gt.NoError(t, repo.ThreatControl().Link(ctx, projectID, threatID, controlID)).Required()

		links, err := repo.ThreatControl().ListByThreat(ctx, projectID, threatID)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(1).Required()
		gt.Value(t, links[0].ControlID).Equal(controlID)

		links, err = repo.ThreatControl().ListByControl(ctx, projectID, controlID)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(1).Required()
		gt.Value(t, links[0].ThreatID).Equal(threatID)

		gt.NoError(t, repo.ThreatControl().Unlink(ctx, projectID, threatID, controlID)).Required()
		gt.Error(t, repo.ThreatControl().Unlink(ctx, projectID, threatID, controlID)).Is(interfaces.ErrNotFound)

		links, err = repo.ThreatControl().ListByThreat(ctx, projectID, threatID)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(0)
	})

	t.Run("DeleteByThreat and DeleteByControl", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()
		t1, t2 := model.NewThreatID(), model.NewThreatID()
		c1, c2 := model.NewControlID(), model.NewControlID()

		for _, pair := range []struct {
			threatID  model.ThreatID
			controlID model.ControlID
		}{
			{t1, c1}, {t1, c2}, {t2, c1}, {t2, c2},
		} {
			gt.NoError(t, repo.ThreatControl().Link(ctx, projectID, pair.threatID, pair.controlID)).Required()
		}

		gt.NoError(t, repo.ThreatControl().DeleteByThreat(ctx, projectID, t1)).Required()
		links, err := repo.ThreatControl().ListByControl(ctx, projectID, c1)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(1)

		gt.NoError(t, repo.ThreatControl().DeleteByControl(ctx, projectID, c2)).Required()
		links, err = repo.ThreatControl().ListByThreat(ctx, projectID, t2)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(1).Required()
		gt.Value(t, links[0].ControlID).Equal(c1)
	})
}

func TestControlRepository_Memory(t *testing.T) {
	runControlRepositoryTest(t, newMemoryRepository)
}

func TestControlRepository_Firestore(t *testing.T) {
	runControlRepositoryTest(t, newFirestoreRepository)
}

func TestControlRepository_Postgres(t *testing.T) {
	runControlRepositoryTest(t, newPostgresRepository)
}

func TestThreatControlRepository_Memory(t *testing.T) {
	runThreatControlRepositoryTest(t, newMemoryRepository)
}

func TestThreatControlRepository_Firestore(t *testing.T) {
	runThreatControlRepositoryTest(t, newFirestoreRepository)
}

func TestThreatControlRepository_Postgres(t *testing.T) {
	runThreatControlRepositoryTest(t, newPostgresRepository)
}
