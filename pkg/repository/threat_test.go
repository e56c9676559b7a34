package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

func sampleComponents() *model.StatementComponents {
	return &model.StatementComponents{
		Article:            "An",
		Actor:              "external attacker",
		Vector:             "phishing email",
		Asset:              "customer data",
		LocalObjective:     "exfiltrate records",
		StrategicObjective: "sell on the dark web",
		Techniques: []model.AttackTechnique{
			{TechniqueID: "T1566", TechniqueName: "Phishing"},
		},
	}
}

func runThreatRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create round-trips components and rating", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		created, err := repo.Threat().Create(ctx, projectID, &model.Threat{
			Statement:  "An external attacker with phishing email can ...",
			Stage:      types.StageInitial,
			Components: sampleComponents(),
			Rating: &model.Rating{
				LikelihoodID: "likely",
				ImpactID:     "major",
				Score:        12,
			},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).NotEqual(model.ThreatID(""))
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.Threat().Get(ctx, projectID, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Statement).Equal(created.Statement)
		gt.Value(t, got.Stage).Equal(types.StageInitial)
		gt.Value(t, got.Components).NotNil()
		gt.Value(t, got.Components.Actor).Equal("external attacker")
		gt.Array(t, got.Components.Techniques).Length(1)
		gt.Value(t, got.Rating).NotNil()
		gt.Value(t, *got.Rating).Equal(model.Rating{LikelihoodID: "likely", ImpactID: "major", Score: 12})
		gt.Bool(t, got.CreatedAt.Equal(created.CreatedAt)).True()
	})

	t.Run("Create keeps nil components and rating", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		created, err := repo.Threat().Create(ctx, projectID, &model.Threat{
			Statement: "hand written",
			Stage:     types.StageFinal,
			ParentID:  model.NewThreatID(),
		})
		gt.NoError(t, err).Required()

		got, err := repo.Threat().Get(ctx, projectID, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Components).Nil()
		gt.Value(t, got.Rating).Nil()
		gt.Value(t, got.ParentID).Equal(created.ParentID)
	})

	t.Run("List filters by stage", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		for _, stage := range []types.Stage{types.StageInitial, types.StageIntermediate, types.StageInitial} {
			_, err := repo.Threat().Create(ctx, projectID, &model.Threat{Statement: string(stage), Stage: stage})
			gt.NoError(t, err).Required()
		}

		all, err := repo.Threat().List(ctx, projectID, "")
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)

		initial, err := repo.Threat().List(ctx, projectID, types.StageInitial)
		gt.NoError(t, err).Required()
		gt.Array(t, initial).Length(2)
		for _, threat := range initial {
			gt.Value(t, threat.Stage).Equal(types.StageInitial)
		}

		final, err := repo.Threat().List(ctx, projectID, types.StageFinal)
		gt.NoError(t, err).Required()
		gt.Array(t, final).Length(0)
	})

	t.Run("Update clears components", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		created, err := repo.Threat().Create(ctx, projectID, &model.Threat{
			Statement:  "composed",
			Stage:      types.StageInitial,
			Components: sampleComponents(),
		})
		gt.NoError(t, err).Required()

		created.Statement = "edited"
		created.Components = nil
		updated, err := repo.Threat().Update(ctx, projectID, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Statement).Equal("edited")
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()

		got, err := repo.Threat().Get(ctx, projectID, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Statement).Equal("edited")
		gt.Value(t, got.Components).Nil()

		_, err = repo.Threat().Update(ctx, projectID, &model.Threat{ID: model.NewThreatID(), Stage: types.StageFinal})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Delete and DeleteAll", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		created, err := repo.Threat().Create(ctx, projectID, &model.Threat{Statement: "a", Stage: types.StageInitial})
		gt.NoError(t, err).Required()
		_, err = repo.Threat().Create(ctx, projectID, &model.Threat{Statement: "b", Stage: types.StageInitial})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Threat().Delete(ctx, projectID, created.ID)).Required()
		_, err = repo.Threat().Get(ctx, projectID, created.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		gt.Error(t, repo.Threat().Delete(ctx, projectID, created.ID)).Is(interfaces.ErrNotFound)

		gt.NoError(t, repo.Threat().DeleteAll(ctx, projectID)).Required()
		threats, err := repo.Threat().List(ctx, projectID, "")
		gt.NoError(t, err).Required()
		gt.Array(t, threats).Length(0)
	})
}

func runRevisionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("List returns revisions oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		threat, err := repo.Threat().Create(ctx, projectID, &model.Threat{Statement: "v1", Stage: types.StageInitial})
		gt.NoError(t, err).Required()

		_, err = repo.Revision().Create(ctx, projectID, &model.ThreatRevision{
			ThreatID: threat.ID,
			Previous: "v1",
			Current:  "v2",
			Patch:    "@@ -1,2 +1,2 @@\n v\n-1\n+2\n",
		})
		gt.NoError(t, err).Required()
		_, err = repo.Revision().Create(ctx, projectID, &model.ThreatRevision{
			ThreatID: threat.ID,
			Previous: "v2",
			Current:  "v3",
		})
		gt.NoError(t, err).Required()

		revisions, err := repo.Revision().List(ctx, projectID, threat.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, revisions).Length(2).Required()
		gt.Value(t, revisions[0].Current).Equal("v2")
		gt.Value(t, revisions[1].Current).Equal("v3")
		gt.String(t, revisions[0].Patch).Contains("+2")
		gt.Value(t, revisions[0].ThreatID).Equal(threat.ID)
	})

	t.Run("DeleteByThreat removes only that threat's revisions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		projectID := newProjectID()

		t1, err := repo.Threat().Create(ctx, projectID, &model.Threat{Statement: "t1", Stage: types.StageInitial})
		gt.NoError(t, err).Required()
		t2, err := repo.Threat().Create(ctx, projectID, &model.Threat{Statement: "t2", Stage: types.StageInitial})
		gt.NoError(t, err).Required()

		for _, id := range []model.ThreatID{t1.ID, t2.ID} {
			_, err := repo.Revision().Create(ctx, projectID, &model.ThreatRevision{ThreatID: id, Previous: "a", Current: "b"})
			gt.NoError(t, err).Required()
		}

		gt.NoError(t, repo.Revision().DeleteByThreat(ctx, projectID, t1.ID)).Required()

		revisions, err := repo.Revision().List(ctx, projectID, t1.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, revisions).Length(0)

		revisions, err = repo.Revision().List(ctx, projectID, t2.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, revisions).Length(1)
	})
}

func TestThreatRepository_Memory(t *testing.T) {
	runThreatRepositoryTest(t, newMemoryRepository)
}

func TestThreatRepository_Firestore(t *testing.T) {
	runThreatRepositoryTest(t, newFirestoreRepository)
}

func TestThreatRepository_Postgres(t *testing.T) {
	runThreatRepositoryTest(t, newPostgresRepository)
}

func TestRevisionRepository_Memory(t *testing.T) {
	runRevisionRepositoryTest(t, newMemoryRepository)
}

func TestRevisionRepository_Firestore(t *testing.T) {
	runRevisionRepositoryTest(t, newFirestoreRepository)
}

func TestRevisionRepository_Postgres(t *testing.T) {
	runRevisionRepositoryTest(t, newPostgresRepository)
}
