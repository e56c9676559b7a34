package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

func newRiskConfig() *config.RiskConfig {
	return &config.RiskConfig{
		Likelihood: []config.LikelihoodLevel{
			{ID: "rare", Name: "Rare", Score: 1},
			{ID: "likely", Name: "Likely", Score: 3},
		},
		Impact: []config.ImpactLevel{
			{ID: "minor", Name: "Minor", Score: 1},
			{ID: "major", Name: "Major", Score: 4},
		},
		Techniques: []config.Technique{
			{
				ID:   "T1566",
				Name: "Phishing",
				Subs: []config.SubTechnique{{ID: "T1566.002", Name: "Spearphishing Link"}},
			},
			{ID: "T1486", Name: "Data Encrypted for Impact"},
		},
	}
}

func createProject(t *testing.T, uc *usecase.UseCases) *model.Project {
	t.Helper()
	project, err := uc.Project.CreateProject(context.Background(), "Payments", "quarterly review")
	gt.NoError(t, err).Required()
	return project
}

// seedTables creates one item per text in the given table and returns them
func seedTables(t *testing.T, uc *usecase.UseCases, projectID model.ProjectID, items map[types.TableIndex][]string) {
	t.Helper()
	for _, table := range types.AllTables() {
		for _, text := range items[table] {
			_, err := uc.Item.CreateItem(context.Background(), projectID, table, text)
			gt.NoError(t, err).Required()
		}
	}
}

func addLink(t *testing.T, uc *usecase.UseCases, projectID model.ProjectID, t1 types.TableIndex, i1 int, t2 types.TableIndex, i2 int) *model.Link {
	t.Helper()
	link, err := uc.Link.AddLink(context.Background(), projectID,
		model.Endpoint{Table: t1, Item: i1},
		model.Endpoint{Table: t2, Item: i2},
	)
	gt.NoError(t, err).Required()
	return link
}

var initialItems = map[types.TableIndex][]string{
	types.TableActor:              {"attacker"},
	types.TableVector:             {"phishing email"},
	types.TableAsset:              {"customer database"},
	types.TableLocalObjective:     {"data theft"},
	types.TableStrategicObjective: {"extort the company"},
	types.TableAdversarialAction:  {"deploy ransomware"},
	types.TableCIANA:              {"availability"},
}

const (
	initialStatement      = "An attacker with phishing email could target the customer database to conduct data theft in order to extort the company"
	intermediateStatement = "An attacker with phishing email could deploy ransomware which leads to service outage, resulting in data theft impacting availability of customer database in order to extort the company"
	finalStatement        = "Using Phishing (T1566), an attacker with phishing email could deploy ransomware which leads to service outage, resulting in data theft impacting availability of customer database in order to extort the company"
)

// linkInitial links the five roles of the initial template
func linkInitial(t *testing.T, uc *usecase.UseCases, projectID model.ProjectID) {
	t.Helper()
	addLink(t, uc, projectID, types.TableActor, 0, types.TableVector, 0)
	addLink(t, uc, projectID, types.TableAsset, 0, types.TableLocalObjective, 0)
	addLink(t, uc, projectID, types.TableStrategicObjective, 0, types.TableActor, 0)
}

// buildChain saves an initial, intermediate and final statement built on
// each other
func buildChain(t *testing.T, uc *usecase.UseCases, projectID model.ProjectID) (initial, intermediate, final *model.Threat) {
	t.Helper()
	ctx := context.Background()

	linkInitial(t, uc, projectID)
	initial, err := uc.Threat.SaveComposed(ctx, projectID, usecase.ComposeRequest{Stage: types.StageInitial})
	gt.NoError(t, err).Required()

	addLink(t, uc, projectID, types.TableAdversarialAction, 0, types.TableCIANA, 0)
	intermediate, err = uc.Threat.SaveComposed(ctx, projectID, usecase.ComposeRequest{
		Stage:        types.StageIntermediate,
		BaseThreatID: initial.ID,
		LocalImpact:  "service outage",
	})
	gt.NoError(t, err).Required()

	final, err = uc.Threat.SaveComposed(ctx, projectID, usecase.ComposeRequest{
		Stage:        types.StageFinal,
		BaseThreatID: intermediate.ID,
		Techniques:   []model.AttackTechnique{{TechniqueID: "T1566"}},
	})
	gt.NoError(t, err).Required()

	return initial, intermediate, final
}
