package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

func newRiskConfig() *config.RiskConfig {
	return &config.RiskConfig{
		Likelihood: []config.LikelihoodLevel{
			{ID: "rare", Name: "Rare", Score: 1},
			{ID: "likely", Name: "Likely", Score: 4},
		},
		Impact: []config.ImpactLevel{
			{ID: "minor", Name: "Minor", Score: 2},
			{ID: "severe", Name: "Severe", Score: 5},
		},
		Techniques: []config.Technique{
			{
				ID:   "T1566",
				Name: "Phishing",
				Subs: []config.SubTechnique{
					{ID: "T1566.001", Name: "Spearphishing Attachment"},
				},
			},
			{ID: "T1078", Name: "Valid Accounts"},
		},
	}
}

func TestRiskValidator_Rate(t *testing.T) {
	v := model.NewRiskValidator(newRiskConfig())

	t.Run("score is likelihood times impact", func(t *testing.T) {
		rating, err := v.Rate("likely", "severe")
		gt.NoError(t, err).Required()
		gt.Number(t, rating.Score).Equal(20)
		gt.Value(t, rating.LikelihoodID).Equal(types.LikelihoodID("likely"))
	})

	t.Run("unknown likelihood", func(t *testing.T) {
		_, err := v.Rate("never", "minor")
		gt.Error(t, err).Is(model.ErrUnknownLikelihood)
	})

	t.Run("unknown impact", func(t *testing.T) {
		_, err := v.Rate("rare", "catastrophic")
		gt.Error(t, err).Is(model.ErrUnknownImpact)
	})
}

func TestRiskValidator_ResolveTechniques(t *testing.T) {
	v := model.NewRiskValidator(newRiskConfig())

	t.Run("names filled from catalog", func(t *testing.T) {
		got, err := v.ResolveTechniques([]model.AttackTechnique{
			{TechniqueID: "T1078"},
			{SubTechniqueID: "T1566.001"},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2)
		gt.Value(t, got[0].Label()).Equal("Valid Accounts (T1078)")
		gt.Value(t, got[1].TechniqueID).Equal("T1566")
		gt.Value(t, got[1].Label()).Equal("Spearphishing Attachment (T1566.001)")
	})

	t.Run("unknown technique", func(t *testing.T) {
		_, err := v.ResolveTechniques([]model.AttackTechnique{{TechniqueID: "T9999"}})
		gt.Error(t, err).Is(model.ErrUnknownTechnique)
	})

	t.Run("empty catalog accepts input", func(t *testing.T) {
		open := model.NewRiskValidator(nil)
		in := []model.AttackTechnique{{TechniqueID: "T9999", TechniqueName: "Custom"}}
		got, err := open.ResolveTechniques(in)
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(in)
	})
}

func TestValidateLink(t *testing.T) {
	tables := model.NewItemTables([]*model.TableItem{
		{ID: "a", Table: types.TableActor, Text: "attacker"},
		{ID: "b", Table: types.TableVector, Text: "phishing"},
	})

	t.Run("valid link", func(t *testing.T) {
		err := model.ValidateLink(tables, &model.Link{
			Table1: types.TableActor, Item1: 0,
			Table2: types.TableVector, Item2: 0,
		})
		gt.NoError(t, err)
	})

	t.Run("dangling endpoint", func(t *testing.T) {
		err := model.ValidateLink(tables, &model.Link{
			Table1: types.TableActor, Item1: 0,
			Table2: types.TableAsset, Item2: 0,
		})
		gt.Error(t, err).Is(model.ErrInvalidEndpoint)
	})

	t.Run("self link", func(t *testing.T) {
		err := model.ValidateLink(tables, &model.Link{
			Table1: types.TableActor, Item1: 0,
			Table2: types.TableActor, Item2: 0,
		})
		gt.Error(t, err).Is(model.ErrSelfLink)
	})
}
