package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	domainConfig "github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

const fullDraft = `
stage = "final"
local_impact = "service outage"

[items]
actor = ["attacker"]
vector = ["phishing email"]
asset = ["customer database"]
adversarialAction = ["deploy ransomware"]
localObjective = ["data theft"]
ciana = ["availability"]
strategicObjective = ["extort the company"]

[[link]]
from = { role = "actor", item = 0 }
to = { role = "vector", item = 0 }

[[link]]
from = { role = "asset", item = 0 }
to = { role = "localObjective", item = 0 }

[[link]]
from = { role = "localObjective", item = 0 }
to = { role = "strategicObjective", item = 0 }

[[link]]
from = { role = "adversarialAction", item = 0 }
to = { role = "ciana", item = 0 }

[[technique]]
id = "T1566.002"
`

func catalog() *domainConfig.RiskConfig {
	return &domainConfig.RiskConfig{
		Techniques: []domainConfig.Technique{
			{
				ID:   "T1566",
				Name: "Phishing",
				Subs: []domainConfig.SubTechnique{
					{ID: "T1566.002", Name: "Spearphishing Link"},
				},
			},
		},
	}
}

func writeDraft(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestDraft_ComposeAllStages(t *testing.T) {
	d, err := loadDraft(writeDraft(t, fullDraft))
	gt.NoError(t, err).Required()

	results, err := d.compose(catalog())
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(3).Required()

	gt.Value(t, results[0].Stage).Equal(types.StageInitial)
	gt.Value(t, results[0].Composition.Statement).
		Equal("An attacker with phishing email could target the customer database to conduct data theft in order to extort the company")

	gt.Value(t, results[1].Stage).Equal(types.StageIntermediate)
	gt.Value(t, results[1].Composition.Statement).
		Equal("An attacker with phishing email could deploy ransomware which leads to service outage, resulting in data theft impacting availability of customer database in order to extort the company")

	gt.Value(t, results[2].Stage).Equal(types.StageFinal)
	gt.Value(t, results[2].Composition.Statement).
		Equal("Using Spearphishing Link (T1566.002), an attacker with phishing email could deploy ransomware which leads to service outage, resulting in data theft impacting availability of customer database in order to extort the company")
}

func TestDraft_StopsAtFirstDiagnostic(t *testing.T) {
	d, err := loadDraft(writeDraft(t, fullDraft))
	gt.NoError(t, err).Required()
	d.LocalImpact = ""

	results, err := d.compose(catalog())
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2).Required()
	gt.Bool(t, results[1].Composition.Complete).False()
	gt.Value(t, results[1].Composition.Statement).
		Equal("Select items from Local Impact (free text) to build the intermediate threat statement.")
}

func TestDraft_WithBaseComposesTargetOnly(t *testing.T) {
	d := &draft{
		Stage: "final",
		Base:  "An insider with stolen credentials could target the payroll system to conduct fraud in order to gain money",
		Techniques: []draftTechnique{
			{ID: "T1486", Name: "Data Encrypted for Impact"},
		},
	}

	results, err := d.compose(&domainConfig.RiskConfig{})
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1).Required()
	gt.Value(t, results[0].Composition.Statement).
		Equal("Using Data Encrypted for Impact (T1486), an insider with stolen credentials could target the payroll system to conduct fraud in order to gain money")
}

func TestDraft_Errors(t *testing.T) {
	t.Run("unknown stage", func(t *testing.T) {
		_, err := (&draft{Stage: "draft"}).compose(catalog())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("unknown role", func(t *testing.T) {
		d := &draft{Stage: "initial", Items: map[string][]string{"villain": {"x"}}}
		_, err := d.compose(catalog())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("link out of range", func(t *testing.T) {
		d := &draft{
			Stage: "initial",
			Items: map[string][]string{"actor": {"attacker"}, "vector": {"email"}},
			Links: []draftLink{
				{From: draftEndpoint{Role: "actor", Item: 0}, To: draftEndpoint{Role: "vector", Item: 3}},
			},
		}
		_, err := d.compose(catalog())
		gt.Value(t, err).NotNil()
	})

	t.Run("technique outside catalog", func(t *testing.T) {
		d := &draft{Stage: "final", Base: "An attacker", Techniques: []draftTechnique{{ID: "T9999"}}}
		_, err := d.compose(catalog())
		gt.Value(t, err).NotNil()
	})

	t.Run("broken TOML", func(t *testing.T) {
		_, err := loadDraft(writeDraft(t, "stage = "))
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestPrintResults(t *testing.T) {
	d, err := loadDraft(writeDraft(t, fullDraft))
	gt.NoError(t, err).Required()
	d.Stage = "initial"

	results, err := d.compose(catalog())
	gt.NoError(t, err).Required()

	var buf bytes.Buffer
	printResults(&buf, results)
	gt.String(t, buf.String()).Contains("[initial]")
	gt.String(t, buf.String()).Contains("could target the customer database")
}

func TestGetIndexConfig(t *testing.T) {
	cfg := getIndexConfig()
	gt.Array(t, cfg.Collections).Length(1).Required()
	gt.Value(t, cfg.Collections[0].Name).Equal("threats")
	gt.Array(t, cfg.Collections[0].Indexes).Length(1).Required()
	gt.Array(t, cfg.Collections[0].Indexes[0].Fields).Length(2)
	gt.NoError(t, cfg.Validate())
}

func TestMigrateFirestore_RequiresProject(t *testing.T) {
	err := migrateFirestore(context.Background(), "", "(default)", true)
	gt.Error(t, err).Is(config.ErrMissingOption)
}

func TestMigrateFirestore_RequiresDatabase(t *testing.T) {
	err := migrateFirestore(context.Background(), "threatline-test", "", true)
	gt.Value(t, err).NotNil()
	gt.String(t, err.Error()).Contains("fireconf")
}
