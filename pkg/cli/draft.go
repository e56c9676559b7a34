package cli

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	domainConfig "github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/statement"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// draft is an offline composition request. Items are listed per role; links
// address them by role and zero-based position in that list.
//
//	stage = "intermediate"
//	local_impact = "payroll delay"
//
//	[items]
//	actor = ["insider"]
//	vector = ["stolen credentials"]
//
//	[[link]]
//	from = { role = "actor", item = 0 }
//	to = { role = "vector", item = 0 }
type draft struct {
	Stage       string              `toml:"stage"`
	Base        string              `toml:"base"`
	LocalImpact string              `toml:"local_impact"`
	Items       map[string][]string `toml:"items"`
	Links       []draftLink         `toml:"link"`
	Techniques  []draftTechnique    `toml:"technique"`
}

type draftEndpoint struct {
	Role string `toml:"role"`
	Item int    `toml:"item"`
}

type draftLink struct {
	From draftEndpoint `toml:"from"`
	To   draftEndpoint `toml:"to"`
}

// draftTechnique selects a technique by ID. Names are taken from the catalog
// when one is configured.
type draftTechnique struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// stageResult is one rendered stage of a draft
type stageResult struct {
	Stage       types.Stage
	Composition *statement.Composition
}

func loadDraft(path string) (*draft, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(config.ErrConfigNotFound, "draft file does not exist", goerr.V(config.ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read draft file", goerr.V(config.ConfigPathKey, path))
	}

	var d draft
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, goerr.Wrap(config.ErrInvalidConfig, "failed to parse draft", goerr.V(config.ConfigPathKey, path), goerr.V("error", err.Error()))
	}
	return &d, nil
}

func (d *draft) tables() (model.ItemTables, error) {
	var tables model.ItemTables
	for role, texts := range d.Items {
		table, ok := types.TableOf(types.Role(role))
		if !ok {
			return tables, goerr.Wrap(config.ErrInvalidConfig, "unknown role in items", goerr.V("role", role))
		}
		tables[table] = texts
	}
	return tables, nil
}

func (d *draft) endpoint(e draftEndpoint) (types.TableIndex, error) {
	table, ok := types.TableOf(types.Role(e.Role))
	if !ok {
		return 0, goerr.Wrap(config.ErrInvalidConfig, "unknown role in link", goerr.V("role", e.Role))
	}
	return table, nil
}

func (d *draft) links(tables model.ItemTables) ([]*model.Link, error) {
	base := time.Now().UTC()
	links := make([]*model.Link, 0, len(d.Links))
	for i, l := range d.Links {
		from, err := d.endpoint(l.From)
		if err != nil {
			return nil, err
		}
		to, err := d.endpoint(l.To)
		if err != nil {
			return nil, err
		}

		link := &model.Link{
			ID:        model.NewLinkID(),
			Table1:    from,
			Item1:     l.From.Item,
			Table2:    to,
			Item2:     l.To.Item,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := model.ValidateLink(tables, link); err != nil {
			return nil, goerr.Wrap(err, "invalid link in draft", goerr.V("link_index", i))
		}
		links = append(links, link)
	}
	return links, nil
}

func (d *draft) techniques(cfg *domainConfig.RiskConfig) ([]model.AttackTechnique, error) {
	selected := make([]model.AttackTechnique, 0, len(d.Techniques))
	for _, t := range d.Techniques {
		entry := model.AttackTechnique{TechniqueID: t.ID, TechniqueName: t.Name}
		if parent, _, ok := strings.Cut(t.ID, "."); ok {
			entry = model.AttackTechnique{
				TechniqueID:      parent,
				SubTechniqueID:   t.ID,
				SubTechniqueName: t.Name,
			}
		}
		selected = append(selected, entry)
	}
	return model.NewRiskValidator(cfg).ResolveTechniques(selected)
}

// compose renders the draft. With a base statement only the target stage is
// rendered. Without one, every stage up to the target is rendered in turn,
// each feeding its components to the next, stopping at the first diagnostic.
func (d *draft) compose(cfg *domainConfig.RiskConfig) ([]*stageResult, error) {
	target, err := types.ParseStage(d.Stage)
	if err != nil {
		return nil, goerr.Wrap(config.ErrInvalidConfig, "invalid stage in draft", goerr.V("stage", d.Stage))
	}

	tables, err := d.tables()
	if err != nil {
		return nil, err
	}
	links, err := d.links(tables)
	if err != nil {
		return nil, err
	}
	techniques, err := d.techniques(cfg)
	if err != nil {
		return nil, err
	}

	in := statement.Inputs{
		Base:        d.Base,
		LocalImpact: d.LocalImpact,
		Techniques:  techniques,
	}

	if d.Base != "" || target == types.StageInitial {
		return []*stageResult{
			{Stage: target, Composition: statement.Build(target, links, tables, in)},
		}, nil
	}

	var results []*stageResult
	for _, stage := range types.AllStages() {
		c := statement.Build(stage, links, tables, in)
		results = append(results, &stageResult{Stage: stage, Composition: c})
		if !c.Complete || stage == target {
			break
		}
		in.Base = c.Statement
		in.BaseComponents = c.Components
	}
	return results, nil
}
