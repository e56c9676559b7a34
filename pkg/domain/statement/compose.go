// Package statement renders threat statements from linked table items and
// resolves threat families from saved statements. Everything here is pure:
// callers pass snapshots in and persist the results themselves.
package statement

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// DiagnosticPrefix starts every "what's missing" message returned in place
// of a statement.
const DiagnosticPrefix = "Select "

const localImpactName = "Local Impact (free text)"

const (
	msgSelectStage        = "Select a stage to build a threat statement."
	msgSelectInitialBase  = "Select an initial threat statement to build upon."
	msgSelectIntermediate = "Select an intermediate threat statement to build upon."
	msgSelectTechniques   = "Select ATT&CK techniques to complete the final threat statement."
)

// Inputs are the stage-specific values supplied directly by the caller.
type Inputs struct {
	// Base is the statement being extended: an initial statement for the
	// intermediate stage, an intermediate statement for the final stage.
	Base string
	// BaseComponents is the structured payload saved with Base, if any.
	BaseComponents *model.StatementComponents
	// LocalImpact is free text used by the intermediate stage.
	LocalImpact string
	// Techniques are the selected ATT&CK techniques for the final stage.
	Techniques []model.AttackTechnique
}

// Conflict records two links resolving to the same role with different
// text. The later one is used.
type Conflict struct {
	Role     types.Role
	Previous string
	Current  string
}

// Composition is the detailed result of Build.
type Composition struct {
	// Statement is the rendered sentence or a diagnostic message.
	Statement string
	// Complete is false when Statement is a diagnostic.
	Complete bool
	// Components is the payload the statement was rendered from. Nil for
	// diagnostics.
	Components *model.StatementComponents
	Conflicts  []Conflict
}

// IsDiagnostic reports whether text is a "what's missing" message rather
// than a statement.
func IsDiagnostic(text string) bool {
	return strings.HasPrefix(text, DiagnosticPrefix)
}

// Compose renders the statement for stage, or a diagnostic naming the
// missing inputs.
func Compose(stage types.Stage, links []*model.Link, tables model.ItemTables, in Inputs) string {
	return Build(stage, links, tables, in).Statement
}

// Build is Compose with the structured payload and conflict report.
func Build(stage types.Stage, links []*model.Link, tables model.ItemTables, in Inputs) *Composition {
	roles, conflicts := extract(stage, links, tables)

	var c *Composition
	switch stage {
	case types.StageInitial:
		c = buildInitial(roles)
	case types.StageIntermediate:
		c = buildIntermediate(roles, in)
	case types.StageFinal:
		c = buildFinal(in)
	default:
		c = diagnostic(msgSelectStage)
	}
	c.Conflicts = conflicts
	return c
}

// extract maps link endpoints to roles. Later links overwrite earlier ones.
func extract(stage types.Stage, links []*model.Link, tables model.ItemTables) (map[types.Role]string, []Conflict) {
	roles := make(map[types.Role]string)
	var conflicts []Conflict

	for _, link := range links {
		if link == nil {
			continue
		}
		for _, e := range link.Endpoints() {
			if !stage.IsTableActive(e.Table) {
				continue
			}
			text, ok := tables.Get(e.Table, e.Item)
			if !ok {
				continue
			}
			role := e.Table.Role()
			if prev, exists := roles[role]; exists && prev != text {
				conflicts = append(conflicts, Conflict{Role: role, Previous: prev, Current: text})
			}
			roles[role] = text
		}
	}
	return roles, conflicts
}

func buildInitial(roles map[types.Role]string) *Composition {
	required := []types.TableIndex{
		types.TableActor,
		types.TableVector,
		types.TableAsset,
		types.TableLocalObjective,
		types.TableStrategicObjective,
	}
	var missing []string
	for _, table := range required {
		if roles[table.Role()] == "" {
			missing = append(missing, table.Name())
		}
	}
	if len(missing) > 0 {
		return diagnostic(missingMessage(missing, types.StageInitial))
	}

	c := &model.StatementComponents{
		Article:            articleFor(roles[types.RoleActor]),
		Actor:              roles[types.RoleActor],
		Vector:             roles[types.RoleVector],
		Asset:              roles[types.RoleAsset],
		LocalObjective:     roles[types.RoleLocalObjective],
		StrategicObjective: roles[types.RoleStrategicObjective],
	}
	text := fmt.Sprintf("%s %s with %s could target the %s to conduct %s in order to %s",
		c.Article, c.Actor, c.Vector, c.Asset, c.LocalObjective, c.StrategicObjective)

	return &Composition{Statement: text, Complete: true, Components: c}
}

func buildIntermediate(roles map[types.Role]string, in Inputs) *Composition {
	if isBlank(in.Base) {
		return diagnostic(msgSelectInitialBase)
	}

	action := roles[types.RoleAdversarialAction]
	ciana := roles[types.RoleCIANA]

	var missing []string
	if action == "" {
		missing = append(missing, types.TableAdversarialAction.Name())
	}
	if isBlank(in.LocalImpact) {
		missing = append(missing, localImpactName)
	}
	if ciana == "" {
		missing = append(missing, types.TableCIANA.Name())
	}
	if len(missing) > 0 {
		return diagnostic(missingMessage(missing, types.StageIntermediate))
	}

	c := &model.StatementComponents{
		Stride:            roles[types.RoleStride],
		AdversarialAction: action,
		LocalImpact:       in.LocalImpact,
		CIANA:             ciana,
		Base:              in.Base,
	}

	parts, ok := partsFromComponents(in.BaseComponents)
	if !ok {
		parts, ok = parseInitial(in.Base)
	}
	if !ok {
		text := fmt.Sprintf("%s [Enhanced: %s, %s, %s]", in.Base, action, in.LocalImpact, ciana)
		return &Composition{Statement: text, Complete: true, Components: c}
	}

	c.Article = strings.TrimSpace(parts.article)
	c.Actor = parts.actor
	c.Vector = parts.vector
	c.Asset = parts.asset
	c.LocalObjective = parts.localObjective
	c.StrategicObjective = parts.strategicObjective

	text := fmt.Sprintf("%s%s with %s could %s which leads to %s, resulting in %s impacting %s of %s in order to %s",
		parts.article, parts.actor, parts.vector, action, in.LocalImpact,
		parts.localObjective, ciana, parts.asset, parts.strategicObjective)

	return &Composition{Statement: text, Complete: true, Components: c}
}

func buildFinal(in Inputs) *Composition {
	if isBlank(in.Base) {
		return diagnostic(msgSelectIntermediate)
	}
	if len(in.Techniques) == 0 {
		return diagnostic(msgSelectTechniques)
	}

	c := in.BaseComponents.Clone()
	if c == nil {
		c = &model.StatementComponents{}
	}
	c.Base = in.Base
	c.Techniques = make([]model.AttackTechnique, len(in.Techniques))
	copy(c.Techniques, in.Techniques)

	text := fmt.Sprintf("Using %s, %s", joinTechniques(in.Techniques), lowerFirst(in.Base))
	return &Composition{Statement: text, Complete: true, Components: c}
}

func missingMessage(missing []string, stage types.Stage) string {
	return fmt.Sprintf("Select items from %s to build the %s threat statement.", joinWithAnd(missing), stage)
}

func diagnostic(msg string) *Composition {
	return &Composition{Statement: msg}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
