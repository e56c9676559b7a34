package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model"
)

// ValidationIssue represents a single validation issue found during DB consistency check
type ValidationIssue struct {
	ProjectID model.ProjectID
	ThreatID  model.ThreatID
	LinkID    model.LinkID
	Message   string
	Expected  string
	Actual    string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB checks stored data against the current risk configuration:
// ratings must use configured levels, saved techniques must be in the
// catalog, links must address existing items and parent links must resolve.
// It does NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}

	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}

	for _, project := range projects {
		if err := uc.validateThreats(ctx, project.ID, result); err != nil {
			return nil, err
		}
		if err := uc.validateLinks(ctx, project.ID, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (uc *UseCases) validateThreats(ctx context.Context, projectID model.ProjectID, result *ValidationResult) error {
	threats, err := uc.repo.Threat().List(ctx, projectID, "")
	if err != nil {
		return goerr.Wrap(err, "failed to list threats", goerr.V(ProjectIDKey, projectID))
	}

	known := make(map[model.ThreatID]struct{}, len(threats))
	for _, t := range threats {
		known[t.ID] = struct{}{}
	}

	for _, t := range threats {
		if t.Rating != nil {
			if _, ok := uc.riskConfig.FindLikelihood(t.Rating.LikelihoodID.String()); !ok {
				result.AddIssue(ValidationIssue{
					ProjectID: projectID,
					ThreatID:  t.ID,
					Message:   "rating uses a likelihood level that is not configured",
					Expected:  "configured likelihood ID",
					Actual:    t.Rating.LikelihoodID.String(),
				})
			}
			if _, ok := uc.riskConfig.FindImpact(t.Rating.ImpactID.String()); !ok {
				result.AddIssue(ValidationIssue{
					ProjectID: projectID,
					ThreatID:  t.ID,
					Message:   "rating uses an impact level that is not configured",
					Expected:  "configured impact ID",
					Actual:    t.Rating.ImpactID.String(),
				})
			}
		}

		if t.Components != nil && len(t.Components.Techniques) > 0 {
			if _, err := uc.validator.ResolveTechniques(t.Components.Techniques); err != nil {
				result.AddIssue(ValidationIssue{
					ProjectID: projectID,
					ThreatID:  t.ID,
					Message:   "statement references a technique missing from the catalog",
					Expected:  "technique in catalog",
					Actual:    err.Error(),
				})
			}
		}

		if t.HasParent() {
			if _, ok := known[t.ParentID]; !ok {
				result.AddIssue(ValidationIssue{
					ProjectID: projectID,
					ThreatID:  t.ID,
					Message:   "parent threat no longer exists",
					Expected:  "existing threat ID",
					Actual:    t.ParentID.String(),
				})
			}
		}
	}

	return nil
}

func (uc *UseCases) validateLinks(ctx context.Context, projectID model.ProjectID, result *ValidationResult) error {
	items, err := uc.repo.Item().List(ctx, projectID)
	if err != nil {
		return goerr.Wrap(err, "failed to list items", goerr.V(ProjectIDKey, projectID))
	}
	links, err := uc.repo.Link().List(ctx, projectID)
	if err != nil {
		return goerr.Wrap(err, "failed to list links", goerr.V(ProjectIDKey, projectID))
	}

	tables := model.NewItemTables(items)
	for _, link := range links {
		if err := model.ValidateLink(tables, link); err != nil {
			result.AddIssue(ValidationIssue{
				ProjectID: projectID,
				LinkID:    link.ID,
				Message:   "link does not address two distinct items",
				Expected:  "existing item endpoints",
				Actual:    fmt.Sprintf("(%d,%d)-(%d,%d)", link.Table1, link.Item1, link.Table2, link.Item2),
			})
		}
	}

	return nil
}
