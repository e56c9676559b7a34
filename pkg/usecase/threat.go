package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/statement"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/utils/async"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

type ThreatUseCase struct {
	repo       interfaces.Repository
	validator  *model.RiskValidator
	riskConfig *config.RiskConfig
	notifier   interfaces.Notifier
	suggester  interfaces.TechniqueSuggester
}

func NewThreatUseCase(repo interfaces.Repository, validator *model.RiskValidator, cfg *config.RiskConfig, notifier interfaces.Notifier, suggester interfaces.TechniqueSuggester) *ThreatUseCase {
	if cfg == nil {
		cfg = &config.RiskConfig{}
	}
	if validator == nil {
		validator = model.NewRiskValidator(cfg)
	}
	return &ThreatUseCase{
		repo:       repo,
		validator:  validator,
		riskConfig: cfg,
		notifier:   notifier,
		suggester:  suggester,
	}
}

// ComposeRequest selects the stage and the stage inputs for a composition.
// The role items come from the project's Link Set.
type ComposeRequest struct {
	Stage        types.Stage
	BaseThreatID model.ThreatID
	LocalImpact  string
	Techniques   []model.AttackTechnique
}

// Compose renders the statement for the current Link Set without saving it
func (uc *ThreatUseCase) Compose(ctx context.Context, projectID model.ProjectID, req ComposeRequest) (*statement.Composition, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	var (
		items []*model.TableItem
		links []*model.Link
		base  *model.Threat
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if items, err = uc.repo.Item().List(egCtx, projectID); err != nil {
			return goerr.Wrap(err, "failed to list items", goerr.V(ProjectIDKey, projectID))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if links, err = uc.repo.Link().List(egCtx, projectID); err != nil {
			return goerr.Wrap(err, "failed to list links", goerr.V(ProjectIDKey, projectID))
		}
		return nil
	})
	if req.BaseThreatID != "" {
		eg.Go(func() error {
			var err error
			if base, err = uc.repo.Threat().Get(egCtx, projectID, req.BaseThreatID); err != nil {
				return goerr.Wrap(err, "failed to get base threat", goerr.V(ThreatIDKey, req.BaseThreatID))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	in := statement.Inputs{
		LocalImpact: req.LocalImpact,
	}

	if base != nil {
		if err := checkParentStage(req.Stage, base); err != nil {
			return nil, err
		}
		in.Base = base.Statement
		in.BaseComponents = base.Components
	}

	if len(req.Techniques) > 0 {
		techniques, err := uc.validator.ResolveTechniques(req.Techniques)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid technique selection")
		}
		in.Techniques = techniques
	}

	return statement.Build(req.Stage, links, model.NewItemTables(items), in), nil
}

// SaveComposed composes, saves the statement with its components and
// clears the Link Set. Diagnostics are rejected with ErrIncompleteStatement.
// A failure to clear the Link Set is logged and does not fail the save.
func (uc *ThreatUseCase) SaveComposed(ctx context.Context, projectID model.ProjectID, req ComposeRequest) (*model.Threat, error) {
	composition, err := uc.Compose(ctx, projectID, req)
	if err != nil {
		return nil, err
	}
	if !composition.Complete {
		return nil, goerr.Wrap(ErrIncompleteStatement, composition.Statement, goerr.V(StageKey, req.Stage))
	}

	for _, c := range composition.Conflicts {
		logging.From(ctx).Info("link overwrote role",
			"role", c.Role,
			"previous", c.Previous,
			"current", c.Current)
	}

	created, err := uc.repo.Threat().Create(ctx, projectID, &model.Threat{
		Statement:  composition.Statement,
		Stage:      req.Stage,
		ParentID:   req.BaseThreatID,
		Components: composition.Components,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save threat", goerr.V(ProjectIDKey, projectID))
	}

	// The threat is stored at this point; a failed clear only leaves the
	// Link Set behind.
	if err := uc.repo.Link().DeleteAll(ctx, projectID); err != nil {
		logging.From(ctx).Error("failed to clear links after save",
			"project_id", projectID,
			"threat_id", created.ID,
			"error", err)
	}

	uc.notifySaved(ctx, projectID, created)
	return created, nil
}

// SaveText saves a hand-written statement. It carries no components, so
// later stages fall back to parsing its text.
func (uc *ThreatUseCase) SaveText(ctx context.Context, projectID model.ProjectID, text string, stage types.Stage, parentID model.ThreatID) (*model.Threat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "statement text is required")
	}
	if statement.IsDiagnostic(text) {
		return nil, goerr.Wrap(ErrIncompleteStatement, text)
	}
	if !stage.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid stage", goerr.V(StageKey, stage))
	}
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	if parentID != "" {
		parent, err := uc.repo.Threat().Get(ctx, projectID, parentID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get parent threat", goerr.V(ThreatIDKey, parentID))
		}
		if err := checkParentStage(stage, parent); err != nil {
			return nil, err
		}
	}

	created, err := uc.repo.Threat().Create(ctx, projectID, &model.Threat{
		Statement: text,
		Stage:     stage,
		ParentID:  parentID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save threat", goerr.V(ProjectIDKey, projectID))
	}

	uc.notifySaved(ctx, projectID, created)
	return created, nil
}

// checkParentStage requires parent to sit exactly one stage below stage.
// Initial statements have no parent.
func checkParentStage(stage types.Stage, parent *model.Threat) error {
	want, ok := stage.Previous()
	if !ok {
		return goerr.Wrap(ErrInvalidInput, "threat of this stage cannot have a parent",
			goerr.V(StageKey, stage),
			goerr.V(ThreatIDKey, parent.ID))
	}
	if parent.Stage != want {
		return goerr.Wrap(ErrInvalidInput, "parent threat is not of the preceding stage",
			goerr.V(StageKey, stage),
			goerr.V("parent_stage", parent.Stage),
			goerr.V(ThreatIDKey, parent.ID))
	}
	return nil
}

func (uc *ThreatUseCase) notifySaved(ctx context.Context, projectID model.ProjectID, threat *model.Threat) {
	if uc.notifier == nil {
		return
	}

	project, err := uc.repo.Project().Get(ctx, projectID)
	if err != nil {
		logging.From(ctx).Warn("skip notification, project lookup failed", "error", err)
		return
	}

	saved := threat.Clone()
	async.Dispatch(ctx, "notify_threat_saved", func(ctx context.Context) error {
		return uc.notifier.NotifyThreatSaved(ctx, project, saved)
	})
}

func (uc *ThreatUseCase) GetThreat(ctx context.Context, projectID model.ProjectID, id model.ThreatID) (*model.Threat, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	threat, err := uc.repo.Threat().Get(ctx, projectID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get threat", goerr.V(ThreatIDKey, id))
	}
	return threat, nil
}

// ListThreats returns saved statements. An empty stage lists every stage.
func (uc *ThreatUseCase) ListThreats(ctx context.Context, projectID model.ProjectID, stage types.Stage) ([]*model.Threat, error) {
	if stage != "" && !stage.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid stage", goerr.V(StageKey, stage))
	}
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	threats, err := uc.repo.Threat().List(ctx, projectID, stage)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list threats", goerr.V(ProjectIDKey, projectID))
	}
	return threats, nil
}

// UpdateText edits the statement in place and records a revision. The
// components no longer describe the text afterwards and are dropped.
func (uc *ThreatUseCase) UpdateText(ctx context.Context, projectID model.ProjectID, id model.ThreatID, text string) (*model.Threat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "statement text cannot be empty")
	}

	existing, err := uc.GetThreat(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if existing.Statement == text {
		return existing, nil
	}

	rev := newRevision(id, existing.Statement, text)

	existing.Statement = text
	existing.Components = nil
	updated, err := uc.repo.Threat().Update(ctx, projectID, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update threat", goerr.V(ThreatIDKey, id))
	}

	if _, err := uc.repo.Revision().Create(ctx, projectID, rev); err != nil {
		return nil, goerr.Wrap(err, "failed to record revision", goerr.V(ThreatIDKey, id))
	}

	return updated, nil
}

func (uc *ThreatUseCase) ListRevisions(ctx context.Context, projectID model.ProjectID, id model.ThreatID) ([]*model.ThreatRevision, error) {
	if _, err := uc.GetThreat(ctx, projectID, id); err != nil {
		return nil, err
	}

	revisions, err := uc.repo.Revision().List(ctx, projectID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list revisions", goerr.V(ThreatIDKey, id))
	}
	return revisions, nil
}

// DeleteThreat removes the threat with its revisions and control links.
// Children keep their ParentID and fall back to heuristic family matching.
func (uc *ThreatUseCase) DeleteThreat(ctx context.Context, projectID model.ProjectID, id model.ThreatID) error {
	if _, err := uc.GetThreat(ctx, projectID, id); err != nil {
		return err
	}

	if err := uc.repo.Revision().DeleteByThreat(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete revisions", goerr.V(ThreatIDKey, id))
	}
	if err := uc.repo.ThreatControl().DeleteByThreat(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V(ThreatIDKey, id))
	}
	if err := uc.repo.Threat().Delete(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete threat", goerr.V(ThreatIDKey, id))
	}
	return nil
}

// Family returns the threats related to id, in creation order
func (uc *ThreatUseCase) Family(ctx context.Context, projectID model.ProjectID, id model.ThreatID) ([]*model.Threat, error) {
	return resolveFamily(ctx, uc.repo, projectID, id)
}

func resolveFamily(ctx context.Context, repo interfaces.Repository, projectID model.ProjectID, id model.ThreatID) ([]*model.Threat, error) {
	threats, err := repo.Threat().List(ctx, projectID, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list threats", goerr.V(ProjectIDKey, projectID))
	}

	found := false
	for _, t := range threats {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "threat not found", goerr.V(ThreatIDKey, id))
	}

	family := statement.ResolveFamily(id, threats)
	members := make([]*model.Threat, 0, family.Len())
	for _, t := range threats {
		if family.Contains(t.ID) {
			members = append(members, t)
		}
	}
	return members, nil
}

// RateThreat sets the likelihood and impact of a threat. Empty IDs clear
// the rating.
func (uc *ThreatUseCase) RateThreat(ctx context.Context, projectID model.ProjectID, id model.ThreatID, likelihoodID types.LikelihoodID, impactID types.ImpactID) (*model.Threat, error) {
	var rating *model.Rating
	if likelihoodID != "" || impactID != "" {
		r, err := uc.validator.Rate(likelihoodID, impactID)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid rating", goerr.V(ThreatIDKey, id))
		}
		rating = r
	}

	existing, err := uc.GetThreat(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	existing.Rating = rating

	updated, err := uc.repo.Threat().Update(ctx, projectID, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update rating", goerr.V(ThreatIDKey, id))
	}
	return updated, nil
}

// SuggestTechniques proposes catalog techniques for extending the threat to
// the final stage
func (uc *ThreatUseCase) SuggestTechniques(ctx context.Context, projectID model.ProjectID, id model.ThreatID) ([]*model.TechniqueSuggestion, error) {
	if uc.suggester == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "technique suggestion is not configured")
	}

	threat, err := uc.GetThreat(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	suggestions, err := uc.suggester.Suggest(ctx, threat.Statement, uc.riskConfig.Techniques)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to suggest techniques", goerr.V(ThreatIDKey, id))
	}
	return suggestions, nil
}

// IsInvalidInput reports whether err was caused by bad caller input
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		model.ErrUnknownLikelihood,
		model.ErrUnknownImpact,
		model.ErrUnknownTechnique,
		model.ErrInvalidEndpoint,
		model.ErrSelfLink,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
