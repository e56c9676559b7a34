package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/utils/async"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

type ControlUseCase struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
}

func NewControlUseCase(repo interfaces.Repository, notifier interfaces.Notifier) *ControlUseCase {
	return &ControlUseCase{
		repo:     repo,
		notifier: notifier,
	}
}

// ControlInput carries the editable fields of a control. Nil fields are
// left unchanged on update.
type ControlInput struct {
	Title       *string
	Description *string
	OwnerIDs    []string
	URL         *string
	Status      *types.ControlStatus
}

func (uc *ControlUseCase) CreateControl(ctx context.Context, projectID model.ProjectID, input ControlInput) (*model.Control, error) {
	control := &model.Control{
		Status:   types.ControlStatusBacklog,
		OwnerIDs: []string{},
	}
	if err := applyControlInput(control, input); err != nil {
		return nil, err
	}
	if control.Title == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "control title is required")
	}

	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	created, err := uc.repo.Control().Create(ctx, projectID, control)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create control", goerr.V(ProjectIDKey, projectID))
	}
	return created, nil
}

func (uc *ControlUseCase) UpdateControl(ctx context.Context, projectID model.ProjectID, id model.ControlID, input ControlInput) (*model.Control, error) {
	existing, err := uc.GetControl(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := applyControlInput(existing, input); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Control().Update(ctx, projectID, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update control", goerr.V(ControlIDKey, id))
	}
	return updated, nil
}

func applyControlInput(control *model.Control, input ControlInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return goerr.Wrap(ErrInvalidInput, "control title cannot be empty")
		}
		control.Title = title
	}
	if input.Description != nil {
		control.Description = *input.Description
	}
	if input.OwnerIDs != nil {
		control.OwnerIDs = input.OwnerIDs
	}
	if input.URL != nil {
		control.URL = *input.URL
	}
	if input.Status != nil {
		status := input.Status.Normalize()
		if !status.IsValid() {
			return goerr.Wrap(ErrInvalidInput, "invalid control status", goerr.V("status", *input.Status))
		}
		control.Status = status
	}
	return nil
}

func (uc *ControlUseCase) GetControl(ctx context.Context, projectID model.ProjectID, id model.ControlID) (*model.Control, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	control, err := uc.repo.Control().Get(ctx, projectID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get control", goerr.V(ControlIDKey, id))
	}
	return control, nil
}

func (uc *ControlUseCase) ListControls(ctx context.Context, projectID model.ProjectID) ([]*model.Control, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	controls, err := uc.repo.Control().List(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list controls", goerr.V(ProjectIDKey, projectID))
	}
	return controls, nil
}

func (uc *ControlUseCase) DeleteControl(ctx context.Context, projectID model.ProjectID, id model.ControlID) error {
	if _, err := uc.GetControl(ctx, projectID, id); err != nil {
		return err
	}

	if err := uc.repo.ThreatControl().DeleteByControl(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete threat-control links", goerr.V(ControlIDKey, id))
	}
	if err := uc.repo.Control().Delete(ctx, projectID, id); err != nil {
		return goerr.Wrap(err, "failed to delete control", goerr.V(ControlIDKey, id))
	}
	return nil
}

// ListControlsByThreat returns the controls linked to a threat
func (uc *ControlUseCase) ListControlsByThreat(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID) ([]*model.Control, error) {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}
	return controlsOfThreat(ctx, uc.repo, projectID, threatID)
}

func controlsOfThreat(ctx context.Context, repo interfaces.Repository, projectID model.ProjectID, threatID model.ThreatID) ([]*model.Control, error) {
	links, err := repo.ThreatControl().ListByThreat(ctx, projectID, threatID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list threat-control links", goerr.V(ThreatIDKey, threatID))
	}

	controls := make([]*model.Control, 0, len(links))
	for _, link := range links {
		control, err := repo.Control().Get(ctx, projectID, link.ControlID)
		if err != nil {
			// Skip if control was deleted
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return nil, goerr.Wrap(err, "failed to get control", goerr.V(ControlIDKey, link.ControlID))
		}
		controls = append(controls, control)
	}
	return controls, nil
}

// LinkControl applies the control to every member of the threat's family
// and returns the linked threats
func (uc *ControlUseCase) LinkControl(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) ([]*model.Threat, error) {
	control, err := uc.GetControl(ctx, projectID, controlID)
	if err != nil {
		return nil, err
	}

	family, err := resolveFamily(ctx, uc.repo, projectID, threatID)
	if err != nil {
		return nil, err
	}

	for _, member := range family {
		if err := uc.repo.ThreatControl().Link(ctx, projectID, member.ID, controlID); err != nil {
			return nil, goerr.Wrap(err, "failed to link control",
				goerr.V(ThreatIDKey, member.ID),
				goerr.V(ControlIDKey, controlID))
		}
	}

	uc.notifyLinked(ctx, projectID, control, family)
	return family, nil
}

// UnlinkControl removes the control from every member of the threat's
// family. It fails with ErrNotFound when no member was linked.
func (uc *ControlUseCase) UnlinkControl(ctx context.Context, projectID model.ProjectID, threatID model.ThreatID, controlID model.ControlID) error {
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return err
	}

	family, err := resolveFamily(ctx, uc.repo, projectID, threatID)
	if err != nil {
		return err
	}

	unlinked := 0
	for _, member := range family {
		err := uc.repo.ThreatControl().Unlink(ctx, projectID, member.ID, controlID)
		switch {
		case err == nil:
			unlinked++
		case errors.Is(err, interfaces.ErrNotFound):
		default:
			return goerr.Wrap(err, "failed to unlink control",
				goerr.V(ThreatIDKey, member.ID),
				goerr.V(ControlIDKey, controlID))
		}
	}

	if unlinked == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "control is not linked to the threat family",
			goerr.V(ThreatIDKey, threatID),
			goerr.V(ControlIDKey, controlID))
	}
	return nil
}

func (uc *ControlUseCase) notifyLinked(ctx context.Context, projectID model.ProjectID, control *model.Control, family []*model.Threat) {
	if uc.notifier == nil {
		return
	}

	project, err := uc.repo.Project().Get(ctx, projectID)
	if err != nil {
		logging.From(ctx).Warn("skip notification, project lookup failed", "error", err)
		return
	}

	async.Dispatch(ctx, "notify_control_linked", func(ctx context.Context) error {
		return uc.notifier.NotifyControlLinked(ctx, project, control, family)
	})
}
