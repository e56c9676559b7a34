package usecase

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
)

var versionPattern = regexp.MustCompile(`^v([0-9]+)(\.[a-z]+)$`)

type ArtefactUseCase struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	store      interfaces.ArtefactStore
	now        func() time.Time
}

func NewArtefactUseCase(repo interfaces.Repository, cfg *config.RiskConfig, store interfaces.ArtefactStore) *ArtefactUseCase {
	if cfg == nil {
		cfg = &config.RiskConfig{}
	}
	return &ArtefactUseCase{
		repo:       repo,
		riskConfig: cfg,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func registerPrefix(projectID model.ProjectID) string {
	return "projects/" + projectID.String() + "/register/"
}

func artefactPath(projectID model.ProjectID, version int, format model.ArtefactFormat) string {
	return fmt.Sprintf("%sv%d%s", registerPrefix(projectID), version, format.Extension())
}

func (uc *ArtefactUseCase) requireStore() error {
	if uc.store == nil {
		return goerr.Wrap(ErrNotConfigured, "artefact store is not configured")
	}
	return nil
}

// ListArtefacts returns exported register versions, oldest first
func (uc *ArtefactUseCase) ListArtefacts(ctx context.Context, projectID model.ProjectID) ([]*model.Artefact, error) {
	if err := uc.requireStore(); err != nil {
		return nil, err
	}
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	objects, err := uc.store.List(ctx, registerPrefix(projectID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artefacts", goerr.V(ProjectIDKey, projectID))
	}

	artefacts := make([]*model.Artefact, 0, len(objects))
	for _, obj := range objects {
		m := versionPattern.FindStringSubmatch(path.Base(obj.Path))
		if m == nil || m[2] != model.ArtefactFormatMarkdown.Extension() {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		artefacts = append(artefacts, &model.Artefact{
			ProjectID: projectID,
			Version:   version,
			Format:    model.ArtefactFormatMarkdown,
			Path:      obj.Path,
			Size:      obj.Size,
			CreatedAt: obj.CreatedAt,
		})
	}

	sort.Slice(artefacts, func(i, j int) bool {
		return artefacts[i].Version < artefacts[j].Version
	})
	return artefacts, nil
}

// ExportRegister renders the project's threat register and stores it as
// the next version
func (uc *ArtefactUseCase) ExportRegister(ctx context.Context, projectID model.ProjectID) (*model.Artefact, error) {
	data, err := uc.RenderRegister(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := uc.requireStore(); err != nil {
		return nil, err
	}

	existing, err := uc.ListArtefacts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	version := 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	format := model.ArtefactFormatMarkdown
	p := artefactPath(projectID, version, format)
	if err := uc.store.Put(ctx, p, data, "text/markdown; charset=utf-8"); err != nil {
		return nil, goerr.Wrap(err, "failed to store artefact",
			goerr.V(ProjectIDKey, projectID),
			goerr.V(VersionKey, version))
	}

	return &model.Artefact{
		ProjectID: projectID,
		Version:   version,
		Format:    format,
		Path:      p,
		Size:      int64(len(data)),
		CreatedAt: uc.now(),
	}, nil
}

// GetArtefact returns the content of an exported version
func (uc *ArtefactUseCase) GetArtefact(ctx context.Context, projectID model.ProjectID, version int) ([]byte, error) {
	if err := uc.requireStore(); err != nil {
		return nil, err
	}
	if version <= 0 {
		return nil, goerr.Wrap(ErrInvalidInput, "version must be positive", goerr.V(VersionKey, version))
	}
	if _, err := requireProject(ctx, uc.repo, projectID); err != nil {
		return nil, err
	}

	data, err := uc.store.Get(ctx, artefactPath(projectID, version, model.ArtefactFormatMarkdown))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get artefact",
			goerr.V(ProjectIDKey, projectID),
			goerr.V(VersionKey, version))
	}
	return data, nil
}

// RenderRegister builds the Markdown register without storing it
func (uc *ArtefactUseCase) RenderRegister(ctx context.Context, projectID model.ProjectID) ([]byte, error) {
	project, err := requireProject(ctx, uc.repo, projectID)
	if err != nil {
		return nil, err
	}

	threats, err := uc.repo.Threat().List(ctx, projectID, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list threats", goerr.V(ProjectIDKey, projectID))
	}

	controls := make(map[model.ThreatID][]*model.Control, len(threats))
	for _, t := range threats {
		linked, err := controlsOfThreat(ctx, uc.repo, projectID, t.ID)
		if err != nil {
			return nil, err
		}
		controls[t.ID] = linked
	}

	return renderRegister(project, threats, controls, uc.riskConfig, uc.now()), nil
}
