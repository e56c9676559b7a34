package usecase

import (
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
)

type UseCases struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	notifier   interfaces.Notifier
	suggester  interfaces.TechniqueSuggester
	store      interfaces.ArtefactStore
	validator  *model.RiskValidator

	Project  *ProjectUseCase
	Item     *ItemUseCase
	Link     *LinkUseCase
	Threat   *ThreatUseCase
	Control  *ControlUseCase
	Artefact *ArtefactUseCase
}

type Option func(*UseCases)

func WithRiskConfig(cfg *config.RiskConfig) Option {
	return func(uc *UseCases) {
		uc.riskConfig = cfg
	}
}

// WithNotifier enables notifications for saved threats and linked controls
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithSuggester enables ATT&CK technique suggestions
func WithSuggester(s interfaces.TechniqueSuggester) Option {
	return func(uc *UseCases) {
		uc.suggester = s
	}
}

// WithArtefactStore enables register export
func WithArtefactStore(s interfaces.ArtefactStore) Option {
	return func(uc *UseCases) {
		uc.store = s
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.riskConfig == nil {
		uc.riskConfig = &config.RiskConfig{}
	}
	uc.validator = model.NewRiskValidator(uc.riskConfig)

	uc.Project = NewProjectUseCase(repo)
	uc.Item = NewItemUseCase(repo)
	uc.Link = NewLinkUseCase(repo)
	uc.Threat = NewThreatUseCase(repo, uc.validator, uc.riskConfig, uc.notifier, uc.suggester)
	uc.Control = NewControlUseCase(repo, uc.notifier)
	uc.Artefact = NewArtefactUseCase(repo, uc.riskConfig, uc.store)

	return uc
}

// RiskConfig returns the configured likelihood, impact and technique catalog
func (uc *UseCases) RiskConfig() *config.RiskConfig {
	return uc.riskConfig
}
