package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// RiskValidator validates ratings and technique selections against the
// configured risk levels and technique catalog
type RiskValidator struct {
	cfg *config.RiskConfig
}

// NewRiskValidator creates a new RiskValidator with the given configuration
func NewRiskValidator(cfg *config.RiskConfig) *RiskValidator {
	if cfg == nil {
		cfg = &config.RiskConfig{}
	}
	return &RiskValidator{cfg: cfg}
}

// Rate validates the level IDs and returns the rating with its score
func (v *RiskValidator) Rate(likelihoodID types.LikelihoodID, impactID types.ImpactID) (*Rating, error) {
	l, ok := v.cfg.FindLikelihood(likelihoodID.String())
	if !ok {
		return nil, goerr.Wrap(ErrUnknownLikelihood, "likelihood level is not configured",
			goerr.V(LikelihoodIDKey, likelihoodID))
	}
	i, ok := v.cfg.FindImpact(impactID.String())
	if !ok {
		return nil, goerr.Wrap(ErrUnknownImpact, "impact level is not configured",
			goerr.V(ImpactIDKey, impactID))
	}

	return &Rating{
		LikelihoodID: likelihoodID,
		ImpactID:     impactID,
		Score:        l.Score * i.Score,
	}, nil
}

// ResolveTechniques fills technique names from the catalog. Each entry is
// looked up by SubTechniqueID when set, otherwise by TechniqueID. An empty
// catalog accepts the selection as given.
func (v *RiskValidator) ResolveTechniques(selected []AttackTechnique) ([]AttackTechnique, error) {
	if len(v.cfg.Techniques) == 0 {
		return selected, nil
	}

	resolved := make([]AttackTechnique, 0, len(selected))
	for _, s := range selected {
		id := s.TechniqueID
		if s.SubTechniqueID != "" {
			id = s.SubTechniqueID
		}

		tech, sub, ok := v.cfg.FindTechnique(id)
		if !ok {
			return nil, goerr.Wrap(ErrUnknownTechnique, "technique is not in the catalog",
				goerr.V(TechniqueIDKey, id))
		}

		entry := AttackTechnique{
			TechniqueID:   tech.ID,
			TechniqueName: tech.Name,
		}
		if sub != nil {
			entry.SubTechniqueID = sub.ID
			entry.SubTechniqueName = sub.Name
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// ValidateLink checks both endpoints against the snapshot
func ValidateLink(tables ItemTables, link *Link) error {
	for _, e := range link.Endpoints() {
		if _, ok := tables.Get(e.Table, e.Item); !ok {
			return goerr.Wrap(ErrInvalidEndpoint, "link endpoint does not reference an item",
				goerr.V(TableKey, int(e.Table)),
				goerr.V(ItemIndexKey, e.Item))
		}
	}
	if link.Table1 == link.Table2 && link.Item1 == link.Item2 {
		return goerr.Wrap(ErrSelfLink, "link endpoints must differ",
			goerr.V(TableKey, int(link.Table1)),
			goerr.V(ItemIndexKey, link.Item1))
	}
	return nil
}
