package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrUnknownLikelihood = goerr.New("unknown likelihood level")
	ErrUnknownImpact     = goerr.New("unknown impact level")
	ErrUnknownTechnique  = goerr.New("unknown ATT&CK technique")
	ErrInvalidEndpoint   = goerr.New("invalid link endpoint")
	ErrSelfLink          = goerr.New("link endpoints must differ")
)

// Context keys for error values
const (
	LikelihoodIDKey = "likelihood_id"
	ImpactIDKey     = "impact_id"
	TechniqueIDKey  = "technique_id"
	TableKey        = "table"
	ItemIndexKey    = "item_index"
)
