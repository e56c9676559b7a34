package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

var techniqueIDPattern = regexp.MustCompile(`^T\d{4}$`)
var subTechniqueIDPattern = regexp.MustCompile(`^T\d{4}\.\d{3}$`)

// AppConfig represents the application configuration
type AppConfig struct {
	Likelihood []LikelihoodLevel `toml:"likelihood"`
	Impact     []ImpactLevel     `toml:"impact"`
	Techniques []Technique       `toml:"technique"`

	path string
}

// LikelihoodLevel represents a likelihood level configuration
type LikelihoodLevel struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// Validate checks if the LikelihoodLevel is valid
func (l *LikelihoodLevel) Validate() error {
	id := types.LikelihoodID(l.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidID, err.Error(), goerr.V(IDKey, l.ID))
	}
	if l.Name == "" {
		return goerr.Wrap(ErrMissingName, "likelihood name is required", goerr.V(IDKey, l.ID))
	}
	if l.Score < 1 || l.Score > 5 {
		return goerr.Wrap(ErrInvalidScore, "likelihood score must be between 1 and 5", goerr.V(IDKey, l.ID), goerr.V("score", l.Score))
	}
	return nil
}

// ImpactLevel represents an impact level configuration
type ImpactLevel struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// Validate checks if the ImpactLevel is valid
func (i *ImpactLevel) Validate() error {
	id := types.ImpactID(i.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidID, err.Error(), goerr.V(IDKey, i.ID))
	}
	if i.Name == "" {
		return goerr.Wrap(ErrMissingName, "impact name is required", goerr.V(IDKey, i.ID))
	}
	if i.Score < 1 || i.Score > 5 {
		return goerr.Wrap(ErrInvalidScore, "impact score must be between 1 and 5", goerr.V(IDKey, i.ID), goerr.V("score", i.Score))
	}
	return nil
}

// Technique is an ATT&CK technique in the catalog
type Technique struct {
	ID          string         `toml:"id"`
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Subs        []SubTechnique `toml:"sub"`
}

// SubTechnique is an ATT&CK sub-technique nested under a technique
type SubTechnique struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Validate checks the technique and its sub-techniques. A sub-technique ID
// must extend its parent ID, e.g. T1566.002 under T1566.
func (t *Technique) Validate() error {
	if !techniqueIDPattern.MatchString(t.ID) {
		return goerr.Wrap(ErrInvalidID, "technique ID must look like T1234", goerr.V(IDKey, t.ID))
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "technique name is required", goerr.V(IDKey, t.ID))
	}

	seen := make(map[string]bool)
	for _, sub := range t.Subs {
		if !subTechniqueIDPattern.MatchString(sub.ID) || sub.ID[:len(t.ID)] != t.ID {
			return goerr.Wrap(ErrInvalidID, "sub-technique ID must look like T1234.001 under its parent",
				goerr.V(IDKey, sub.ID), goerr.V("parent", t.ID))
		}
		if sub.Name == "" {
			return goerr.Wrap(ErrMissingName, "sub-technique name is required", goerr.V(IDKey, sub.ID))
		}
		if seen[sub.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate sub-technique ID", goerr.V(IDKey, sub.ID))
		}
		seen[sub.ID] = true
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	likelihoodIDs := make(map[string]bool)
	for _, lh := range a.Likelihood {
		if err := lh.Validate(); err != nil {
			return goerr.Wrap(err, "invalid likelihood level")
		}
		if likelihoodIDs[lh.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate likelihood ID", goerr.V(IDKey, lh.ID))
		}
		likelihoodIDs[lh.ID] = true
	}

	impactIDs := make(map[string]bool)
	for _, imp := range a.Impact {
		if err := imp.Validate(); err != nil {
			return goerr.Wrap(err, "invalid impact level")
		}
		if impactIDs[imp.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate impact ID", goerr.V(IDKey, imp.ID))
		}
		impactIDs[imp.ID] = true
	}

	techniqueIDs := make(map[string]bool)
	for _, tech := range a.Techniques {
		if err := tech.Validate(); err != nil {
			return goerr.Wrap(err, "invalid technique")
		}
		if techniqueIDs[tech.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate technique ID", goerr.V(IDKey, tech.ID))
		}
		techniqueIDs[tech.ID] = true
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config", goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// Flags returns CLI flags for the configuration file
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML risk configuration (likelihood, impact, ATT&CK catalog)",
			Sources:     cli.EnvVars("THREATLINE_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the file given by --config. Without a path an empty
// configuration is returned, which disables rating and technique selection.
func (a *AppConfig) Configure() (*domainConfig.RiskConfig, error) {
	if a.path == "" {
		return &domainConfig.RiskConfig{}, nil
	}

	loaded, err := LoadAppConfiguration(a.path)
	if err != nil {
		return nil, err
	}
	return loaded.ToDomainRiskConfig(), nil
}

// Path returns the configured file path
func (a *AppConfig) Path() string {
	return a.path
}

// ToDomainRiskConfig converts AppConfig to domain RiskConfig
func (a *AppConfig) ToDomainRiskConfig() *domainConfig.RiskConfig {
	likelihood := make([]domainConfig.LikelihoodLevel, len(a.Likelihood))
	for i, level := range a.Likelihood {
		likelihood[i] = domainConfig.LikelihoodLevel{
			ID:          level.ID,
			Name:        level.Name,
			Description: level.Description,
			Score:       level.Score,
		}
	}

	impact := make([]domainConfig.ImpactLevel, len(a.Impact))
	for i, level := range a.Impact {
		impact[i] = domainConfig.ImpactLevel{
			ID:          level.ID,
			Name:        level.Name,
			Description: level.Description,
			Score:       level.Score,
		}
	}

	techniques := make([]domainConfig.Technique, len(a.Techniques))
	for i, tech := range a.Techniques {
		subs := make([]domainConfig.SubTechnique, len(tech.Subs))
		for j, sub := range tech.Subs {
			subs[j] = domainConfig.SubTechnique{ID: sub.ID, Name: sub.Name}
		}
		techniques[i] = domainConfig.Technique{
			ID:          tech.ID,
			Name:        tech.Name,
			Description: tech.Description,
			Subs:        subs,
		}
	}

	return &domainConfig.RiskConfig{
		Likelihood: likelihood,
		Impact:     impact,
		Techniques: techniques,
	}
}
