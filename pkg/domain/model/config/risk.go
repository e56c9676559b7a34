package config

// LikelihoodLevel represents a likelihood level configuration
type LikelihoodLevel struct {
	ID          string
	Name        string
	Description string
	Score       int
}

// ImpactLevel represents an impact level configuration
type ImpactLevel struct {
	ID          string
	Name        string
	Description string
	Score       int
}

// SubTechnique is an ATT&CK sub-technique entry of the catalog
type SubTechnique struct {
	ID   string
	Name string
}

// Technique is an ATT&CK technique entry of the catalog
type Technique struct {
	ID          string
	Name        string
	Description string
	Subs        []SubTechnique
}

// RiskConfig holds all risk-related configuration
type RiskConfig struct {
	Likelihood []LikelihoodLevel
	Impact     []ImpactLevel
	Techniques []Technique
}

// FindLikelihood returns the likelihood level with the given ID
func (c *RiskConfig) FindLikelihood(id string) (LikelihoodLevel, bool) {
	for _, l := range c.Likelihood {
		if l.ID == id {
			return l, true
		}
	}
	return LikelihoodLevel{}, false
}

// FindImpact returns the impact level with the given ID
func (c *RiskConfig) FindImpact(id string) (ImpactLevel, bool) {
	for _, i := range c.Impact {
		if i.ID == id {
			return i, true
		}
	}
	return ImpactLevel{}, false
}

// FindTechnique returns the catalog entry for a technique or sub-technique ID.
// For a sub-technique the parent technique and the sub entry are returned.
func (c *RiskConfig) FindTechnique(id string) (Technique, *SubTechnique, bool) {
	for _, t := range c.Techniques {
		if t.ID == id {
			return t, nil, true
		}
		for i := range t.Subs {
			if t.Subs[i].ID == id {
				sub := t.Subs[i]
				return t, &sub, true
			}
		}
	}
	return Technique{}, nil, false
}
