package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// LikelihoodID identifies a configured likelihood level
type LikelihoodID string

// Validate checks if the LikelihoodID is valid
func (l LikelihoodID) Validate() error {
	if l == "" {
		return goerr.New("likelihood ID cannot be empty")
	}
	if !idPattern.MatchString(string(l)) {
		return goerr.New("likelihood ID must be lowercase alphanumeric with hyphens", goerr.V("id", l))
	}
	return nil
}

func (l LikelihoodID) String() string {
	return string(l)
}

// ImpactID identifies a configured impact level
type ImpactID string

// Validate checks if the ImpactID is valid
func (i ImpactID) Validate() error {
	if i == "" {
		return goerr.New("impact ID cannot be empty")
	}
	if !idPattern.MatchString(string(i)) {
		return goerr.New("impact ID must be lowercase alphanumeric with hyphens", goerr.V("id", i))
	}
	return nil
}

func (i ImpactID) String() string {
	return string(i)
}
