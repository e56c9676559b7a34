package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// ThreatID is a UUID-based identifier for Threat
type ThreatID string

// NewThreatID generates a new UUID v4 ThreatID
func NewThreatID() ThreatID {
	return ThreatID(uuid.New().String())
}

func (id ThreatID) String() string {
	return string(id)
}

// Threat is a saved threat statement.
type Threat struct {
	ID        ThreatID
	ProjectID ProjectID
	Statement string
	Stage     types.Stage
	// ParentID is the statement this one was built from; empty when unknown.
	ParentID ThreatID
	// Components is the structured payload the statement was rendered from.
	// Nil for hand-written statements and after a text edit.
	Components *StatementComponents
	Rating     *Rating
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasParent reports whether an explicit parent link is recorded.
func (t *Threat) HasParent() bool {
	return t.ParentID != ""
}

// StatementComponents is the role-to-text mapping used to render a statement.
type StatementComponents struct {
	Article            string
	Actor              string
	Vector             string
	Stride             string
	Asset              string
	LocalObjective     string
	StrategicObjective string

	AdversarialAction string
	LocalImpact       string
	CIANA             string

	Techniques []AttackTechnique
	// Base is the text of the statement this one extends.
	Base string
}

// HasInitialFields reports whether the fields rendered by the initial
// template are all present.
func (c *StatementComponents) HasInitialFields() bool {
	return c != nil &&
		c.Article != "" &&
		c.Actor != "" &&
		c.Vector != "" &&
		c.Asset != "" &&
		c.LocalObjective != "" &&
		c.StrategicObjective != ""
}

// Clone returns a deep copy; nil stays nil.
func (c *StatementComponents) Clone() *StatementComponents {
	if c == nil {
		return nil
	}
	copied := *c
	if c.Techniques != nil {
		copied.Techniques = make([]AttackTechnique, len(c.Techniques))
		copy(copied.Techniques, c.Techniques)
	}
	return &copied
}

// Rating is a likelihood × impact assessment of a threat.
type Rating struct {
	LikelihoodID types.LikelihoodID
	ImpactID     types.ImpactID
	Score        int
}

// Clone returns a deep copy of the threat.
func (t *Threat) Clone() *Threat {
	copied := *t
	copied.Components = t.Components.Clone()
	if t.Rating != nil {
		r := *t.Rating
		copied.Rating = &r
	}
	return &copied
}
