package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// ControlID is a UUID-based identifier for Control
type ControlID string

// NewControlID generates a new UUID v4 ControlID
func NewControlID() ControlID {
	return ControlID(uuid.New().String())
}

func (id ControlID) String() string {
	return string(id)
}

// Control is a mitigation or remediation item applied to one or more threats
type Control struct {
	ID          ControlID
	ProjectID   ProjectID
	Title       string
	Description string
	OwnerIDs    []string
	URL         string
	Status      types.ControlStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ThreatControl represents the many-to-many relationship between Threat and Control
type ThreatControl struct {
	ThreatID  ThreatID
	ControlID ControlID
	CreatedAt time.Time
}
