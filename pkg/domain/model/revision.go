package model

import (
	"time"

	"github.com/google/uuid"
)

// RevisionID is a UUID-based identifier for ThreatRevision
type RevisionID string

// NewRevisionID generates a new UUID v7 RevisionID so that IDs sort by time
func NewRevisionID() RevisionID {
	return RevisionID(uuid.Must(uuid.NewV7()).String())
}

// ThreatRevision records one in-place edit of a threat statement
type ThreatRevision struct {
	ID        RevisionID
	ThreatID  ThreatID
	Previous  string
	Current   string
	Patch     string // textual patch from Previous to Current
	CreatedAt time.Time
}
