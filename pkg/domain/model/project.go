package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectID is a UUID-based identifier for Project
type ProjectID string

// NewProjectID generates a new UUID v4 ProjectID
func NewProjectID() ProjectID {
	return ProjectID(uuid.New().String())
}

func (id ProjectID) String() string {
	return string(id)
}

// Project is the unit of assessment. Items, links, threats and controls
// always belong to exactly one project.
type Project struct {
	ID          ProjectID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
