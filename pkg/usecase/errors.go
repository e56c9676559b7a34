package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrProjectNotFound = errors.New("project not found")

	// Input errors
	ErrInvalidInput        = errors.New("invalid input")
	ErrIncompleteStatement = errors.New("threat statement is incomplete")

	// Feature errors
	ErrNotConfigured = errors.New("feature is not configured")
)

// Context keys for error values
const (
	ProjectIDKey = "project_id"
	ThreatIDKey  = "threat_id"
	ItemIDKey    = "item_id"
	LinkIDKey    = "link_id"
	ControlIDKey = "control_id"
	StageKey     = "stage"
	VersionKey   = "version"
)
