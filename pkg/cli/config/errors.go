package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound = goerr.New("configuration file not found")
	ErrInvalidConfig  = goerr.New("invalid configuration")
	ErrDuplicateID    = goerr.New("duplicate ID")
	ErrInvalidID      = goerr.New("invalid ID format")
	ErrInvalidScore   = goerr.New("invalid score")
	ErrMissingName    = goerr.New("name is required")
	ErrInvalidBackend = goerr.New("invalid backend")
	ErrMissingOption  = goerr.New("required option is missing")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	IDKey         = "id"
	BackendKey    = "backend"
	OptionKey     = "option"
)
