package interfaces

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned by every repository backend when the requested
// entity does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Project() ProjectRepository
	Item() ItemRepository
	Link() LinkRepository
	Threat() ThreatRepository
	Revision() RevisionRepository
	Control() ControlRepository
	ThreatControl() ThreatControlRepository
}
