package memory

import (
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
)

// ErrNotFound is returned when an entity does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	project       *projectRepository
	item          *itemRepository
	link          *linkRepository
	threat        *threatRepository
	revision      *revisionRepository
	control       *controlRepository
	threatControl *threatControlRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		project:       newProjectRepository(),
		item:          newItemRepository(),
		link:          newLinkRepository(),
		threat:        newThreatRepository(),
		revision:      newRevisionRepository(),
		control:       newControlRepository(),
		threatControl: newThreatControlRepository(),
	}
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) Item() interfaces.ItemRepository {
	return m.item
}

func (m *Memory) Link() interfaces.LinkRepository {
	return m.link
}

func (m *Memory) Threat() interfaces.ThreatRepository {
	return m.threat
}

func (m *Memory) Revision() interfaces.RevisionRepository {
	return m.revision
}

func (m *Memory) Control() interfaces.ControlRepository {
	return m.control
}

func (m *Memory) ThreatControl() interfaces.ThreatControlRepository {
	return m.threatControl
}
