package types

import "fmt"

// ControlStatus is the remediation progress of a control
type ControlStatus string

const (
	ControlStatusBacklog    ControlStatus = "backlog"
	ControlStatusTodo       ControlStatus = "todo"
	ControlStatusInProgress ControlStatus = "in-progress"
	ControlStatusBlocked    ControlStatus = "blocked"
	ControlStatusCompleted  ControlStatus = "completed"
	ControlStatusAbandoned  ControlStatus = "abandoned"
)

// AllControlStatuses returns all valid control statuses
func AllControlStatuses() []ControlStatus {
	return []ControlStatus{
		ControlStatusBacklog,
		ControlStatusTodo,
		ControlStatusInProgress,
		ControlStatusBlocked,
		ControlStatusCompleted,
		ControlStatusAbandoned,
	}
}

// IsValid checks if the control status is valid
func (s ControlStatus) IsValid() bool {
	switch s {
	case ControlStatusBacklog,
		ControlStatusTodo,
		ControlStatusInProgress,
		ControlStatusBlocked,
		ControlStatusCompleted,
		ControlStatusAbandoned:
		return true
	default:
		return false
	}
}

// IsClosed reports whether no further remediation work is expected.
func (s ControlStatus) IsClosed() bool {
	return s == ControlStatusCompleted || s == ControlStatusAbandoned
}

// Normalize treats an empty status as backlog.
func (s ControlStatus) Normalize() ControlStatus {
	if s == "" {
		return ControlStatusBacklog
	}
	return s
}

func (s ControlStatus) String() string {
	return string(s)
}

// ParseControlStatus parses a string into a ControlStatus
func ParseControlStatus(s string) (ControlStatus, error) {
	status := ControlStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid control status: %s", s)
	}
	return status, nil
}
