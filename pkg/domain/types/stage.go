package types

import "fmt"

// Stage is the maturity level of a threat statement. Stages are totally
// ordered: initial < intermediate < final.
type Stage string

const (
	StageInitial      Stage = "initial"
	StageIntermediate Stage = "intermediate"
	StageFinal        Stage = "final"
)

// AllStages returns every stage in maturity order
func AllStages() []Stage {
	return []Stage{
		StageInitial,
		StageIntermediate,
		StageFinal,
	}
}

// IsValid checks if the stage is one of the known stages
func (s Stage) IsValid() bool {
	switch s {
	case StageInitial,
		StageIntermediate,
		StageFinal:
		return true
	default:
		return false
	}
}

// Rank returns the position of the stage in maturity order, or -1 for an
// unknown stage.
func (s Stage) Rank() int {
	switch s {
	case StageInitial:
		return 0
	case StageIntermediate:
		return 1
	case StageFinal:
		return 2
	default:
		return -1
	}
}

// Before reports whether s is strictly less mature than other.
func (s Stage) Before(other Stage) bool {
	return s.IsValid() && other.IsValid() && s.Rank() < other.Rank()
}

// Previous returns the stage a statement of stage s builds upon. The initial
// stage has no predecessor and returns false.
func (s Stage) Previous() (Stage, bool) {
	switch s {
	case StageIntermediate:
		return StageInitial, true
	case StageFinal:
		return StageIntermediate, true
	default:
		return "", false
	}
}

// ActiveTables returns the reference tables visible at stage s.
func (s Stage) ActiveTables() []TableIndex {
	switch s {
	case StageInitial:
		return []TableIndex{TableActor, TableVector, TableAsset, TableLocalObjective, TableStrategicObjective}
	case StageIntermediate, StageFinal:
		return AllTables()
	default:
		return nil
	}
}

// IsTableActive reports whether table is visible at stage s.
func (s Stage) IsTableActive(table TableIndex) bool {
	for _, t := range s.ActiveTables() {
		if t == table {
			return true
		}
	}
	return false
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage parses a string into a Stage
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return stage, nil
}
