package types

import "fmt"

// TableIndex addresses one of the eight fixed reference tables.
type TableIndex int

const (
	TableActor TableIndex = iota
	TableVector
	TableStride
	TableAsset
	TableAdversarialAction
	TableLocalObjective
	TableCIANA
	TableStrategicObjective
)

// TableCount is the number of reference tables.
const TableCount = 8

// Role is the semantic role an item plays in a threat statement.
type Role string

const (
	RoleActor              Role = "actor"
	RoleVector             Role = "vector"
	RoleStride             Role = "stride"
	RoleAsset              Role = "asset"
	RoleAdversarialAction  Role = "adversarialAction"
	RoleLocalObjective     Role = "localObjective"
	RoleCIANA              Role = "ciana"
	RoleStrategicObjective Role = "strategicObjective"
)

var tableRoles = [TableCount]Role{
	RoleActor,
	RoleVector,
	RoleStride,
	RoleAsset,
	RoleAdversarialAction,
	RoleLocalObjective,
	RoleCIANA,
	RoleStrategicObjective,
}

var tableNames = [TableCount]string{
	"Actors",
	"Vectors",
	"Stride+",
	"Assets",
	"Adversarial actions",
	"Local Objectives",
	"CIANA",
	"Strategic Objectives",
}

// AllTables returns every table index in order
func AllTables() []TableIndex {
	tables := make([]TableIndex, TableCount)
	for i := range tables {
		tables[i] = TableIndex(i)
	}
	return tables
}

// IsValid checks if the index is within 0..7
func (t TableIndex) IsValid() bool {
	return t >= 0 && t < TableCount
}

// Role returns the semantic role of items in the table. Invalid indexes
// return an empty role.
func (t TableIndex) Role() Role {
	if !t.IsValid() {
		return ""
	}
	return tableRoles[t]
}

// Name returns the display name of the table, used in diagnostics.
func (t TableIndex) Name() string {
	if !t.IsValid() {
		return ""
	}
	return tableNames[t]
}

func (t TableIndex) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("table(%d)", int(t))
	}
	return tableNames[t]
}

// TableOf returns the table holding items of the given role.
func TableOf(role Role) (TableIndex, bool) {
	for i, r := range tableRoles {
		if r == role {
			return TableIndex(i), true
		}
	}
	return 0, false
}
