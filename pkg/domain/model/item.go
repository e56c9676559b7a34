package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// ItemID is a UUID-based identifier for TableItem
type ItemID string

// NewItemID generates a new UUID v4 ItemID
func NewItemID() ItemID {
	return ItemID(uuid.New().String())
}

func (id ItemID) String() string {
	return string(id)
}

// TableItem is a free-text entry in one of the eight reference tables.
// Position only orders items inside a table; the index used by links is the
// item's rank in that order, not Position itself.
type TableItem struct {
	ID        ItemID
	ProjectID ProjectID
	Table     types.TableIndex
	Text      string
	Position  int
	CreatedAt time.Time
}

// SortItems orders items by table, then position, then ID.
func SortItems(items []*TableItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Table != items[j].Table {
			return items[i].Table < items[j].Table
		}
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
}

// ItemTables is an immutable snapshot of a project's reference tables,
// addressable by (table, index).
type ItemTables [types.TableCount][]string

// NewItemTables builds a snapshot from items in any order. Items with an
// invalid table are dropped.
func NewItemTables(items []*TableItem) ItemTables {
	sorted := make([]*TableItem, 0, len(items))
	for _, item := range items {
		if item != nil && item.Table.IsValid() {
			sorted = append(sorted, item)
		}
	}
	SortItems(sorted)

	var tables ItemTables
	for _, item := range sorted {
		tables[item.Table] = append(tables[item.Table], item.Text)
	}
	return tables
}

// Get returns the text at (table, index).
func (t ItemTables) Get(table types.TableIndex, index int) (string, bool) {
	if !table.IsValid() || index < 0 || index >= len(t[table]) {
		return "", false
	}
	return t[table][index], true
}

// Len returns the number of items in table.
func (t ItemTables) Len(table types.TableIndex) int {
	if !table.IsValid() {
		return 0
	}
	return len(t[table])
}

// LocateItem returns the table and index of the item with the given ID.
func LocateItem(items []*TableItem, id ItemID) (types.TableIndex, int, bool) {
	var target *TableItem
	for _, item := range items {
		if item.ID == id {
			target = item
			break
		}
	}
	if target == nil {
		return 0, 0, false
	}

	sorted := make([]*TableItem, 0, len(items))
	for _, item := range items {
		if item.Table == target.Table {
			sorted = append(sorted, item)
		}
	}
	SortItems(sorted)

	for i, item := range sorted {
		if item.ID == id {
			return target.Table, i, true
		}
	}
	return 0, 0, false
}
