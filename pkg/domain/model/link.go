package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/threatline/pkg/domain/types"
)

// LinkID is a UUID-based identifier for Link
type LinkID string

// NewLinkID generates a new UUID v7 LinkID. v7 IDs increase within a
// process, so links created in the same clock tick keep their order.
func NewLinkID() LinkID {
	return LinkID(uuid.Must(uuid.NewV7()).String())
}

func (id LinkID) String() string {
	return string(id)
}

// Endpoint addresses an item by table and rank within the table.
type Endpoint struct {
	Table types.TableIndex
	Item  int
}

// Link is an undirected association between two items, created when a user
// selects two items in sequence.
type Link struct {
	ID        LinkID
	ProjectID ProjectID
	Table1    types.TableIndex
	Item1     int
	Table2    types.TableIndex
	Item2     int
	CreatedAt time.Time
}

// Endpoints returns both ends of the link in creation order.
func (l *Link) Endpoints() [2]Endpoint {
	return [2]Endpoint{
		{Table: l.Table1, Item: l.Item1},
		{Table: l.Table2, Item: l.Item2},
	}
}

// Touches reports whether either end of the link is e.
func (l *Link) Touches(e Endpoint) bool {
	return (l.Table1 == e.Table && l.Item1 == e.Item) ||
		(l.Table2 == e.Table && l.Item2 == e.Item)
}

// SortLinks orders a Link Set by creation time, then ID.
func SortLinks(links []*Link) {
	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
}
