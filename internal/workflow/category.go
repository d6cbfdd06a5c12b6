package workflow

import "strings"

// Category is a time accounting bucket.
type Category string

const (
	Backlog    Category = "backlog"
	Processing Category = "processing"
	Waiting    Category = "waiting"
	// Completed statuses stop time accrual.
	Completed Category = "completed"
)

// CategoryTable classifies canonical statuses into categories.
type CategoryTable struct {
	members map[string]Category
	names   map[Category][]string
}

// NewCategoryTable builds a table from explicit memberships. A status listed
// under several categories keeps the first one seen in Backlog, Processing,
// Completed order; anything unlisted is Waiting.
func NewCategoryTable(sets map[Category][]string) *CategoryTable {
	t := &CategoryTable{
		members: make(map[string]Category),
		names:   make(map[Category][]string),
	}
	for _, cat := range []Category{Backlog, Processing, Completed, Waiting} {
		for _, status := range sets[cat] {
			key := foldKey(status)
			if _, taken := t.members[key]; taken {
				continue
			}
			t.members[key] = cat
			t.names[cat] = append(t.names[cat], strings.TrimSpace(status))
		}
	}
	return t
}

// DefaultCategoryTable returns the table built from DefaultCategories.
func DefaultCategoryTable() *CategoryTable {
	return NewCategoryTable(DefaultCategories)
}

// Of returns the category of a canonical status.
func (t *CategoryTable) Of(status string) Category {
	if cat, ok := t.members[foldKey(status)]; ok {
		return cat
	}
	return Waiting
}

// IsCompleted reports whether time stops accruing in status.
func (t *CategoryTable) IsCompleted(status string) bool {
	return t.Of(status) == Completed
}

// Statuses lists the statuses explicitly assigned to cat.
func (t *CategoryTable) Statuses(cat Category) []string {
	out := make([]string, len(t.names[cat]))
	copy(out, t.names[cat])
	return out
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return strings.ToUpper(string(c))
}
