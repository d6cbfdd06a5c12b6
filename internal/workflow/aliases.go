// Package workflow holds the static status tables used to interpret issue
// history: alias normalization, the reference workflow order and the time
// accounting categories. Tables are built once and never modified.
package workflow

import (
	"maps"
	"slices"
	"strings"
)

// AliasTable resolves raw status labels to canonical names and positions them
// in the reference workflow.
type AliasTable struct {
	aliases map[string]string
	order   map[string]int
	names   []string
}

// NewAliasTable builds a table from the reference order and an alias map.
// Every name in order is canonical: it resolves to itself even when an alias
// with the same spelling points elsewhere.
func NewAliasTable(order []string, aliases map[string]string) *AliasTable {
	t := &AliasTable{
		aliases: make(map[string]string, len(aliases)+len(order)),
		order:   make(map[string]int, len(order)),
		names:   make([]string, 0, len(order)),
	}
	for i, name := range order {
		name = strings.TrimSpace(name)
		key := foldKey(name)
		if _, dup := t.order[key]; dup {
			continue
		}
		t.order[key] = i + 1
		t.aliases[key] = name
		t.names = append(t.names, name)
	}
	for _, alias := range slices.Sorted(maps.Keys(aliases)) {
		key := foldKey(alias)
		if _, ordered := t.order[key]; ordered {
			continue
		}
		t.aliases[key] = strings.TrimSpace(aliases[alias])
	}
	return t
}

// DefaultAliasTable returns the table built from DefaultOrder and DefaultAliases.
func DefaultAliasTable() *AliasTable {
	return NewAliasTable(DefaultOrder, DefaultAliases)
}

// Normalize returns the canonical name for raw, or the trimmed input when no
// alias matches.
func (t *AliasTable) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := t.aliases[foldKey(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Order returns the 1-based position of a status in the reference workflow,
// or 0 when the status is unknown. The lookup normalizes its input first.
func (t *AliasTable) Order(status string) int {
	return t.order[foldKey(t.Normalize(status))]
}

// Names lists the canonical statuses in workflow order.
func (t *AliasTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Aliases returns the alias map keyed by folded alias, without the
// canonical names that only map to themselves.
func (t *AliasTable) Aliases() map[string]string {
	out := make(map[string]string, len(t.aliases))
	for key, canonical := range t.aliases {
		if key != foldKey(canonical) {
			out[key] = canonical
		}
	}
	return out
}

// UnorderedTargets lists, sorted, the alias targets that have no position in
// the workflow order.
func (t *AliasTable) UnorderedTargets() []string {
	seen := make(map[string]bool)
	for _, canonical := range t.aliases {
		if _, ok := t.order[foldKey(canonical)]; !ok {
			seen[canonical] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Equal reports whether two raw labels resolve to the same canonical status.
func (t *AliasTable) Equal(a, b string) bool {
	return strings.EqualFold(t.Normalize(a), t.Normalize(b))
}

func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
