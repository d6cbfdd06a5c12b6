package workflow

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Tables bundles the lookups the metrics calculator needs.
type Tables struct {
	Aliases    *AliasTable
	Categories *CategoryTable
}

// Defaults returns the built-in tables.
func Defaults() Tables {
	return Tables{
		Aliases:    DefaultAliasTable(),
		Categories: DefaultCategoryTable(),
	}
}

// File is the YAML shape of a workflow override file.
//
//	order: [Backlog, Open, In Progress, Done]
//	aliases:
//	  "W trakcie": In Progress
//	categories:
//	  processing: [In Progress, Code Review]
type File struct {
	Order      []string            `yaml:"order"`
	Aliases    map[string]string   `yaml:"aliases"`
	Categories map[string][]string `yaml:"categories"`
}

// Load reads a workflow override file and merges it over the defaults. An
// order section replaces the default order; aliases are added to the default
// aliases; a category section replaces that category's default members.
func Load(path string) (Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied workflow file
	if err != nil {
		return Tables{}, fmt.Errorf("reading workflow file: %w", err)
	}
	return Parse(data)
}

// Parse builds tables from YAML content merged over the defaults.
func Parse(data []byte) (Tables, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Tables{}, fmt.Errorf("parsing workflow file: %w", err)
	}

	order := DefaultOrder
	if len(f.Order) > 0 {
		order = f.Order
	}

	// Keys are folded so a file entry replaces a default spelled differently.
	aliases := make(map[string]string, len(DefaultAliases)+len(f.Aliases))
	for k, v := range DefaultAliases {
		aliases[foldKey(k)] = v
	}
	fromFile := make(map[string]string, len(f.Aliases))
	for k, v := range f.Aliases {
		if strings.TrimSpace(v) == "" {
			return Tables{}, fmt.Errorf("aliases: %q has an empty target", k)
		}
		key := foldKey(k)
		if prev, dup := fromFile[key]; dup && !strings.EqualFold(strings.TrimSpace(prev), strings.TrimSpace(v)) {
			return Tables{}, fmt.Errorf("aliases: %q is listed twice with different targets", key)
		}
		fromFile[key] = v
		aliases[key] = v
	}

	cats := make(map[Category][]string, len(DefaultCategories))
	for k, v := range DefaultCategories {
		cats[k] = v
	}
	for name, members := range f.Categories {
		cat := Category(strings.ToLower(strings.TrimSpace(name)))
		switch cat {
		case Backlog, Processing, Completed:
			cats[cat] = members
		case Waiting:
			return Tables{}, fmt.Errorf("categories: %q is the fallback category and cannot list members", name)
		default:
			return Tables{}, fmt.Errorf("categories: unknown category %q", name)
		}
	}

	table := NewAliasTable(order, aliases)
	for _, target := range table.UnorderedTargets() {
		log.Warn().Str("status", target).Msg("Alias target is not in the workflow order; it will have no order")
	}

	return Tables{
		Aliases:    table,
		Categories: NewCategoryTable(cats),
	}, nil
}
