// Package engine generates synthetic Jira issues with changelogs, in the
// same JSON shape the REST API returns, for demos and manual testing.
package engine

import (
	"encoding/json"
	"fmt"
	"jiracounter/internal/jira"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const jiraLayout = "2006-01-02T15:04:05.000-0700"

type GeneratorConfig struct {
	// Scenario is "mild" (straight flow) or "chaos" (backflows, legacy names,
	// the odd corrupt timestamp).
	Scenario string
	Count    int
	Project  string
	Seed     int64
	Now      time.Time
}

var mildFlow = []string{"Open", "In Progress", "In Review", "Testing", "Done"}

// legacy spellings the chaos scenario swaps in
var legacyNames = map[string][]string{
	"In Progress": {"IN PROGRESS2", "W TRAKCIE", "in-progress"},
	"In Review":   {"Code Review", "W przeglądzie"},
	"Open":        {"OPEN", "Otwarte"},
	"Done":        {"Gotowe", "DONE"},
}

func Generate(cfg GeneratorConfig) []jira.IssueDTO {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Project == "" {
		cfg.Project = "MOCK"
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	chaos := cfg.Scenario == "chaos"

	issues := make([]jira.IssueDTO, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("%s-%d", cfg.Project, i+1)
		created := cfg.Now.AddDate(0, 0, -cfg.Count-rng.Intn(10)+i).
			Truncate(time.Hour).Add(time.Duration(rng.Intn(8)) * time.Hour)

		// Status path: a prefix of the flow, with optional loops back to In Progress.
		steps := 1 + rng.Intn(len(mildFlow)-1)
		path := append([]string{}, mildFlow[:steps+1]...)
		if chaos && steps >= 2 && rng.Float64() < 0.4 {
			at := 2 + rng.Intn(steps-1)
			loop := []string{"In Progress"}
			path = append(path[:at+1], append(loop, path[at:]...)...)
		}

		dto := jira.IssueDTO{ID: fmt.Sprintf("%d", 10000+i), Key: key}
		dto.Fields.Summary = fmt.Sprintf("Synthetic issue %d", i+1)
		dto.Fields.IssueType = jira.NamedDTO{Name: "Story"}
		dto.Fields.Project = jira.NamedDTO{Key: cfg.Project, Name: cfg.Project}
		dto.Fields.Created = created.Format(jiraLayout)
		dto.Changelog = &jira.ChangelogDTO{}

		ts := created
		for j := 1; j < len(path); j++ {
			ts = ts.Add(time.Duration(2+rng.Intn(40)) * time.Hour)
			if ts.After(cfg.Now) {
				path = path[:j]
				break
			}
			stamp := ts.Format(jiraLayout)
			if chaos && rng.Float64() < 0.05 {
				stamp = "corrupt-" + stamp
			}
			dto.Changelog.Histories = append(dto.Changelog.Histories, jira.HistoryDTO{
				ID:      fmt.Sprintf("%d%02d", 10000+i, j),
				Author:  &jira.UserDTO{Name: "mock", DisplayName: "Mock User"},
				Created: stamp,
				Items: []jira.ItemDTO{{
					Field:      "status",
					FieldType:  "jira",
					FromString: label(rng, chaos, path[j-1]),
					ToString:   label(rng, chaos, path[j]),
				}},
			})
		}

		dto.Fields.Status.Name = path[len(path)-1]
		dto.Fields.Updated = ts.Format(jiraLayout)
		dto.Changelog.Total = len(dto.Changelog.Histories)
		dto.Changelog.MaxResults = dto.Changelog.Total
		issues = append(issues, dto)
	}
	return issues
}

func label(rng *rand.Rand, chaos bool, status string) string {
	if alts, ok := legacyNames[status]; ok && chaos && rng.Float64() < 0.3 {
		return alts[rng.Intn(len(alts))]
	}
	return status
}

// Save writes one <KEY>.json file per issue into outDir.
func Save(outDir string, issues []jira.IssueDTO) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for _, issue := range issues {
		data, err := json.MarshalIndent(issue, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, issue.Key+".json"), data, 0644); err != nil {
			return err
		}
	}
	return nil
}
