package engine

import (
	"encoding/json"
	"jiracounter/internal/eventlog"
	"jiracounter/internal/jira"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerate_Mild(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issues := Generate(GeneratorConfig{Scenario: "mild", Count: 20, Seed: 7, Now: now})
	if len(issues) != 20 {
		t.Fatalf("Expected 20 issues, got %d", len(issues))
	}

	for _, issue := range issues {
		created, err := jira.ParseTime(issue.Fields.Created)
		if err != nil {
			t.Fatalf("%s: unparseable created: %v", issue.Key, err)
		}
		events := eventlog.ExtractIssue(issue)
		prev := created
		for _, ev := range events {
			if ev.Malformed() {
				t.Errorf("%s: mild scenario must not produce malformed timestamps", issue.Key)
				continue
			}
			if ev.Timestamp.Before(prev) || ev.Timestamp.After(now) {
				t.Errorf("%s: event at %v out of range", issue.Key, ev.Timestamp)
			}
			prev = ev.Timestamp
		}
		if n := len(events); n > 0 && events[n-1].ToStatus != issue.Fields.Status.Name {
			t.Errorf("%s: current status %s does not match last transition %s", issue.Key, issue.Fields.Status.Name, events[n-1].ToStatus)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "chaos", Count: 5, Seed: 3, Now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	a, _ := json.Marshal(Generate(cfg))
	b, _ := json.Marshal(Generate(cfg))
	if string(a) != string(b) {
		t.Error("Expected identical output for the same seed")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	issues := Generate(GeneratorConfig{Count: 2, Project: "DEMO", Seed: 1})
	if err := Save(dir, issues); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "DEMO-2.json"))
	if err != nil {
		t.Fatalf("Expected DEMO-2.json: %v", err)
	}
	var dto jira.IssueDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		t.Fatalf("Invalid issue JSON: %v", err)
	}
	if dto.Key != "DEMO-2" || dto.Fields.Project.Key != "DEMO" {
		t.Errorf("Unexpected issue %+v", dto)
	}
}
