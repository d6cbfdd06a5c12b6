package document

import (
	"encoding/json"
	"jiracounter/internal/jira"
	"jiracounter/internal/metrics"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuild(t *testing.T) {
	created := time.Date(2025, 5, 26, 9, 0, 0, 0, time.UTC)
	issue := jira.Issue{
		ID:         "10001",
		Key:        "PROJ-1",
		ProjectKey: "PROJ",
		IssueType:  "Story",
		Status:     "In Progress",
		Summary:    "Do it",
		Created:    created,
		Updated:    created.Add(time.Hour),
	}
	prev := "Open"
	rec := &metrics.Record{
		WorkingMinutesFromCreate:      960,
		WorkingMinutesInCurrentStatus: 540,
		CurrentStatus:                 "In Progress",
		PreviousStatus:                &prev,
		UniqueStatusesVisited:         []string{"Open", "In Progress"},
		Categorized:                   metrics.CategorizedMinutes{Waiting: 420, Processing: 540},
	}

	syncID := NewSyncID()
	if _, err := uuid.Parse(syncID); err != nil {
		t.Fatalf("Expected a UUID sync id, got %q", syncID)
	}

	indexedAt := time.Date(2025, 5, 28, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	doc := Build(issue, rec, syncID, indexedAt)

	if doc.DocumentID() != "PROJ-1" {
		t.Errorf("Expected document id PROJ-1, got %s", doc.DocumentID())
	}
	if doc.TimeInCurrentStatusText != "1 working day 1 hour" {
		t.Errorf("Expected '1 working day 1 hour', got %q", doc.TimeInCurrentStatusText)
	}
	if doc.TimeFromCreateText != "2 working days" {
		t.Errorf("Expected '2 working days', got %q", doc.TimeFromCreateText)
	}
	if doc.DaysInCurrentStatus != 1.13 {
		t.Errorf("Expected 1.13 days, got %v", doc.DaysInCurrentStatus)
	}
	if doc.IndexedAt.Location() != time.UTC || doc.IndexedAt.Hour() != 12 {
		t.Errorf("Expected indexed_at normalised to UTC, got %v", doc.IndexedAt)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, field := range []string{"key", "working_minutes_from_create", "categorized", "previous_status", "sync_id", "time_in_current_status_text"} {
		if _, ok := flat[field]; !ok {
			t.Errorf("Expected top-level field %q in document", field)
		}
	}
	if flat["previous_status"] != "Open" {
		t.Errorf("Expected previous_status Open, got %v", flat["previous_status"])
	}
}

func TestBuild_NilRecord(t *testing.T) {
	doc := Build(jira.Issue{Key: "PROJ-2"}, nil, "sync", time.Now())
	if doc.WorkingMinutesFromCreate != 0 || doc.TimeInCurrentStatusText != "" {
		t.Errorf("Expected empty metrics for a nil record, got %+v", doc.Record)
	}
}
