// Package document assembles the per-issue document that is written to the
// search index.
package document

import (
	"jiracounter/internal/calendar"
	"jiracounter/internal/jira"
	"jiracounter/internal/metrics"
	"time"

	"github.com/google/uuid"
)

// IssueDocument is the indexed representation of an issue and its metrics.
type IssueDocument struct {
	Key            string     `json:"key"`
	ID             string     `json:"id"`
	ProjectKey     string     `json:"project_key"`
	ProjectName    string     `json:"project_name,omitempty"`
	IssueType      string     `json:"issue_type"`
	Status         string     `json:"status"`
	StatusCategory string     `json:"status_category,omitempty"`
	Summary        string     `json:"summary"`
	Assignee       string     `json:"assignee,omitempty"`
	Reporter       string     `json:"reporter,omitempty"`
	Labels         []string   `json:"labels,omitempty"`
	Components     []string   `json:"components,omitempty"`
	ParentKey      string     `json:"parent_key,omitempty"`
	ParentSummary  string     `json:"parent_summary,omitempty"`
	Resolution     string     `json:"resolution,omitempty"`
	Created        time.Time  `json:"created"`
	Updated        time.Time  `json:"updated"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`

	metrics.Record

	TimeInCurrentStatusText string  `json:"time_in_current_status_text"`
	TimeFromCreateText      string  `json:"time_from_create_text"`
	DaysInCurrentStatus     float64 `json:"days_in_current_status"`

	SyncID    string    `json:"sync_id"`
	IndexedAt time.Time `json:"indexed_at"`
}

// NewSyncID returns a fresh identifier for one sync run.
func NewSyncID() string {
	return uuid.NewString()
}

// Build combines issue fields and computed metrics into an IssueDocument.
func Build(issue jira.Issue, rec *metrics.Record, syncID string, indexedAt time.Time) IssueDocument {
	doc := IssueDocument{
		Key:            issue.Key,
		ID:             issue.ID,
		ProjectKey:     issue.ProjectKey,
		ProjectName:    issue.ProjectName,
		IssueType:      issue.IssueType,
		Status:         issue.Status,
		StatusCategory: issue.StatusCategory,
		Summary:        issue.Summary,
		Assignee:       issue.Assignee,
		Reporter:       issue.Reporter,
		Labels:         issue.Labels,
		Components:     issue.Components,
		ParentKey:      issue.ParentKey,
		ParentSummary:  issue.ParentSummary,
		Resolution:     issue.Resolution,
		Created:        issue.Created,
		Updated:        issue.Updated,
		ResolutionDate: issue.ResolutionDate,
		SyncID:         syncID,
		IndexedAt:      indexedAt.UTC(),
	}
	if rec != nil {
		doc.Record = *rec
		doc.TimeInCurrentStatusText = calendar.FormatMinutes(rec.WorkingMinutesInCurrentStatus)
		doc.TimeFromCreateText = calendar.FormatMinutes(rec.WorkingMinutesFromCreate)
		doc.DaysInCurrentStatus = calendar.DaysFromMinutes(rec.WorkingMinutesInCurrentStatus)
	}
	return doc
}

// DocumentID is the index document identifier for the issue.
func (d IssueDocument) DocumentID() string {
	return d.Key
}
