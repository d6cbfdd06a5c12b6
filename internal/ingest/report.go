package ingest

import (
	"jiracounter/internal/calendar"
	"jiracounter/internal/jira"
	"jiracounter/internal/metrics"
	"jiracounter/internal/visuals"
	"time"
)

// IssueReport is the on-demand view of one issue's metrics.
type IssueReport struct {
	Key                     string          `json:"key"`
	Summary                 string          `json:"summary"`
	Status                  string          `json:"status"`
	AsOf                    time.Time       `json:"as_of"`
	TimeInCurrentStatusText string          `json:"time_in_current_status_text"`
	TimeFromCreateText      string          `json:"time_from_create_text"`
	Metrics                 *metrics.Record `json:"metrics"`
	Charts                  []string        `json:"charts,omitempty"`

	created time.Time
}

// NewIssueReport wraps a computed record with the issue's headline fields.
func NewIssueReport(issue jira.Issue, rec *metrics.Record, asOf time.Time) IssueReport {
	return IssueReport{
		Key:                     issue.Key,
		Summary:                 issue.Summary,
		Status:                  issue.Status,
		AsOf:                    asOf,
		TimeInCurrentStatusText: calendar.FormatMinutes(rec.WorkingMinutesInCurrentStatus),
		TimeFromCreateText:      calendar.FormatMinutes(rec.WorkingMinutesFromCreate),
		Metrics:                 rec,
		created:                 issue.Created,
	}
}

// WithCharts attaches Mermaid renderings of the status timeline and the
// per-category split.
func (r IssueReport) WithCharts() IssueReport {
	var charts []string
	if c := visuals.StatusTimeline(r.Key+" status timeline", r.created, r.AsOf, r.Metrics); c != "" {
		charts = append(charts, c)
	}
	if c := visuals.CategoryChart(r.Metrics); c != "" {
		charts = append(charts, c)
	}
	r.Charts = charts
	return r
}
