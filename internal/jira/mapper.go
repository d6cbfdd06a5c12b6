package jira

import (
	"strings"
	"time"
)

// Issue is the flattened view of a Jira issue used outside this package.
type Issue struct {
	ID             string
	Key            string
	ProjectKey     string
	ProjectName    string
	IssueType      string
	Status         string
	StatusCategory string
	Summary        string
	Assignee       string
	Reporter       string
	Labels         []string
	Components     []string
	ParentKey      string
	ParentSummary  string
	Resolution     string
	Created        time.Time
	Updated        time.Time
	ResolutionDate *time.Time
}

// MapIssue transforms a Jira DTO into an Issue. Unparseable timestamps are
// left zero so callers can decide how to treat them.
func MapIssue(item IssueDTO) Issue {
	issue := Issue{
		ID:             item.ID,
		Key:            item.Key,
		ProjectKey:     item.Fields.Project.Key,
		ProjectName:    item.Fields.Project.Name,
		IssueType:      item.Fields.IssueType.Name,
		Status:         item.Fields.Status.Name,
		StatusCategory: item.Fields.Status.StatusCategory.Key,
		Summary:        item.Fields.Summary,
		Assignee:       item.Fields.Assignee.Label(),
		Reporter:       item.Fields.Reporter.Label(),
		Labels:         item.Fields.Labels,
	}

	if issue.ProjectKey == "" {
		issue.ProjectKey = ProjectKeyOf(item.Key)
	}

	for _, c := range item.Fields.Components {
		issue.Components = append(issue.Components, c.Name)
	}

	if item.Fields.Parent != nil {
		issue.ParentKey = item.Fields.Parent.Key
		issue.ParentSummary = item.Fields.Parent.Fields.Summary
	}

	if item.Fields.Resolution != nil {
		issue.Resolution = item.Fields.Resolution.Name
	}

	if t, err := ParseTime(item.Fields.Created); err == nil {
		issue.Created = t
	}
	if t, err := ParseTime(item.Fields.Updated); err == nil {
		issue.Updated = t
	}
	if item.Fields.ResolutionDate != "" {
		if t, err := ParseTime(item.Fields.ResolutionDate); err == nil {
			issue.ResolutionDate = &t
		}
	}

	return issue
}

// ProjectKeyOf extracts the project key portion of an issue key ("PROJ" from "PROJ-123").
func ProjectKeyOf(key string) string {
	if idx := strings.Index(key, "-"); idx > 0 {
		return key[:idx]
	}
	return key
}
