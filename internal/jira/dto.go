package jira

import (
	"fmt"
	"strings"
	"time"
)

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue, optionally with its expanded changelog.
type IssueDTO struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// NamedDTO is the common {id, key, name} shape of Jira reference objects.
type NamedDTO struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// UserDTO is a Jira user reference. Server exposes name, Cloud exposes accountId.
type UserDTO struct {
	Name         string `json:"name,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// StatusDTO is the issue status with its Jira status category.
type StatusDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StatusCategory struct {
		Key string `json:"key"`
	} `json:"statusCategory"`
}

// ParentDTO is the parent issue reference of sub-tasks and child issues.
type ParentDTO struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
	} `json:"fields"`
}

// FieldsDTO contains the specific fields we care about.
type FieldsDTO struct {
	Summary        string     `json:"summary"`
	IssueType      NamedDTO   `json:"issuetype"`
	Status         StatusDTO  `json:"status"`
	Project        NamedDTO   `json:"project"`
	Assignee       *UserDTO   `json:"assignee"`
	Reporter       *UserDTO   `json:"reporter"`
	Resolution     *NamedDTO  `json:"resolution"`
	ResolutionDate string     `json:"resolutiondate"`
	Created        string     `json:"created"`
	Updated        string     `json:"updated"`
	Labels         []string   `json:"labels"`
	Components     []NamedDTO `json:"components"`
	Parent         *ParentDTO `json:"parent,omitempty"`
}

// ChangelogDTO contains historical changes.
type ChangelogDTO struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Histories  []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	ID      string    `json:"id"`
	Author  *UserDTO  `json:"author"`
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FieldType  string `json:"fieldtype,omitempty"`
	From       string `json:"from"` // ID
	FromString string `json:"fromString"`
	To         string `json:"to"` // ID
	ToString   string `json:"toString"`
}

// Label returns the most readable identifier of a user.
func (u *UserDTO) Label() string {
	if u == nil {
		return ""
	}
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Name != "":
		return u.Name
	default:
		return u.AccountID
	}
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z0700",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ParseTime parses a Jira timestamp. The strict Jira layout is tried first,
// then RFC 3339 and a plain "date time" form interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatJQLTime renders t in the "yyyy-MM-dd HH:mm" form JQL date clauses accept.
func FormatJQLTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
