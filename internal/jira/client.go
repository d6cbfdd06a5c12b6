package jira

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when Jira answers 404 for a requested resource.
var ErrNotFound = errors.New("jira: not found")

// Client is the interface for interacting with Jira.
type Client interface {
	// SearchIssues runs a JQL query and returns one page of issues with their changelogs.
	SearchIssues(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error)
	// GetIssue fetches a single issue with its full changelog.
	GetIssue(ctx context.Context, key string) (*IssueDTO, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string `validate:"required,url"`

	// Personal access token (Data Center) or API token (Cloud, with Username).
	Username string
	Token    string `validate:"required"`

	// Performance Settings
	RequestDelay time.Duration
	CacheTTL     time.Duration
	Timeout      time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}
