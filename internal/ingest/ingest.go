// Package ingest runs the incremental sync: fetch issues updated since the
// last run, compute their metrics and index the resulting documents.
package ingest

import (
	"context"
	"fmt"
	"jiracounter/internal/document"
	"jiracounter/internal/eventlog"
	"jiracounter/internal/jira"
	"jiracounter/internal/metrics"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Indexer is the subset of esindex.Indexer the sync needs.
type Indexer interface {
	EnsureIndex(ctx context.Context) (bool, error)
	DeleteIndex(ctx context.Context) error
	IndexDocuments(ctx context.Context, docs []document.IssueDocument) (int, error)
}

// StateStore is the subset of syncstate.Store the sync needs.
type StateStore interface {
	LastSync(ctx context.Context, agent string) (time.Time, bool, error)
	SetLastSync(ctx context.Context, agent string, at time.Time, syncID string) error
}

// Config controls a Service.
type Config struct {
	Agent        string
	Workers      int
	BatchSize    int
	LookbackDays int
}

// Options are the per-run overrides.
type Options struct {
	// Since overrides the stored last sync date.
	Since         *time.Time
	Project       string
	RecreateIndex bool
}

// Summary reports what a run did.
type Summary struct {
	SyncID   string        `json:"sync_id"`
	Since    time.Time     `json:"since"`
	Until    time.Time     `json:"until"`
	Fetched  int           `json:"fetched"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Service wires the tracker client, the calculator, the index and the state store.
type Service struct {
	client  jira.Client
	calc    *metrics.Calculator
	indexer Indexer
	state   StateStore
	cfg     Config
	now     func() time.Time
}

// NewService creates a sync Service.
func NewService(client jira.Client, calc *metrics.Calculator, indexer Indexer, state StateStore, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.Agent == "" {
		cfg.Agent = "JiraETLAgent"
	}
	return &Service{
		client:  client,
		calc:    calc,
		indexer: indexer,
		state:   state,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run performs one sync. The stored last sync date only advances when every
// page was indexed successfully.
func (s *Service) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := s.now()
	summary := &Summary{
		SyncID: document.NewSyncID(),
		Until:  start,
	}

	since, err := s.resolveSince(ctx, opts, start)
	if err != nil {
		return nil, err
	}
	summary.Since = since

	if opts.RecreateIndex {
		if err := s.indexer.DeleteIndex(ctx); err != nil {
			return nil, err
		}
	}
	if _, err := s.indexer.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	jql := BuildJQL(since, start, opts.Project)
	log.Info().Str("sync_id", summary.SyncID).Str("jql", jql).Msg("Starting sync")

	for startAt := 0; ; {
		page, err := s.client.SearchIssues(ctx, jql, startAt, s.cfg.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("search issues at %d: %w", startAt, err)
		}
		if len(page.Issues) == 0 {
			break
		}
		summary.Fetched += len(page.Issues)

		docs, skipped, err := s.buildDocuments(ctx, page.Issues, summary.SyncID, start)
		if err != nil {
			return nil, err
		}
		summary.Skipped += skipped

		indexed, err := s.indexer.IndexDocuments(ctx, docs)
		summary.Indexed += indexed
		if err != nil {
			return summary, fmt.Errorf("index page at %d: %w", startAt, err)
		}

		log.Info().
			Int("fetched", summary.Fetched).
			Int("total", page.Total).
			Int("indexed", summary.Indexed).
			Msg("Sync progress")

		startAt += len(page.Issues)
		if startAt >= page.Total {
			break
		}
	}

	if err := s.state.SetLastSync(ctx, s.cfg.Agent, start, summary.SyncID); err != nil {
		return summary, err
	}
	summary.Duration = s.now().Sub(start)

	log.Info().
		Str("sync_id", summary.SyncID).
		Int("fetched", summary.Fetched).
		Int("indexed", summary.Indexed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Sync finished")
	return summary, nil
}

func (s *Service) resolveSince(ctx context.Context, opts Options, start time.Time) (time.Time, error) {
	if opts.Since != nil {
		return *opts.Since, nil
	}
	last, ok, err := s.state.LastSync(ctx, s.cfg.Agent)
	if err != nil {
		return time.Time{}, fmt.Errorf("read last sync: %w", err)
	}
	if ok {
		return last, nil
	}
	since := start.AddDate(0, 0, -s.cfg.LookbackDays)
	log.Info().Str("agent", s.cfg.Agent).Time("since", since).Msg("No previous sync, using default lookback")
	return since, nil
}

// buildDocuments computes every issue of a page concurrently, each as of its
// own last update. Issues that cannot be computed are skipped.
func (s *Service) buildDocuments(ctx context.Context, issues []jira.IssueDTO, syncID string, indexedAt time.Time) ([]document.IssueDocument, int, error) {
	results := make([]*document.IssueDocument, len(issues))
	var (
		mu      sync.Mutex
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range issues {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			issue, rec, err := ComputeAtUpdate(s.calc, issues[i])
			if err != nil {
				log.Warn().Err(err).Str("key", issues[i].Key).Msg("Skipping issue")
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			doc := document.Build(issue, rec, syncID, indexedAt)
			results[i] = &doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	docs := make([]document.IssueDocument, 0, len(issues))
	for _, d := range results {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs, skipped, nil
}

// ComputeIssue maps a tracker issue and computes its metrics as of asOf.
func ComputeIssue(calc *metrics.Calculator, dto jira.IssueDTO, asOf time.Time) (jira.Issue, *metrics.Record, error) {
	return compute(calc, dto, jira.MapIssue(dto), asOf)
}

// ComputeAtUpdate computes an issue's metrics as of its "updated" timestamp.
// A missing or unparseable updated value fails with metrics.ErrInvalidInput.
func ComputeAtUpdate(calc *metrics.Calculator, dto jira.IssueDTO) (jira.Issue, *metrics.Record, error) {
	issue := jira.MapIssue(dto)
	return compute(calc, dto, issue, issue.Updated)
}

func compute(calc *metrics.Calculator, dto jira.IssueDTO, issue jira.Issue, asOf time.Time) (jira.Issue, *metrics.Record, error) {
	if issue.Created.IsZero() {
		return issue, nil, fmt.Errorf("%s: %w: unparseable created %q", dto.Key, metrics.ErrInvalidInput, dto.Fields.Created)
	}

	rec, err := calc.Compute(metrics.Input{
		Created:       issue.Created,
		AsOf:          asOf,
		CurrentStatus: issue.Status,
		Events:        eventlog.ExtractIssue(dto),
	})
	if err != nil {
		return issue, nil, fmt.Errorf("%s: %w", dto.Key, err)
	}
	return issue, rec, nil
}

// BuildJQL returns the query selecting issues updated in [since, until).
func BuildJQL(since, until time.Time, project string) string {
	var clauses []string
	if p := strings.TrimSpace(project); p != "" {
		clauses = append(clauses, fmt.Sprintf("project = %q", p))
	}
	clauses = append(clauses,
		fmt.Sprintf("updated >= %q", jira.FormatJQLTime(since)),
		fmt.Sprintf("updated < %q", jira.FormatJQLTime(until.Add(time.Minute))),
	)
	return strings.Join(clauses, " AND ") + " ORDER BY updated ASC"
}
