package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const issueFields = "summary,issuetype,status,project,assignee,reporter,resolution,resolutiondate,created,updated,labels,components,parent"

type dcClient struct {
	cfg        Config
	httpClient *http.Client
	cache      *cache.Cache

	throttleMu  sync.Mutex
	lastRequest time.Time
}

// NewDataCenterClient creates a client for the Jira REST API v2.
func NewDataCenterClient(cfg Config) Client {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (c *dcClient) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *dcClient) authenticateRequest(req *http.Request) {
	switch {
	case c.cfg.Username != "" && c.cfg.Token != "":
		// Cloud: e-mail + API token
		req.SetBasicAuth(c.cfg.Username, c.cfg.Token)
	case c.cfg.Token != "":
		// Data Center: personal access token
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
	}
	req.Header.Set("Accept", "application/json")
}

func (c *dcClient) SearchIssues(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error) {
	cacheKey := fmt.Sprintf("search:%s:%d:%d", jql, startAt, maxResults)
	if val, ok := c.cache.Get(cacheKey); ok {
		log.Debug().Str("key", cacheKey).Msg("Cache hit")
		return val.(*SearchResponse), nil
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", fmt.Sprintf("%d", startAt))
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("fields", issueFields)
	params.Set("expand", "changelog")

	searchURL := fmt.Sprintf("%s/rest/api/2/search?%s", c.cfg.BaseURL, params.Encode())
	log.Info().Int("startAt", startAt).Int("maxResults", maxResults).Msg("Requesting issues from Jira")
	log.Debug().Str("url", searchURL).Str("jql", jql).Msg("Jira search details")

	var result SearchResponse
	if err := c.getJSON(ctx, searchURL, "search", &result); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, &result, cache.DefaultExpiration)
	return &result, nil
}

func (c *dcClient) GetIssue(ctx context.Context, key string) (*IssueDTO, error) {
	cacheKey := "issue:" + key
	if val, ok := c.cache.Get(cacheKey); ok {
		log.Debug().Str("key", cacheKey).Msg("Cache hit")
		return val.(*IssueDTO), nil
	}

	params := url.Values{}
	params.Set("fields", issueFields)
	params.Set("expand", "changelog")
	issueURL := fmt.Sprintf("%s/rest/api/2/issue/%s?%s", c.cfg.BaseURL, url.PathEscape(key), params.Encode())

	var issue IssueDTO
	if err := c.getJSON(ctx, issueURL, "issue "+key, &issue); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, &issue, cache.DefaultExpiration)
	return &issue, nil
}

func (c *dcClient) getJSON(ctx context.Context, target, what string, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira %s: %w", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("jira %s: %w", what, ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("jira authentication failed (%d), check JIRA_USERNAME and JIRA_TOKEN", resp.StatusCode)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return fmt.Errorf("jira rate limit exceeded (429), retry after %s seconds", retryAfter)
			}
			return fmt.Errorf("jira rate limit exceeded (429)")
		default:
			return fmt.Errorf("jira API returned status %d for %s", resp.StatusCode, what)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Jira %s response: %w", what, err)
	}
	return nil
}
