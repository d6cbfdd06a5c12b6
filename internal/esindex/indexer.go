// Package esindex writes issue documents to Elasticsearch and manages the
// lifecycle of the issue index.
package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"jiracounter/internal/document"
	"net/http"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/rs/zerolog/log"
)

// ErrIndexing marks failures to write documents to the index.
var ErrIndexing = errors.New("esindex: indexing failed")

// BatchError collects per-document failures of a bulk request, keyed by
// issue key.
type BatchError map[string]error

func (e BatchError) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e[k]))
	}
	return fmt.Sprintf("%d document(s) failed to index: %s", len(e), strings.Join(parts, "; "))
}

// Is lets errors.Is match BatchError against ErrIndexing.
func (e BatchError) Is(target error) bool {
	return target == ErrIndexing
}

// Config holds the Elasticsearch connection settings.
type Config struct {
	Addresses []string `validate:"required,dive,url"`
	Username  string
	Password  string
	Index     string `validate:"required"`

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Indexer writes IssueDocuments to a single index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

// New creates an Indexer for cfg.Index.
func New(cfg Config) (*Indexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Indexer{client: client, index: cfg.Index}, nil
}

// EnsureIndex creates the index with its mapping unless it already exists.
// It reports whether the index was created.
func (ix *Indexer) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := ix.client.Indices.Exists([]string{ix.index}, ix.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", ix.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		log.Debug().Str("index", ix.index).Msg("Index already exists")
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("unexpected status %s checking index %s", res.Status(), ix.index)
	}

	res, err = ix.client.Indices.Create(
		ix.index,
		ix.client.Indices.Create.WithBody(strings.NewReader(indexBody)),
		ix.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create index %s: %w", ix.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("failed to create index %s: %s", ix.index, responseReason(res))
	}

	log.Info().Str("index", ix.index).Msg("Created index")
	return true, nil
}

// DeleteIndex removes the index. A missing index is not an error.
func (ix *Indexer) DeleteIndex(ctx context.Context) error {
	res, err := ix.client.Indices.Delete([]string{ix.index}, ix.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", ix.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("failed to delete index %s: %s", ix.index, responseReason(res))
	}
	log.Info().Str("index", ix.index).Msg("Deleted index")
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexDocuments writes docs with a single bulk request, replacing any
// existing document for the same issue. It returns the number of documents
// written; per-document failures are returned as a BatchError.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []document.IssueDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{"index": map[string]any{"_index": ix.index, "_id": doc.DocumentID()}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(doc); err != nil {
			return 0, fmt.Errorf("failed to encode %s: %w", doc.Key, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   ix.index,
		Body:    &buf,
		Refresh: "wait_for",
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexing, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("%w: %s", ErrIndexing, responseReason(res))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("failed to decode bulk response: %w", err)
	}

	errs := BatchError{}
	for _, item := range br.Items {
		for _, result := range item {
			if result.Error != nil || result.Status >= 300 {
				reason := fmt.Sprintf("status %d", result.Status)
				if result.Error != nil {
					reason = fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason)
				}
				errs[result.ID] = errors.New(reason)
				log.Warn().Str("key", result.ID).Str("reason", reason).Msg("Document failed to index")
			}
		}
	}

	indexed := len(docs) - len(errs)
	log.Debug().Str("index", ix.index).Int("indexed", indexed).Int("failed", len(errs)).Msg("Bulk request finished")
	if len(errs) > 0 {
		return indexed, errs
	}
	return indexed, nil
}

func responseReason(res *esapi.Response) string {
	body, _ := io.ReadAll(res.Body)
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Type != "" {
		return fmt.Sprintf("[%s] %s: %s", res.Status(), e.Error.Type, e.Error.Reason)
	}
	return fmt.Sprintf("[%s] %s", res.Status(), strings.TrimSpace(string(body)))
}
