package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/config"
	"github.com/Skotchmaster/task_manager/internal/models"
)

var ErrDisabled = errors.New("search: elasticsearch is not configured")

type Index interface {
	IndexTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	// Search returns matching task ids ranked by relevance.
	// A nil owner searches every user's tasks.
	Search(ctx context.Context, q string, owner *uuid.UUID, from, size int) (int64, []uuid.UUID, error)
}

type document struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority,omitempty"`
	UserUID     string   `json:"user_uid,omitempty"`
}

func toDocument(t *models.Task) document {
	d := document{
		UID:         t.UID.String(),
		Title:       t.Title,
		Description: t.Description,
		Tags:        []string(t.Tags),
		Status:      t.Status,
	}
	if t.Priority != nil {
		d.Priority = *t.Priority
	}
	if t.UserUID != nil {
		d.UserUID = t.UserUID.String()
	}
	return d
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("search: new client: %w", err)
	}
	return client, nil
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	if index == "" {
		index = "tasks"
	}
	return &ESIndex{es: es, index: index}
}

func (s *ESIndex) Ping(ctx context.Context) error {
	res, err := s.es.Info(s.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("info", res.StatusCode, res.Body)
	}
	return nil
}

const mapping = `{
  "mappings": {
    "properties": {
      "uid":         {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "tags":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "status":      {"type": "keyword"},
      "priority":    {"type": "keyword"},
      "user_uid":    {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it is missing.
func (s *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.StatusCode, res.Body)
	}
	return nil
}

func (s *ESIndex) IndexTask(ctx context.Context, task *models.Task) error {
	body, err := json.Marshal(toDocument(task))
	if err != nil {
		return fmt.Errorf("search: encode task: %w", err)
	}

	res, err := s.es.Index(s.index, bytes.NewReader(body),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(task.UID.String()),
	)
	if err != nil {
		return fmt.Errorf("search: index task: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index task", res.StatusCode, res.Body)
	}
	return nil
}

func (s *ESIndex) DeleteTask(ctx context.Context, id uuid.UUID) error {
	res, err := s.es.Delete(s.index, id.String(), s.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete task: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete task", res.StatusCode, res.Body)
	}
	return nil
}

func buildQuery(q string, owner *uuid.UUID, from, size int) map[string]any {
	boolQuery := map[string]any{
		"must": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "description", "tags"},
				"fuzziness": "AUTO",
			},
		},
	}
	if owner != nil {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"user_uid": owner.String()}},
		}
	}
	return map[string]any{
		"query":   map[string]any{"bool": boolQuery},
		"from":    from,
		"size":    size,
		"_source": []string{"uid"},
	}
}

func (s *ESIndex) Search(ctx context.Context, q string, owner *uuid.UUID, from, size int) (int64, []uuid.UUID, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(q, owner, from, size)); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
		s.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("query", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.UID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("search: %s: status %d: %s", op, status, strings.TrimSpace(string(b)))
}

// Nop keeps writes silent and reports ErrDisabled on Search.
type Nop struct{}

func (Nop) IndexTask(context.Context, *models.Task) error { return nil }

func (Nop) DeleteTask(context.Context, uuid.UUID) error { return nil }

func (Nop) Search(context.Context, string, *uuid.UUID, int, int) (int64, []uuid.UUID, error) {
	return 0, nil, ErrDisabled
}
