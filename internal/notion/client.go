// Package notion queries a Notion database for reminder rows.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notion-reminder/internal/observability/metrics"
	logx "notion-reminder/pkg/logx"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

type Config struct {
	Token   string
	BaseURL string
	Version string
	Timeout time.Duration
}

// APIError is the error object Notion returns with non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("notion: http %d", e.Status)
	}
	return fmt.Sprintf("notion: %s: %s (http %d)", e.Code, e.Message, e.Status)
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Query returns the first page of rows matching filter, ordered by sorts.
// Failures are logged and yield an empty result so one bad fetch never
// aborts a run.
func (c *Client) Query(ctx context.Context, databaseID string, filter Filter, sorts []Sort) []Page {
	start := time.Now()
	pages, more, err := c.query(ctx, databaseID, filter, sorts)
	if err != nil {
		metrics.FetchFailed()
		c.log.Error("records query failed",
			logx.String("database", databaseID),
			logx.String("filter", filter.Property),
			logx.Duration("took", time.Since(start)),
			logx.Err(err),
		)
		return []Page{}
	}
	c.log.Debug("records fetched",
		logx.String("database", databaseID),
		logx.String("filter", filter.Property),
		logx.Int("count", len(pages)),
		logx.Bool("has_more", more),
		logx.Duration("took", time.Since(start)),
	)
	return pages
}

func (c *Client) query(ctx context.Context, databaseID string, filter Filter, sorts []Sort) ([]Page, bool, error) {
	if strings.TrimSpace(databaseID) == "" {
		return nil, false, errors.New("notion: database id is empty")
	}
	body, err := json.Marshal(queryRequest{Filter: &filter, Sorts: sorts})
	if err != nil {
		return nil, false, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/databases/" + url.PathEscape(databaseID) + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("notion: query: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("notion: read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{}
		_ = json.Unmarshal(raw, apiErr)
		apiErr.Status = resp.StatusCode
		return nil, false, apiErr
	}

	var out queryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("notion: decode response: %w", err)
	}
	if out.Results == nil {
		out.Results = []Page{}
	}
	return out.Results, out.HasMore, nil
}
