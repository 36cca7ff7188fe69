// Package questdb is a small client for the QuestDB HTTP API. It runs SQL
// through /exec (JSON results) and /exp (CSV export).
package questdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// ErrEmptyQuery is returned when a blank statement is passed to the client
var ErrEmptyQuery = errors.New("empty query")

// QueryError is the error QuestDB reports for a statement it rejected
type QueryError struct {
	Query      string
	Message    string
	Position   int
	StatusCode int
}

// Error returns a string representation of the error
func (e *QueryError) Error() string {
	return fmt.Sprintf("questdb: %s (position %d, status %d)", e.Message, e.Position, e.StatusCode)
}

// Config represents the client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Optional basic auth, only needed when QuestDB has HTTP auth enabled
	User     string
	Password string
}

// Client talks to a QuestDB instance over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	user       string
	password   string
}

// New creates a client. A zero Timeout means 30 seconds.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		user:       cfg.User,
		password:   cfg.Password,
	}
}

// execResponse covers the success and error shapes of /exec
type execResponse struct {
	Query    string          `json:"query"`
	Columns  []domain.Column `json:"columns"`
	Dataset  [][]any         `json:"dataset"`
	Count    int             `json:"count"`
	DDL      string          `json:"ddl"`
	DML      string          `json:"dml"`
	Error    string          `json:"error"`
	Position int             `json:"position"`
}

// Exec runs a statement through /exec. DDL and DML statements return an
// empty ResultSet.
func (c *Client) Exec(ctx context.Context, query string) (*domain.ResultSet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	logger.QueryLog("rest", query, 500)

	body, status, err := c.get(ctx, "/exec", query)
	if err != nil {
		return nil, err
	}

	var resp execResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("questdb returned status %d: %s", status, truncate(string(body), 200))
		}
		return nil, fmt.Errorf("failed to decode questdb response: %w", err)
	}
	if resp.Error != "" || status != http.StatusOK {
		msg := resp.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return nil, &QueryError{Query: query, Message: msg, Position: resp.Position, StatusCode: status}
	}

	rs := &domain.ResultSet{
		Query:   resp.Query,
		Columns: resp.Columns,
		Dataset: resp.Dataset,
		Count:   resp.Count,
	}
	if rs.Query == "" {
		rs.Query = query
	}
	if rs.Count == 0 {
		rs.Count = len(rs.Dataset)
	}
	return rs, nil
}

// Export runs a query through /exp and returns the CSV body
func (c *Client) Export(ctx context.Context, query string) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	logger.QueryLog("rest-export", query, 500)

	body, status, err := c.get(ctx, "/exp", query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var resp execResponse
		if json.Unmarshal(body, &resp) == nil && resp.Error != "" {
			return nil, &QueryError{Query: query, Message: resp.Error, Position: resp.Position, StatusCode: status}
		}
		return nil, fmt.Errorf("questdb export returned status %d: %s", status, truncate(string(body), 200))
	}
	return body, nil
}

// Ping checks that QuestDB answers queries
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Exec(ctx, "SELECT 1")
	return err
}

// Close releases idle HTTP connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// BaseURL returns the QuestDB HTTP endpoint
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path, query string) ([]byte, int, error) {
	u := c.baseURL + path + "?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("questdb request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("error closing response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read questdb response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
