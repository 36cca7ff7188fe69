// Package exchange fetches spot quotes from public crypto market APIs and
// normalizes them into domain.PriceRecord values.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// ErrGeoBlocked is returned when an API refuses service for legal reasons
// (HTTP 451), typically because of the caller's region.
var ErrGeoBlocked = errors.New("access restricted in this region (HTTP 451)")

// Source fetches quotes for a list of base symbols (BTC, ETH, ...)
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]domain.PriceRecord, error)
}

// StatusError is a non-2xx HTTP response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Options configures a source
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	// Requests per second; zero disables limiting
	RateLimit float64
	SymbolMap map[string]string
	// Now is used for record timestamps, time.Now when nil
	Now func() time.Time
}

// httpSource holds the plumbing shared by every exchange
type httpSource struct {
	name      string
	baseURL   string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	now       func() time.Time
	log       *logger.Entry
}

func newHTTPSource(name, defaultBaseURL string, opts Options) httpSource {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return httpSource{
		name:      name,
		baseURL:   strings.TrimRight(base, "/"),
		client:    client,
		userAgent: opts.UserAgent,
		limiter:   limiter,
		now:       now,
		log:       logger.WithFields(logger.Fields{"exchange": name}),
	}
}

// Name returns the exchange name
func (s *httpSource) Name() string {
	return s.name
}

func (s *httpSource) timestamp() time.Time {
	return s.now().UTC()
}

// getJSON performs a rate-limited GET and decodes the JSON body into out
func (s *httpSource) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnavailableForLegalReasons {
		return ErrGeoBlocked
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: s.baseURL + path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// parseDecimal parses the string-encoded decimals most exchanges return
func parseDecimal(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return v, nil
}

func mergeSymbolMap(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToUpper(k)] = v
	}
	return out
}
