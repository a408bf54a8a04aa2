// Package worldcat is a minimal client for the WorldCat Search API v2:
// client-credentials authentication, ranked bib search and fetch-by-number.
package worldcat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avearchive/avocado/internal/ratelimit"
)

const (
	// DefaultTokenURL is the OCLC OAuth token endpoint.
	DefaultTokenURL = "https://oauth.oclc.org/token"
	// DefaultAPIBase is the Americas discovery endpoint for bib search.
	DefaultAPIBase = "https://americas.discovery.api.oclc.org/worldcat/search/v2"

	tokenScope  = "wcapi:view_bib"
	searchLimit = 10

	requestTimeout = 30 * time.Second

	// Spacing between remote calls; the API is rate limited upstream and
	// single-attempt fixed pacing is the chosen backpressure mechanism.
	defaultCallInterval  = 300 * time.Millisecond
	defaultStrategyDelay = 200 * time.Millisecond
)

var (
	// ErrAuthFailed is returned when the token endpoint rejects the
	// credentials or returns no usable token.
	ErrAuthFailed = errors.New("worldcat authentication failed")

	// ErrNotAuthenticated is returned when an API call is attempted before
	// a token has been acquired.
	ErrNotAuthenticated = errors.New("worldcat client not authenticated")
)

// Credentials is an OCLC WSKey pair.
type Credentials struct {
	Key    string
	Secret string
}

// Client talks to the WorldCat Search API. One Authenticate call per run;
// no token refresh.
type Client struct {
	httpClient    *http.Client
	limiter       *ratelimit.Limiter
	tokenURL      string
	apiBase       string
	strategyDelay time.Duration
	token         string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURLs overrides the token and API endpoints (tests point these at
// a stub server).
func WithBaseURLs(tokenURL, apiBase string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.apiBase = strings.TrimRight(apiBase, "/")
	}
}

// WithPacing overrides the inter-call spacing and the delay between failed
// search strategies. Zero disables the respective delay.
func WithPacing(callInterval, strategyDelay time.Duration) Option {
	return func(c *Client) {
		c.limiter = ratelimit.NewInterval("WorldCat", callInterval)
		c.strategyDelay = strategyDelay
	}
}

// NewClient creates a WorldCat client with default endpoints and pacing.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: requestTimeout},
		limiter:       ratelimit.NewInterval("WorldCat", defaultCallInterval),
		tokenURL:      DefaultTokenURL,
		apiBase:       DefaultAPIBase,
		strategyDelay: defaultStrategyDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges the WSKey pair for a bearer token. Any non-200
// response, transport failure or empty token yields ErrAuthFailed.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) error {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.SetBasicAuth(creds.Key, creds.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token endpoint returned status %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: malformed token response: %v", ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("%w: empty token in response", ErrAuthFailed)
	}

	c.token = body.AccessToken
	return nil
}

// Authenticated reports whether a token has been acquired.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type searchResponse struct {
	BibRecords []struct {
		Identifier struct {
			OCLCNumber any `json:"oclcNumber"`
		} `json:"identifier"`
	} `json:"bibRecords"`
}

// searchBibs runs one ranked search query and returns the top hit's OCLC
// number, or "" when the query matched nothing or the request failed.
func (c *Client) searchBibs(ctx context.Context, query string) (string, error) {
	if !c.Authenticated() {
		return "", ErrNotAuthenticated
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{
		"q":       {query},
		"limit":   {strconv.Itoa(searchLimit)},
		"offset":  {"1"},
		"orderBy": {"bestMatch"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/bibs?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building search request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("worldcat search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("worldcat search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}
	if len(result.BibRecords) == 0 {
		return "", nil
	}
	return oclcNumberString(result.BibRecords[0].Identifier.OCLCNumber), nil
}

// FetchBib retrieves the raw metadata document for one OCLC number. Any
// non-200 response or transport failure is an error; callers degrade to a
// basic record, never abort the run.
func (c *Client) FetchBib(ctx context.Context, oclcNumber string) (map[string]any, error) {
	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/bibs/"+url.PathEscape(oclcNumber), nil)
	if err != nil {
		return nil, fmt.Errorf("building fetch request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worldcat fetch request failed for %s: %w", oclcNumber, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worldcat fetch for %s returned status %d", oclcNumber, resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding bib document for %s: %w", oclcNumber, err)
	}
	return doc, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

// oclcNumberString tolerates the identifier arriving as either a string or
// a JSON number.
func oclcNumberString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case json.Number:
		return n.String()
	default:
		return ""
	}
}
