// Package ratebeer provides a client for the RateBeer GraphQL API.
package ratebeer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/beer-registry/internal/model"
	"github.com/sells-group/beer-registry/internal/resilience"
)

// DefaultBaseURL is the public RateBeer GraphQL endpoint.
const DefaultBaseURL = "https://api.r8.beer/v1/api/graphql/"

// Source identifies RateBeer matches in ExternalMatch.Source.
const Source = "ratebeer"

const searchQuery = `query beerSearch($query: String, $first: Int) {
  beerSearch(query: $query, first: $first) {
    items {
      id
      name
      abv
      overallScore
      ratingCount
      imageUrl
      style { name }
      brewer { name }
    }
  }
}`

// Client searches RateBeer for beers by name.
type Client interface {
	// Search returns the best match for query, or nil when RateBeer has none.
	Search(ctx context.Context, query string) (*model.ExternalMatch, error)
}

// Option configures the RateBeer client.
type Option func(*httpClient)

// WithBaseURL sets a custom GraphQL endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables
// limiting.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker overrides the breaker guarding the API.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a new RateBeer client.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger(Source, "beerSearch")

	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(2, 1),
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     time.Minute,
			ShouldTrip: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("ratebeer: circuit state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		BeerSearch struct {
			Items []beer `json:"items"`
		} `json:"beerSearch"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type named struct {
	Name string `json:"name"`
}

type beer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ABV          float64 `json:"abv"`
	OverallScore float64 `json:"overallScore"`
	RatingCount  int     `json:"ratingCount"`
	ImageURL     string  `json:"imageUrl"`
	Style        *named  `json:"style"`
	Brewer       *named  `json:"brewer"`
}

func (b beer) toMatch(query string) *model.ExternalMatch {
	m := &model.ExternalMatch{
		Source:      Source,
		Query:       query,
		ID:          b.ID,
		Name:        b.Name,
		ABV:         b.ABV,
		Rating:      b.OverallScore,
		RatingCount: b.RatingCount,
		ImageURL:    b.ImageURL,
	}
	if b.Style != nil {
		m.Style = b.Style.Name
	}
	if b.Brewer != nil {
		m.Brewer = b.Brewer.Name
	}
	if m.ID != "" {
		m.URL = fmt.Sprintf("https://www.ratebeer.com/beer/%s/", m.ID)
	}
	return m
}

func (c *httpClient) Search(ctx context.Context, query string) (*model.ExternalMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:     searchQuery,
		Variables: map[string]any{"query": query, "first": 1},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ratebeer: marshal request")
	}

	body, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			return c.post(ctx, payload)
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "ratebeer: search request failed")
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "ratebeer: unmarshal response")
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("ratebeer: graphql error: %s", resp.Errors[0].Message)
	}

	items := resp.Data.BeerSearch.Items
	if len(items) == 0 {
		return nil, nil
	}
	return items[0].toMatch(query), nil
}

// post sends one GraphQL request. Network errors and retryable statuses come
// back as TransientError so the retry loop picks them up.
func (c *httpClient) post(ctx context.Context, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ratebeer: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "ratebeer: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(err, "ratebeer: do request")
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "ratebeer: do request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ratebeer: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("ratebeer: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}
	return body, nil
}
