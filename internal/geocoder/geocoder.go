// Package geocoder is a client for the external geocoding service that
// resolves place names to coordinates. Results come back ordered best-first by
// the service's own ranking; an empty slice means no match.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Result is one geocoding hit. Quality is the service's numeric ranking and
// is used to choose between bilingual lookups.
type Result struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Quality          float64 `json:"quality"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Client issues geocode lookups over HTTP. Calls are rate limited to stay
// within the provider's usage policy.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// New creates a Client for the service at baseURL.
func New(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		logger:     logger,
	}
}

// Geocode resolves placeName (qualified by adminDivision when given) to a
// ranked result list. An empty placeName skips the lookup entirely and an
// empty response body is a miss, not an error.
func (c *Client) Geocode(ctx context.Context, placeName, adminDivision string) ([]Result, error) {
	if placeName == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limiter: %w", err)
	}

	query := placeName
	if adminDivision != "" {
		query = placeName + ", " + adminDivision
	}

	params := url.Values{}
	params.Set("q", query)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request for %q: %w", query, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode API %d for %q: %s", resp.StatusCode, query, string(body))
	}

	var results []Result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("unmarshal geocode response for %q: %w", query, err)
	}

	c.logger.WithFields(logrus.Fields{"query": query, "results": len(results)}).Debug("Geocode lookup")
	return results, nil
}
