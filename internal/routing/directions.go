package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DirectionsClient queries a Mapbox-style directions API for driving
// distance and duration between two points. Results are cached per
// coordinate pair (4 decimal places, roughly 11m precision) since the
// catalog asks for the same destinations on every ranking pass.
type DirectionsClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client

	mu    sync.RWMutex
	cache map[string]Cost
}

// NewDirectionsClient creates a directions client. baseURL is the
// profile root, e.g. "https://api.mapbox.com/directions/v5/mapbox".
func NewDirectionsClient(baseURL, accessToken string, timeout time.Duration) *DirectionsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DirectionsClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       make(map[string]Cost),
	}
}

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns the driving cost from origin to dest.
func (c *DirectionsClient) Route(ctx context.Context, origin, dest Point) (Cost, error) {
	if c.accessToken == "" {
		return Cost{}, fmt.Errorf("directions access token not configured")
	}

	cacheKey := fmt.Sprintf("%.4f,%.4f|%.4f,%.4f", origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	c.mu.RLock()
	if cost, ok := c.cache[cacheKey]; ok {
		c.mu.RUnlock()
		return cost, nil
	}
	c.mu.RUnlock()

	// Directions APIs take longitude first.
	apiURL := fmt.Sprintf(
		"%s/driving/%f,%f;%f,%f?overview=false&access_token=%s",
		c.baseURL,
		origin.Lng, origin.Lat,
		dest.Lng, dest.Lat,
		url.QueryEscape(c.accessToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Cost{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Cost{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Cost{}, fmt.Errorf("directions api status %d", resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Cost{}, fmt.Errorf("decode response: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Cost{}, fmt.Errorf("no route found (code=%s)", body.Code)
	}

	cost := Cost{
		DistanceMeters:  body.Routes[0].Distance,
		DurationSeconds: body.Routes[0].Duration,
	}

	c.mu.Lock()
	c.cache[cacheKey] = cost
	c.mu.Unlock()

	return cost, nil
}
