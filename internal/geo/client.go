package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Coordinates is a geocoding result.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver resolves free-text addresses to coordinates. Failures mean
// "coordinates unknown", never a blocked report.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*Coordinates, error)
}

// Client calls an external geocoding service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a geocoding client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Resolve looks an address up. Callers treat any error as "coordinates
// unknown" and fall back to role-only candidate filtering.
func (c *Client) Resolve(ctx context.Context, address string) (*Coordinates, error) {
	if address == "" {
		return nil, fmt.Errorf("empty address")
	}

	u := fmt.Sprintf("%s/geocode?q=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode returned %d", resp.StatusCode)
	}

	var coords Coordinates
	if err := json.NewDecoder(resp.Body).Decode(&coords); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	return &coords, nil
}
