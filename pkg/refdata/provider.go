package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// envelope is the geography service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// HTTPProvider fetches geography reference data from the hosted
// geography service.
type HTTPProvider struct {
	client *resty.Client
}

// NewHTTPProvider creates a geography client for the given base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &HTTPProvider{client: client}
}

// Countries fetches the active country list.
func (p *HTTPProvider) Countries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := p.get(ctx, "/api/v1/geography/countries", nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Regions fetches the active regions for a country.
func (p *HTTPProvider) Regions(ctx context.Context, countryID string) ([]Region, error) {
	params := map[string]string{}
	if countryID != "" {
		params["country_id"] = countryID
	}
	var regions []Region
	if err := p.get(ctx, "/api/v1/geography/regions", params, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// Hospitals fetches the active hospitals for a region, or every active
// hospital when regionID is empty.
func (p *HTTPProvider) Hospitals(ctx context.Context, regionID string) ([]Hospital, error) {
	params := map[string]string{}
	if regionID != "" {
		params["region_id"] = regionID
	}
	var hospitals []Hospital
	if err := p.get(ctx, "/api/v1/geography/hospitals", params, &hospitals); err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (p *HTTPProvider) get(ctx context.Context, path string, params map[string]string, dest interface{}) error {
	var env envelope
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&env).
		Get(path)
	if err != nil {
		return fmt.Errorf("geography request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("geography service returned %s", resp.Status())
	}
	if !env.Success {
		return fmt.Errorf("geography service error: %s", env.Error)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("failed to decode geography payload: %w", err)
	}
	return nil
}
