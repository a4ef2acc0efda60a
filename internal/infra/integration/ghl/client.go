package ghl

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

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://services.leadconnectorhq.com"
	apiVersion     = "2021-07-28"

	contactSource = "saintvisionai_platform"
)

var ErrNotConfigured = errors.New("ghl: API key not configured")

// APIError is a non-2xx answer from the CRM API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GHL API Error: %d - %s", e.Status, e.Body)
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a CRM API client that issues at most rps requests per second.
func NewClient(apiKey, baseURL string, rps float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *Client) CreateLocation(ctx context.Context, input CreateLocationInput) (*Location, error) {
	if input.Country == "" {
		input.Country = "US"
	}
	if input.Timezone == "" {
		input.Timezone = "America/New_York"
	}
	body := createLocationRequest{
		CreateLocationInput: input,
		Settings: locationSettings{
			AllowFacebookNameMerge: true,
		},
	}

	var out struct {
		Location
		Nested *Location `json:"location"`
	}
	if err := c.do(ctx, http.MethodPost, "/locations/", "", body, &out); err != nil {
		return nil, fmt.Errorf("create location %q: %w", input.Name, err)
	}

	loc := out.Location
	if loc.ID == "" && out.Nested != nil {
		loc = *out.Nested
	}
	if loc.ID == "" {
		return nil, fmt.Errorf("create location %q: response carried no id", input.Name)
	}
	return &loc, nil
}

func (c *Client) CreateContact(ctx context.Context, locationID string, input CreateContactInput) (*Contact, error) {
	if input.Source == "" {
		input.Source = contactSource
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}
	body := createContactRequest{
		CreateContactInput: input,
		LocationID:         locationID,
		CustomFields: map[string]string{
			"platform_source": "SaintVisionAI Dual-AI Platform",
			"created_via":     "AI Assistant",
		},
	}

	var out struct {
		Contact Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts/", locationID, body, &out); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &out.Contact, nil
}

func (c *Client) GetContact(ctx context.Context, locationID, contactID string) (*Contact, error) {
	var out struct {
		Contact Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(contactID), locationID, nil, &out); err != nil {
		return nil, fmt.Errorf("get contact %s: %w", contactID, err)
	}
	return &out.Contact, nil
}

// ListContacts returns the first page (up to 100) of a location's contacts.
func (c *Client) ListContacts(ctx context.Context, locationID string) ([]Contact, error) {
	q := url.Values{}
	q.Set("locationId", locationID)
	q.Set("limit", "100")

	var out struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts/?"+q.Encode(), locationID, nil, &out); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out.Contacts, nil
}

func (c *Client) CreateOpportunity(ctx context.Context, locationID string, input CreateOpportunityInput) (*Opportunity, error) {
	body := createOpportunityRequest{
		CreateOpportunityInput: input,
		LocationID:             locationID,
		Status:                 "open",
		Source:                 contactSource,
	}

	var out struct {
		Opportunity Opportunity `json:"opportunity"`
	}
	if err := c.do(ctx, http.MethodPost, "/opportunities/", locationID, body, &out); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	return &out.Opportunity, nil
}

func (c *Client) SearchOpportunities(ctx context.Context, locationID string) ([]Opportunity, error) {
	q := url.Values{}
	q.Set("location_id", locationID)
	q.Set("limit", "100")

	var out struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if err := c.do(ctx, http.MethodGet, "/opportunities/search?"+q.Encode(), locationID, nil, &out); err != nil {
		return nil, fmt.Errorf("search opportunities: %w", err)
	}
	return out.Opportunities, nil
}

func (c *Client) do(ctx context.Context, method, path, locationID string, body, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req, locationID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) addAuthHeaders(req *http.Request, locationID string) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Version", apiVersion)
	if locationID != "" {
		req.Header.Set("Location-Id", locationID)
	}
}
