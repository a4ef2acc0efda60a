// Package supabase talks to the Supabase Auth admin API, where account profiles live
// as user metadata.
package supabase

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

	"github.com/saintvisionai/platform-api/internal/entity"
)

var ErrNotConfigured = errors.New("supabase: URL or service role key not configured")

type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

type adminUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	FirstName    string `json:"first_name"`
	BusinessName string `json:"business_name"`
	CompanyName  string `json:"company_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Website      string `json:"website"`
	Timezone     string `json:"timezone"`
	Plan         string `json:"plan"`
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error) {
	var u adminUser
	if err := c.do(ctx, http.MethodGet, userID, nil, &u); err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	md := u.UserMetadata
	profile := &entity.AccountProfile{
		UserID:       u.ID,
		Email:        u.Email,
		FirstName:    md.FirstName,
		BusinessName: md.BusinessName,
		CompanyName:  md.CompanyName,
		Address:      md.Address,
		City:         md.City,
		State:        md.State,
		Website:      md.Website,
		Timezone:     md.Timezone,
	}
	if tier, err := entity.ParseTier(md.Plan); err == nil {
		profile.Plan = tier
	}
	return profile, nil
}

// UpdateMetadata merges patch into the user's metadata.
func (c *Client) UpdateMetadata(ctx context.Context, userID string, patch map[string]any) error {
	body := map[string]any{"user_metadata": patch}
	if err := c.do(ctx, http.MethodPut, userID, body, nil); err != nil {
		return fmt.Errorf("update user %s metadata: %w", userID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, userID string, body, out any) error {
	if c.baseURL == "" || c.serviceKey == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + "/auth/v1/admin/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entity.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("auth admin api status %d: %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
