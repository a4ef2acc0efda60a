package ghl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, 1000)
}

func TestCreateLocation(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/locations/", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Version"))
		assert.Empty(t, r.Header.Get("Location-Id"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"loc_1","name":"Acme"}`))
	})

	loc, err := c.CreateLocation(context.Background(), CreateLocationInput{Name: "Acme", Timezone: "America/Los_Angeles"})
	require.NoError(t, err)
	assert.Equal(t, "loc_1", loc.ID)
	assert.Equal(t, "Acme", got["name"])
	assert.Equal(t, "US", got["country"])
	assert.Equal(t, "America/Los_Angeles", got["timezone"])
	assert.Contains(t, got, "settings")
}

func TestCreateLocation_NestedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"location":{"id":"loc_2","name":"Nested"}}`))
	})

	loc, err := c.CreateLocation(context.Background(), CreateLocationInput{Name: "Nested"})
	require.NoError(t, err)
	assert.Equal(t, "loc_2", loc.ID)
}

func TestCreateContact_SendsLocationHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "loc_9", r.Header.Get("Location-Id"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "loc_9", body["locationId"])
		assert.Equal(t, contactSource, body["source"])
		_, _ = w.Write([]byte(`{"contact":{"id":"c_1","firstName":"Ada"}}`))
	})

	ct, err := c.CreateContact(context.Background(), "loc_9", CreateContactInput{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "c_1", ct.ID)
	assert.Equal(t, "Ada", ct.FirstName)
}

func TestListContacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/", r.URL.Path)
		assert.Equal(t, "loc_1", r.URL.Query().Get("locationId"))
		_, _ = w.Write([]byte(`{"contacts":[{"id":"c_1"},{"id":"c_2"}]}`))
	})

	contacts, err := c.ListContacts(context.Background(), "loc_1")
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad"}`))
	})

	_, err := c.SearchOpportunities(context.Background(), "loc_1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, err.Error(), "GHL API Error: 422")
}

func TestClientWithoutKey(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", 1)
	_, err := c.ListContacts(context.Background(), "loc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWebhookEnvelopeObject(t *testing.T) {
	raw := []byte(`{"type":"ContactCreate","locationId":"loc","id":"c_1"}`)
	var env WebhookEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, string(raw), string(env.Object(raw)))

	raw = []byte(`{"type":"contact.created","locationId":"loc","data":{"id":"c_2"}}`)
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, `{"id":"c_2"}`, string(env.Object(raw)))
}

func TestGetContact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/contacts/c_7", r.URL.Path)
		assert.Equal(t, "loc_1", r.Header.Get("Location-Id"))
		_, _ = w.Write([]byte(`{"contact":{"id":"c_7","email":"ada@example.com"}}`))
	})

	ct, err := c.GetContact(context.Background(), "loc_1", "c_7")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ct.Email)
}
