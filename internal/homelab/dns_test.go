package homelab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDNSClient(handler http.Handler) (*DNSClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewDNSClient("test-token")
	client.BaseURL = srv.URL
	return client, srv
}

func envelope(result any) []byte {
	b, _ := json.Marshal(map[string]any{
		"success": true,
		"errors":  []any{},
		"result":  result,
	})
	return b
}

func TestZoneID(t *testing.T) {
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zones", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("name"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write(envelope([]map[string]string{{"id": "zone-1", "name": "example.com"}}))
	}))
	defer srv.Close()

	id, err := client.ZoneID(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "zone-1", id)
}

func TestZoneIDNotFound(t *testing.T) {
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope([]any{}))
	}))
	defer srv.Close()

	_, err := client.ZoneID(context.Background(), "missing.com")
	assert.ErrorContains(t, err, "no cloudflare zone found")
}

func TestAPIErrorSurfaced(t *testing.T) {
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 9109, "message": "Invalid access token"}},
		})
	}))
	defer srv.Close()

	_, err := client.ZoneID(context.Background(), "example.com")
	assert.ErrorContains(t, err, "Invalid access token")
	assert.ErrorContains(t, err, "9109")
}

func TestUpsertRecordCreates(t *testing.T) {
	var createdBody DNSRecord
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write(envelope([]any{}))
		case r.Method == http.MethodPost:
			assert.Equal(t, "/zones/zone-1/dns_records", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createdBody))
			created := createdBody
			created.ID = "rec-1"
			w.Write(envelope(created))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	rec := DNSRecord{Type: "A", Name: "app.example.com", Content: "203.0.113.7", TTL: 300}
	out, err := client.UpsertRecord(context.Background(), "zone-1", rec)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", out.ID)
	assert.Equal(t, "203.0.113.7", createdBody.Content)
}

func TestUpsertRecordUpdatesExisting(t *testing.T) {
	var putPath string
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(envelope([]DNSRecord{
				{ID: "rec-9", Type: "A", Name: "app.example.com", Content: "198.51.100.1"},
			}))
		case http.MethodPut:
			putPath = r.URL.Path
			var rec DNSRecord
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			rec.ID = "rec-9"
			w.Write(envelope(rec))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	rec := DNSRecord{Type: "A", Name: "app.example.com", Content: "203.0.113.7", TTL: 300}
	out, err := client.UpsertRecord(context.Background(), "zone-1", rec)
	require.NoError(t, err)
	assert.Equal(t, "rec-9", out.ID)
	assert.Equal(t, "/zones/zone-1/dns_records/rec-9", putPath)
}

func TestValidateRecord(t *testing.T) {
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope([]DNSRecord{
			{ID: "rec-1", Type: "A", Name: "app.example.com", Content: "203.0.113.7"},
		}))
	}))
	defer srv.Close()

	ctx := context.Background()
	assert.NoError(t, client.ValidateRecord(ctx, "zone-1", "app.example.com", ""))
	assert.NoError(t, client.ValidateRecord(ctx, "zone-1", "app.example.com", "203.0.113.7"))

	err := client.ValidateRecord(ctx, "zone-1", "app.example.com", "198.51.100.9")
	assert.ErrorContains(t, err, "expected 198.51.100.9")
}

func TestValidateRecordMissing(t *testing.T) {
	client, srv := newTestDNSClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope([]any{}))
	}))
	defer srv.Close()

	err := client.ValidateRecord(context.Background(), "zone-1", "gone.example.com", "")
	assert.ErrorContains(t, err, "no dns record found")
}

func TestFQDN(t *testing.T) {
	assert.Equal(t, "example.com", FQDN("", "example.com"))
	assert.Equal(t, "example.com", FQDN("@", "example.com"))
	assert.Equal(t, "example.com", FQDN("example.com", "example.com"))
	assert.Equal(t, "app.example.com", FQDN("app", "example.com"))
	assert.Equal(t, "app.example.com", FQDN("app.example.com", "example.com"))
}
