package homelab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const cloudflareAPIBase = "https://api.cloudflare.com/client/v4"

// DNSClient wraps the Cloudflare v4 REST API for zone lookup and DNS
// record management. Zone and record IDs are resolved per call and never
// cached.
type DNSClient struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

func NewDNSClient(token string) *DNSClient {
	return &DNSClient{
		Token:   token,
		BaseURL: cloudflareAPIBase,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type DNSRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

func (c *DNSClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode cloudflare response (%s): %w", resp.Status, err)
	}
	if !envelope.Success {
		if len(envelope.Errors) > 0 {
			return fmt.Errorf("cloudflare api: %s (code %d)",
				envelope.Errors[0].Message, envelope.Errors[0].Code)
		}
		return fmt.Errorf("cloudflare api: request failed (%s)", resp.Status)
	}
	if out != nil {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}

// ZoneID looks up the zone for the given apex domain.
func (c *DNSClient) ZoneID(ctx context.Context, domain string) (string, error) {
	var zones []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	path := "/zones?name=" + url.QueryEscape(domain)
	if err := c.do(ctx, http.MethodGet, path, nil, &zones); err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return "", fmt.Errorf("no cloudflare zone found for %s", domain)
	}
	return zones[0].ID, nil
}

func (c *DNSClient) ListRecords(ctx context.Context, zoneID, name string) ([]DNSRecord, error) {
	path := "/zones/" + zoneID + "/dns_records"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	var records []DNSRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertRecord creates the record, or updates the existing one matched by
// type and name. It returns the resulting record.
func (c *DNSClient) UpsertRecord(ctx context.Context, zoneID string, rec DNSRecord) (DNSRecord, error) {
	existing, err := c.ListRecords(ctx, zoneID, rec.Name)
	if err != nil {
		return DNSRecord{}, err
	}

	var out DNSRecord
	for _, e := range existing {
		if e.Type == rec.Type && e.Name == rec.Name {
			path := "/zones/" + zoneID + "/dns_records/" + e.ID
			if err := c.do(ctx, http.MethodPut, path, rec, &out); err != nil {
				return DNSRecord{}, err
			}
			return out, nil
		}
	}

	path := "/zones/" + zoneID + "/dns_records"
	if err := c.do(ctx, http.MethodPost, path, rec, &out); err != nil {
		return DNSRecord{}, err
	}
	return out, nil
}

func (c *DNSClient) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	path := "/zones/" + zoneID + "/dns_records/" + recordID
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ValidateRecord checks that a record exists and points at the expected
// content. An empty expected value only checks existence.
func (c *DNSClient) ValidateRecord(ctx context.Context, zoneID, name, expected string) error {
	records, err := c.ListRecords(ctx, zoneID, name)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no dns record found for %s", name)
	}
	if expected == "" {
		return nil
	}
	for _, r := range records {
		if r.Content == expected {
			return nil
		}
	}
	var got []string
	for _, r := range records {
		got = append(got, r.Content)
	}
	return fmt.Errorf("record %s points at %s, expected %s",
		name, strings.Join(got, ", "), expected)
}

// FQDN joins a subdomain with the apex domain; passing the apex itself or
// a fully qualified name returns it unchanged.
func FQDN(name, domain string) string {
	if name == "" || name == "@" || name == domain {
		return domain
	}
	if strings.HasSuffix(name, "."+domain) {
		return name
	}
	return name + "." + domain
}
