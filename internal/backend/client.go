// Package backend is a thin client for the receipts REST API. It returns raw
// decoded payloads; callers feed them to the normalize package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/session"
)

// Client talks to the backend API under BaseURL.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	Credentials session.CredentialAccessor
}

// New creates a client with its own cookie jar so that session cookies set by
// the backend are sent back on later calls. A zero timeout means no client timeout.
func New(baseURL string, timeout time.Duration, creds session.CredentialAccessor) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{Jar: jar, Timeout: timeout},
		Credentials: creds,
	}
}

// Login exchanges a username and password for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("Login: %w", err)
	}
	token := tokenFrom(payload)
	if token == "" {
		return "", fmt.Errorf("Login: %w", failure.Shape("Login response did not include a token", nil))
	}
	return token, nil
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (any, error) {
	return c.do(ctx, http.MethodGet, "/users/me", nil)
}

// UpdateMe applies a partial profile update and returns the updated profile.
func (c *Client) UpdateMe(ctx context.Context, patch map[string]any) (any, error) {
	return c.do(ctx, http.MethodPut, "/users/me", patch)
}

// ListReceipts fetches every receipt of the current user.
func (c *Client) ListReceipts(ctx context.Context) (any, error) {
	return c.do(ctx, http.MethodGet, "/receipts", nil)
}

// RecentReceipts fetches the newest limit receipts.
func (c *Client) RecentReceipts(ctx context.Context, limit int) (any, error) {
	return c.do(ctx, http.MethodGet, "/receipts?limit="+strconv.Itoa(limit), nil)
}

// GetReceipt fetches one receipt with its line items.
func (c *Client) GetReceipt(ctx context.Context, id string) (any, error) {
	return c.do(ctx, http.MethodGet, receiptPath(id), nil)
}

// UpdateReceipt replaces a receipt and returns the server's copy.
func (c *Client) UpdateReceipt(ctx context.Context, id string, body any) (any, error) {
	return c.do(ctx, http.MethodPut, receiptPath(id), body)
}

// DeleteReceipt deletes one receipt.
func (c *Client) DeleteReceipt(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, receiptPath(id), nil)
	return err
}

// BulkDeleteReceipts deletes several receipts in one call.
func (c *Client) BulkDeleteReceipts(ctx context.Context, ids []int64) error {
	_, err := c.do(ctx, http.MethodPost, "/receipts/bulk-delete", map[string][]int64{"ids": ids})
	return err
}

// MonthlyStats fetches total spent and receipt count for the current month.
func (c *Client) MonthlyStats(ctx context.Context) (any, error) {
	return c.do(ctx, http.MethodGet, "/stats/monthly", nil)
}

// CategoryStats fetches spending broken down by category.
func (c *Client) CategoryStats(ctx context.Context) (any, error) {
	return c.do(ctx, http.MethodGet, "/stats/categories", nil)
}

// ParseReceipt asks the backend to parse a stored image into a receipt.
func (c *Client) ParseReceipt(ctx context.Context, imageID, objectKey string) (any, error) {
	return c.do(ctx, http.MethodPost, "/receipts/parse", map[string]string{
		"imageId":   imageID,
		"objectKey": objectKey,
	})
}

// ImageURL resolves an image id to a short-lived read URL.
func (c *Client) ImageURL(ctx context.Context, imageID string) (string, error) {
	payload, err := c.do(ctx, http.MethodGet, "/images/"+url.PathEscape(imageID)+"/presign", nil)
	if err != nil {
		return "", fmt.Errorf("ImageURL: %w", err)
	}
	u := stringAt(payload, "url")
	if u == "" {
		u = stringAt(stringMap(payload)["data"], "url")
	}
	if u == "" {
		return "", fmt.Errorf("ImageURL: %w", failure.Shape("Image link is unavailable", nil))
	}
	return u, nil
}

func receiptPath(id string) string {
	return "/receipts/" + url.PathEscape(id)
}

// do performs one JSON round trip. An empty success body yields a nil payload.
func (c *Client) do(ctx context.Context, method, path string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := session.AuthHeader(c.Credentials); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, failure.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure.Status(resp.StatusCode, failure.MessageFromBody(data))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return Decode(data)
}

// Decode parses a JSON body keeping numbers as json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, failure.Shape("Unexpected response from server", err)
	}
	return payload, nil
}

func tokenFrom(payload any) string {
	for _, key := range []string{"token", "accessToken", "access_token"} {
		if s := stringAt(payload, key); s != "" {
			return s
		}
	}
	return stringAt(stringMap(payload)["data"], "token")
}

func stringMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringAt(v any, key string) string {
	s, _ := stringMap(v)[key].(string)
	return strings.TrimSpace(s)
}
