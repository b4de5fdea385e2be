// Package supabase stores cabin images in a Supabase Storage bucket over its REST API.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wildoasis/booking/internal/storage"
)

// Client implements storage.Client for Supabase Storage
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

// NewClient creates a Supabase Storage client. projectURL is the project root,
// e.g. "https://abcd.supabase.co"; apiKey is a service-role key.
func NewClient(projectURL, apiKey, bucket string) *Client {
	return &Client{
		baseURL: strings.TrimRight(projectURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

var _ storage.Client = (*Client)(nil)

func (c *Client) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(key))
}

func (c *Client) Upload(ctx context.Context, key, contentType string, content io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(key), content)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("supabase storage error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("supabase storage error (status %d): %s", resp.StatusCode, string(body))
	}
}

func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, escapeKey(key))
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
