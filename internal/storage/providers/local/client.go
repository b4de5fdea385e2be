// Package local stores cabin images on disk. The HTTP router serves the
// directory under URLPrefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wildoasis/booking/internal/storage"
)

// URLPrefix is the path the router mounts the uploads directory on.
const URLPrefix = "/uploads/"

// Client implements storage.Client on the local filesystem
type Client struct {
	dir string
}

// NewClient creates the uploads directory if needed.
func NewClient(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Client{dir: dir}, nil
}

var _ storage.Client = (*Client)(nil)

// Dir returns the directory holding uploaded files.
func (c *Client) Dir() string {
	return c.dir
}

func (c *Client) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(c.dir, key), nil
}

func (c *Client) Upload(ctx context.Context, key, contentType string, content io.Reader) error {
	dst, err := c.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return URLPrefix + key
}
