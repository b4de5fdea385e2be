package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")

// Client defines the interface for the object store holding cabin images
type Client interface {
	// Upload writes content under key and overwrites any existing object
	Upload(ctx context.Context, key, contentType string, content io.Reader) error

	// Delete removes an object. Deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL browsers use to fetch the object
	PublicURL(key string) string
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// ObjectKey builds a collision-free key "<uuid>-<sanitized filename>".
// Slashes are stripped so a key never escapes its bucket or directory.
func ObjectKey(filename string) string {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	name = unsafeKeyChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "image"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return uuid.NewString() + "-" + name
}

// KeyFromURL recovers the object key from a public URL produced by client.
// Returns "" when the URL does not belong to the store or names a nested path.
func KeyFromURL(client Client, url string) string {
	prefix := client.PublicURL("")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return ""
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || key == ".." || strings.ContainsAny(key, "/\\?#") {
		return ""
	}
	return key
}
