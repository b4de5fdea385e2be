package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubClient struct{ base string }

func (s stubClient) Upload(context.Context, string, string, io.Reader) error { return nil }
func (s stubClient) Delete(context.Context, string) error                    { return nil }
func (s stubClient) PublicURL(key string) string                             { return s.base + key }

func TestObjectKey(t *testing.T) {
	tests := []struct {
		filename string
		suffix   string
	}{
		{"cabin-001.jpg", "-cabin-001.jpg"},
		{"My Cabin Photo.PNG", "-my-cabin-photo.png"},
		{"../../etc/passwd", "-passwd"},
		{`C:\Users\me\view.webp`, "-view.webp"},
		{"...", "-image"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			key := ObjectKey(tt.filename)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.NotContains(t, key, "/")
			assert.Len(t, strings.SplitN(key, "-", 6)[0], 8)
		})
	}

	assert.NotEqual(t, ObjectKey("a.jpg"), ObjectKey("a.jpg"))
}

func TestKeyFromURL(t *testing.T) {
	client := stubClient{base: "https://x.supabase.co/storage/v1/object/public/cabin-images/"}

	assert.Equal(t, "abc-cabin.jpg", KeyFromURL(client, "https://x.supabase.co/storage/v1/object/public/cabin-images/abc-cabin.jpg"))
	assert.Equal(t, "", KeyFromURL(client, "https://elsewhere.example/cabin.jpg"))
	assert.Equal(t, "", KeyFromURL(client, ""))
	assert.Equal(t, "", KeyFromURL(client, "https://x.supabase.co/storage/v1/object/public/cabin-images/"))
	assert.Equal(t, "", KeyFromURL(client, "https://x.supabase.co/storage/v1/object/public/cabin-images/../secrets"))
	assert.Equal(t, "", KeyFromURL(client, "https://x.supabase.co/storage/v1/object/public/cabin-images/a.jpg?v=2"))
}
