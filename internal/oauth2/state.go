package oauth2

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateState creates a random state value for CSRF protection
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
