package oauth2

import "errors"

var (
	ErrProviderNotFound = errors.New("provider not registered")
	ErrStateMismatch    = errors.New("oauth state mismatch")
	ErrEmailUnverified  = errors.New("provider email is not verified")
)
