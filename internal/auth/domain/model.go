// Package domain contains core types for bearer token authentication.
package domain

import "time"

// Claims is what the API trusts from a verified token. Subject is the user id
// issued by the hosted auth provider.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Verifier validates raw bearer tokens.
type Verifier interface {
	Verify(rawToken string) (Claims, error)
}
