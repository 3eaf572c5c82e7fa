// Package common contains shared constants and sentinel errors used across
// userkeeper components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the token type returned by login and expected in the
	// Authorization header.
	BearerScheme = "Bearer"
)
