// Package common contains shared constants, sentinel errors and small
// helpers used across Bellwether components.
package common

// AccessTokenHeaderName is the default header, metadata key and cookie name
// carrying the access token. Deployments may override it via JwtOptions.TokenName.
const AccessTokenHeaderName = "access_token"

// DefaultTokenPath is the default route of the token endpoint.
const DefaultTokenPath = "/api/token"

// MinSecretKeyLength is the minimum accepted length, in bytes, of the HMAC
// signing secret.
const MinSecretKeyLength = 32
