// Package common contains shared constants, sentinel errors and small helpers
// used across gophauth components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the access token inside AuthorizationHeaderName.
const BearerScheme = "Bearer"

// TokenTypeBearer is reported as token_type in login responses.
const TokenTypeBearer = "bearer"
