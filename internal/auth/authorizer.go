// Package auth defines the bearer-token boundary between the HTTP layer and
// the core. Handlers never see raw keys beyond extraction; an Authorizer
// resolves a key to the owning user.
package auth

import "context"

// Principal identifies the authenticated caller.
type Principal struct {
	UserID  string `json:"user_id"`
	KeyName string `json:"key_name"`
	Admin   bool   `json:"admin"`
}

// Authorizer validates an API key and resolves it to a principal in one call.
type Authorizer interface {
	// Authorize returns the principal owning apiKey, or an error when the key
	// is unknown or not allowed to perform the operation.
	Authorize(ctx context.Context, apiKey, operation string) (*Principal, error)
}
