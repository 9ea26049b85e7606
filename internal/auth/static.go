package auth

import (
	"context"
	"errors"
)

// LocalDevAPIKey is the hardcoded API key for local development only.
const LocalDevAPIKey = "sk_local_companion_dev_key"

// LocalDevUserID is the user every local-dev key resolves to.
const LocalDevUserID = "companion-dev"

// StaticAuthorizer recognizes a single fixed key and resolves it to a fixed
// user. Used for the local build target; never in production.
type StaticAuthorizer struct {
	key       string
	principal Principal
}

func NewStaticAuthorizer(key, userID string) *StaticAuthorizer {
	return &StaticAuthorizer{
		key:       key,
		principal: Principal{UserID: userID, KeyName: "Local Development Key", Admin: true},
	}
}

// NewLocalDevAuthorizer builds the authorizer for the local target.
func NewLocalDevAuthorizer() *StaticAuthorizer {
	return NewStaticAuthorizer(LocalDevAPIKey, LocalDevUserID)
}

func (a *StaticAuthorizer) Authorize(_ context.Context, apiKey, _ string) (*Principal, error) {
	if apiKey != a.key {
		return nil, errors.New("invalid API key")
	}
	p := a.principal
	return &p, nil
}
