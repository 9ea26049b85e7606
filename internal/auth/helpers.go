package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingAuthHeader = errors.New("missing Authorization header")
	ErrMalformedHeader   = errors.New("invalid Authorization header format, expected 'Bearer <api_key>'")
)

// ExtractAPIKey pulls the bearer key out of the Authorization header.
func ExtractAPIKey(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}
