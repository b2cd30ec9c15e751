package auth

import (
	"context"
	"strings"
)

// Identity is the outcome of a successful authorization.
type Identity struct {
	UserID string
}

// Guard turns a raw request credential into an Identity.
type Guard struct {
	tokens TokenService
}

func NewGuard(tokens TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// Authorize verifies token. It never touches storage.
func (g *Guard) Authorize(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrNoToken
	}
	userID, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID}, nil
}

// BearerToken strips an optional "Bearer " scheme from an Authorization value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext extracts the authenticated user id from ctx.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
