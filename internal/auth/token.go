package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrNoToken is returned when a request carries no credential.
	ErrNoToken = errors.New("no token, authorization denied")
	// ErrInvalidToken covers malformed, tampered and expired tokens.
	ErrInvalidToken = errors.New("token is not valid")
)

const minSecretLength = 16

// TokenService issues and verifies bearer tokens carrying a user id.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService returns an HS256 TokenService.
func NewJWTService(secret string, ttl time.Duration) (TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &jwtService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *jwtService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issue token: user id is required")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) Verify(raw string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return "", fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return c.UserID, nil
}
