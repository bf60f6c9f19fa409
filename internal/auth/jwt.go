package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// DefaultTokenTTL is how long issued tokens stay valid
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken marks a credential that could not be verified
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer credential into an actor
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Actor, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens signed with a shared secret
type JWTVerifier struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTVerifier creates a verifier. ttl <= 0 uses DefaultTokenTTL.
func NewJWTVerifier(secret string, ttl time.Duration) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTVerifier{secret: []byte(secret), ttl: ttl}, nil
}

// GenerateToken signs a token for actor
func (v *JWTVerifier) GenerateToken(actor models.Actor) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: actor.UserID,
		Name:   actor.Name,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the actor it names
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*models.Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: no user id", ErrInvalidToken)
	}

	return &models.Actor{
		UserID: userID,
		Name:   claims.Name,
		Role:   normalizeRole(claims.Role),
	}, nil
}

func normalizeRole(role string) models.Role {
	if models.Role(role) == models.RoleAdmin || role == "admin" {
		return models.RoleAdmin
	}
	return models.RoleUser
}
