package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// idTokenVerifier is the slice of the Firebase auth client we depend on
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier validates Firebase ID tokens. Admins are marked with an
// "admin": true custom claim or a "role": "ADMIN" claim.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier creates a verifier from an initialized Firebase app
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Actor, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return actorFromFirebase(token), nil
}

func actorFromFirebase(token *fbauth.Token) *models.Actor {
	actor := &models.Actor{UserID: token.UID, Role: models.RoleUser}

	if name, ok := token.Claims["name"].(string); ok {
		actor.Name = name
	} else if email, ok := token.Claims["email"].(string); ok {
		actor.Name = email
	}

	if admin, ok := token.Claims["admin"].(bool); ok && admin {
		actor.Role = models.RoleAdmin
	}
	if role, ok := token.Claims["role"].(string); ok {
		if normalizeRole(role) == models.RoleAdmin {
			actor.Role = models.RoleAdmin
		}
	}
	return actor
}
