package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
)

// firebaseUser accepts a Firebase ID token as bearer credential for users
// that signed in through Firebase before.
func firebaseUser(ctx context.Context, client *auth.Client, users repositories.UserRepository, idToken string) (*models.User, error) {
	token, err := client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify firebase id token: %w", err)
	}
	return users.GetUserByFirebaseUID(ctx, token.UID)
}
