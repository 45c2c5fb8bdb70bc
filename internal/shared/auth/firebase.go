package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// firebaseVerifier delegates ID token checks to the Firebase Admin SDK.
type firebaseVerifier struct {
	client *fbauth.Client
}

func newFirebaseVerifier(ctx context.Context, cfg Config) (Verifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required for firebase verification")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) Verify(ctx context.Context, token string) (AuthenticatedUser, error) {
	verified, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}

	email, _ := verified.Claims["email"].(string)

	return AuthenticatedUser{
		UserID:    verified.UID,
		Email:     email,
		ExpiresAt: verified.Expires,
		Token:     token,
	}, nil
}
