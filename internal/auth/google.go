package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrInvalidGoogleToken = errors.New("invalid Google token")

// GoogleClaims is the identity extracted from a verified Google ID token.
type GoogleClaims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// TokenVerifier verifies a third-party identity token and extracts the
// claims this service cares about.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleClaims, error)
}

// GoogleVerifier validates Google ID tokens (signature and audience)
// against Google's published keys.
type GoogleVerifier struct {
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		audience: clientID,
		validate: idtoken.Validate,
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleClaims, error) {
	payload, err := v.validate(ctx, rawToken, v.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidGoogleToken, payload.Issuer)
	}

	claims := &GoogleClaims{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = email
	}
	if givenName, ok := payload.Claims["given_name"].(string); ok {
		claims.FirstName = givenName
	}
	if familyName, ok := payload.Claims["family_name"].(string); ok {
		claims.LastName = familyName
	}

	// An ID token without an email is useless here: the account key is the email.
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrInvalidGoogleToken)
	}

	return claims, nil
}
